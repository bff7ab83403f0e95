package classfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/ymtdzzz/jjvm/pkg/descriptor"
)

// Constant pool tags, per the JVM spec.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
)

// ConstantTag identifies the variant of a resolved ClassConstant.
type ConstantTag int

const (
	ConstUnused ConstantTag = iota
	ConstClass
	ConstFieldRef
	ConstMethodRef
	ConstInterfaceMethodRef
	ConstString
	ConstInteger
	ConstFloat
	ConstLong
	ConstDouble
	ConstMethodNameAndType
	ConstFieldNameAndType
	ConstUtf8
	ConstMethodType
	ConstDynamic
	ConstInvokeDynamic
	ConstMethodHandle // needed to resolve invokedynamic bootstrap refs
	ConstNotImplemented
)

// ClassConstant is a resolved constant-pool entry: indirect references
// (class_index, nameAndType_index, ...) have already been followed into
// value-bearing fields — downstream code never indexes by a raw
// nameAndType_index again.
type ClassConstant struct {
	Tag ConstantTag

	// ConstClass
	ClassName string

	// ConstFieldRef / ConstMethodRef / ConstInterfaceMethodRef
	Owner string
	Name  string
	Field descriptor.TypeSignature
	Desc  descriptor.MethodSignature

	// ConstString / ConstUtf8
	Str string

	// ConstInteger / ConstLong
	Int64 int64

	// ConstFloat / ConstDouble
	Float64 float64

	// ConstMethodType: Desc holds the parsed signature

	// ConstDynamic / ConstInvokeDynamic
	BootstrapMethodAttrIndex uint16

	// ConstMethodHandle
	ReferenceKind  uint8
	ReferenceIndex uint16
}

// rawEntry is the pre-resolution, index-based form of one pool slot.
type rawEntry struct {
	tag  uint8
	i1   uint16
	i2   uint16
	ival int32
	fval float32
	lval int64
	dval float64
	str  string // populated for tagUtf8
}

// parseConstantPool reads constant_pool_count-1 entries from r and returns
// the raw (unresolved) pool; slot 0 is always the zero value (tag 0,
// "Unused"). Long/Double constants occupy two slots; the companion slot is
// left as tag 0 as well.
func parseConstantPool(r io.Reader, count uint16) ([]rawEntry, error) {
	raw := make([]rawEntry, count)

	for i := uint16(1); i < count; i++ {
		var tag uint8
		if err := binary.Read(r, binary.BigEndian, &tag); err != nil {
			return nil, malformed(-1, "reading constant pool tag at index %d: %v", i, err)
		}

		switch tag {
		case tagUtf8:
			var length uint16
			if err := binary.Read(r, binary.BigEndian, &length); err != nil {
				return nil, malformed(-1, "reading Utf8 length at index %d: %v", i, err)
			}
			strBytes := make([]byte, length)
			if _, err := io.ReadFull(r, strBytes); err != nil {
				return nil, malformed(-1, "reading Utf8 bytes at index %d: %v", i, err)
			}
			raw[i] = rawEntry{tag: tag, str: string(strBytes)}

		case tagInteger:
			var v int32
			if err := binary.Read(r, binary.BigEndian, &v); err != nil {
				return nil, malformed(-1, "reading Integer at index %d: %v", i, err)
			}
			raw[i] = rawEntry{tag: tag, ival: v}

		case tagFloat:
			var bits uint32
			if err := binary.Read(r, binary.BigEndian, &bits); err != nil {
				return nil, malformed(-1, "reading Float at index %d: %v", i, err)
			}
			raw[i] = rawEntry{tag: tag, fval: math.Float32frombits(bits)}

		case tagLong:
			var v int64
			if err := binary.Read(r, binary.BigEndian, &v); err != nil {
				return nil, malformed(-1, "reading Long at index %d: %v", i, err)
			}
			raw[i] = rawEntry{tag: tag, lval: v}
			i++ // long occupies 2 slots

		case tagDouble:
			var bits uint64
			if err := binary.Read(r, binary.BigEndian, &bits); err != nil {
				return nil, malformed(-1, "reading Double at index %d: %v", i, err)
			}
			raw[i] = rawEntry{tag: tag, dval: math.Float64frombits(bits)}
			i++ // double occupies 2 slots

		case tagClass:
			var nameIndex uint16
			if err := binary.Read(r, binary.BigEndian, &nameIndex); err != nil {
				return nil, malformed(-1, "reading Class at index %d: %v", i, err)
			}
			raw[i] = rawEntry{tag: tag, i1: nameIndex}

		case tagString:
			var stringIndex uint16
			if err := binary.Read(r, binary.BigEndian, &stringIndex); err != nil {
				return nil, malformed(-1, "reading String at index %d: %v", i, err)
			}
			raw[i] = rawEntry{tag: tag, i1: stringIndex}

		case tagFieldref, tagMethodref, tagInterfaceMethodref:
			var classIndex, natIndex uint16
			if err := binary.Read(r, binary.BigEndian, &classIndex); err != nil {
				return nil, malformed(-1, "reading ref class_index at index %d: %v", i, err)
			}
			if err := binary.Read(r, binary.BigEndian, &natIndex); err != nil {
				return nil, malformed(-1, "reading ref name_and_type_index at index %d: %v", i, err)
			}
			raw[i] = rawEntry{tag: tag, i1: classIndex, i2: natIndex}

		case tagNameAndType:
			var nameIndex, descIndex uint16
			if err := binary.Read(r, binary.BigEndian, &nameIndex); err != nil {
				return nil, malformed(-1, "reading NameAndType name_index at index %d: %v", i, err)
			}
			if err := binary.Read(r, binary.BigEndian, &descIndex); err != nil {
				return nil, malformed(-1, "reading NameAndType descriptor_index at index %d: %v", i, err)
			}
			raw[i] = rawEntry{tag: tag, i1: nameIndex, i2: descIndex}

		case tagMethodHandle:
			var kind uint8
			var refIndex uint16
			if err := binary.Read(r, binary.BigEndian, &kind); err != nil {
				return nil, malformed(-1, "reading MethodHandle reference_kind at index %d: %v", i, err)
			}
			if err := binary.Read(r, binary.BigEndian, &refIndex); err != nil {
				return nil, malformed(-1, "reading MethodHandle reference_index at index %d: %v", i, err)
			}
			raw[i] = rawEntry{tag: tag, i1: uint16(kind), i2: refIndex}

		case tagMethodType:
			var descIndex uint16
			if err := binary.Read(r, binary.BigEndian, &descIndex); err != nil {
				return nil, malformed(-1, "reading MethodType descriptor_index at index %d: %v", i, err)
			}
			raw[i] = rawEntry{tag: tag, i1: descIndex}

		case tagDynamic, tagInvokeDynamic:
			var bsmIndex, natIndex uint16
			if err := binary.Read(r, binary.BigEndian, &bsmIndex); err != nil {
				return nil, malformed(-1, "reading Dynamic bootstrap_method_attr_index at index %d: %v", i, err)
			}
			if err := binary.Read(r, binary.BigEndian, &natIndex); err != nil {
				return nil, malformed(-1, "reading Dynamic name_and_type_index at index %d: %v", i, err)
			}
			raw[i] = rawEntry{tag: tag, i1: bsmIndex, i2: natIndex}

		default:
			return nil, malformed(-1, "unknown constant pool tag %d at index %d", tag, i)
		}
	}

	return raw, nil
}

// resolveConstantPool turns the raw, index-based pool into the
// value-bearing ClassConstant variants.
func resolveConstantPool(raw []rawEntry) ([]ClassConstant, error) {
	pool := make([]ClassConstant, len(raw))

	utf8 := func(idx uint16) (string, error) {
		if int(idx) >= len(raw) || raw[idx].tag != tagUtf8 {
			return "", malformed(-1, "invalid Utf8 reference at index %d", idx)
		}
		return raw[idx].str, nil
	}

	nameAndType := func(idx uint16) (string, string, error) {
		if int(idx) >= len(raw) || raw[idx].tag != tagNameAndType {
			return "", "", malformed(-1, "invalid NameAndType reference at index %d", idx)
		}
		name, err := utf8(raw[idx].i1)
		if err != nil {
			return "", "", err
		}
		desc, err := utf8(raw[idx].i2)
		if err != nil {
			return "", "", err
		}
		return name, desc, nil
	}

	className := func(idx uint16) (string, error) {
		if int(idx) >= len(raw) || raw[idx].tag != tagClass {
			return "", malformed(-1, "invalid Class reference at index %d", idx)
		}
		return utf8(raw[idx].i1)
	}

	for i, e := range raw {
		switch e.tag {
		case 0:
			pool[i] = ClassConstant{Tag: ConstUnused}

		case tagUtf8:
			s, _ := utf8(uint16(i))
			pool[i] = ClassConstant{Tag: ConstUtf8, Str: s}

		case tagInteger:
			pool[i] = ClassConstant{Tag: ConstInteger, Int64: int64(e.ival)}

		case tagFloat:
			pool[i] = ClassConstant{Tag: ConstFloat, Float64: float64(e.fval)}

		case tagLong:
			pool[i] = ClassConstant{Tag: ConstLong, Int64: e.lval}

		case tagDouble:
			pool[i] = ClassConstant{Tag: ConstDouble, Float64: e.dval}

		case tagClass:
			name, err := utf8(e.i1)
			if err != nil {
				return nil, fmt.Errorf("resolving Class at index %d: %w", i, err)
			}
			pool[i] = ClassConstant{Tag: ConstClass, ClassName: name}

		case tagString:
			s, err := utf8(e.i1)
			if err != nil {
				return nil, fmt.Errorf("resolving String at index %d: %w", i, err)
			}
			pool[i] = ClassConstant{Tag: ConstString, Str: s}

		case tagFieldref:
			owner, err := className(e.i1)
			if err != nil {
				return nil, fmt.Errorf("resolving Fieldref class at index %d: %w", i, err)
			}
			name, desc, err := nameAndType(e.i2)
			if err != nil {
				return nil, fmt.Errorf("resolving Fieldref name_and_type at index %d: %w", i, err)
			}
			ts, err := descriptor.ParseType(desc)
			if err != nil {
				return nil, fmt.Errorf("resolving Fieldref descriptor at index %d: %w", i, err)
			}
			pool[i] = ClassConstant{Tag: ConstFieldRef, Owner: owner, Name: name, Field: ts}

		case tagMethodref, tagInterfaceMethodref:
			owner, err := className(e.i1)
			if err != nil {
				return nil, fmt.Errorf("resolving Methodref class at index %d: %w", i, err)
			}
			name, desc, err := nameAndType(e.i2)
			if err != nil {
				return nil, fmt.Errorf("resolving Methodref name_and_type at index %d: %w", i, err)
			}
			ms, err := descriptor.ParseMethod(desc)
			if err != nil {
				return nil, fmt.Errorf("resolving Methodref descriptor at index %d: %w", i, err)
			}
			tag := ConstMethodRef
			if e.tag == tagInterfaceMethodref {
				tag = ConstInterfaceMethodRef
			}
			pool[i] = ClassConstant{Tag: tag, Owner: owner, Name: name, Desc: ms}

		case tagNameAndType:
			name, desc, err := nameAndType(uint16(i))
			if err != nil {
				return nil, fmt.Errorf("resolving NameAndType at index %d: %w", i, err)
			}
			if ms, err := descriptor.ParseMethod(desc); err == nil {
				pool[i] = ClassConstant{Tag: ConstMethodNameAndType, Name: name, Desc: ms}
			} else if ts, err := descriptor.ParseType(desc); err == nil {
				pool[i] = ClassConstant{Tag: ConstFieldNameAndType, Name: name, Field: ts}
			} else {
				return nil, fmt.Errorf("resolving NameAndType descriptor at index %d: not a valid field or method descriptor", i)
			}

		case tagMethodHandle:
			pool[i] = ClassConstant{Tag: ConstMethodHandle, ReferenceKind: uint8(e.i1), ReferenceIndex: e.i2}

		case tagMethodType:
			desc, err := utf8(e.i1)
			if err != nil {
				return nil, fmt.Errorf("resolving MethodType at index %d: %w", i, err)
			}
			ms, err := descriptor.ParseMethod(desc)
			if err != nil {
				return nil, fmt.Errorf("resolving MethodType descriptor at index %d: %w", i, err)
			}
			pool[i] = ClassConstant{Tag: ConstMethodType, Desc: ms}

		case tagDynamic, tagInvokeDynamic:
			name, desc, err := nameAndType(e.i2)
			if err != nil {
				return nil, fmt.Errorf("resolving Dynamic name_and_type at index %d: %w", i, err)
			}
			ms, msErr := descriptor.ParseMethod(desc)
			tagOut := ConstDynamic
			if e.tag == tagInvokeDynamic {
				tagOut = ConstInvokeDynamic
			}
			cc := ClassConstant{Tag: tagOut, Name: name, BootstrapMethodAttrIndex: e.i1}
			if msErr == nil {
				cc.Desc = ms
			} else if ts, err := descriptor.ParseType(desc); err == nil {
				cc.Field = ts
			}
			pool[i] = cc

		default:
			pool[i] = ClassConstant{Tag: ConstNotImplemented}
		}
	}

	return pool, nil
}

// GetUtf8 returns the string content of a ConstUtf8/ConstString entry.
func GetUtf8(pool []ClassConstant, index uint16) (string, error) {
	if int(index) >= len(pool) {
		return "", fmt.Errorf("invalid constant pool index %d", index)
	}
	switch pool[index].Tag {
	case ConstUtf8, ConstString:
		return pool[index].Str, nil
	default:
		return "", fmt.Errorf("constant pool index %d is not Utf8/String", index)
	}
}

// GetClassName returns the class name of a ConstClass entry.
func GetClassName(pool []ClassConstant, index uint16) (string, error) {
	if int(index) >= len(pool) || pool[index].Tag != ConstClass {
		return "", fmt.Errorf("constant pool index %d is not Class", index)
	}
	return pool[index].ClassName, nil
}
