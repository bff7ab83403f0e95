package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/ymtdzzz/jjvm/pkg/descriptor"
)

const classMagic = 0xCAFEBABE

// ParseFile opens and parses a .class file from the given path.
func ParseFile(path string) (*ClassModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a .class file from r and returns its decoded form.
//
// The constant pool is resolved into value-bearing ClassConstant variants
// during this pass: nothing downstream ever chases a raw name_and_type or
// class_index again.
func Parse(r io.Reader) (*ClassModel, error) {
	cm := &ClassModel{}

	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, malformed(-1, "reading magic number: %v", err)
	}
	if magic != classMagic {
		return nil, malformed(-1, "invalid magic number 0x%X, expected 0xCAFEBABE", magic)
	}

	if err := binary.Read(r, binary.BigEndian, &cm.MinorVersion); err != nil {
		return nil, malformed(-1, "reading minor version: %v", err)
	}
	if err := binary.Read(r, binary.BigEndian, &cm.MajorVersion); err != nil {
		return nil, malformed(-1, "reading major version: %v", err)
	}

	var cpCount uint16
	if err := binary.Read(r, binary.BigEndian, &cpCount); err != nil {
		return nil, malformed(-1, "reading constant_pool_count: %v", err)
	}
	raw, err := parseConstantPool(r, cpCount)
	if err != nil {
		return nil, err
	}
	pool, err := resolveConstantPool(raw)
	if err != nil {
		return nil, fmt.Errorf("resolving constant pool: %w", err)
	}
	cm.ConstantPool = pool

	var accessFlags uint16
	if err := binary.Read(r, binary.BigEndian, &accessFlags); err != nil {
		return nil, malformed(-1, "reading access_flags: %v", err)
	}
	cm.AccessFlags = AccessFlags(accessFlags)

	var thisClassIdx, superClassIdx uint16
	if err := binary.Read(r, binary.BigEndian, &thisClassIdx); err != nil {
		return nil, malformed(-1, "reading this_class: %v", err)
	}
	cm.ThisClass, err = GetClassName(pool, thisClassIdx)
	if err != nil {
		return nil, fmt.Errorf("resolving this_class: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &superClassIdx); err != nil {
		return nil, malformed(-1, "reading super_class: %v", err)
	}
	if superClassIdx != 0 {
		cm.SuperClass, err = GetClassName(pool, superClassIdx)
		if err != nil {
			return nil, fmt.Errorf("resolving super_class: %w", err)
		}
	}

	var interfacesCount uint16
	if err := binary.Read(r, binary.BigEndian, &interfacesCount); err != nil {
		return nil, malformed(-1, "reading interfaces_count: %v", err)
	}
	cm.Interfaces = make([]string, interfacesCount)
	for i := uint16(0); i < interfacesCount; i++ {
		var idx uint16
		if err := binary.Read(r, binary.BigEndian, &idx); err != nil {
			return nil, malformed(-1, "reading interface %d: %v", i, err)
		}
		cm.Interfaces[i], err = GetClassName(pool, idx)
		if err != nil {
			return nil, fmt.Errorf("resolving interface %d: %w", i, err)
		}
	}

	var fieldsCount uint16
	if err := binary.Read(r, binary.BigEndian, &fieldsCount); err != nil {
		return nil, malformed(-1, "reading fields_count: %v", err)
	}
	cm.Fields, err = parseFields(r, pool, fieldsCount)
	if err != nil {
		return nil, fmt.Errorf("parsing fields: %w", err)
	}

	var methodsCount uint16
	if err := binary.Read(r, binary.BigEndian, &methodsCount); err != nil {
		return nil, malformed(-1, "reading methods_count: %v", err)
	}
	cm.Methods, err = parseMethods(r, pool, methodsCount)
	if err != nil {
		return nil, fmt.Errorf("parsing methods: %w", err)
	}

	var classAttrCount uint16
	if err := binary.Read(r, binary.BigEndian, &classAttrCount); err != nil {
		return nil, malformed(-1, "reading class attributes_count: %v", err)
	}
	cm.Attributes, err = parseAttributes(r, pool, classAttrCount)
	if err != nil {
		return nil, fmt.Errorf("parsing class attributes: %w", err)
	}
	for _, attr := range cm.Attributes {
		switch attr.Kind {
		case AttrSourceFile:
			cm.SourceFile = attr.SourceFile
		case AttrBootstrapMethods:
			cm.BootstrapMethods = attr.BootstrapMethods
		}
	}

	return cm, nil
}

func parseFields(r io.Reader, pool []ClassConstant, count uint16) ([]ClassField, error) {
	fields := make([]ClassField, count)
	for i := uint16(0); i < count; i++ {
		var accessFlags, nameIndex, descIndex, attrCount uint16
		if err := binary.Read(r, binary.BigEndian, &accessFlags); err != nil {
			return nil, malformed(-1, "reading field %d access_flags: %v", i, err)
		}
		if err := binary.Read(r, binary.BigEndian, &nameIndex); err != nil {
			return nil, malformed(-1, "reading field %d name_index: %v", i, err)
		}
		if err := binary.Read(r, binary.BigEndian, &descIndex); err != nil {
			return nil, malformed(-1, "reading field %d descriptor_index: %v", i, err)
		}
		if err := binary.Read(r, binary.BigEndian, &attrCount); err != nil {
			return nil, malformed(-1, "reading field %d attributes_count: %v", i, err)
		}

		name, err := GetUtf8(pool, nameIndex)
		if err != nil {
			return nil, fmt.Errorf("resolving field %d name: %w", i, err)
		}
		desc, err := GetUtf8(pool, descIndex)
		if err != nil {
			return nil, fmt.Errorf("resolving field %d descriptor: %w", i, err)
		}
		sig, err := descriptor.ParseType(desc)
		if err != nil {
			return nil, fmt.Errorf("parsing field %d descriptor %q: %w", i, desc, err)
		}

		attrs, err := parseAttributes(r, pool, attrCount)
		if err != nil {
			return nil, fmt.Errorf("parsing field %d attributes: %w", i, err)
		}

		f := ClassField{
			AccessFlags: AccessFlags(accessFlags),
			Name:        name,
			Descriptor:  desc,
			Signature:   sig,
			Attributes:  attrs,
		}
		for _, attr := range attrs {
			if attr.Kind == AttrConstantValue {
				f.ConstantValue = attr.ConstantValue
			}
		}
		fields[i] = f
	}
	return fields, nil
}

func parseMethods(r io.Reader, pool []ClassConstant, count uint16) ([]ClassMethod, error) {
	methods := make([]ClassMethod, count)
	for i := uint16(0); i < count; i++ {
		var accessFlags, nameIndex, descIndex, attrCount uint16
		if err := binary.Read(r, binary.BigEndian, &accessFlags); err != nil {
			return nil, malformed(-1, "reading method %d access_flags: %v", i, err)
		}
		if err := binary.Read(r, binary.BigEndian, &nameIndex); err != nil {
			return nil, malformed(-1, "reading method %d name_index: %v", i, err)
		}
		if err := binary.Read(r, binary.BigEndian, &descIndex); err != nil {
			return nil, malformed(-1, "reading method %d descriptor_index: %v", i, err)
		}
		if err := binary.Read(r, binary.BigEndian, &attrCount); err != nil {
			return nil, malformed(-1, "reading method %d attributes_count: %v", i, err)
		}

		name, err := GetUtf8(pool, nameIndex)
		if err != nil {
			return nil, fmt.Errorf("resolving method %d name: %w", i, err)
		}
		desc, err := GetUtf8(pool, descIndex)
		if err != nil {
			return nil, fmt.Errorf("resolving method %d descriptor: %w", i, err)
		}
		sig, err := descriptor.ParseMethod(desc)
		if err != nil {
			return nil, fmt.Errorf("parsing method %d descriptor %q: %w", i, desc, err)
		}

		attrs, err := parseAttributes(r, pool, attrCount)
		if err != nil {
			return nil, fmt.Errorf("parsing method %d attributes: %w", i, err)
		}

		m := ClassMethod{
			AccessFlags: AccessFlags(accessFlags),
			Name:        name,
			Descriptor:  desc,
			Signature:   sig,
			Attributes:  attrs,
		}
		for _, attr := range attrs {
			switch attr.Kind {
			case AttrCode:
				m.Code = attr.Code
			case AttrExceptions:
				m.Exceptions = attr.Exceptions
			}
		}

		methods[i] = m
	}
	return methods, nil
}

// parseAttributes decodes count attribute_info structures, recognizing the
// handful of attribute kinds this interpreter needs and preserving raw
// name/bytes for everything else.
func parseAttributes(r io.Reader, pool []ClassConstant, count uint16) ([]ClassAttribute, error) {
	attrs := make([]ClassAttribute, count)
	for i := uint16(0); i < count; i++ {
		var nameIndex uint16
		if err := binary.Read(r, binary.BigEndian, &nameIndex); err != nil {
			return nil, malformed(-1, "reading attribute %d name_index: %v", i, err)
		}
		var length uint32
		if err := binary.Read(r, binary.BigEndian, &length); err != nil {
			return nil, malformed(-1, "reading attribute %d length: %v", i, err)
		}
		data := make([]byte, length)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, malformed(-1, "reading attribute %d data: %v", i, err)
		}

		name, err := GetUtf8(pool, nameIndex)
		if err != nil {
			return nil, fmt.Errorf("resolving attribute %d name: %w", i, err)
		}

		attr := ClassAttribute{Kind: AttrNotImplemented, Name: name, Data: data}

		switch name {
		case "Code":
			code, err := parseCodeAttribute(pool, data)
			if err != nil {
				return nil, fmt.Errorf("parsing Code attribute: %w", err)
			}
			attr.Kind = AttrCode
			attr.Code = code

		case "LineNumberTable":
			table, err := parseLineNumberTable(data)
			if err != nil {
				return nil, fmt.Errorf("parsing LineNumberTable: %w", err)
			}
			attr.Kind = AttrLineNumberTable
			attr.LineNumberTable = table

		case "SourceFile":
			if len(data) < 2 {
				return nil, fmt.Errorf("SourceFile attribute too short")
			}
			idx := binary.BigEndian.Uint16(data[0:2])
			sf, err := GetUtf8(pool, idx)
			if err != nil {
				return nil, fmt.Errorf("resolving SourceFile: %w", err)
			}
			attr.Kind = AttrSourceFile
			attr.SourceFile = sf

		case "Exceptions":
			excs, err := parseExceptions(pool, data)
			if err != nil {
				return nil, fmt.Errorf("parsing Exceptions: %w", err)
			}
			attr.Kind = AttrExceptions
			attr.Exceptions = excs

		case "ConstantValue":
			if len(data) < 2 {
				return nil, fmt.Errorf("ConstantValue attribute too short")
			}
			idx := binary.BigEndian.Uint16(data[0:2])
			if int(idx) >= len(pool) {
				return nil, fmt.Errorf("ConstantValue index %d out of range", idx)
			}
			cv := pool[idx]
			attr.Kind = AttrConstantValue
			attr.ConstantValue = &cv

		case "BootstrapMethods":
			methods, err := parseBootstrapMethods(data)
			if err != nil {
				return nil, fmt.Errorf("parsing BootstrapMethods: %w", err)
			}
			attr.Kind = AttrBootstrapMethods
			attr.BootstrapMethods = methods
		}

		attrs[i] = attr
	}
	return attrs, nil
}

func parseCodeAttribute(pool []ClassConstant, data []byte) (*Code, error) {
	r := bytes.NewReader(data)

	var maxStack, maxLocals uint16
	if err := binary.Read(r, binary.BigEndian, &maxStack); err != nil {
		return nil, fmt.Errorf("reading max_stack: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &maxLocals); err != nil {
		return nil, fmt.Errorf("reading max_locals: %w", err)
	}

	var codeLength uint32
	if err := binary.Read(r, binary.BigEndian, &codeLength); err != nil {
		return nil, fmt.Errorf("reading code_length: %w", err)
	}
	code := make([]byte, codeLength)
	if _, err := io.ReadFull(r, code); err != nil {
		return nil, fmt.Errorf("reading code bytes: %w", err)
	}

	var exTableLen uint16
	if err := binary.Read(r, binary.BigEndian, &exTableLen); err != nil {
		return nil, fmt.Errorf("reading exception_table_length: %w", err)
	}
	handlers := make([]ExceptionHandler, exTableLen)
	for i := uint16(0); i < exTableLen; i++ {
		var startPC, endPC, handlerPC, catchTypeIdx uint16
		if err := binary.Read(r, binary.BigEndian, &startPC); err != nil {
			return nil, fmt.Errorf("reading exception handler %d start_pc: %w", i, err)
		}
		if err := binary.Read(r, binary.BigEndian, &endPC); err != nil {
			return nil, fmt.Errorf("reading exception handler %d end_pc: %w", i, err)
		}
		if err := binary.Read(r, binary.BigEndian, &handlerPC); err != nil {
			return nil, fmt.Errorf("reading exception handler %d handler_pc: %w", i, err)
		}
		if err := binary.Read(r, binary.BigEndian, &catchTypeIdx); err != nil {
			return nil, fmt.Errorf("reading exception handler %d catch_type: %w", i, err)
		}
		catchType := ""
		if catchTypeIdx != 0 {
			var err error
			catchType, err = GetClassName(pool, catchTypeIdx)
			if err != nil {
				return nil, fmt.Errorf("resolving exception handler %d catch_type: %w", i, err)
			}
		}
		handlers[i] = ExceptionHandler{StartPC: startPC, EndPC: endPC, HandlerPC: handlerPC, CatchType: catchType}
	}

	var attrCount uint16
	if err := binary.Read(r, binary.BigEndian, &attrCount); err != nil {
		return nil, fmt.Errorf("reading code attributes_count: %w", err)
	}
	attrs, err := parseAttributes(r, pool, attrCount)
	if err != nil {
		return nil, fmt.Errorf("parsing code attributes: %w", err)
	}

	c := &Code{
		MaxStack:          maxStack,
		MaxLocals:         maxLocals,
		Bytes:             code,
		ExceptionHandlers: handlers,
		Attributes:        attrs,
	}
	for _, attr := range attrs {
		if attr.Kind == AttrLineNumberTable {
			c.LineNumberTable = append(c.LineNumberTable, attr.LineNumberTable...)
		}
	}
	return c, nil
}

func parseLineNumberTable(data []byte) ([]LineNumberEntry, error) {
	r := bytes.NewReader(data)
	var length uint16
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, err
	}
	entries := make([]LineNumberEntry, length)
	for i := uint16(0); i < length; i++ {
		if err := binary.Read(r, binary.BigEndian, &entries[i].StartPC); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.BigEndian, &entries[i].Line); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func parseExceptions(pool []ClassConstant, data []byte) ([]string, error) {
	r := bytes.NewReader(data)
	var count uint16
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	excs := make([]string, count)
	for i := uint16(0); i < count; i++ {
		var idx uint16
		if err := binary.Read(r, binary.BigEndian, &idx); err != nil {
			return nil, err
		}
		name, err := GetClassName(pool, idx)
		if err != nil {
			return nil, fmt.Errorf("resolving exception %d: %w", i, err)
		}
		excs[i] = name
	}
	return excs, nil
}

func parseBootstrapMethods(data []byte) ([]BootstrapMethod, error) {
	r := bytes.NewReader(data)
	var count uint16
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	methods := make([]BootstrapMethod, count)
	for i := uint16(0); i < count; i++ {
		var methodRefIdx, numArgs uint16
		if err := binary.Read(r, binary.BigEndian, &methodRefIdx); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.BigEndian, &numArgs); err != nil {
			return nil, err
		}
		args := make([]uint16, numArgs)
		for j := uint16(0); j < numArgs; j++ {
			if err := binary.Read(r, binary.BigEndian, &args[j]); err != nil {
				return nil, err
			}
		}
		methods[i] = BootstrapMethod{MethodRefIndex: methodRefIdx, Arguments: args}
	}
	return methods, nil
}
