package classfile

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// classBuilder hand-assembles a minimal but well-formed .class byte stream,
// constant pool entry by entry, so tests don't depend on a javac-produced
// fixture.
type classBuilder struct {
	cpEntries   [][]byte
	nextCPIndex uint16
}

func newClassBuilder() *classBuilder {
	return &classBuilder{nextCPIndex: 1}
}

func (b *classBuilder) addUtf8(s string) uint16 {
	var e bytes.Buffer
	e.WriteByte(tagUtf8)
	binary.Write(&e, binary.BigEndian, uint16(len(s)))
	e.WriteString(s)
	return b.add(e.Bytes())
}

func (b *classBuilder) addClass(nameIdx uint16) uint16 {
	var e bytes.Buffer
	e.WriteByte(tagClass)
	binary.Write(&e, binary.BigEndian, nameIdx)
	return b.add(e.Bytes())
}

func (b *classBuilder) addNameAndType(nameIdx, descIdx uint16) uint16 {
	var e bytes.Buffer
	e.WriteByte(tagNameAndType)
	binary.Write(&e, binary.BigEndian, nameIdx)
	binary.Write(&e, binary.BigEndian, descIdx)
	return b.add(e.Bytes())
}

func (b *classBuilder) addMethodref(classIdx, natIdx uint16) uint16 {
	var e bytes.Buffer
	e.WriteByte(tagMethodref)
	binary.Write(&e, binary.BigEndian, classIdx)
	binary.Write(&e, binary.BigEndian, natIdx)
	return b.add(e.Bytes())
}

func (b *classBuilder) addInteger(v int32) uint16 {
	var e bytes.Buffer
	e.WriteByte(tagInteger)
	binary.Write(&e, binary.BigEndian, v)
	return b.add(e.Bytes())
}

func (b *classBuilder) add(entry []byte) uint16 {
	idx := b.nextCPIndex
	b.cpEntries = append(b.cpEntries, entry)
	b.nextCPIndex++
	return idx
}

func (b *classBuilder) bytes() []byte {
	var buf bytes.Buffer
	for _, e := range b.cpEntries {
		buf.Write(e)
	}
	return buf.Bytes()
}

func (b *classBuilder) count() uint16 {
	return uint16(len(b.cpEntries) + 1)
}

// buildMinimalClass assembles a class with:
//   - this_class = "Hello", super_class = "java/lang/Object"
//   - one field "answer" I with ConstantValue 42
//   - one method "main" ([Ljava/lang/String;)V with a trivial Code attribute
func buildMinimalClass() []byte {
	cb := newClassBuilder()

	thisNameIdx := cb.addUtf8("Hello")
	thisIdx := cb.addClass(thisNameIdx)
	superNameIdx := cb.addUtf8("java/lang/Object")
	superIdx := cb.addClass(superNameIdx)

	mainNameIdx := cb.addUtf8("main")
	mainDescIdx := cb.addUtf8("([Ljava/lang/String;)V")

	fieldNameIdx := cb.addUtf8("answer")
	fieldDescIdx := cb.addUtf8("I")
	constantValueAttrNameIdx := cb.addUtf8("ConstantValue")
	answerValueIdx := cb.addInteger(42)

	codeAttrNameIdx := cb.addUtf8("Code")

	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(classMagic))
	binary.Write(&out, binary.BigEndian, uint16(0))  // minor
	binary.Write(&out, binary.BigEndian, uint16(61)) // major (Java 17)

	binary.Write(&out, binary.BigEndian, cb.count())
	out.Write(cb.bytes())

	binary.Write(&out, binary.BigEndian, uint16(AccPublic|AccSuper))
	binary.Write(&out, binary.BigEndian, thisIdx)
	binary.Write(&out, binary.BigEndian, superIdx)
	binary.Write(&out, binary.BigEndian, uint16(0)) // interfaces_count

	// fields_count = 1
	binary.Write(&out, binary.BigEndian, uint16(1))
	binary.Write(&out, binary.BigEndian, uint16(AccStatic|AccFinal))
	binary.Write(&out, binary.BigEndian, fieldNameIdx)
	binary.Write(&out, binary.BigEndian, fieldDescIdx)
	binary.Write(&out, binary.BigEndian, uint16(1)) // attributes_count
	binary.Write(&out, binary.BigEndian, constantValueAttrNameIdx)
	binary.Write(&out, binary.BigEndian, uint32(2))
	binary.Write(&out, binary.BigEndian, answerValueIdx)

	// methods_count = 1 (main)
	code := []byte{0xb1} // return
	var codeBody bytes.Buffer
	binary.Write(&codeBody, binary.BigEndian, uint16(1)) // max_stack
	binary.Write(&codeBody, binary.BigEndian, uint16(1)) // max_locals
	binary.Write(&codeBody, binary.BigEndian, uint32(len(code)))
	codeBody.Write(code)
	binary.Write(&codeBody, binary.BigEndian, uint16(0)) // exception_table_length
	binary.Write(&codeBody, binary.BigEndian, uint16(0)) // attributes_count

	binary.Write(&out, binary.BigEndian, uint16(1))
	binary.Write(&out, binary.BigEndian, uint16(AccPublic|AccStatic))
	binary.Write(&out, binary.BigEndian, mainNameIdx)
	binary.Write(&out, binary.BigEndian, mainDescIdx)
	binary.Write(&out, binary.BigEndian, uint16(1)) // attributes_count
	binary.Write(&out, binary.BigEndian, codeAttrNameIdx)
	binary.Write(&out, binary.BigEndian, uint32(codeBody.Len()))
	out.Write(codeBody.Bytes())

	binary.Write(&out, binary.BigEndian, uint16(0)) // class attributes_count

	return out.Bytes()
}

func TestParseMinimalClass(t *testing.T) {
	data := buildMinimalClass()
	cm, err := Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cm.MajorVersion != 61 {
		t.Errorf("major version: got %d, want 61", cm.MajorVersion)
	}
	if cm.ThisClass != "Hello" {
		t.Errorf("this_class: got %q, want %q", cm.ThisClass, "Hello")
	}
	if cm.SuperClass != "java/lang/Object" {
		t.Errorf("super_class: got %q, want %q", cm.SuperClass, "java/lang/Object")
	}

	main := cm.FindMethod("main", "([Ljava/lang/String;)V")
	if main == nil {
		t.Fatal("main method not found")
	}
	if main.Code == nil {
		t.Fatal("main method has no Code attribute")
	}
	if !bytes.Equal(main.Code.Bytes, []byte{0xb1}) {
		t.Errorf("main code: got %v, want [0xb1]", main.Code.Bytes)
	}

	field := cm.FindField("answer")
	if field == nil {
		t.Fatal("field \"answer\" not found")
	}
	if field.ConstantValue == nil {
		t.Fatal("field \"answer\" has no ConstantValue")
	}
	if field.ConstantValue.Tag != ConstInteger || field.ConstantValue.Int64 != 42 {
		t.Errorf("ConstantValue: got %+v, want Integer(42)", field.ConstantValue)
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if _, err := Parse(bytes.NewReader(data)); err == nil {
		t.Fatal("expected error for bad magic number")
	}
}

func TestConstantPoolResolvesMethodref(t *testing.T) {
	cb := newClassBuilder()
	classNameIdx := cb.addUtf8("java/lang/Object")
	classIdx := cb.addClass(classNameIdx)
	nameIdx := cb.addUtf8("<init>")
	descIdx := cb.addUtf8("()V")
	natIdx := cb.addNameAndType(nameIdx, descIdx)
	methodrefIdx := cb.addMethodref(classIdx, natIdx)

	raw, err := parseConstantPool(bytes.NewReader(cb.bytes()), cb.count())
	if err != nil {
		t.Fatalf("parseConstantPool: %v", err)
	}
	pool, err := resolveConstantPool(raw)
	if err != nil {
		t.Fatalf("resolveConstantPool: %v", err)
	}

	mr := pool[methodrefIdx]
	if mr.Tag != ConstMethodRef {
		t.Fatalf("tag: got %v, want ConstMethodRef", mr.Tag)
	}
	if mr.Owner != "java/lang/Object" || mr.Name != "<init>" {
		t.Errorf("got Owner=%q Name=%q", mr.Owner, mr.Name)
	}
	if mr.Desc.Format() != "()V" {
		t.Errorf("descriptor: got %q, want ()V", mr.Desc.Format())
	}
}
