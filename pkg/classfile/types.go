package classfile

import "github.com/ymtdzzz/jjvm/pkg/descriptor"

// AccessFlags is a bitmask of class/field/method access and property flags.
// The same representation is reused for all three because the JVM class
// file format assigns the bit positions independently per context; the
// Has method is what call sites use, so the overlap is harmless.
type AccessFlags uint16

const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSuper        AccessFlags = 0x0020 // classes
	AccSynchronized AccessFlags = 0x0020 // methods
	AccVolatile     AccessFlags = 0x0040
	AccBridge       AccessFlags = 0x0040
	AccTransient    AccessFlags = 0x0080
	AccVarargs      AccessFlags = 0x0080
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccStrict       AccessFlags = 0x0800
	AccSynthetic    AccessFlags = 0x1000
	AccAnnotation   AccessFlags = 0x2000
	AccEnum         AccessFlags = 0x4000
	AccModule       AccessFlags = 0x8000
)

// Has reports whether every bit in flag is set.
func (a AccessFlags) Has(flag AccessFlags) bool { return a&flag == flag }

// ClassModel is the decoded form of one class file.
type ClassModel struct {
	MajorVersion uint16
	MinorVersion uint16

	ConstantPool []ClassConstant // 1-indexed; slot 0 is Unused

	AccessFlags AccessFlags
	ThisClass   string
	SuperClass  string // empty only for java/lang/Object
	Interfaces  []string

	Fields     []ClassField
	Methods    []ClassMethod
	Attributes []ClassAttribute

	BootstrapMethods []BootstrapMethod
	SourceFile       string
}

// FindMethod finds a method by name and descriptor.
func (cm *ClassModel) FindMethod(name, desc string) *ClassMethod {
	for i := range cm.Methods {
		if cm.Methods[i].Name == name && cm.Methods[i].Descriptor == desc {
			return &cm.Methods[i]
		}
	}
	return nil
}

// FindField finds a field by name, ignoring descriptor (field names are
// unique per class regardless of type).
func (cm *ClassModel) FindField(name string) *ClassField {
	for i := range cm.Fields {
		if cm.Fields[i].Name == name {
			return &cm.Fields[i]
		}
	}
	return nil
}

// ClassField is one field_info entry.
type ClassField struct {
	AccessFlags   AccessFlags
	Name          string
	Descriptor    string
	Signature     descriptor.TypeSignature
	Attributes    []ClassAttribute
	ConstantValue *ClassConstant // non-nil when a ConstantValue attribute was present
}

// ClassMethod is one method_info entry.
type ClassMethod struct {
	AccessFlags AccessFlags
	Name        string
	Descriptor  string
	Signature   descriptor.MethodSignature
	Attributes  []ClassAttribute
	Code        *Code // nil for abstract/native methods
	Exceptions  []string
}

// ClassAttribute is a tagged union over the attribute kinds this decoder
// understands; anything else decodes to AttrNotImplemented while
// preserving the raw bytes.
type ClassAttribute struct {
	Kind AttributeKind

	Code             *Code
	LineNumberTable  []LineNumberEntry
	SourceFile       string
	Exceptions       []string
	ConstantValue    *ClassConstant
	BootstrapMethods []BootstrapMethod

	// Name/Data are populated for every attribute (including recognized
	// ones) so re-encoding doesn't need to reconstruct them.
	Name string
	Data []byte
}

// AttributeKind identifies which ClassAttribute field is meaningful.
type AttributeKind int

const (
	AttrNotImplemented AttributeKind = iota
	AttrCode
	AttrLineNumberTable
	AttrSourceFile
	AttrExceptions
	AttrConstantValue
	AttrBootstrapMethods
)

// Code is the decoded Code attribute of a method.
type Code struct {
	MaxStack          uint16
	MaxLocals         uint16
	Bytes             []byte
	ExceptionHandlers []ExceptionHandler
	LineNumberTable   []LineNumberEntry
	Attributes        []ClassAttribute
}

// ExceptionHandler is one entry of a Code attribute's exception table.
type ExceptionHandler struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType string // empty means catch-all (finally)
}

// LineNumberEntry maps a bytecode offset to a source line.
type LineNumberEntry struct {
	StartPC uint16
	Line    uint16
}

// BootstrapMethod is one entry of the class's BootstrapMethods attribute,
// used by invokedynamic.
type BootstrapMethod struct {
	MethodRefIndex uint16 // CP index of a CONSTANT_MethodHandle
	Arguments      []uint16
}
