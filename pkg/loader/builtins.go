package loader

import "github.com/ymtdzzz/jjvm/pkg/classfile"

// syntheticClasses backstops the handful of java.lang/java.io types the
// interpreter's bootstrap table (pkg/bootstrap) implements entirely as Go
// natives. They carry no bytecode; every method is marked native so
// pkg/vm routes calls on them straight to the native table instead of
// trying to interpret a Code attribute that doesn't exist.
//
// Each method is declared with its exact descriptor (not just its name):
// ClassModel.FindMethod matches name and descriptor together, the same as
// real overload resolution, so a synthetic class offering several
// overloads of the same name (println, valueOf, append, ...) needs one
// entry per overload, not one entry per name.
var syntheticClasses = map[string]*classfile.ClassModel{}

// method is one synthetic method declaration: a name/descriptor pair,
// always native, always public.
type method struct {
	name, desc string
	static     bool
}

func m(name, desc string) method  { return method{name: name, desc: desc} }
func sm(name, desc string) method { return method{name: name, desc: desc, static: true} }

func init() {
	def := func(name, super string, iface bool, methods ...method) {
		flags := classfile.AccPublic
		if iface {
			flags |= classfile.AccInterface | classfile.AccAbstract
		}
		cm := &classfile.ClassModel{
			MajorVersion: 61,
			AccessFlags:  flags,
			ThisClass:    name,
			SuperClass:   super,
		}
		for _, mm := range methods {
			methodFlags := classfile.AccPublic | classfile.AccNative
			if mm.static {
				methodFlags |= classfile.AccStatic
			}
			cm.Methods = append(cm.Methods, classfile.ClassMethod{
				AccessFlags: methodFlags,
				Name:        mm.name,
				Descriptor:  mm.desc,
			})
		}
		syntheticClasses[name] = cm
	}

	def("java/lang/Object", "", false,
		m("<init>", "()V"),
		m("hashCode", "()I"),
		m("equals", "(Ljava/lang/Object;)Z"),
		m("toString", "()Ljava/lang/String;"),
		m("getClass", "()Ljava/lang/Class;"),
		m("notify", "()V"),
		m("notifyAll", "()V"),
		m("wait", "()V"),
	)
	def("java/lang/String", "java/lang/Object", false,
		m("<init>", "()V"),
		m("<init>", "(Ljava/lang/String;)V"),
		m("length", "()I"),
		m("charAt", "(I)C"),
		m("equals", "(Ljava/lang/Object;)Z"),
		m("hashCode", "()I"),
		m("toString", "()Ljava/lang/String;"),
		m("intern", "()Ljava/lang/String;"),
		m("concat", "(Ljava/lang/String;)Ljava/lang/String;"),
		sm("valueOf", "(I)Ljava/lang/String;"),
		sm("valueOf", "(J)Ljava/lang/String;"),
		sm("valueOf", "(Z)Ljava/lang/String;"),
		sm("valueOf", "(C)Ljava/lang/String;"),
		sm("valueOf", "(Ljava/lang/Object;)Ljava/lang/String;"),
	)
	def("java/lang/StringBuilder", "java/lang/Object", false,
		m("<init>", "()V"),
		m("<init>", "(Ljava/lang/String;)V"),
		m("toString", "()Ljava/lang/String;"),
		m("length", "()I"),
		m("append", "(I)Ljava/lang/StringBuilder;"),
		m("append", "(J)Ljava/lang/StringBuilder;"),
		m("append", "(F)Ljava/lang/StringBuilder;"),
		m("append", "(D)Ljava/lang/StringBuilder;"),
		m("append", "(Z)Ljava/lang/StringBuilder;"),
		m("append", "(C)Ljava/lang/StringBuilder;"),
		m("append", "(Ljava/lang/String;)Ljava/lang/StringBuilder;"),
		m("append", "(Ljava/lang/Object;)Ljava/lang/StringBuilder;"),
	)
	def("java/lang/Class", "java/lang/Object", false,
		m("getName", "()Ljava/lang/String;"),
		m("isArray", "()Z"),
		m("isPrimitive", "()Z"),
		m("isAssignableFrom", "(Ljava/lang/Class;)Z"),
		sm("forName", "(Ljava/lang/String;)Ljava/lang/Class;"),
	)
	def("java/lang/Throwable", "java/lang/Object", false, throwableMethods...)
	def("java/lang/Exception", "java/lang/Throwable", false, throwableCtorsOnly...)
	def("java/lang/RuntimeException", "java/lang/Exception", false, throwableCtorsOnly...)
	def("java/lang/Error", "java/lang/Throwable", false, throwableCtorsOnly...)
	for _, name := range []string{
		"java/lang/ArithmeticException",
		"java/lang/NullPointerException",
		"java/lang/ClassCastException",
		"java/lang/ArrayIndexOutOfBoundsException",
		"java/lang/ArrayStoreException",
		"java/lang/NegativeArraySizeException",
		"java/lang/UnsupportedOperationException",
		"java/lang/StringIndexOutOfBoundsException",
		"java/lang/NumberFormatException",
		"java/lang/ClassNotFoundException",
	} {
		def(name, "java/lang/RuntimeException", false, throwableCtorsOnly...)
	}
	def("java/lang/NoSuchFieldError", "java/lang/Error", false, throwableCtorsOnly...)
	def("java/lang/NoSuchMethodError", "java/lang/Error", false, throwableCtorsOnly...)
	def("java/lang/AbstractMethodError", "java/lang/Error", false, throwableCtorsOnly...)
	def("java/lang/StackOverflowError", "java/lang/Error", false, throwableCtorsOnly...)

	def("java/lang/System", "java/lang/Object", false,
		sm("arraycopy", "(Ljava/lang/Object;ILjava/lang/Object;II)V"),
		sm("nanoTime", "()J"),
		sm("currentTimeMillis", "()J"),
		sm("exit", "(I)V"),
	)
	def("java/lang/Math", "java/lang/Object", false,
		sm("sqrt", "(D)D"),
		sm("pow", "(DD)D"),
		sm("abs", "(I)I"),
		sm("abs", "(J)J"),
		sm("abs", "(D)D"),
		sm("max", "(II)I"),
		sm("min", "(II)I"),
		sm("max", "(DD)D"),
		sm("min", "(DD)D"),
	)
	def("java/io/PrintStream", "java/lang/Object", false,
		m("println", "()V"),
		m("println", "(I)V"),
		m("println", "(J)V"),
		m("println", "(F)V"),
		m("println", "(D)V"),
		m("println", "(C)V"),
		m("println", "(Z)V"),
		m("println", "(Ljava/lang/String;)V"),
		m("println", "(Ljava/lang/Object;)V"),
		m("print", "(I)V"),
		m("print", "(J)V"),
		m("print", "(F)V"),
		m("print", "(D)V"),
		m("print", "(C)V"),
		m("print", "(Z)V"),
		m("print", "(Ljava/lang/String;)V"),
		m("print", "(Ljava/lang/Object;)V"),
		m("flush", "()V"),
	)
	def("java/lang/Thread", "java/lang/Object", false,
		sm("currentThread", "()Ljava/lang/Thread;"),
		m("setPriority", "(I)V"),
		m("getName", "()Ljava/lang/String;"),
	)

	boxed := []struct{ class, prim string }{
		{"Integer", "I"}, {"Long", "J"}, {"Float", "F"}, {"Double", "D"},
		{"Boolean", "Z"}, {"Character", "C"}, {"Byte", "B"}, {"Short", "S"},
	}
	for _, w := range boxed {
		cls := "java/lang/" + w.class
		def(cls, "java/lang/Object", false,
			m("<init>", "("+w.prim+")V"),
			sm("valueOf", "("+w.prim+")L"+cls+";"),
			sm("valueOf", "(Ljava/lang/String;)L"+cls+";"),
			m("intValue", "()I"),
			m("longValue", "()J"),
			m("floatValue", "()F"),
			m("doubleValue", "()D"),
			m("toString", "()Ljava/lang/String;"),
			m("equals", "(Ljava/lang/Object;)Z"),
			m("hashCode", "()I"),
			sm("compare", "("+w.prim+w.prim+")I"),
		)
	}
}

var throwableMethods = []method{
	m("<init>", "()V"),
	m("<init>", "(Ljava/lang/String;)V"),
	m("getMessage", "()Ljava/lang/String;"),
	m("toString", "()Ljava/lang/String;"),
	m("fillInStackTrace", "()Ljava/lang/Throwable;"),
	m("printStackTrace", "()V"),
}

// throwableCtorsOnly is what every Throwable subclass that doesn't add
// behavior of its own still needs declared directly on it: constructors
// aren't inherited in Java, so `new SomeException("msg")` requires
// SomeException itself (not just Throwable) to carry that descriptor.
var throwableCtorsOnly = []method{
	m("<init>", "()V"),
	m("<init>", "(Ljava/lang/String;)V"),
}
