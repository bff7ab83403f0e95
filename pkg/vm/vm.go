// Package vm implements the bytecode interpreter: method execution,
// exception unwinding, static/instance field access, and method
// invocation. Opcode-family evaluators live in the instructions_*.go
// files; this file owns the VM type, the execution loop, and everything
// invoke*/new*/get*/put* needs that isn't a single-opcode concern.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/ymtdzzz/jjvm/pkg/classarea"
	"github.com/ymtdzzz/jjvm/pkg/classfile"
	"github.com/ymtdzzz/jjvm/pkg/descriptor"
	"github.com/ymtdzzz/jjvm/pkg/heap"
)

// maxFrameDepth bounds call recursion; exceeding it raises StackOverflowError.
const maxFrameDepth = 1024

// NativeFunc implements one native method. args[0] is the receiver for
// instance methods; it is absent for static methods.
type NativeFunc func(vm *VM, args []Value) (Value, error)

// VM is the virtual machine: method-area state, the heap, and the native
// method registry that pkg/bootstrap populates after construction.
type VM struct {
	Classes *classarea.Area
	Heap    *heap.Heap
	Stdout  io.Writer
	Stderr  io.Writer
	Trace   func(format string, args ...interface{})

	natives      map[string]NativeFunc
	lambdas      map[heap.Ref]*LambdaTarget
	classObjects map[string]heap.Ref
	methodCache  map[methodCacheKey]methodResolution

	frameDepth int
}

// methodCacheKey/methodResolution memoize resolveMethod's class-hierarchy
// walk, keyed by the class the lookup starts from (the receiver's class for
// invokevirtual/invokeinterface, the constant's owner otherwise) plus
// name/descriptor: invokevirtual and
// invokeinterface re-resolve the same call site every time a loop calls
// it, and re-walking superclasses/interfaces on each iteration is pure
// waste once the first resolution is known.
type methodCacheKey struct {
	className string
	name      string
	desc      string
}

type methodResolution struct {
	owner  *classarea.Class
	method *classfile.ClassMethod
}

// NewVM creates a VM over the given class area and heap.
func NewVM(classes *classarea.Area, h *heap.Heap) *VM {
	return &VM{
		Classes:      classes,
		Heap:         h,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Trace:        func(string, ...interface{}) {},
		natives:      make(map[string]NativeFunc),
		lambdas:      make(map[heap.Ref]*LambdaTarget),
		classObjects: make(map[string]heap.Ref),
		methodCache:  make(map[methodCacheKey]methodResolution),
	}
}

// RegisterNative installs a native implementation under "Class.method" or
// "Class.method:descriptor" (the latter takes priority on lookup, letting
// overloaded natives disambiguate by signature).
func (vm *VM) RegisterNative(key string, fn NativeFunc) {
	vm.natives[key] = fn
}

func (vm *VM) lookupNative(className, methodName, desc string) (NativeFunc, bool) {
	if fn, ok := vm.natives[className+"."+methodName+":"+desc]; ok {
		return fn, true
	}
	fn, ok := vm.natives[className+"."+methodName]
	return fn, ok
}

// Execute loads mainClassName, resolves its main(String[]) method, and
// runs it to completion (or to an uncaught exception).
func (vm *VM) Execute(mainClassName string, programArgs []string) error {
	class, err := vm.Classes.EnsureLoaded(mainClassName)
	if err != nil {
		return err
	}
	method := class.Model.FindMethod("main", "([Ljava/lang/String;)V")
	if method == nil {
		return fmt.Errorf("main method not found in %s", mainClassName)
	}

	argsRef, err := vm.Heap.AllocArray(heap.ArrayRef, "java/lang/String", len(programArgs))
	if err != nil {
		return err
	}
	arr, _ := vm.Heap.DerefArray(argsRef)
	for i, s := range programArgs {
		arr.Elements[i] = RefValue(vm.Heap.NewString(s))
	}

	_, err = vm.invokeMethod(class, method, []Value{RefValue(argsRef)})
	return err
}

// ensureInitialized runs class's <clinit> (and its superclasses') exactly
// once, per JVMS 5.5.
func (vm *VM) ensureInitialized(className string) (*classarea.Class, error) {
	return vm.Classes.EnsureInitialized(className, vm.Heap, func(c *classarea.Class) error {
		clinit := c.Model.FindMethod("<clinit>", "()V")
		if clinit == nil {
			return nil
		}
		_, err := vm.invokeMethod(c, clinit, nil)
		return err
	})
}

// invokeMethod runs one method activation to completion. Native and
// abstract methods are dispatched without a Frame.
func (vm *VM) invokeMethod(class *classarea.Class, method *classfile.ClassMethod, args []Value) (Value, error) {
	if method.AccessFlags.Has(classfile.AccNative) {
		fn, ok := vm.lookupNative(class.Name(), method.Name, method.Descriptor)
		if !ok {
			return Value{}, bug("no native registered for %s.%s:%s", class.Name(), method.Name, method.Descriptor)
		}
		return fn(vm, args)
	}
	if method.AccessFlags.Has(classfile.AccAbstract) {
		return Value{}, vm.throwSimple("java/lang/AbstractMethodError", class.Name()+"."+method.Name+method.Descriptor)
	}
	if method.Code == nil {
		return Value{}, bug("method %s.%s has no Code attribute and is neither native nor abstract", class.Name(), method.Name)
	}

	vm.frameDepth++
	if vm.frameDepth > maxFrameDepth {
		vm.frameDepth--
		return Value{}, vm.throwSimple("java/lang/StackOverflowError", "")
	}
	defer func() { vm.frameDepth-- }()

	frame := NewFrame(method.Code.MaxLocals, method.Code.MaxStack, method.Code.Bytes, class)
	slot := 0
	for _, a := range args {
		frame.LocalVars[slot] = a
		if a.IsCategory2() {
			slot += 2
		} else {
			slot++
		}
	}

	for frame.PC < len(frame.Code) {
		opcode := frame.Code[frame.PC]
		instructionPC := frame.PC
		frame.PC++

		vm.traceInstruction(class, method, instructionPC, opcode)
		retVal, hasReturn, err := vm.executeInstruction(frame, opcode)
		if err != nil {
			javaExc, isJavaExc := err.(*JavaException)
			if !isJavaExc {
				return Value{}, fmt.Errorf("in %s.%s%s at pc=%d: %w", class.Name(), method.Name, method.Descriptor, instructionPC, err)
			}
			handler := vm.findExceptionHandler(method.Code, instructionPC, javaExc)
			if handler == nil {
				javaExc.StackTrace = append(javaExc.StackTrace, StackTraceElement{
					ClassName:  class.Name(),
					MethodName: method.Name,
					Line:       lineForPC(method.Code, instructionPC),
				})
				return Value{}, javaExc
			}
			frame.SP = 0
			frame.Push(RefValue(javaExc.Object))
			frame.PC = int(handler.HandlerPC)
			continue
		}
		if hasReturn {
			return retVal, nil
		}
	}

	return Value{}, nil
}

// lineForPC resolves a bytecode offset to a source line via code's
// LineNumberTable, returning -1 when the method's class was compiled
// without debug info (or the attribute didn't survive parsing).
func lineForPC(code *classfile.Code, pc int) int {
	line := -1
	for _, e := range code.LineNumberTable {
		if int(e.StartPC) > pc {
			break
		}
		line = int(e.Line)
	}
	return line
}

func (vm *VM) findExceptionHandler(code *classfile.Code, pc int, exc *JavaException) *classfile.ExceptionHandler {
	for i := range code.ExceptionHandlers {
		h := &code.ExceptionHandlers[i]
		if pc < int(h.StartPC) || pc >= int(h.EndPC) {
			continue
		}
		if h.CatchType == "" {
			return h
		}
		excClass, err := vm.Classes.EnsureLoaded(exc.ClassName)
		if err != nil {
			continue
		}
		if vm.Classes.IsSubclassOf(excClass, h.CatchType) {
			return h
		}
	}
	return nil
}

// throw allocates a Throwable instance with the given message and returns
// it as a *JavaException ready to propagate.
func (vm *VM) throw(className, message string) *JavaException {
	fields := map[string]Value{}
	ref := vm.Heap.AllocInstance(className, fields)
	if message != "" {
		msgRef := vm.Heap.NewString(message)
		fields["message"] = RefValue(msgRef)
	}
	return &JavaException{ClassName: className, Object: ref, Message: message}
}

func (vm *VM) throwSimple(className, message string) error {
	return vm.throw(className, message)
}

// resolveMethod finds the ClassMethod named by a MethodRef/InterfaceMethodRef
// constant, walking the superclass chain and interfaces via classarea.
func (vm *VM) resolveMethod(className, name, desc string) (*classarea.Class, *classfile.ClassMethod, error) {
	key := methodCacheKey{className, name, desc}
	if cached, ok := vm.methodCache[key]; ok {
		return cached.owner, cached.method, nil
	}

	class, err := vm.Classes.EnsureLoaded(className)
	if err != nil {
		return nil, nil, err
	}
	owner, m := vm.Classes.ResolveMethod(class, name, desc)
	if m == nil {
		return nil, nil, vm.throwSimple("java/lang/NoSuchMethodError", className+"."+name+desc)
	}
	vm.methodCache[key] = methodResolution{owner: owner, method: m}
	return owner, m, nil
}

// defaultValueForType returns the zero value for a field/array element type.
func defaultValueForType(t descriptor.TypeSignature) Value {
	switch t.Kind {
	case descriptor.KindLong:
		return LongValue(0)
	case descriptor.KindFloat:
		return FloatValue(0)
	case descriptor.KindDouble:
		return DoubleValue(0)
	case descriptor.KindClass, descriptor.KindArray:
		return NullValue()
	default:
		return IntValue(0)
	}
}

// LambdaTarget records the information captured at an invokedynamic
// LambdaMetafactory call site, kept out of band from the heap because
// heap.Value has no slot for arbitrary Go structs (mirrors how
// heap.Heap.native keeps Go strings out of band for java/lang/String).
type LambdaTarget struct {
	InterfaceMethod string // the single abstract method name the proxy implements
	TargetClass     string
	TargetMethod    string
	TargetDesc      string
	ReferenceKind   uint8
	CapturedArgs    []Value
}
