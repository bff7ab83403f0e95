package vm

import (
	"strconv"
	"strings"

	"github.com/ymtdzzz/jjvm/pkg/classfile"
	"github.com/ymtdzzz/jjvm/pkg/heap"
)

// opHandlerInvokedynamic resolves the call site's bootstrap method and
// dispatches to one of the two well-known factories this interpreter
// understands; any other bootstrap method raises UnsupportedOperationException
// rather than failing the whole class load.
func opHandlerInvokedynamic(vm *VM, frame *Frame) (Value, bool, error) {
	idx := frame.ReadU16()
	_ = frame.ReadU16() // reserved, always 0

	c, err := vm.constantAt(frame, idx)
	if err != nil {
		return Value{}, false, err
	}
	bootstraps := frame.Class.Model.BootstrapMethods
	if int(c.BootstrapMethodAttrIndex) >= len(bootstraps) {
		return Value{}, false, bug("invokedynamic: bootstrap method attr index %d out of range", c.BootstrapMethodAttrIndex)
	}
	bsm := bootstraps[c.BootstrapMethodAttrIndex]

	handle, err := vm.constantAt(frame, bsm.MethodRefIndex)
	if err != nil {
		return Value{}, false, err
	}
	if handle.Tag != classfile.ConstMethodHandle {
		return Value{}, false, bug("invokedynamic: bootstrap method ref is not a MethodHandle")
	}
	target, err := vm.constantAt(frame, handle.ReferenceIndex)
	if err != nil {
		return Value{}, false, err
	}

	switch {
	case target.Owner == "java/lang/invoke/StringConcatFactory" && target.Name == "makeConcatWithConstants":
		return vm.handleStringConcat(frame, c, bsm)
	case target.Owner == "java/lang/invoke/LambdaMetafactory" && target.Name == "metafactory":
		return vm.handleLambdaMetafactory(frame, c, bsm)
	default:
		return Value{}, false, vm.throw("java/lang/UnsupportedOperationException", "unsupported bootstrap method "+target.Owner+"."+target.Name)
	}
}

// handleStringConcat implements the javac-9+ default: string concatenation
// compiled to invokedynamic rather than a StringBuilder chain. The recipe
// (bsm.Arguments[0], a ConstString with \1 marking each dynamic argument and
// \2 marking a constant operand) is honored for \1 markers and literal text;
// a \2 marker is emitted as empty text.
func (vm *VM) handleStringConcat(frame *Frame, c *classfile.ClassConstant, bsm classfile.BootstrapMethod) (Value, bool, error) {
	args := popArgs(frame, len(c.Desc.Parameters))

	recipe := "\x01" // default recipe: a single dynamic-argument placeholder per arg, concatenated
	if len(bsm.Arguments) > 0 {
		if rc, err := vm.constantAt(frame, bsm.Arguments[0]); err == nil && rc.Tag == classfile.ConstString {
			recipe = rc.Str
		}
	}

	var b strings.Builder
	argIdx := 0
	for i := 0; i < len(recipe); i++ {
		switch recipe[i] {
		case '\x01': // next dynamic argument
			if argIdx < len(args) {
				b.WriteString(vm.stringifyValue(args[argIdx]))
				argIdx++
			}
		case '\x02': // constant operand, not modeled: emitted empty
		default:
			b.WriteByte(recipe[i])
		}
	}
	for ; argIdx < len(args); argIdx++ {
		b.WriteString(vm.stringifyValue(args[argIdx]))
	}

	frame.Push(RefValue(vm.Heap.NewString(b.String())))
	return Value{}, false, nil
}

func (vm *VM) stringifyValue(v Value) string {
	switch v.Kind {
	case heap.KindInt:
		return strconv.FormatInt(int64(v.Int), 10)
	case heap.KindLong:
		return strconv.FormatInt(v.Long, 10)
	case heap.KindRef:
		if v.Ref == heap.NullRef {
			return "null"
		}
		if s, ok := vm.Heap.StringValue(v.Ref); ok {
			return s
		}
		return "<object>"
	default:
		return ""
	}
}


// handleLambdaMetafactory builds a proxy instance standing in for the
// compiled lambda: its class is the functional interface named in the call
// site's return type, and its identity is registered in vm.lambdas so
// invokevirtual/invokeinterface can route the interface's single abstract
// method straight to the captured implementation method instead of going
// through normal method resolution (the proxy class itself defines no
// methods).
func (vm *VM) handleLambdaMetafactory(frame *Frame, c *classfile.ClassConstant, bsm classfile.BootstrapMethod) (Value, bool, error) {
	captured := popArgs(frame, len(c.Desc.Parameters))

	if len(bsm.Arguments) < 2 {
		return Value{}, false, bug("invokedynamic: LambdaMetafactory bootstrap missing implMethod argument")
	}
	implHandle, err := vm.constantAt(frame, bsm.Arguments[1])
	if err != nil {
		return Value{}, false, err
	}
	if implHandle.Tag != classfile.ConstMethodHandle {
		return Value{}, false, bug("invokedynamic: LambdaMetafactory implMethod is not a MethodHandle")
	}
	impl, err := vm.constantAt(frame, implHandle.ReferenceIndex)
	if err != nil {
		return Value{}, false, err
	}

	ifaceName := c.Desc.Return.Class
	proxyRef := vm.Heap.AllocInstance(ifaceName, map[string]Value{})
	vm.lambdas[proxyRef] = &LambdaTarget{
		InterfaceMethod: c.Name,
		TargetClass:     impl.Owner,
		TargetMethod:    impl.Name,
		TargetDesc:      impl.Desc.Format(),
		ReferenceKind:   implHandle.ReferenceKind,
		CapturedArgs:    captured,
	}
	frame.Push(RefValue(proxyRef))
	return Value{}, false, nil
}

// invokeLambdaTarget runs the method a lambda proxy was bound to at
// LambdaMetafactory time. A REF_invokeStatic handle (the common case: javac
// compiles a lambda body to a synthetic private static method) takes the
// captured arguments followed by the call-site arguments with no receiver;
// any other reference kind treats the lambda's first captured argument as a
// bound receiver (method references like `obj::method`).
func (vm *VM) invokeLambdaTarget(lt *LambdaTarget, args []Value) (Value, error) {
	class, err := vm.Classes.EnsureLoaded(lt.TargetClass)
	if err != nil {
		return Value{}, err
	}
	owner, method, err := vm.resolveMethod(class.Name(), lt.TargetMethod, lt.TargetDesc)
	if err != nil {
		return Value{}, err
	}

	callArgs := append(append([]Value{}, lt.CapturedArgs...), args...)
	return vm.invokeMethod(owner, method, callArgs)
}
