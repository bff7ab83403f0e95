package vm

import (
	"github.com/ymtdzzz/jjvm/pkg/classfile"
	"github.com/ymtdzzz/jjvm/pkg/descriptor"
	"github.com/ymtdzzz/jjvm/pkg/heap"
)

// registerObjectOps wires field access, every invoke* variant, object/array
// creation's object half, type checks, monitors, and athrow.
func registerObjectOps() {
	dispatch[opGetstatic] = opHandlerGetstatic
	dispatch[opPutstatic] = opHandlerPutstatic
	dispatch[opGetfield] = opHandlerGetfield
	dispatch[opPutfield] = opHandlerPutfield

	dispatch[opInvokevirtual] = opHandlerInvokevirtual
	dispatch[opInvokespecial] = opHandlerInvokespecial
	dispatch[opInvokestatic] = opHandlerInvokestatic
	dispatch[opInvokeinterface] = opHandlerInvokeinterface
	dispatch[opInvokedynamic] = opHandlerInvokedynamic

	dispatch[opNew] = opHandlerNew
	dispatch[opCheckcast] = opHandlerCheckcast
	dispatch[opInstanceof] = opHandlerInstanceof
	dispatch[opMonitorenter] = opHandlerMonitorenter
	dispatch[opMonitorexit] = opHandlerMonitorexit
	dispatch[opAthrow] = opHandlerAthrow
}

func (vm *VM) constantAt(frame *Frame, idx uint16) (*classfile.ClassConstant, error) {
	pool := frame.Class.Model.ConstantPool
	if int(idx) >= len(pool) {
		return nil, bug("constant pool index %d out of range", idx)
	}
	return &pool[idx], nil
}

func opHandlerGetstatic(vm *VM, frame *Frame) (Value, bool, error) {
	idx := frame.ReadU16()
	c, err := vm.constantAt(frame, idx)
	if err != nil {
		return Value{}, false, err
	}
	owner, err := vm.ensureInitialized(c.Owner)
	if err != nil {
		return Value{}, false, err
	}
	fieldOwner, field := vm.Classes.ResolveField(owner, c.Name)
	if field == nil {
		return Value{}, false, vm.throwSimple("java/lang/NoSuchFieldError", c.Owner+"."+c.Name)
	}
	frame.Push(fieldOwner.StaticFields[c.Name])
	return Value{}, false, nil
}

func opHandlerPutstatic(vm *VM, frame *Frame) (Value, bool, error) {
	idx := frame.ReadU16()
	c, err := vm.constantAt(frame, idx)
	if err != nil {
		return Value{}, false, err
	}
	owner, err := vm.ensureInitialized(c.Owner)
	if err != nil {
		return Value{}, false, err
	}
	fieldOwner, field := vm.Classes.ResolveField(owner, c.Name)
	if field == nil {
		return Value{}, false, vm.throwSimple("java/lang/NoSuchFieldError", c.Owner+"."+c.Name)
	}
	fieldOwner.StaticFields[c.Name] = frame.Pop()
	return Value{}, false, nil
}

func opHandlerGetfield(vm *VM, frame *Frame) (Value, bool, error) {
	idx := frame.ReadU16()
	c, err := vm.constantAt(frame, idx)
	if err != nil {
		return Value{}, false, err
	}
	ref := frame.Pop()
	inst, ok := vm.Heap.Deref(ref.Ref)
	if !ok {
		return Value{}, false, vm.throw("java/lang/NullPointerException", "")
	}
	frame.Push(inst.Fields[c.Name])
	return Value{}, false, nil
}

func opHandlerPutfield(vm *VM, frame *Frame) (Value, bool, error) {
	idx := frame.ReadU16()
	c, err := vm.constantAt(frame, idx)
	if err != nil {
		return Value{}, false, err
	}
	val := frame.Pop()
	ref := frame.Pop()
	inst, ok := vm.Heap.Deref(ref.Ref)
	if !ok {
		return Value{}, false, vm.throw("java/lang/NullPointerException", "")
	}
	if inst.Fields == nil {
		inst.Fields = map[string]Value{}
	}
	inst.Fields[c.Name] = val
	return Value{}, false, nil
}

// popArgs pops n values off the stack and returns them in call order.
func popArgs(frame *Frame, n int) []Value {
	args := make([]Value, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = frame.Pop()
	}
	return args
}

func opHandlerInvokevirtual(vm *VM, frame *Frame) (Value, bool, error) {
	idx := frame.ReadU16()
	c, err := vm.constantAt(frame, idx)
	if err != nil {
		return Value{}, false, err
	}
	args := popArgs(frame, len(c.Desc.Parameters))
	receiver := frame.Pop()
	if lt, isLambda := vm.lambdas[receiver.Ref]; isLambda {
		ret, err := vm.invokeLambdaTarget(lt, args)
		if err != nil {
			return Value{}, false, err
		}
		if c.Desc.Return.Kind != descriptor.KindVoid {
			frame.Push(ret)
		}
		return Value{}, false, nil
	}
	inst, ok := vm.Heap.Deref(receiver.Ref)
	if !ok {
		return Value{}, false, vm.throw("java/lang/NullPointerException", c.Name)
	}
	class, err := vm.Classes.EnsureLoaded(inst.ClassName)
	if err != nil {
		return Value{}, false, err
	}
	owner, method, err := vm.resolveMethod(class.Name(), c.Name, c.Desc.Format())
	if err != nil {
		return Value{}, false, err
	}
	ret, err := vm.invokeMethod(owner, method, append([]Value{receiver}, args...))
	if err != nil {
		return Value{}, false, err
	}
	if c.Desc.Return.Kind != descriptor.KindVoid {
		frame.Push(ret)
	}
	return Value{}, false, nil
}

func opHandlerInvokespecial(vm *VM, frame *Frame) (Value, bool, error) {
	idx := frame.ReadU16()
	c, err := vm.constantAt(frame, idx)
	if err != nil {
		return Value{}, false, err
	}
	args := popArgs(frame, len(c.Desc.Parameters))
	receiver := frame.Pop()
	owner, method, err := vm.resolveMethod(c.Owner, c.Name, c.Desc.Format())
	if err != nil {
		return Value{}, false, err
	}
	ret, err := vm.invokeMethod(owner, method, append([]Value{receiver}, args...))
	if err != nil {
		return Value{}, false, err
	}
	if c.Desc.Return.Kind != descriptor.KindVoid {
		frame.Push(ret)
	}
	return Value{}, false, nil
}

func opHandlerInvokestatic(vm *VM, frame *Frame) (Value, bool, error) {
	idx := frame.ReadU16()
	c, err := vm.constantAt(frame, idx)
	if err != nil {
		return Value{}, false, err
	}
	args := popArgs(frame, len(c.Desc.Parameters))
	if _, err := vm.ensureInitialized(c.Owner); err != nil {
		return Value{}, false, err
	}
	owner, method, err := vm.resolveMethod(c.Owner, c.Name, c.Desc.Format())
	if err != nil {
		return Value{}, false, err
	}
	ret, err := vm.invokeMethod(owner, method, args)
	if err != nil {
		return Value{}, false, err
	}
	if c.Desc.Return.Kind != descriptor.KindVoid {
		frame.Push(ret)
	}
	return Value{}, false, nil
}

func opHandlerInvokeinterface(vm *VM, frame *Frame) (Value, bool, error) {
	idx := frame.ReadU16()
	_ = frame.ReadU8() // count, redundant with the descriptor's own arg count
	_ = frame.ReadU8() // reserved, always 0
	c, err := vm.constantAt(frame, idx)
	if err != nil {
		return Value{}, false, err
	}
	args := popArgs(frame, len(c.Desc.Parameters))
	receiver := frame.Pop()
	if lt, isLambda := vm.lambdas[receiver.Ref]; isLambda {
		ret, err := vm.invokeLambdaTarget(lt, args)
		if err != nil {
			return Value{}, false, err
		}
		if c.Desc.Return.Kind != descriptor.KindVoid {
			frame.Push(ret)
		}
		return Value{}, false, nil
	}
	inst, ok := vm.Heap.Deref(receiver.Ref)
	if !ok {
		return Value{}, false, vm.throw("java/lang/NullPointerException", c.Name)
	}
	class, err := vm.Classes.EnsureLoaded(inst.ClassName)
	if err != nil {
		return Value{}, false, err
	}
	owner, method, err := vm.resolveMethod(class.Name(), c.Name, c.Desc.Format())
	if err != nil {
		return Value{}, false, err
	}
	ret, err := vm.invokeMethod(owner, method, append([]Value{receiver}, args...))
	if err != nil {
		return Value{}, false, err
	}
	if c.Desc.Return.Kind != descriptor.KindVoid {
		frame.Push(ret)
	}
	return Value{}, false, nil
}

func opHandlerNew(vm *VM, frame *Frame) (Value, bool, error) {
	idx := frame.ReadU16()
	c, err := vm.constantAt(frame, idx)
	if err != nil {
		return Value{}, false, err
	}
	if _, err := vm.ensureInitialized(c.ClassName); err != nil {
		return Value{}, false, err
	}
	ref := vm.Heap.AllocInstance(c.ClassName, map[string]Value{})
	frame.Push(RefValue(ref))
	return Value{}, false, nil
}

func opHandlerCheckcast(vm *VM, frame *Frame) (Value, bool, error) {
	idx := frame.ReadU16()
	c, err := vm.constantAt(frame, idx)
	if err != nil {
		return Value{}, false, err
	}
	v := frame.Peek(0)
	if v.Ref == heap.NullRef {
		return Value{}, false, nil
	}
	inst, ok := vm.Heap.Deref(v.Ref)
	if !ok {
		return Value{}, false, nil
	}
	class, err := vm.Classes.EnsureLoaded(inst.ClassName)
	if err != nil {
		return Value{}, false, err
	}
	if !vm.Classes.IsSubclassOf(class, c.ClassName) {
		return Value{}, false, vm.throw("java/lang/ClassCastException", inst.ClassName+" cannot be cast to "+c.ClassName)
	}
	return Value{}, false, nil
}

func opHandlerInstanceof(vm *VM, frame *Frame) (Value, bool, error) {
	idx := frame.ReadU16()
	c, err := vm.constantAt(frame, idx)
	if err != nil {
		return Value{}, false, err
	}
	v := frame.Pop()
	if v.Ref == heap.NullRef {
		frame.Push(IntValue(0))
		return Value{}, false, nil
	}
	inst, ok := vm.Heap.Deref(v.Ref)
	if !ok {
		frame.Push(IntValue(0))
		return Value{}, false, nil
	}
	class, err := vm.Classes.EnsureLoaded(inst.ClassName)
	if err != nil {
		return Value{}, false, err
	}
	if vm.Classes.IsSubclassOf(class, c.ClassName) {
		frame.Push(IntValue(1))
	} else {
		frame.Push(IntValue(0))
	}
	return Value{}, false, nil
}

// Monitors are no-ops beyond the null check: this interpreter never runs
// more than one thread, so there is never a second thread to contend with.
func opHandlerMonitorenter(vm *VM, frame *Frame) (Value, bool, error) {
	ref := frame.Pop()
	if ref.Ref == heap.NullRef {
		return Value{}, false, vm.throw("java/lang/NullPointerException", "")
	}
	return Value{}, false, nil
}

func opHandlerMonitorexit(vm *VM, frame *Frame) (Value, bool, error) {
	ref := frame.Pop()
	if ref.Ref == heap.NullRef {
		return Value{}, false, vm.throw("java/lang/NullPointerException", "")
	}
	return Value{}, false, nil
}

func opHandlerAthrow(vm *VM, frame *Frame) (Value, bool, error) {
	ref := frame.Pop()
	inst, ok := vm.Heap.Deref(ref.Ref)
	if !ok {
		return Value{}, false, vm.throw("java/lang/NullPointerException", "")
	}
	msg := ""
	if m, ok := inst.Fields["message"]; ok && m.Ref != heap.NullRef {
		if s, ok := vm.Heap.StringValue(m.Ref); ok {
			msg = s
		}
	}
	return Value{}, false, &JavaException{ClassName: inst.ClassName, Object: ref.Ref, Message: msg}
}
