package vm

import (
	"github.com/ymtdzzz/jjvm/pkg/classfile"
	"github.com/ymtdzzz/jjvm/pkg/heap"
)

func opHandlerNop(vm *VM, frame *Frame) (Value, bool, error) {
	return Value{}, false, nil
}

func opHandlerAconstNull(vm *VM, frame *Frame) (Value, bool, error) {
	frame.Push(NullValue())
	return Value{}, false, nil
}

func makeIconst(v int32) opHandler {
	return func(vm *VM, frame *Frame) (Value, bool, error) {
		frame.Push(IntValue(v))
		return Value{}, false, nil
	}
}

func makeLconst(v int64) opHandler {
	return func(vm *VM, frame *Frame) (Value, bool, error) {
		frame.Push(LongValue(v))
		return Value{}, false, nil
	}
}

func makeFconst(v float32) opHandler {
	return func(vm *VM, frame *Frame) (Value, bool, error) {
		frame.Push(FloatValue(v))
		return Value{}, false, nil
	}
}

func makeDconst(v float64) opHandler {
	return func(vm *VM, frame *Frame) (Value, bool, error) {
		frame.Push(DoubleValue(v))
		return Value{}, false, nil
	}
}

func opHandlerBipush(vm *VM, frame *Frame) (Value, bool, error) {
	frame.Push(IntValue(int32(frame.ReadI8())))
	return Value{}, false, nil
}

func opHandlerSipush(vm *VM, frame *Frame) (Value, bool, error) {
	frame.Push(IntValue(int32(frame.ReadI16())))
	return Value{}, false, nil
}

// loadConstant pushes the constant pool entry at idx, resolving Class
// constants to a java/lang/Class stand-in and String constants to an
// interned heap string.
func (vm *VM) loadConstant(frame *Frame, idx uint16) error {
	pool := frame.Class.Model.ConstantPool
	if int(idx) >= len(pool) {
		return bug("ldc: constant pool index %d out of range", idx)
	}
	c := pool[idx]
	switch c.Tag {
	case classfile.ConstInteger:
		frame.Push(IntValue(int32(c.Int64)))
	case classfile.ConstFloat:
		frame.Push(FloatValue(float32(c.Float64)))
	case classfile.ConstLong:
		frame.Push(LongValue(c.Int64))
	case classfile.ConstDouble:
		frame.Push(DoubleValue(c.Float64))
	case classfile.ConstString:
		frame.Push(RefValue(vm.Heap.Intern(c.Str)))
	case classfile.ConstClass:
		frame.Push(RefValue(vm.classObjectFor(c.ClassName)))
	default:
		return bug("ldc: unsupported constant pool tag %v at index %d", c.Tag, idx)
	}
	return nil
}

// ClassObjectFor returns (allocating on first use) the java/lang/Class
// instance representing className. Exported so pkg/bootstrap's
// Class/Object natives share the same instance pkg_vm's own ldc/new
// handling would hand out, rather than keeping a second registry.
func (vm *VM) ClassObjectFor(className string) heap.Ref {
	return vm.classObjectFor(className)
}

// classObjectFor returns (allocating on first use) the java/lang/Class
// instance representing className.
func (vm *VM) classObjectFor(className string) heap.Ref {
	if r, ok := vm.classObjects[className]; ok {
		return r
	}
	r := vm.Heap.AllocInstance("java/lang/Class", map[string]Value{})
	nameRef := vm.Heap.NewString(className)
	if inst, ok := vm.Heap.Deref(r); ok {
		inst.Fields["name"] = RefValue(nameRef)
	}
	vm.classObjects[className] = r
	return r
}

func opHandlerLdc(vm *VM, frame *Frame) (Value, bool, error) {
	idx := uint16(frame.ReadU8())
	return Value{}, false, vm.loadConstant(frame, idx)
}

func opHandlerLdcW(vm *VM, frame *Frame) (Value, bool, error) {
	idx := frame.ReadU16()
	return Value{}, false, vm.loadConstant(frame, idx)
}

func opHandlerLdc2W(vm *VM, frame *Frame) (Value, bool, error) {
	idx := frame.ReadU16()
	return Value{}, false, vm.loadConstant(frame, idx)
}
