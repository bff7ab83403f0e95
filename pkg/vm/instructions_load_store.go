package vm

// registerLoadStore wires the *load/*store family: the five value kinds
// (int/long/float/double/ref) each get an indexed form plus
// four hard-coded-index shorthand forms (_0.._3), exactly mirroring JVMS
// 6.5's iload/iload_<n> relationship.
func registerLoadStore() {
	dispatch[opIload] = makeLoadIndexed()
	dispatch[opLload] = makeLoadIndexed()
	dispatch[opFload] = makeLoadIndexed()
	dispatch[opDload] = makeLoadIndexed()
	dispatch[opAload] = makeLoadIndexed()

	dispatch[opIload0] = makeLoadFixed(0)
	dispatch[opIload1] = makeLoadFixed(1)
	dispatch[opIload2] = makeLoadFixed(2)
	dispatch[opIload3] = makeLoadFixed(3)
	dispatch[opLload0] = makeLoadFixed(0)
	dispatch[opLload1] = makeLoadFixed(1)
	dispatch[opLload2] = makeLoadFixed(2)
	dispatch[opLload3] = makeLoadFixed(3)
	dispatch[opFload0] = makeLoadFixed(0)
	dispatch[opFload1] = makeLoadFixed(1)
	dispatch[opFload2] = makeLoadFixed(2)
	dispatch[opFload3] = makeLoadFixed(3)
	dispatch[opDload0] = makeLoadFixed(0)
	dispatch[opDload1] = makeLoadFixed(1)
	dispatch[opDload2] = makeLoadFixed(2)
	dispatch[opDload3] = makeLoadFixed(3)
	dispatch[opAload0] = makeLoadFixed(0)
	dispatch[opAload1] = makeLoadFixed(1)
	dispatch[opAload2] = makeLoadFixed(2)
	dispatch[opAload3] = makeLoadFixed(3)

	dispatch[opIstore] = makeStoreIndexed()
	dispatch[opLstore] = makeStoreIndexed()
	dispatch[opFstore] = makeStoreIndexed()
	dispatch[opDstore] = makeStoreIndexed()
	dispatch[opAstore] = makeStoreIndexed()

	dispatch[opIstore0] = makeStoreFixed(0)
	dispatch[opIstore1] = makeStoreFixed(1)
	dispatch[opIstore2] = makeStoreFixed(2)
	dispatch[opIstore3] = makeStoreFixed(3)
	dispatch[opLstore0] = makeStoreFixed(0)
	dispatch[opLstore1] = makeStoreFixed(1)
	dispatch[opLstore2] = makeStoreFixed(2)
	dispatch[opLstore3] = makeStoreFixed(3)
	dispatch[opFstore0] = makeStoreFixed(0)
	dispatch[opFstore1] = makeStoreFixed(1)
	dispatch[opFstore2] = makeStoreFixed(2)
	dispatch[opFstore3] = makeStoreFixed(3)
	dispatch[opDstore0] = makeStoreFixed(0)
	dispatch[opDstore1] = makeStoreFixed(1)
	dispatch[opDstore2] = makeStoreFixed(2)
	dispatch[opDstore3] = makeStoreFixed(3)
	dispatch[opAstore0] = makeStoreFixed(0)
	dispatch[opAstore1] = makeStoreFixed(1)
	dispatch[opAstore2] = makeStoreFixed(2)
	dispatch[opAstore3] = makeStoreFixed(3)

	dispatch[opIinc] = opHandlerIinc
	dispatch[opWide] = opHandlerWide
}

// opHandlerWide modifies the immediately following instruction to read a
// wide (2-byte) local-variable index instead of the usual 1-byte index,
// reusing the same load/store/iinc/ret handlers with a wide decode, per
// JVMS 6.5 `wide`.
func opHandlerWide(vm *VM, frame *Frame) (Value, bool, error) {
	opcode := frame.ReadU8()
	idx := int(frame.ReadU16())

	switch opcode {
	case opIload, opLload, opFload, opDload, opAload:
		frame.Push(frame.GetLocal(idx))
	case opIstore, opLstore, opFstore, opDstore, opAstore:
		frame.SetLocal(idx, frame.Pop())
	case opIinc:
		delta := int32(frame.ReadI16())
		v := frame.GetLocal(idx)
		frame.SetLocal(idx, IntValue(v.Int+delta))
	case opRet:
		frame.PC = int(frame.GetLocal(idx).Int)
	default:
		return Value{}, false, bug("wide: unsupported modified opcode 0x%02x", opcode)
	}
	return Value{}, false, nil
}

func makeLoadIndexed() opHandler {
	return func(vm *VM, frame *Frame) (Value, bool, error) {
		idx := int(frame.ReadU8())
		frame.Push(frame.GetLocal(idx))
		return Value{}, false, nil
	}
}

func makeLoadFixed(idx int) opHandler {
	return func(vm *VM, frame *Frame) (Value, bool, error) {
		frame.Push(frame.GetLocal(idx))
		return Value{}, false, nil
	}
}

func makeStoreIndexed() opHandler {
	return func(vm *VM, frame *Frame) (Value, bool, error) {
		idx := int(frame.ReadU8())
		frame.SetLocal(idx, frame.Pop())
		return Value{}, false, nil
	}
}

func makeStoreFixed(idx int) opHandler {
	return func(vm *VM, frame *Frame) (Value, bool, error) {
		frame.SetLocal(idx, frame.Pop())
		return Value{}, false, nil
	}
}

func opHandlerIinc(vm *VM, frame *Frame) (Value, bool, error) {
	idx := int(frame.ReadU8())
	delta := int32(frame.ReadI8())
	v := frame.GetLocal(idx)
	frame.SetLocal(idx, IntValue(v.Int+delta))
	return Value{}, false, nil
}
