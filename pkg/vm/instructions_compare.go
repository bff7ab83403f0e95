package vm

// registerCompareAndBranchOps wires the lcmp/fcmp/dcmp comparisons and the
// entire branch family (if*, if_icmp*, if_acmp*, goto/goto_w, jsr/jsr_w/ret,
// tableswitch/lookupswitch, ifnull/ifnonnull). All branch targets are
// decoded relative to the opcode's own address, per JVMS 6.5.
func registerCompareAndBranchOps() {
	dispatch[opLcmp] = opHandlerLcmp
	dispatch[opFcmpl] = makeFcmp(-1)
	dispatch[opFcmpg] = makeFcmp(1)
	dispatch[opDcmpl] = makeDcmp(-1)
	dispatch[opDcmpg] = makeDcmp(1)

	dispatch[opIfeq] = makeIfCond(func(v int32) bool { return v == 0 })
	dispatch[opIfne] = makeIfCond(func(v int32) bool { return v != 0 })
	dispatch[opIflt] = makeIfCond(func(v int32) bool { return v < 0 })
	dispatch[opIfge] = makeIfCond(func(v int32) bool { return v >= 0 })
	dispatch[opIfgt] = makeIfCond(func(v int32) bool { return v > 0 })
	dispatch[opIfle] = makeIfCond(func(v int32) bool { return v <= 0 })

	dispatch[opIfIcmpeq] = makeIfICmp(func(a, b int32) bool { return a == b })
	dispatch[opIfIcmpne] = makeIfICmp(func(a, b int32) bool { return a != b })
	dispatch[opIfIcmplt] = makeIfICmp(func(a, b int32) bool { return a < b })
	dispatch[opIfIcmpge] = makeIfICmp(func(a, b int32) bool { return a >= b })
	dispatch[opIfIcmpgt] = makeIfICmp(func(a, b int32) bool { return a > b })
	dispatch[opIfIcmple] = makeIfICmp(func(a, b int32) bool { return a <= b })

	dispatch[opIfAcmpeq] = makeIfACmp(func(a, b Value) bool { return a.Ref == b.Ref })
	dispatch[opIfAcmpne] = makeIfACmp(func(a, b Value) bool { return a.Ref != b.Ref })

	dispatch[opGoto] = opHandlerGoto
	dispatch[opGotoW] = opHandlerGotoW
	dispatch[opJsr] = opHandlerJsr
	dispatch[opJsrW] = opHandlerJsrW
	dispatch[opRet] = opHandlerRet

	dispatch[opTableswitch] = opHandlerTableswitch
	dispatch[opLookupswitch] = opHandlerLookupswitch

	dispatch[opIfnull] = makeIfRefCond(func(r Value) bool { return r.Ref == 0 })
	dispatch[opIfnonnull] = makeIfRefCond(func(r Value) bool { return r.Ref != 0 })
}

func opHandlerLcmp(vm *VM, frame *Frame) (Value, bool, error) {
	b, a := frame.Pop(), frame.Pop()
	frame.Push(IntValue(cmp64(a.Long, b.Long)))
	return Value{}, false, nil
}

func cmp64(a, b int64) int32 {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

// makeFcmp builds fcmpl/fcmpg: both behave identically except when either
// operand is NaN, where fcmpl (nanResult=-1) and fcmpg (nanResult=1) differ
// per JVMS 6.5.
func makeFcmp(nanResult int32) opHandler {
	return func(vm *VM, frame *Frame) (Value, bool, error) {
		b, a := frame.Pop(), frame.Pop()
		if a.Float != a.Float || b.Float != b.Float {
			frame.Push(IntValue(nanResult))
			return Value{}, false, nil
		}
		switch {
		case a.Float > b.Float:
			frame.Push(IntValue(1))
		case a.Float < b.Float:
			frame.Push(IntValue(-1))
		default:
			frame.Push(IntValue(0))
		}
		return Value{}, false, nil
	}
}

func makeDcmp(nanResult int32) opHandler {
	return func(vm *VM, frame *Frame) (Value, bool, error) {
		b, a := frame.Pop(), frame.Pop()
		if a.Double != a.Double || b.Double != b.Double {
			frame.Push(IntValue(nanResult))
			return Value{}, false, nil
		}
		switch {
		case a.Double > b.Double:
			frame.Push(IntValue(1))
		case a.Double < b.Double:
			frame.Push(IntValue(-1))
		default:
			frame.Push(IntValue(0))
		}
		return Value{}, false, nil
	}
}

func makeIfCond(cond func(int32) bool) opHandler {
	return func(vm *VM, frame *Frame) (Value, bool, error) {
		base := frame.PC - 1
		offset := frame.ReadI16()
		v := frame.Pop()
		if cond(v.Int) {
			frame.PC = base + int(offset)
		}
		return Value{}, false, nil
	}
}

func makeIfICmp(cond func(a, b int32) bool) opHandler {
	return func(vm *VM, frame *Frame) (Value, bool, error) {
		base := frame.PC - 1
		offset := frame.ReadI16()
		b, a := frame.Pop(), frame.Pop()
		if cond(a.Int, b.Int) {
			frame.PC = base + int(offset)
		}
		return Value{}, false, nil
	}
}

func makeIfACmp(cond func(a, b Value) bool) opHandler {
	return func(vm *VM, frame *Frame) (Value, bool, error) {
		base := frame.PC - 1
		offset := frame.ReadI16()
		b, a := frame.Pop(), frame.Pop()
		if cond(a, b) {
			frame.PC = base + int(offset)
		}
		return Value{}, false, nil
	}
}

func makeIfRefCond(cond func(Value) bool) opHandler {
	return func(vm *VM, frame *Frame) (Value, bool, error) {
		base := frame.PC - 1
		offset := frame.ReadI16()
		v := frame.Pop()
		if cond(v) {
			frame.PC = base + int(offset)
		}
		return Value{}, false, nil
	}
}

func opHandlerGoto(vm *VM, frame *Frame) (Value, bool, error) {
	base := frame.PC - 1
	offset := frame.ReadI16()
	frame.PC = base + int(offset)
	return Value{}, false, nil
}

func opHandlerGotoW(vm *VM, frame *Frame) (Value, bool, error) {
	base := frame.PC - 1
	offset := frame.ReadI32()
	frame.PC = base + int(offset)
	return Value{}, false, nil
}

func opHandlerJsr(vm *VM, frame *Frame) (Value, bool, error) {
	base := frame.PC - 1
	offset := frame.ReadI16()
	frame.Push(ReturnAddress(int32(frame.PC)))
	frame.PC = base + int(offset)
	return Value{}, false, nil
}

func opHandlerJsrW(vm *VM, frame *Frame) (Value, bool, error) {
	base := frame.PC - 1
	offset := frame.ReadI32()
	frame.Push(ReturnAddress(int32(frame.PC)))
	frame.PC = base + int(offset)
	return Value{}, false, nil
}

func opHandlerRet(vm *VM, frame *Frame) (Value, bool, error) {
	idx := int(frame.ReadU8())
	frame.PC = int(frame.GetLocal(idx).Int)
	return Value{}, false, nil
}

// opHandlerTableswitch and opHandlerLookupswitch both pad to a 4-byte
// boundary measured from the start of the enclosing method's bytecode
// before the default/jump-table operands begin (JVMS 6.5).
func opHandlerTableswitch(vm *VM, frame *Frame) (Value, bool, error) {
	base := frame.PC - 1
	alignSwitchPad(frame)
	defaultOffset := frame.ReadI32()
	low := frame.ReadI32()
	high := frame.ReadI32()
	key := frame.Pop().Int

	if key < low || key > high {
		frame.PC = base + int(defaultOffset)
		return Value{}, false, nil
	}
	skip := int(key-low) * 4
	frame.PC += skip
	offset := frame.ReadI32()
	frame.PC = base + int(offset)
	return Value{}, false, nil
}

func opHandlerLookupswitch(vm *VM, frame *Frame) (Value, bool, error) {
	base := frame.PC - 1
	alignSwitchPad(frame)
	defaultOffset := frame.ReadI32()
	npairs := frame.ReadI32()
	key := frame.Pop().Int

	for i := int32(0); i < npairs; i++ {
		matchVal := frame.ReadI32()
		offset := frame.ReadI32()
		if matchVal == key {
			frame.PC = base + int(offset)
			return Value{}, false, nil
		}
	}
	frame.PC = base + int(defaultOffset)
	return Value{}, false, nil
}

func alignSwitchPad(frame *Frame) {
	for frame.PC%4 != 0 {
		frame.PC++
	}
}
