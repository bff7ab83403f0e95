package vm

// registerStackOps wires the generic stack-shuffling family. These operate
// on raw stack words, not logical values, but since Frame.OperandStack
// already stores one Value per logical slot (category-2 values take one
// Value, not two), the _x1/_x2 variants only differ in how many values they
// treat as "category 2 worth of slots" — which here is always one Value,
// since category-2ness already collapsed at Push/Pop time. We still thread
// IsCategory2 through so dup2 over two category-1 values behaves like dup2
// over one category-2 value, matching JVMS 6.5.
func registerStackOps() {
	dispatch[opPop] = opHandlerPop
	dispatch[opPop2] = opHandlerPop2
	dispatch[opDup] = opHandlerDup
	dispatch[opDupX1] = opHandlerDupX1
	dispatch[opDupX2] = opHandlerDupX2
	dispatch[opDup2] = opHandlerDup2
	dispatch[opDup2X1] = opHandlerDup2X1
	dispatch[opDup2X2] = opHandlerDup2X2
	dispatch[opSwap] = opHandlerSwap
}

func opHandlerPop(vm *VM, frame *Frame) (Value, bool, error) {
	frame.Pop()
	return Value{}, false, nil
}

func opHandlerPop2(vm *VM, frame *Frame) (Value, bool, error) {
	top := frame.Pop()
	if !top.IsCategory2() {
		frame.Pop()
	}
	return Value{}, false, nil
}

func opHandlerDup(vm *VM, frame *Frame) (Value, bool, error) {
	v := frame.Peek(0)
	frame.Push(v)
	return Value{}, false, nil
}

func opHandlerDupX1(vm *VM, frame *Frame) (Value, bool, error) {
	v1 := frame.Pop()
	v2 := frame.Pop()
	frame.Push(v1)
	frame.Push(v2)
	frame.Push(v1)
	return Value{}, false, nil
}

func opHandlerDupX2(vm *VM, frame *Frame) (Value, bool, error) {
	v1 := frame.Pop()
	v2 := frame.Pop()
	if v2.IsCategory2() {
		frame.Push(v1)
		frame.Push(v2)
		frame.Push(v1)
		return Value{}, false, nil
	}
	v3 := frame.Pop()
	frame.Push(v1)
	frame.Push(v3)
	frame.Push(v2)
	frame.Push(v1)
	return Value{}, false, nil
}

func opHandlerDup2(vm *VM, frame *Frame) (Value, bool, error) {
	v1 := frame.Pop()
	if v1.IsCategory2() {
		frame.Push(v1)
		frame.Push(v1)
		return Value{}, false, nil
	}
	v2 := frame.Pop()
	frame.Push(v2)
	frame.Push(v1)
	frame.Push(v2)
	frame.Push(v1)
	return Value{}, false, nil
}

func opHandlerDup2X1(vm *VM, frame *Frame) (Value, bool, error) {
	v1 := frame.Pop()
	if v1.IsCategory2() {
		v2 := frame.Pop()
		frame.Push(v1)
		frame.Push(v2)
		frame.Push(v1)
		return Value{}, false, nil
	}
	v2 := frame.Pop()
	v3 := frame.Pop()
	frame.Push(v2)
	frame.Push(v1)
	frame.Push(v3)
	frame.Push(v2)
	frame.Push(v1)
	return Value{}, false, nil
}

func opHandlerDup2X2(vm *VM, frame *Frame) (Value, bool, error) {
	v1 := frame.Pop()
	if v1.IsCategory2() {
		v2 := frame.Pop()
		if v2.IsCategory2() {
			frame.Push(v1)
			frame.Push(v2)
			frame.Push(v1)
			return Value{}, false, nil
		}
		v3 := frame.Pop()
		frame.Push(v1)
		frame.Push(v3)
		frame.Push(v2)
		frame.Push(v1)
		return Value{}, false, nil
	}
	v2 := frame.Pop()
	v3 := frame.Pop()
	if v3.IsCategory2() {
		frame.Push(v2)
		frame.Push(v1)
		frame.Push(v3)
		frame.Push(v2)
		frame.Push(v1)
		return Value{}, false, nil
	}
	v4 := frame.Pop()
	frame.Push(v2)
	frame.Push(v1)
	frame.Push(v4)
	frame.Push(v3)
	frame.Push(v2)
	frame.Push(v1)
	return Value{}, false, nil
}

func opHandlerSwap(vm *VM, frame *Frame) (Value, bool, error) {
	v1 := frame.Pop()
	v2 := frame.Pop()
	frame.Push(v1)
	frame.Push(v2)
	return Value{}, false, nil
}
