package vm

// registerConversionOps wires the widening/narrowing numeric conversions.
func registerConversionOps() {
	dispatch[opI2l] = opHandlerI2l
	dispatch[opI2f] = opHandlerI2f
	dispatch[opI2d] = opHandlerI2d
	dispatch[opL2i] = opHandlerL2i
	dispatch[opL2f] = opHandlerL2f
	dispatch[opL2d] = opHandlerL2d
	dispatch[opF2i] = opHandlerF2i
	dispatch[opF2l] = opHandlerF2l
	dispatch[opF2d] = opHandlerF2d
	dispatch[opD2i] = opHandlerD2i
	dispatch[opD2l] = opHandlerD2l
	dispatch[opD2f] = opHandlerD2f
	dispatch[opI2b] = opHandlerI2b
	dispatch[opI2c] = opHandlerI2c
	dispatch[opI2s] = opHandlerI2s
}

func opHandlerI2l(vm *VM, frame *Frame) (Value, bool, error) {
	v := frame.Pop()
	frame.Push(LongValue(int64(v.Int)))
	return Value{}, false, nil
}

func opHandlerI2f(vm *VM, frame *Frame) (Value, bool, error) {
	v := frame.Pop()
	frame.Push(FloatValue(float32(v.Int)))
	return Value{}, false, nil
}

func opHandlerI2d(vm *VM, frame *Frame) (Value, bool, error) {
	v := frame.Pop()
	frame.Push(DoubleValue(float64(v.Int)))
	return Value{}, false, nil
}

func opHandlerL2i(vm *VM, frame *Frame) (Value, bool, error) {
	v := frame.Pop()
	frame.Push(IntValue(int32(v.Long)))
	return Value{}, false, nil
}

func opHandlerL2f(vm *VM, frame *Frame) (Value, bool, error) {
	v := frame.Pop()
	frame.Push(FloatValue(float32(v.Long)))
	return Value{}, false, nil
}

func opHandlerL2d(vm *VM, frame *Frame) (Value, bool, error) {
	v := frame.Pop()
	frame.Push(DoubleValue(float64(v.Long)))
	return Value{}, false, nil
}

func opHandlerF2i(vm *VM, frame *Frame) (Value, bool, error) {
	v := frame.Pop()
	frame.Push(IntValue(floatToInt32(v.Float)))
	return Value{}, false, nil
}

func opHandlerF2l(vm *VM, frame *Frame) (Value, bool, error) {
	v := frame.Pop()
	frame.Push(LongValue(floatToInt64(float64(v.Float))))
	return Value{}, false, nil
}

func opHandlerF2d(vm *VM, frame *Frame) (Value, bool, error) {
	v := frame.Pop()
	frame.Push(DoubleValue(float64(v.Float)))
	return Value{}, false, nil
}

func opHandlerD2i(vm *VM, frame *Frame) (Value, bool, error) {
	v := frame.Pop()
	frame.Push(IntValue(doubleToInt32(v.Double)))
	return Value{}, false, nil
}

func opHandlerD2l(vm *VM, frame *Frame) (Value, bool, error) {
	v := frame.Pop()
	frame.Push(LongValue(floatToInt64(v.Double)))
	return Value{}, false, nil
}

func opHandlerD2f(vm *VM, frame *Frame) (Value, bool, error) {
	v := frame.Pop()
	frame.Push(FloatValue(float32(v.Double)))
	return Value{}, false, nil
}

func opHandlerI2b(vm *VM, frame *Frame) (Value, bool, error) {
	v := frame.Pop()
	frame.Push(IntValue(int32(int8(v.Int))))
	return Value{}, false, nil
}

func opHandlerI2c(vm *VM, frame *Frame) (Value, bool, error) {
	v := frame.Pop()
	frame.Push(IntValue(int32(uint16(v.Int))))
	return Value{}, false, nil
}

func opHandlerI2s(vm *VM, frame *Frame) (Value, bool, error) {
	v := frame.Pop()
	frame.Push(IntValue(int32(int16(v.Int))))
	return Value{}, false, nil
}

// floatToInt32/floatToInt64/doubleToInt32 implement JVMS 2.8.3's saturating,
// NaN-to-zero conversion semantics rather than Go's ordinary (and undefined
// on overflow) float-to-int truncation.
func floatToInt32(f float32) int32 {
	return doubleToInt32(float64(f))
}

func doubleToInt32(d float64) int32 {
	if d != d { // NaN
		return 0
	}
	if d >= 2147483647 {
		return 2147483647
	}
	if d <= -2147483648 {
		return -2147483648
	}
	return int32(d)
}

func floatToInt64(d float64) int64 {
	if d != d { // NaN
		return 0
	}
	if d >= 9223372036854775807 {
		return 9223372036854775807
	}
	if d <= -9223372036854775808 {
		return -9223372036854775808
	}
	return int64(d)
}
