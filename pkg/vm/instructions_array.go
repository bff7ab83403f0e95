package vm

import (
	"strconv"

	"github.com/ymtdzzz/jjvm/pkg/descriptor"
	"github.com/ymtdzzz/jjvm/pkg/heap"
)

// registerArrayOps wires array creation, length, and element access/store.
func registerArrayOps() {
	dispatch[opIaload] = makeArrayLoad()
	dispatch[opLaload] = makeArrayLoad()
	dispatch[opFaload] = makeArrayLoad()
	dispatch[opDaload] = makeArrayLoad()
	dispatch[opAaload] = makeArrayLoad()
	dispatch[opBaload] = makeArrayLoad()
	dispatch[opCaload] = makeArrayLoad()
	dispatch[opSaload] = makeArrayLoad()

	dispatch[opIastore] = opHandlerIastore
	dispatch[opLastore] = opHandlerLastore
	dispatch[opFastore] = opHandlerFastore
	dispatch[opDastore] = opHandlerDastore
	dispatch[opAastore] = opHandlerAastore
	dispatch[opBastore] = opHandlerBastore
	dispatch[opCastore] = opHandlerCastore
	dispatch[opSastore] = opHandlerSastore

	dispatch[opArraylength] = opHandlerArraylength
	dispatch[opNewarray] = opHandlerNewarray
	dispatch[opAnewarray] = opHandlerAnewarray
	dispatch[opMultianewarray] = opHandlerMultianewarray
}

func (vm *VM) derefArrayForAccess(frame *Frame, r heap.Ref) (*heap.Array, error) {
	arr, ok := vm.Heap.DerefArray(r)
	if !ok {
		return nil, vm.throw("java/lang/NullPointerException", "")
	}
	return arr, nil
}

func makeArrayLoad() opHandler {
	return func(vm *VM, frame *Frame) (Value, bool, error) {
		idx := frame.Pop()
		arrRef := frame.Pop()
		arr, err := vm.derefArrayForAccess(frame, arrRef.Ref)
		if err != nil {
			return Value{}, false, err
		}
		i := int(idx.Int)
		if i < 0 || i >= arr.Length() {
			return Value{}, false, vm.throw("java/lang/ArrayIndexOutOfBoundsException", strconv.Itoa(i))
		}
		frame.Push(arr.Elements[i])
		return Value{}, false, nil
	}
}

// arrayStoreCommon pops value/index/arrayref, bounds-checks the index, and
// returns the array and slot ready for the caller to write — the part
// every *astore opcode shares before its element-kind-specific narrowing.
func arrayStoreCommon(vm *VM, frame *Frame) (*heap.Array, int, Value, error) {
	val := frame.Pop()
	idx := frame.Pop()
	arrRef := frame.Pop()
	arr, err := vm.derefArrayForAccess(frame, arrRef.Ref)
	if err != nil {
		return nil, 0, Value{}, err
	}
	i := int(idx.Int)
	if i < 0 || i >= arr.Length() {
		return nil, 0, Value{}, vm.throw("java/lang/ArrayIndexOutOfBoundsException", strconv.Itoa(i))
	}
	return arr, i, val, nil
}

func opHandlerIastore(vm *VM, frame *Frame) (Value, bool, error) {
	arr, i, val, err := arrayStoreCommon(vm, frame)
	if err != nil {
		return Value{}, false, err
	}
	arr.Elements[i] = val
	return Value{}, false, nil
}

func opHandlerLastore(vm *VM, frame *Frame) (Value, bool, error) {
	arr, i, val, err := arrayStoreCommon(vm, frame)
	if err != nil {
		return Value{}, false, err
	}
	arr.Elements[i] = val
	return Value{}, false, nil
}

func opHandlerFastore(vm *VM, frame *Frame) (Value, bool, error) {
	arr, i, val, err := arrayStoreCommon(vm, frame)
	if err != nil {
		return Value{}, false, err
	}
	arr.Elements[i] = val
	return Value{}, false, nil
}

// opHandlerDastore asserts the target is actually a double[], matching
// original_source's dastore.rs assert_eq!(array.atype, 7): since doubles
// and longs are both category-2 values, a descriptor mismatch in the
// bytecode would otherwise silently write a double bit pattern into a
// long[] (or vice versa) with no complaint until read back wrong.
func opHandlerDastore(vm *VM, frame *Frame) (Value, bool, error) {
	arr, i, val, err := arrayStoreCommon(vm, frame)
	if err != nil {
		return Value{}, false, err
	}
	if arr.Kind != heap.ArrayDouble {
		return Value{}, false, bug("dastore: expected double array (atype 7), got atype %d", arr.Kind)
	}
	arr.Elements[i] = val
	return Value{}, false, nil
}

func opHandlerAastore(vm *VM, frame *Frame) (Value, bool, error) {
	arr, i, val, err := arrayStoreCommon(vm, frame)
	if err != nil {
		return Value{}, false, err
	}
	arr.Elements[i] = val
	return Value{}, false, nil
}

// opHandlerBastore truncates to byte for a byte[] target, or to the
// low-order bit for a boolean[] target — bastore serves both per JVMS 6.5,
// since there is no way to tell them apart from the opcode alone.
func opHandlerBastore(vm *VM, frame *Frame) (Value, bool, error) {
	arr, i, val, err := arrayStoreCommon(vm, frame)
	if err != nil {
		return Value{}, false, err
	}
	if arr.Kind == heap.ArrayBoolean {
		b := int32(0)
		if val.Int&1 != 0 {
			b = 1
		}
		arr.Elements[i] = IntValue(b)
	} else {
		arr.Elements[i] = IntValue(int32(int8(val.Int)))
	}
	return Value{}, false, nil
}

// opHandlerCastore truncates to an unsigned 16-bit char, matching how the
// int-to-char conversion opcode widens it back on read.
func opHandlerCastore(vm *VM, frame *Frame) (Value, bool, error) {
	arr, i, val, err := arrayStoreCommon(vm, frame)
	if err != nil {
		return Value{}, false, err
	}
	arr.Elements[i] = IntValue(int32(uint16(val.Int)))
	return Value{}, false, nil
}

// opHandlerSastore truncates to a signed 16-bit short.
func opHandlerSastore(vm *VM, frame *Frame) (Value, bool, error) {
	arr, i, val, err := arrayStoreCommon(vm, frame)
	if err != nil {
		return Value{}, false, err
	}
	arr.Elements[i] = IntValue(int32(int16(val.Int)))
	return Value{}, false, nil
}

func opHandlerArraylength(vm *VM, frame *Frame) (Value, bool, error) {
	arrRef := frame.Pop()
	arr, err := vm.derefArrayForAccess(frame, arrRef.Ref)
	if err != nil {
		return Value{}, false, err
	}
	frame.Push(IntValue(int32(arr.Length())))
	return Value{}, false, nil
}

// newarrayKind maps the `newarray` atype operand (JVMS table 6.5) to the
// heap's ArrayKind, which uses the same numbering.
func newarrayKind(atype uint8) heap.ArrayKind {
	return heap.ArrayKind(atype)
}

func opHandlerNewarray(vm *VM, frame *Frame) (Value, bool, error) {
	atype := frame.ReadU8()
	length := frame.Pop()
	ref, err := vm.Heap.AllocArray(newarrayKind(atype), "", int(length.Int))
	if err != nil {
		return Value{}, false, vm.throw("java/lang/NegativeArraySizeException", strconv.Itoa(int(length.Int)))
	}
	frame.Push(RefValue(ref))
	return Value{}, false, nil
}

func opHandlerAnewarray(vm *VM, frame *Frame) (Value, bool, error) {
	idx := frame.ReadU16()
	pool := frame.Class.Model.ConstantPool
	if int(idx) >= len(pool) {
		return Value{}, false, bug("anewarray: constant pool index %d out of range", idx)
	}
	className := pool[idx].ClassName
	length := frame.Pop()
	ref, err := vm.Heap.AllocArray(heap.ArrayRef, className, int(length.Int))
	if err != nil {
		return Value{}, false, vm.throw("java/lang/NegativeArraySizeException", strconv.Itoa(int(length.Int)))
	}
	frame.Push(RefValue(ref))
	return Value{}, false, nil
}

// primitiveArrayKind maps a primitive descriptor.Kind to the matching
// heap.ArrayKind, which shares newarray's atype numbering (JVMS table 6.5).
func primitiveArrayKind(k descriptor.Kind) heap.ArrayKind {
	switch k {
	case descriptor.KindBoolean:
		return heap.ArrayBoolean
	case descriptor.KindChar:
		return heap.ArrayChar
	case descriptor.KindFloat:
		return heap.ArrayFloat
	case descriptor.KindDouble:
		return heap.ArrayDouble
	case descriptor.KindByte:
		return heap.ArrayByte
	case descriptor.KindShort:
		return heap.ArrayShort
	case descriptor.KindLong:
		return heap.ArrayLong
	default:
		return heap.ArrayInt
	}
}

// allocMultiArray allocates one dimension of a multianewarray and, while
// counts still has entries left and this level's element type is itself
// an array, recurses to fill every slot with a freshly allocated nested
// array. Dimensions beyond len(counts) are left null, matching JVMS 6.5's
// multianewarray: "if dimensions is less than the number of dimensions of
// the array type, the remaining dimensions are left uninitialized."
func (vm *VM) allocMultiArray(t descriptor.TypeSignature, counts []int32) (heap.Ref, error) {
	n := counts[0]
	if n < 0 {
		return heap.NullRef, vm.throw("java/lang/NegativeArraySizeException", strconv.Itoa(int(n)))
	}

	elem := *t.Element
	var kind heap.ArrayKind
	var elementClass string
	switch elem.Kind {
	case descriptor.KindArray:
		kind = heap.ArrayRef
		elementClass = elem.Format()
	case descriptor.KindClass:
		kind = heap.ArrayRef
		elementClass = elem.Class
	default:
		kind = primitiveArrayKind(elem.Kind)
	}

	ref, _ := vm.Heap.AllocArray(kind, elementClass, int(n)) // n >= 0 was checked above

	if len(counts) > 1 && elem.Kind == descriptor.KindArray {
		arr, _ := vm.Heap.DerefArray(ref)
		for i := range arr.Elements {
			innerRef, err := vm.allocMultiArray(elem, counts[1:])
			if err != nil {
				return heap.NullRef, err
			}
			arr.Elements[i] = RefValue(innerRef)
		}
	}
	return ref, nil
}

// opHandlerMultianewarray allocates all dims dimensions named by the
// operand, recursively filling every nested array rather than leaving
// inner dimensions null.
func opHandlerMultianewarray(vm *VM, frame *Frame) (Value, bool, error) {
	idx := frame.ReadU16()
	dims := frame.ReadU8()
	pool := frame.Class.Model.ConstantPool
	if int(idx) >= len(pool) {
		return Value{}, false, bug("multianewarray: constant pool index %d out of range", idx)
	}
	className := pool[idx].ClassName
	arrayType, err := descriptor.ParseType(className)
	if err != nil || arrayType.Kind != descriptor.KindArray {
		return Value{}, false, bug("multianewarray: %q is not an array descriptor", className)
	}

	counts := make([]int32, dims)
	for i := int(dims) - 1; i >= 0; i-- {
		counts[i] = frame.Pop().Int
	}

	ref, err := vm.allocMultiArray(arrayType, counts)
	if err != nil {
		return Value{}, false, err
	}
	frame.Push(RefValue(ref))
	return Value{}, false, nil
}

