package bootstrap

import (
	"fmt"

	"github.com/ymtdzzz/jjvm/pkg/heap"
	"github.com/ymtdzzz/jjvm/pkg/vm"
)

// registerObjectNatives wires java/lang/Object and java/lang/Throwable.
func registerObjectNatives(v *vm.VM) {
	v.RegisterNative("java/lang/Object.<init>", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return vm.Value{}, nil
	})
	v.RegisterNative("java/lang/Object.hashCode", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return vm.IntValue(int32(args[0].Ref)), nil
	})
	v.RegisterNative("java/lang/Object.equals", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		if args[0].Ref == args[1].Ref {
			return vm.IntValue(1), nil
		}
		return vm.IntValue(0), nil
	})
	v.RegisterNative("java/lang/Object.toString", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return objectToString(v, args[0])
	})
	v.RegisterNative("java/lang/Object.getClass", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		inst, ok := v.Heap.Deref(args[0].Ref)
		if !ok {
			return vm.Value{}, throwNative(v, "java/lang/NullPointerException", "")
		}
		return vm.RefValue(v.ClassObjectFor(inst.ClassName)), nil
	})
	// Single-threaded: notify/notifyAll/wait are no-ops, never any other
	// thread to coordinate with.
	noop := func(v *vm.VM, args []vm.Value) (vm.Value, error) { return vm.Value{}, nil }
	v.RegisterNative("java/lang/Object.notify", noop)
	v.RegisterNative("java/lang/Object.notifyAll", noop)
	v.RegisterNative("java/lang/Object.wait", noop)

	registerThrowableNatives(v)
}

func objectToString(v *vm.VM, receiver vm.Value) (vm.Value, error) {
	inst, ok := v.Heap.Deref(receiver.Ref)
	if !ok {
		return vm.Value{}, throwNative(v, "java/lang/NullPointerException", "")
	}
	return vm.RefValue(v.Heap.NewString(fmt.Sprintf("%s@%x", inst.ClassName, uint32(receiver.Ref)))), nil
}

// throwableClasses lists every synthetic class pkg/loader declares a
// Throwable-shaped <init>/getMessage/toString/fillInStackTrace/
// printStackTrace surface for. Constructors aren't inherited in Java, so
// each one needs its own native registration even though they all share
// the same Go implementation.
var throwableClasses = []string{
	"java/lang/Throwable",
	"java/lang/Exception",
	"java/lang/RuntimeException",
	"java/lang/Error",
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
	"java/lang/NoSuchFieldError",
	"java/lang/NoSuchMethodError",
	"java/lang/AbstractMethodError",
	"java/lang/StackOverflowError",
}

// registerThrowableNatives wires the small set of Throwable methods a
// caught/printed exception needs. The Go-level frame unwind already
// records a stack trace on *vm.JavaException for uncaught propagation
// (see vm.StackTraceElement); fillInStackTrace has no Java-visible field
// to populate it into, so it stays a no-op returning the receiver,
// matching the real method's self-returning signature.
func registerThrowableNatives(v *vm.VM) {
	for _, class := range throwableClasses {
		v.RegisterNative(class+".<init>:()V", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
			return vm.Value{}, nil
		})
		v.RegisterNative(class+".<init>:(Ljava/lang/String;)V", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
			inst, ok := v.Heap.Deref(args[0].Ref)
			if !ok {
				return vm.Value{}, throwNative(v, "java/lang/NullPointerException", "")
			}
			if inst.Fields == nil {
				inst.Fields = map[string]vm.Value{}
			}
			inst.Fields["message"] = args[1]
			return vm.Value{}, nil
		})
	}
	v.RegisterNative("java/lang/Throwable.getMessage", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		inst, ok := v.Heap.Deref(args[0].Ref)
		if !ok {
			return vm.Value{}, throwNative(v, "java/lang/NullPointerException", "")
		}
		if m, ok := inst.Fields["message"]; ok {
			return m, nil
		}
		return vm.NullValue(), nil
	})
	v.RegisterNative("java/lang/Throwable.toString", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		inst, ok := v.Heap.Deref(args[0].Ref)
		if !ok {
			return vm.Value{}, throwNative(v, "java/lang/NullPointerException", "")
		}
		if m, ok := inst.Fields["message"]; ok && m.Ref != heap.NullRef {
			if s, ok := v.Heap.StringValue(m.Ref); ok {
				return vm.RefValue(v.Heap.NewString(inst.ClassName + ": " + s)), nil
			}
		}
		return vm.RefValue(v.Heap.NewString(inst.ClassName)), nil
	})
	v.RegisterNative("java/lang/Throwable.fillInStackTrace", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return args[0], nil
	})
	v.RegisterNative("java/lang/Throwable.printStackTrace", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		inst, ok := v.Heap.Deref(args[0].Ref)
		if !ok {
			return vm.Value{}, throwNative(v, "java/lang/NullPointerException", "")
		}
		msg := inst.ClassName
		if m, ok := inst.Fields["message"]; ok && m.Ref != heap.NullRef {
			if s, ok := v.Heap.StringValue(m.Ref); ok {
				msg = inst.ClassName + ": " + s
			}
		}
		fmt.Fprintln(v.Stderr, msg)
		return vm.Value{}, nil
	})
}

// throwNative allocates a Throwable instance and returns it wrapped as the
// *vm.JavaException error pkg/vm's exception-table walk already knows how
// to catch, mirroring vm.VM's own unexported throw helper (out of reach
// from this package, so natives build the same shape by hand).
func throwNative(v *vm.VM, className, message string) error {
	fields := map[string]vm.Value{}
	ref := v.Heap.AllocInstance(className, fields)
	if message != "" {
		fields["message"] = vm.RefValue(v.Heap.NewString(message))
	}
	return &vm.JavaException{ClassName: className, Object: ref, Message: message}
}
