package bootstrap

import (
	"strconv"

	"github.com/ymtdzzz/jjvm/pkg/heap"
	"github.com/ymtdzzz/jjvm/pkg/vm"
)

// registerStringNatives wires java/lang/String and java/lang/StringBuilder.
func registerStringNatives(v *vm.VM) {
	v.RegisterNative("java/lang/String.<init>:()V", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return setBackingString(v, args[0], "")
	})
	v.RegisterNative("java/lang/String.<init>:(Ljava/lang/String;)V", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		s, _ := v.Heap.StringValue(args[1].Ref)
		return setBackingString(v, args[0], s)
	})
	v.RegisterNative("java/lang/String.length", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		s, ok := v.Heap.StringValue(args[0].Ref)
		if !ok {
			return vm.Value{}, throwNative(v, "java/lang/NullPointerException", "")
		}
		return vm.IntValue(int32(len([]rune(s)))), nil
	})
	v.RegisterNative("java/lang/String.charAt", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		s, ok := v.Heap.StringValue(args[0].Ref)
		if !ok {
			return vm.Value{}, throwNative(v, "java/lang/NullPointerException", "")
		}
		r := []rune(s)
		idx := int(args[1].Int)
		if idx < 0 || idx >= len(r) {
			return vm.Value{}, throwNative(v, "java/lang/StringIndexOutOfBoundsException", strconv.Itoa(idx))
		}
		return vm.IntValue(int32(r[idx])), nil
	})
	v.RegisterNative("java/lang/String.equals", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		a, aok := v.Heap.StringValue(args[0].Ref)
		b, bok := v.Heap.StringValue(args[1].Ref)
		if !aok || !bok || a != b {
			return vm.IntValue(0), nil
		}
		return vm.IntValue(1), nil
	})
	v.RegisterNative("java/lang/String.hashCode", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		s, _ := v.Heap.StringValue(args[0].Ref)
		return vm.IntValue(javaStringHash(s)), nil
	})
	v.RegisterNative("java/lang/String.toString", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return args[0], nil
	})
	v.RegisterNative("java/lang/String.intern", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		s, ok := v.Heap.StringValue(args[0].Ref)
		if !ok {
			return vm.Value{}, throwNative(v, "java/lang/NullPointerException", "")
		}
		return vm.RefValue(v.Heap.Intern(s)), nil
	})
	v.RegisterNative("java/lang/String.concat", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		a, _ := v.Heap.StringValue(args[0].Ref)
		b, _ := v.Heap.StringValue(args[1].Ref)
		return vm.RefValue(v.Heap.NewString(a + b)), nil
	})
	v.RegisterNative("java/lang/String.valueOf:(I)Ljava/lang/String;", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return vm.RefValue(v.Heap.NewString(strconv.FormatInt(int64(args[0].Int), 10))), nil
	})
	v.RegisterNative("java/lang/String.valueOf:(J)Ljava/lang/String;", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return vm.RefValue(v.Heap.NewString(strconv.FormatInt(args[0].Long, 10))), nil
	})
	v.RegisterNative("java/lang/String.valueOf:(Z)Ljava/lang/String;", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return vm.RefValue(v.Heap.NewString(strconv.FormatBool(args[0].Int != 0))), nil
	})
	v.RegisterNative("java/lang/String.valueOf:(C)Ljava/lang/String;", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return vm.RefValue(v.Heap.NewString(string(rune(args[0].Int)))), nil
	})
	v.RegisterNative("java/lang/String.valueOf:(Ljava/lang/Object;)Ljava/lang/String;", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		if args[0].Ref == heap.NullRef {
			return vm.RefValue(v.Heap.NewString("null")), nil
		}
		s, err := stringOf(v, args[0])
		if err != nil {
			return vm.Value{}, err
		}
		return vm.RefValue(v.Heap.NewString(s)), nil
	})

	registerStringBuilderNatives(v)
}

// javaStringHash reproduces java.lang.String.hashCode's s[0]*31^(n-1) + ...
// recurrence (JLS 17 §String.hashCode), letting HashMap-keyed-by-string
// bytecode that calls it get the values it expects.
func javaStringHash(s string) int32 {
	var h int32
	for _, r := range s {
		h = h*31 + int32(r)
	}
	return h
}

func setBackingString(v *vm.VM, receiver vm.Value, s string) (vm.Value, error) {
	if _, ok := v.Heap.Deref(receiver.Ref); !ok {
		return vm.Value{}, throwNative(v, "java/lang/NullPointerException", "")
	}
	// String.<init> rebinds the backing text of the already-allocated
	// instance `new` created, rather than allocating a second one.
	v.Heap.RebindString(receiver.Ref, s)
	return vm.Value{}, nil
}

// registerStringBuilderNatives implements append as a single growing Go
// string kept in the instance's native backing slot (the same slot
// java/lang/String uses), so toString just reads it back out.
func registerStringBuilderNatives(v *vm.VM) {
	v.RegisterNative("java/lang/StringBuilder.<init>:()V", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return setBackingString(v, args[0], "")
	})
	v.RegisterNative("java/lang/StringBuilder.<init>:(Ljava/lang/String;)V", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		s, _ := v.Heap.StringValue(args[1].Ref)
		return setBackingString(v, args[0], s)
	})
	v.RegisterNative("java/lang/StringBuilder.toString", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		s, _ := v.Heap.StringValue(args[0].Ref)
		return vm.RefValue(v.Heap.NewString(s)), nil
	})
	v.RegisterNative("java/lang/StringBuilder.length", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		s, _ := v.Heap.StringValue(args[0].Ref)
		return vm.IntValue(int32(len([]rune(s)))), nil
	})

	appendFn := func(render func(args []vm.Value) string) vm.NativeFunc {
		return func(v *vm.VM, args []vm.Value) (vm.Value, error) {
			cur, _ := v.Heap.StringValue(args[0].Ref)
			v.Heap.RebindString(args[0].Ref, cur+render(args))
			return args[0], nil
		}
	}
	v.RegisterNative("java/lang/StringBuilder.append:(I)Ljava/lang/StringBuilder;", appendFn(func(a []vm.Value) string {
		return strconv.FormatInt(int64(a[1].Int), 10)
	}))
	v.RegisterNative("java/lang/StringBuilder.append:(J)Ljava/lang/StringBuilder;", appendFn(func(a []vm.Value) string {
		return strconv.FormatInt(a[1].Long, 10)
	}))
	v.RegisterNative("java/lang/StringBuilder.append:(F)Ljava/lang/StringBuilder;", appendFn(func(a []vm.Value) string {
		return strconv.FormatFloat(float64(a[1].Float), 'g', -1, 32)
	}))
	v.RegisterNative("java/lang/StringBuilder.append:(D)Ljava/lang/StringBuilder;", appendFn(func(a []vm.Value) string {
		return strconv.FormatFloat(a[1].Double, 'g', -1, 64)
	}))
	v.RegisterNative("java/lang/StringBuilder.append:(Z)Ljava/lang/StringBuilder;", appendFn(func(a []vm.Value) string {
		return strconv.FormatBool(a[1].Int != 0)
	}))
	v.RegisterNative("java/lang/StringBuilder.append:(C)Ljava/lang/StringBuilder;", appendFn(func(a []vm.Value) string {
		return string(rune(a[1].Int))
	}))
	v.RegisterNative("java/lang/StringBuilder.append:(Ljava/lang/String;)Ljava/lang/StringBuilder;", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		cur, _ := v.Heap.StringValue(args[0].Ref)
		add, err := stringOf(v, args[1])
		if err != nil {
			return vm.Value{}, err
		}
		v.Heap.RebindString(args[0].Ref, cur+add)
		return args[0], nil
	})
	v.RegisterNative("java/lang/StringBuilder.append:(Ljava/lang/Object;)Ljava/lang/StringBuilder;", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		cur, _ := v.Heap.StringValue(args[0].Ref)
		add, err := stringOf(v, args[1])
		if err != nil {
			return vm.Value{}, err
		}
		v.Heap.RebindString(args[0].Ref, cur+add)
		return args[0], nil
	})
}
