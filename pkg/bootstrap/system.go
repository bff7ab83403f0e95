package bootstrap

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ymtdzzz/jjvm/pkg/heap"
	"github.com/ymtdzzz/jjvm/pkg/vm"
)

// fdOut/fdErr tag a java/io/PrintStream instance's backing writer, stashed
// in its "fd" field the way a real PrintStream carries a FileDescriptor —
// here it's just enough for println/print to pick vm.Stdout vs vm.Stderr.
const (
	fdOut = 1
	fdErr = 2
)

// registerSystemNatives wires java/lang/System's statics and
// java/io/PrintStream's instance methods. println/print are registered
// once per descriptor, switching on descriptor the way PrintStream's own
// overload set does, since a bare int/long/float/double Value carries no
// kind distinct enough to tell a Java `boolean` or `char` argument from
// an `int` one.
func registerSystemNatives(v *vm.VM) {
	sysClass, err := v.Classes.EnsureLoaded("java/lang/System")
	if err == nil {
		outRef := v.Heap.AllocInstance("java/io/PrintStream", map[string]vm.Value{"fd": vm.IntValue(fdOut)})
		errRef := v.Heap.AllocInstance("java/io/PrintStream", map[string]vm.Value{"fd": vm.IntValue(fdErr)})
		sysClass.StaticFields["out"] = vm.RefValue(outRef)
		sysClass.StaticFields["err"] = vm.RefValue(errRef)
	}

	v.RegisterNative("java/lang/System.arraycopy", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return vm.Value{}, systemArraycopy(v, args)
	})
	v.RegisterNative("java/lang/System.nanoTime", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return vm.LongValue(time.Now().UnixNano()), nil
	})
	v.RegisterNative("java/lang/System.currentTimeMillis", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return vm.LongValue(time.Now().UnixMilli()), nil
	})
	v.RegisterNative("java/lang/System.exit", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return vm.Value{}, &vm.JavaException{ClassName: "java/lang/System$ExitSignal", Message: strconv.Itoa(int(args[0].Int))}
	})

	registerPrintStreamDescriptor(v, "println", "()V", func(w io.Writer, args []vm.Value) { fmt.Fprintln(w) })
	registerPrintStreamDescriptor(v, "println", "(I)V", func(w io.Writer, args []vm.Value) { fmt.Fprintln(w, args[1].Int) })
	registerPrintStreamDescriptor(v, "println", "(J)V", func(w io.Writer, args []vm.Value) { fmt.Fprintln(w, args[1].Long) })
	registerPrintStreamDescriptor(v, "println", "(F)V", func(w io.Writer, args []vm.Value) { fmt.Fprintln(w, args[1].Float) })
	registerPrintStreamDescriptor(v, "println", "(D)V", func(w io.Writer, args []vm.Value) { fmt.Fprintln(w, args[1].Double) })
	registerPrintStreamDescriptor(v, "println", "(C)V", func(w io.Writer, args []vm.Value) { fmt.Fprintf(w, "%c\n", rune(args[1].Int)) })
	registerPrintStreamDescriptor(v, "println", "(Z)V", func(w io.Writer, args []vm.Value) { fmt.Fprintln(w, args[1].Int != 0) })

	v.RegisterNative("java/io/PrintStream.println:(Ljava/lang/String;)V", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return printObjectLike(v, args, true)
	})
	v.RegisterNative("java/io/PrintStream.println:(Ljava/lang/Object;)V", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return printObjectLike(v, args, true)
	})

	registerPrintStreamDescriptor(v, "print", "(I)V", func(w io.Writer, args []vm.Value) { fmt.Fprint(w, args[1].Int) })
	registerPrintStreamDescriptor(v, "print", "(J)V", func(w io.Writer, args []vm.Value) { fmt.Fprint(w, args[1].Long) })
	registerPrintStreamDescriptor(v, "print", "(F)V", func(w io.Writer, args []vm.Value) { fmt.Fprint(w, args[1].Float) })
	registerPrintStreamDescriptor(v, "print", "(D)V", func(w io.Writer, args []vm.Value) { fmt.Fprint(w, args[1].Double) })
	registerPrintStreamDescriptor(v, "print", "(C)V", func(w io.Writer, args []vm.Value) { fmt.Fprintf(w, "%c", rune(args[1].Int)) })
	registerPrintStreamDescriptor(v, "print", "(Z)V", func(w io.Writer, args []vm.Value) { fmt.Fprint(w, args[1].Int != 0) })

	v.RegisterNative("java/io/PrintStream.print:(Ljava/lang/String;)V", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return printObjectLike(v, args, false)
	})
	v.RegisterNative("java/io/PrintStream.print:(Ljava/lang/Object;)V", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return printObjectLike(v, args, false)
	})

	v.RegisterNative("java/io/PrintStream.flush", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return vm.Value{}, nil
	})
}

func registerPrintStreamDescriptor(v *vm.VM, method, desc string, write func(io.Writer, []vm.Value)) {
	v.RegisterNative("java/io/PrintStream."+method+":"+desc, func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		w, err := streamWriter(v, args[0])
		if err != nil {
			return vm.Value{}, err
		}
		write(w, args)
		return vm.Value{}, nil
	})
}

// printObjectLike backs the String/Object overloads of println/print: a
// null reference prints "null", a java/lang/String prints its backing
// text, and anything else falls back to Object.toString.
func printObjectLike(v *vm.VM, args []vm.Value, newline bool) (vm.Value, error) {
	w, err := streamWriter(v, args[0])
	if err != nil {
		return vm.Value{}, err
	}
	s, err := stringOf(v, args[1])
	if err != nil {
		return vm.Value{}, err
	}
	if newline {
		fmt.Fprintln(w, s)
	} else {
		fmt.Fprint(w, s)
	}
	return vm.Value{}, nil
}

func stringOf(v *vm.VM, arg vm.Value) (string, error) {
	if arg.Ref == heap.NullRef {
		return "null", nil
	}
	if s, ok := v.Heap.StringValue(arg.Ref); ok {
		return s, nil
	}
	ret, err := objectToString(v, arg)
	if err != nil {
		return "", err
	}
	s, _ := v.Heap.StringValue(ret.Ref)
	return s, nil
}

func systemArraycopy(v *vm.VM, args []vm.Value) error {
	// arraycopy(Object src, int srcPos, Object dest, int destPos, int length)
	src, ok := v.Heap.DerefArray(args[0].Ref)
	if !ok {
		return throwNative(v, "java/lang/NullPointerException", "")
	}
	dst, ok := v.Heap.DerefArray(args[2].Ref)
	if !ok {
		return throwNative(v, "java/lang/NullPointerException", "")
	}
	srcPos, destPos, length := int(args[1].Int), int(args[3].Int), int(args[4].Int)
	if srcPos < 0 || destPos < 0 || length < 0 ||
		srcPos+length > len(src.Elements) || destPos+length > len(dst.Elements) {
		return throwNative(v, "java/lang/ArrayIndexOutOfBoundsException", "")
	}
	copy(dst.Elements[destPos:destPos+length], src.Elements[srcPos:srcPos+length])
	return nil
}

func streamWriter(v *vm.VM, receiver vm.Value) (io.Writer, error) {
	inst, ok := v.Heap.Deref(receiver.Ref)
	if !ok {
		return nil, throwNative(v, "java/lang/NullPointerException", "")
	}
	if fd, ok := inst.Fields["fd"]; ok && fd.Int == fdErr {
		return v.Stderr, nil
	}
	return v.Stdout, nil
}
