package bootstrap

import (
	"io"
	"testing"

	"github.com/ymtdzzz/jjvm/pkg/heap"
	"github.com/ymtdzzz/jjvm/pkg/vm"
)

func testVM() *vm.VM {
	h := heap.NewHeap()
	v := vm.NewVM(nil, h)
	v.Stdout = io.Discard
	v.Stderr = io.Discard
	return v
}

func TestObjectToString(t *testing.T) {
	v := testVM()
	ref := v.Heap.AllocInstance("java/lang/Object", map[string]vm.Value{})

	got, err := objectToString(v, vm.RefValue(ref))
	if err != nil {
		t.Fatalf("objectToString: %v", err)
	}
	s, ok := v.Heap.StringValue(got.Ref)
	if !ok {
		t.Fatal("objectToString did not return a heap string")
	}
	want := "java/lang/Object@" + itohex(uint32(ref))
	if s != want {
		t.Errorf("got %q, want %q", s, want)
	}
}

func itohex(n uint32) string {
	const hex = "0123456789abcdef"
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = hex[n%16]
		n /= 16
	}
	return string(buf[i:])
}

func TestThrowNative(t *testing.T) {
	v := testVM()

	err := throwNative(v, "java/lang/NullPointerException", "boom")
	javaExc, ok := err.(*vm.JavaException)
	if !ok {
		t.Fatalf("got %T, want *vm.JavaException", err)
	}
	if javaExc.ClassName != "java/lang/NullPointerException" {
		t.Errorf("ClassName = %q, want java/lang/NullPointerException", javaExc.ClassName)
	}
	inst, ok := v.Heap.Deref(javaExc.Object)
	if !ok {
		t.Fatal("throwNative did not allocate a heap instance")
	}
	if inst.ClassName != "java/lang/NullPointerException" {
		t.Errorf("allocated instance class = %q", inst.ClassName)
	}
}

func TestSign(t *testing.T) {
	tests := []struct {
		n    int64
		want int64
	}{
		{-5, -1},
		{0, 0},
		{5, 1},
	}
	for _, tt := range tests {
		if got := sign(tt.n); got != tt.want {
			t.Errorf("sign(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestPrimAsInt64(t *testing.T) {
	tests := []struct {
		name string
		v    vm.Value
		want int64
	}{
		{"int", vm.IntValue(42), 42},
		{"long", vm.LongValue(1 << 40), 1 << 40},
		{"float truncates", vm.FloatValue(3.9), 3},
		{"double truncates", vm.DoubleValue(-3.9), -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := primAsInt64(tt.v); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPrimAsFloat64(t *testing.T) {
	tests := []struct {
		name string
		v    vm.Value
		want float64
	}{
		{"int", vm.IntValue(7), 7},
		{"long", vm.LongValue(7), 7},
		{"double", vm.DoubleValue(1.5), 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := primAsFloat64(tt.v); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStringOf(t *testing.T) {
	v := testVM()

	t.Run("null reference", func(t *testing.T) {
		got, err := stringOf(v, vm.NullValue())
		if err != nil {
			t.Fatalf("stringOf: %v", err)
		}
		if got != "null" {
			t.Errorf("got %q, want \"null\"", got)
		}
	})

	t.Run("heap string returns its text", func(t *testing.T) {
		ref := v.Heap.NewString("hello")
		got, err := stringOf(v, vm.RefValue(ref))
		if err != nil {
			t.Fatalf("stringOf: %v", err)
		}
		if got != "hello" {
			t.Errorf("got %q, want \"hello\"", got)
		}
	})

	t.Run("non-string object falls back to toString", func(t *testing.T) {
		ref := v.Heap.AllocInstance("some/Class", map[string]vm.Value{})
		got, err := stringOf(v, vm.RefValue(ref))
		if err != nil {
			t.Fatalf("stringOf: %v", err)
		}
		want := "some/Class@" + itohex(uint32(ref))
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}

func TestSystemArraycopy(t *testing.T) {
	v := testVM()
	src, err := v.Heap.AllocArray(heap.ArrayInt, "", 5)
	if err != nil {
		t.Fatalf("AllocArray(src): %v", err)
	}
	dst, err := v.Heap.AllocArray(heap.ArrayInt, "", 5)
	if err != nil {
		t.Fatalf("AllocArray(dst): %v", err)
	}
	srcArr, _ := v.Heap.DerefArray(src)
	for i := range srcArr.Elements {
		srcArr.Elements[i] = vm.IntValue(int32(i + 1))
	}

	t.Run("copies the requested slice", func(t *testing.T) {
		args := []vm.Value{vm.RefValue(src), vm.IntValue(1), vm.RefValue(dst), vm.IntValue(2), vm.IntValue(3)}
		if err := systemArraycopy(v, args); err != nil {
			t.Fatalf("systemArraycopy: %v", err)
		}
		dstArr, _ := v.Heap.DerefArray(dst)
		want := []int32{0, 0, 2, 3, 4}
		for i, w := range want {
			if dstArr.Elements[i].Int != w {
				t.Errorf("dst[%d] = %d, want %d", i, dstArr.Elements[i].Int, w)
			}
		}
	})

	t.Run("out of bounds raises ArrayIndexOutOfBoundsException", func(t *testing.T) {
		args := []vm.Value{vm.RefValue(src), vm.IntValue(3), vm.RefValue(dst), vm.IntValue(0), vm.IntValue(10)}
		err := systemArraycopy(v, args)
		javaExc, ok := err.(*vm.JavaException)
		if !ok {
			t.Fatalf("got %v, want *vm.JavaException", err)
		}
		if javaExc.ClassName != "java/lang/ArrayIndexOutOfBoundsException" {
			t.Errorf("got class %s, want java/lang/ArrayIndexOutOfBoundsException", javaExc.ClassName)
		}
	})
}

func TestStreamWriter(t *testing.T) {
	v := testVM()

	t.Run("fd=2 routes to Stderr", func(t *testing.T) {
		ref := v.Heap.AllocInstance("java/io/PrintStream", map[string]vm.Value{"fd": vm.IntValue(fdErr)})
		w, err := streamWriter(v, vm.RefValue(ref))
		if err != nil {
			t.Fatalf("streamWriter: %v", err)
		}
		if w != v.Stderr {
			t.Error("expected Stderr for fd=2")
		}
	})

	t.Run("fd=1 routes to Stdout", func(t *testing.T) {
		ref := v.Heap.AllocInstance("java/io/PrintStream", map[string]vm.Value{"fd": vm.IntValue(fdOut)})
		w, err := streamWriter(v, vm.RefValue(ref))
		if err != nil {
			t.Fatalf("streamWriter: %v", err)
		}
		if w != v.Stdout {
			t.Error("expected Stdout for fd=1")
		}
	})

	t.Run("null receiver raises NullPointerException", func(t *testing.T) {
		_, err := streamWriter(v, vm.NullValue())
		javaExc, ok := err.(*vm.JavaException)
		if !ok {
			t.Fatalf("got %v, want *vm.JavaException", err)
		}
		if javaExc.ClassName != "java/lang/NullPointerException" {
			t.Errorf("got class %s, want java/lang/NullPointerException", javaExc.ClassName)
		}
	})
}
