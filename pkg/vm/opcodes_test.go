package vm

import (
	"io"
	"testing"

	"github.com/ymtdzzz/jjvm/pkg/classarea"
	"github.com/ymtdzzz/jjvm/pkg/classfile"
	"github.com/ymtdzzz/jjvm/pkg/descriptor"
	"github.com/ymtdzzz/jjvm/pkg/heap"
)

// executeAndGetInt runs code to completion on a bare Frame and returns the
// int result of an ireturn. code must end with ireturn (0xAC). Optional
// locals are set as int32 values starting at index 0.
func executeAndGetInt(t *testing.T, v *VM, code []byte, locals ...int32) int32 {
	t.Helper()

	maxLocals := uint16(len(locals))
	if maxLocals < 4 {
		maxLocals = 4
	}
	frame := NewFrame(maxLocals, 16, code, nil)
	for i, val := range locals {
		frame.SetLocal(i, IntValue(val))
	}

	for frame.PC < len(frame.Code) {
		opcode := frame.Code[frame.PC]
		frame.PC++
		retVal, hasReturn, err := v.executeInstruction(frame, opcode)
		if err != nil {
			t.Fatalf("execution error at pc=%d: %v", frame.PC-1, err)
		}
		if hasReturn {
			return retVal.Int
		}
	}
	t.Fatal("bytecode did not return a value (missing ireturn?)")
	return 0
}

func bareVM() *VM {
	return &VM{Stdout: io.Discard, Stderr: io.Discard, Trace: func(string, ...interface{}) {}}
}

func TestIconstAndBipush(t *testing.T) {
	tests := []struct {
		name   string
		opcode byte
		want   int32
	}{
		{"iconst_m1", opIconstM1, -1},
		{"iconst_0", opIconst0, 0},
		{"iconst_5", opIconst5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := []byte{tt.opcode, opIreturn}
			if got := executeAndGetInt(t, bareVM(), code); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}

	t.Run("bipush negative", func(t *testing.T) {
		code := []byte{opBipush, 0xfb, opIreturn} // 0xfb is int8(-5)
		if got := executeAndGetInt(t, bareVM(), code); got != -5 {
			t.Errorf("got %d, want -5", got)
		}
	})
}

func TestArithmeticInstructions(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want int32
	}{
		{"iadd 3+4", []byte{opIconst3, opIconst4, opIadd, opIreturn}, 7},
		{"isub 5-3", []byte{opIconst5, opIconst3, opIsub, opIreturn}, 2},
		{"imul 3*4", []byte{opIconst3, opIconst4, opImul, opIreturn}, 12},
		{"idiv 5/2", []byte{opIconst5, opIconst2, opIdiv, opIreturn}, 2},
		{"irem 5%2", []byte{opIconst5, opIconst2, opIrem, opIreturn}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := executeAndGetInt(t, bareVM(), tt.code); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}

	t.Run("idiv by zero raises ArithmeticException", func(t *testing.T) {
		code := []byte{opIconst1, opIconst0, opIdiv, opIreturn}
		v := bareVM()
		v.Heap = heap.NewHeap()
		frame := NewFrame(4, 16, code, nil)
		_, _, err := v.executeInstruction(frame, code[0])
		if err != nil {
			t.Fatalf("iconst_1: %v", err)
		}
		_, _, err = v.executeInstruction(frame, code[1])
		if err != nil {
			t.Fatalf("iconst_0: %v", err)
		}
		frame.PC = 2
		_, _, err = v.executeInstruction(frame, code[2])
		javaExc, ok := err.(*JavaException)
		if !ok {
			t.Fatalf("idiv by zero: got %v, want *JavaException", err)
		}
		if javaExc.ClassName != "java/lang/ArithmeticException" {
			t.Errorf("got class %s, want java/lang/ArithmeticException", javaExc.ClassName)
		}
	})
}

func TestStackOps(t *testing.T) {
	t.Run("dup duplicates top of stack", func(t *testing.T) {
		// iconst_3, dup, iadd, ireturn == 3+3
		code := []byte{opIconst3, opDup, opIadd, opIreturn}
		if got := executeAndGetInt(t, bareVM(), code); got != 6 {
			t.Errorf("got %d, want 6", got)
		}
	})

	t.Run("swap reverses the top two values before isub", func(t *testing.T) {
		// iconst_5, iconst_2, swap, isub == 2-5
		code := []byte{opIconst5, opIconst2, opSwap, opIsub, opIreturn}
		if got := executeAndGetInt(t, bareVM(), code); got != -3 {
			t.Errorf("got %d, want -3", got)
		}
	})

	t.Run("pop discards the pushed value", func(t *testing.T) {
		// iconst_1, iconst_2, pop, ireturn == 1
		code := []byte{opIconst1, opIconst2, opPop, opIreturn}
		if got := executeAndGetInt(t, bareVM(), code); got != 1 {
			t.Errorf("got %d, want 1", got)
		}
	})
}

func TestBranchInstructions(t *testing.T) {
	t.Run("if_icmpeq taken", func(t *testing.T) {
		// iconst_3, iconst_3, if_icmpeq +5 (pc 2 -> 7) -> iconst_1, ireturn / else iconst_0, ireturn
		code := []byte{
			opIconst3, opIconst3, opIfIcmpeq, 0x00, 0x05,
			opIconst0, opIreturn,
			opIconst1, opIreturn,
		}
		if got := executeAndGetInt(t, bareVM(), code); got != 1 {
			t.Errorf("got %d, want 1", got)
		}
	})

	t.Run("goto skips the following instruction", func(t *testing.T) {
		code := []byte{
			opGoto, 0x00, 0x05, // pc 0 -> 5
			opIconst0, opIreturn,
			opIconst1, opIreturn,
		}
		if got := executeAndGetInt(t, bareVM(), code); got != 1 {
			t.Errorf("got %d, want 1", got)
		}
	})
}

func TestIinc(t *testing.T) {
	// iinc local#0 by 5, iload_0, ireturn
	code := []byte{opIinc, 0x00, 0x05, opIload0, opIreturn}
	if got := executeAndGetInt(t, bareVM(), code, 10); got != 15 {
		t.Errorf("got %d, want 15", got)
	}
}

func TestGetfieldPutfield(t *testing.T) {
	pool := make([]classfile.ClassConstant, 2)
	pool[1] = classfile.ClassConstant{
		Tag:   classfile.ConstFieldRef,
		Owner: "TestClass",
		Name:  "x",
		Field: descriptor.TypeSignature{Kind: descriptor.KindInt},
	}
	class := &classarea.Class{Model: &classfile.ClassModel{ThisClass: "TestClass", ConstantPool: pool}}

	t.Run("putfield then getfield returns stored value", func(t *testing.T) {
		code := []byte{
			opAload0,
			opBipush, 0x37, // 55
			opPutfield, 0x00, 0x01,
			opAload0,
			opGetfield, 0x00, 0x01,
			opIreturn,
		}
		v := bareVM()
		v.Heap = heap.NewHeap()
		ref := v.Heap.AllocInstance("TestClass", map[string]Value{})
		frame := NewFrame(4, 16, code, class)
		frame.SetLocal(0, RefValue(ref))

		for frame.PC < len(frame.Code) {
			opcode := frame.Code[frame.PC]
			frame.PC++
			retVal, hasReturn, err := v.executeInstruction(frame, opcode)
			if err != nil {
				t.Fatalf("execution error at pc=%d: %v", frame.PC-1, err)
			}
			if hasReturn {
				if retVal.Int != 55 {
					t.Errorf("got %d, want 55", retVal.Int)
				}
				return
			}
		}
		t.Fatal("bytecode did not return a value")
	})

	t.Run("getfield on unset int field returns the zero value", func(t *testing.T) {
		code := []byte{opAload0, opGetfield, 0x00, 0x01, opIreturn}
		v := bareVM()
		v.Heap = heap.NewHeap()
		ref := v.Heap.AllocInstance("TestClass", map[string]Value{})
		frame := NewFrame(4, 16, code, class)
		frame.SetLocal(0, RefValue(ref))

		if got := executeLoop(t, v, frame); got.Int != 0 {
			t.Errorf("got %d, want 0", got.Int)
		}
	})
}

// stubLoader returns a fixed set of pre-built ClassModels, for classarea
// tests that need a real Area without touching the filesystem.
type stubLoader map[string]*classfile.ClassModel

func (s stubLoader) LoadClass(name string) (*classfile.ClassModel, error) {
	if m, ok := s[name]; ok {
		return m, nil
	}
	return nil, &loaderNotFoundError{name}
}

type loaderNotFoundError struct{ name string }

func (e *loaderNotFoundError) Error() string { return "class not found: " + e.name }

func TestGetstaticPutstatic(t *testing.T) {
	pool := make([]classfile.ClassConstant, 2)
	pool[1] = classfile.ClassConstant{
		Tag:   classfile.ConstFieldRef,
		Owner: "Counter",
		Name:  "count",
		Field: descriptor.TypeSignature{Kind: descriptor.KindInt},
	}
	counterModel := &classfile.ClassModel{
		ThisClass: "Counter",
		Fields: []classfile.ClassField{
			{Name: "count", AccessFlags: classfile.AccStatic, Signature: descriptor.TypeSignature{Kind: descriptor.KindInt}},
		},
	}
	callerModel := &classfile.ClassModel{ThisClass: "Caller", ConstantPool: pool}

	area := classarea.NewArea(stubLoader{"Counter": counterModel, "Caller": callerModel})
	callerClass, err := area.EnsureLoaded("Caller")
	if err != nil {
		t.Fatalf("EnsureLoaded(Caller): %v", err)
	}

	v := bareVM()
	v.Classes = area
	v.Heap = heap.NewHeap()

	code := []byte{
		opBipush, 0x2a, // 42
		opPutstatic, 0x00, 0x01,
		opGetstatic, 0x00, 0x01,
		opIreturn,
	}
	frame := NewFrame(4, 16, code, callerClass)
	if got := executeLoop(t, v, frame); got.Int != 42 {
		t.Errorf("got %d, want 42", got.Int)
	}
}

func TestUncaughtExceptionStackTrace(t *testing.T) {
	code := []byte{opIconst1, opIconst0, opIdiv, opPop, opReturn}
	mainModel := &classfile.ClassModel{
		ThisClass: "Main",
		Methods: []classfile.ClassMethod{
			{
				Name:       "main",
				Descriptor: "([Ljava/lang/String;)V",
				Code: &classfile.Code{
					MaxStack:  4,
					MaxLocals: 1,
					Bytes:     code,
					LineNumberTable: []classfile.LineNumberEntry{
						{StartPC: 0, Line: 10},
						{StartPC: 2, Line: 11},
					},
				},
			},
		},
	}

	area := classarea.NewArea(stubLoader{"Main": mainModel})
	v := NewVM(area, heap.NewHeap())
	v.Stdout, v.Stderr = io.Discard, io.Discard

	err := v.Execute("Main", nil)
	javaExc, ok := err.(*JavaException)
	if !ok {
		t.Fatalf("got %v, want *JavaException", err)
	}
	if javaExc.ClassName != "java/lang/ArithmeticException" {
		t.Fatalf("got class %s, want java/lang/ArithmeticException", javaExc.ClassName)
	}
	if len(javaExc.StackTrace) != 1 {
		t.Fatalf("got %d stack trace frames, want 1", len(javaExc.StackTrace))
	}
	frame := javaExc.StackTrace[0]
	if frame.ClassName != "Main" || frame.MethodName != "main" {
		t.Errorf("got %s.%s, want Main.main", frame.ClassName, frame.MethodName)
	}
	if frame.Line != 11 {
		t.Errorf("got line %d, want 11 (idiv's line)", frame.Line)
	}
}

func TestResolveMethodCaches(t *testing.T) {
	greeterModel := &classfile.ClassModel{
		ThisClass: "Greeter",
		Methods: []classfile.ClassMethod{
			{Name: "greet", Descriptor: "()V", Code: &classfile.Code{Bytes: []byte{opReturn}}},
		},
	}
	area := classarea.NewArea(stubLoader{"Greeter": greeterModel})
	v := NewVM(area, heap.NewHeap())
	v.Stdout, v.Stderr = io.Discard, io.Discard

	owner1, method1, err := v.resolveMethod("Greeter", "greet", "()V")
	if err != nil {
		t.Fatalf("resolveMethod: %v", err)
	}
	if _, cached := v.methodCache[methodCacheKey{"Greeter", "greet", "()V"}]; !cached {
		t.Fatal("resolveMethod did not populate methodCache")
	}

	owner2, method2, err := v.resolveMethod("Greeter", "greet", "()V")
	if err != nil {
		t.Fatalf("resolveMethod (cached): %v", err)
	}
	if owner1 != owner2 || method1 != method2 {
		t.Error("cached resolution returned a different owner/method than the first lookup")
	}
}

// executeLoop drives a frame to completion and returns the ireturn value,
// failing the test on any error or a run that falls off the end of code.
func executeLoop(t *testing.T, v *VM, frame *Frame) Value {
	t.Helper()
	for frame.PC < len(frame.Code) {
		opcode := frame.Code[frame.PC]
		frame.PC++
		retVal, hasReturn, err := v.executeInstruction(frame, opcode)
		if err != nil {
			t.Fatalf("execution error at pc=%d: %v", frame.PC-1, err)
		}
		if hasReturn {
			return retVal
		}
	}
	t.Fatal("bytecode did not return a value")
	return Value{}
}
