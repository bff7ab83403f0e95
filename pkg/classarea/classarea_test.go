package classarea

import (
	"fmt"
	"testing"

	"github.com/ymtdzzz/jjvm/pkg/classfile"
	"github.com/ymtdzzz/jjvm/pkg/descriptor"
	"github.com/ymtdzzz/jjvm/pkg/heap"
)

// stubLoader serves ClassModels from an in-memory map, for tests that
// don't need real bytecode.
type stubLoader struct {
	classes map[string]*classfile.ClassModel
}

func (s *stubLoader) LoadClass(name string) (*classfile.ClassModel, error) {
	if cm, ok := s.classes[name]; ok {
		return cm, nil
	}
	return nil, fmt.Errorf("no such class: %s", name)
}

func newStubLoader() *stubLoader {
	return &stubLoader{classes: make(map[string]*classfile.ClassModel)}
}

func TestEnsureLoadedCachesAndInitializesStaticFields(t *testing.T) {
	l := newStubLoader()
	l.classes["App"] = &classfile.ClassModel{
		ThisClass: "App",
		Fields: []classfile.ClassField{
			{Name: "counter", AccessFlags: classfile.AccStatic, Signature: mustParseType(t, "I")},
			{Name: "instanceField", Signature: mustParseType(t, "I")},
		},
	}
	area := NewArea(l)

	c, err := area.EnsureLoaded("App")
	if err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}
	if c.Phase != Loaded {
		t.Errorf("Phase: got %v, want Loaded", c.Phase)
	}
	if _, ok := c.StaticFields["counter"]; !ok {
		t.Error("expected static field \"counter\" to be present")
	}
	if _, ok := c.StaticFields["instanceField"]; ok {
		t.Error("instance field should not appear in StaticFields")
	}

	c2, _ := area.EnsureLoaded("App")
	if c2 != c {
		t.Error("EnsureLoaded should return the cached Class on repeat calls")
	}
}

func TestEnsureLoadedMissingClassIsErroneous(t *testing.T) {
	area := NewArea(newStubLoader())
	c, err := area.EnsureLoaded("Missing")
	if err == nil {
		t.Fatal("expected error for missing class")
	}
	if c.Phase != Erroneous {
		t.Errorf("Phase: got %v, want Erroneous", c.Phase)
	}

	// Second attempt reports the same failure without re-querying the loader.
	_, err2 := area.EnsureLoaded("Missing")
	if err2 == nil {
		t.Fatal("expected error on repeat EnsureLoaded of a permanently failed class")
	}
}

func TestEnsureInitializedRunsOnce(t *testing.T) {
	l := newStubLoader()
	l.classes["App"] = &classfile.ClassModel{ThisClass: "App"}
	area := NewArea(l)

	runs := 0
	runClinit := func(c *Class) error {
		runs++
		return nil
	}

	h := heap.NewHeap()
	if _, err := area.EnsureInitialized("App", h, runClinit); err != nil {
		t.Fatal(err)
	}
	if _, err := area.EnsureInitialized("App", h, runClinit); err != nil {
		t.Fatal(err)
	}
	if runs != 1 {
		t.Errorf("runClinit called %d times, want 1", runs)
	}
}

func TestEnsureInitializedAppliesConstantValue(t *testing.T) {
	l := newStubLoader()
	l.classes["Constants"] = &classfile.ClassModel{
		ThisClass: "Constants",
		Fields: []classfile.ClassField{
			{
				Name: "ANSWER", AccessFlags: classfile.AccStatic,
				Signature:     mustParseType(t, "I"),
				ConstantValue: &classfile.ClassConstant{Tag: classfile.ConstInteger, Int64: 42},
			},
			{
				Name: "GREETING", AccessFlags: classfile.AccStatic,
				Signature:     mustParseType(t, "Ljava/lang/String;"),
				ConstantValue: &classfile.ClassConstant{Tag: classfile.ConstString, Str: "hello"},
			},
			{
				Name: "UNSET", AccessFlags: classfile.AccStatic,
				Signature: mustParseType(t, "I"),
			},
		},
	}
	area := NewArea(l)
	h := heap.NewHeap()

	noop := func(c *Class) error { return nil }
	c, err := area.EnsureInitialized("Constants", h, noop)
	if err != nil {
		t.Fatal(err)
	}

	if got := c.StaticFields["ANSWER"]; got != heap.IntValue(42) {
		t.Errorf("ANSWER: got %+v, want IntValue(42)", got)
	}
	greeting := c.StaticFields["GREETING"]
	if greeting.Kind != heap.KindRef {
		t.Fatalf("GREETING: got Kind %v, want KindRef", greeting.Kind)
	}
	s, ok := h.StringValue(greeting.Ref)
	if !ok || s != "hello" {
		t.Errorf("GREETING: got (%q, %v), want (\"hello\", true)", s, ok)
	}
	if got := c.StaticFields["UNSET"]; got != heap.IntValue(0) {
		t.Errorf("UNSET (no ConstantValue): got %+v, want the type default IntValue(0)", got)
	}
}

func TestEnsureInitializedInitializesSuperFirst(t *testing.T) {
	l := newStubLoader()
	l.classes["Base"] = &classfile.ClassModel{ThisClass: "Base"}
	l.classes["Derived"] = &classfile.ClassModel{ThisClass: "Derived", SuperClass: "Base"}
	area := NewArea(l)

	var order []string
	runClinit := func(c *Class) error {
		order = append(order, c.Name())
		return nil
	}

	if _, err := area.EnsureInitialized("Derived", heap.NewHeap(), runClinit); err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != "Base" || order[1] != "Derived" {
		t.Errorf("init order: got %v, want [Base Derived]", order)
	}
}

func TestEnsureInitializedPropagatesClinitError(t *testing.T) {
	l := newStubLoader()
	l.classes["Bad"] = &classfile.ClassModel{ThisClass: "Bad"}
	area := NewArea(l)

	boom := fmt.Errorf("boom")
	_, err := area.EnsureInitialized("Bad", heap.NewHeap(), func(c *Class) error { return boom })
	if err != boom {
		t.Fatalf("got %v, want %v", err, boom)
	}

	c := area.classes["Bad"]
	if c.Phase != Erroneous {
		t.Errorf("Phase: got %v, want Erroneous", c.Phase)
	}
}

func TestResolveMethodWalksSuperclassChain(t *testing.T) {
	l := newStubLoader()
	l.classes["Base"] = &classfile.ClassModel{
		ThisClass: "Base",
		Methods:   []classfile.ClassMethod{{Name: "greet", Descriptor: "()V"}},
	}
	l.classes["Derived"] = &classfile.ClassModel{ThisClass: "Derived", SuperClass: "Base"}
	area := NewArea(l)

	derived, _ := area.EnsureLoaded("Derived")
	owner, m := area.ResolveMethod(derived, "greet", "()V")
	if m == nil {
		t.Fatal("expected to resolve greet() via superclass")
	}
	if owner.Name() != "Base" {
		t.Errorf("owner: got %q, want Base", owner.Name())
	}
}

func TestIsSubclassOfThroughInterfaces(t *testing.T) {
	l := newStubLoader()
	l.classes["Runnable"] = &classfile.ClassModel{ThisClass: "Runnable", AccessFlags: classfile.AccInterface}
	l.classes["Task"] = &classfile.ClassModel{ThisClass: "Task", Interfaces: []string{"Runnable"}}
	area := NewArea(l)

	task, _ := area.EnsureLoaded("Task")
	if !area.IsSubclassOf(task, "Runnable") {
		t.Error("expected Task to be considered a Runnable")
	}
	if area.IsSubclassOf(task, "Comparable") {
		t.Error("Task should not be considered a Comparable")
	}
}

func mustParseType(t *testing.T, desc string) descriptor.TypeSignature {
	t.Helper()
	ts, err := descriptor.ParseType(desc)
	if err != nil {
		t.Fatalf("ParseType(%q): %v", desc, err)
	}
	return ts
}
