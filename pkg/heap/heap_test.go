package heap

import "testing"

func TestAllocInstance(t *testing.T) {
	h := NewHeap()
	r := h.AllocInstance("java/lang/Object", map[string]Value{})
	if r == NullRef {
		t.Fatal("AllocInstance returned NullRef")
	}
	inst, ok := h.Deref(r)
	if !ok {
		t.Fatal("Deref failed for freshly allocated instance")
	}
	if inst.ClassName != "java/lang/Object" {
		t.Errorf("ClassName: got %q", inst.ClassName)
	}
}

func TestDerefNullRef(t *testing.T) {
	h := NewHeap()
	if _, ok := h.Deref(NullRef); ok {
		t.Fatal("Deref(NullRef) should fail")
	}
}

func TestAllocArrayDefaults(t *testing.T) {
	h := NewHeap()
	r, err := h.AllocArray(ArrayInt, "", 3)
	if err != nil {
		t.Fatal(err)
	}
	arr, ok := h.DerefArray(r)
	if !ok {
		t.Fatal("DerefArray failed")
	}
	if arr.Length() != 3 {
		t.Errorf("Length: got %d, want 3", arr.Length())
	}
	for i, v := range arr.Elements {
		if v.Kind != KindInt || v.Int != 0 {
			t.Errorf("element %d: got %+v, want IntValue(0)", i, v)
		}
	}
}

func TestAllocArrayNegativeLength(t *testing.T) {
	h := NewHeap()
	if _, err := h.AllocArray(ArrayInt, "", -1); err == nil {
		t.Fatal("expected error for negative array length")
	}
}

func TestAllocArrayRefDefaultsToNull(t *testing.T) {
	h := NewHeap()
	r, err := h.AllocArray(ArrayRef, "java/lang/String", 2)
	if err != nil {
		t.Fatal(err)
	}
	arr, _ := h.DerefArray(r)
	for _, v := range arr.Elements {
		if v.Ref != NullRef {
			t.Errorf("expected null element, got %+v", v)
		}
	}
}

func TestInternReturnsSameRef(t *testing.T) {
	h := NewHeap()
	a := h.Intern("hello")
	b := h.Intern("hello")
	if a != b {
		t.Errorf("Intern: got different refs %v != %v for identical content", a, b)
	}
	c := h.Intern("world")
	if a == c {
		t.Error("Intern: distinct strings got the same ref")
	}
}

func TestNewStringNotInterned(t *testing.T) {
	h := NewHeap()
	a := h.NewString("hello")
	b := h.NewString("hello")
	if a == b {
		t.Error("NewString should allocate a fresh instance each call")
	}
	s, ok := h.StringValue(a)
	if !ok || s != "hello" {
		t.Errorf("StringValue: got (%q, %v), want (\"hello\", true)", s, ok)
	}
}
