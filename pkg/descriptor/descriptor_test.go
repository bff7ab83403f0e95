package descriptor

import "testing"

func TestParseTypeRoundTrip(t *testing.T) {
	cases := []string{
		"I", "J", "D", "F", "B", "C", "S", "Z", "V",
		"Ljava/lang/String;",
		"[I",
		"[[Ljava/lang/String;",
		"[Ljava/lang/Object;",
	}
	for _, desc := range cases {
		ts, err := ParseType(desc)
		if err != nil {
			t.Fatalf("ParseType(%q): %v", desc, err)
		}
		if got := ts.Format(); got != desc {
			t.Errorf("round trip %q: got %q", desc, got)
		}
	}
}

func TestParseMethodRoundTrip(t *testing.T) {
	cases := []string{
		"()V",
		"(I)I",
		"(ID)V",
		"([Ljava/lang/String;)V",
		"(Ljava/lang/Object;Ljava/lang/Object;)Z",
		"()[I",
	}
	for _, desc := range cases {
		ms, err := ParseMethod(desc)
		if err != nil {
			t.Fatalf("ParseMethod(%q): %v", desc, err)
		}
		if got := ms.Format(); got != desc {
			t.Errorf("round trip %q: got %q", desc, got)
		}
	}
}

func TestParseTypeErrors(t *testing.T) {
	cases := []string{
		"", "Q", "Ljava/lang/String", "[", "IJ",
	}
	for _, desc := range cases {
		if _, err := ParseType(desc); err == nil {
			t.Errorf("ParseType(%q): expected error, got nil", desc)
		}
	}
}

func TestParseMethodErrors(t *testing.T) {
	cases := []string{
		"", "I)V", "(V)V", "(I", "(I)",
	}
	for _, desc := range cases {
		if _, err := ParseMethod(desc); err == nil {
			t.Errorf("ParseMethod(%q): expected error, got nil", desc)
		}
	}
}

func TestParamSlotCount(t *testing.T) {
	ms, err := ParseMethod("(IJDLjava/lang/String;)V")
	if err != nil {
		t.Fatal(err)
	}
	if got := ms.ParamSlotCount(); got != 6 {
		t.Errorf("ParamSlotCount: got %d, want 6 (I=1,J=2,D=2,ref=1)", got)
	}
}
