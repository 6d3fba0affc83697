package traceevent

import (
	"strings"
	"testing"
)

func TestNameOfFEEPythonStyle(t *testing.T) {
	ev := &Event{Kind: KindFEE, FEE: &FEEData{
		CodeName: "foo", CodeFilename: "main.py", CodeFirstLine: 12,
	}}
	cache := NewNameCache()
	got := NameOfFEE(ev, cache)
	want := "foo (main.py:12)"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestNameOfFEENativeModule(t *testing.T) {
	ev := &Event{Kind: KindFEE, FEE: &FEEData{ModuleName: "builtins", MethodName: "len"}}
	cache := NewNameCache()
	if got, want := NameOfFEE(ev, cache), "builtins.len"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestNameOfFEENativeBoundType(t *testing.T) {
	ev := &Event{Kind: KindFEE, FEE: &FEEData{TypeName: "dict", MethodName: "get"}}
	cache := NewNameCache()
	if got, want := NameOfFEE(ev, cache), "dict.get"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestNameOfFEENativeUnbound(t *testing.T) {
	ev := &Event{Kind: KindFEE, FEE: &FEEData{MethodName: "sorted"}}
	cache := NewNameCache()
	if got, want := NameOfFEE(ev, cache), "sorted"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

// TestNameOfFEEIdempotence exercises P7: the set of distinct strings
// returned by repeated calls equals the set of distinct formatted names,
// regardless of call order, and identical names share one interned
// backing string.
func TestNameOfFEEIdempotence(t *testing.T) {
	cache := NewNameCache()
	ev1 := &Event{Kind: KindFEE, FEE: &FEEData{CodeName: "foo", CodeFilename: "a.py", CodeFirstLine: 1}}
	ev2 := &Event{Kind: KindFEE, FEE: &FEEData{CodeName: "foo", CodeFilename: "a.py", CodeFirstLine: 1}}

	first := NameOfFEE(ev1, cache)
	second := NameOfFEE(ev2, cache)
	if first != second {
		t.Fatalf("interned names differ: %q vs %q", first, second)
	}
	if len(cache.names) != 1 {
		t.Fatalf("expected exactly one interned name, got %d", len(cache.names))
	}
}

func TestWriteFEENameEscapesBackslashAndQuote(t *testing.T) {
	ev := &Event{Kind: KindFEE, FEE: &FEEData{
		CodeName: "foo", CodeFilename: `C:\path\"weird".py`, CodeFirstLine: 3,
	}}
	var sb strings.Builder
	if err := WriteFEEName(&sb, ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := sb.String()
	want := `foo (C:\\path\\\"weird\".py:3)`
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
