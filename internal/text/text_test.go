package text

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAppendKeepsColourRuns(t *testing.T) {
	msg := Colored(Red, "Could not find root command for: ").C(Blue).A("clac")
	want := []Segment{
		{Color: Red, Text: "Could not find root command for: "},
		{Color: Blue, Text: "clac"},
	}
	if diff := cmp.Diff(want, msg.Segments()); diff != "" {
		t.Fatalf("segments mismatch (-want +got):\n%s", diff)
	}
	if msg.Plain() != "Could not find root command for: clac" {
		t.Fatalf("unexpected plain text %q", msg.Plain())
	}
}

func TestAppendDoesNotMutateShared(t *testing.T) {
	prefix := Colored(Gray, "[debug] ")
	a := prefix.A("one")
	b := prefix.A("two")
	if a.Plain() != "[debug] one" || b.Plain() != "[debug] two" {
		t.Fatalf("shared prefix was mutated: %q / %q", a.Plain(), b.Plain())
	}
	if prefix.Plain() != "[debug] " {
		t.Fatalf("prefix changed: %q", prefix.Plain())
	}
}

func TestThenMergesSegments(t *testing.T) {
	msg := New("a").Then(Colored(Green, "b"))
	if len(msg.Segments()) != 2 {
		t.Fatalf("expected two segments, got %#v", msg.Segments())
	}
	if msg.Empty() {
		t.Fatalf("expected non-empty message")
	}
	if !New("").Empty() {
		t.Fatalf("expected empty message for empty text")
	}
}

func TestRenderKeepsText(t *testing.T) {
	out := Render(Colored(Green, "ok ").C(Blue).A("calc"))
	if !strings.Contains(out, "ok") || !strings.Contains(out, "calc") {
		t.Fatalf("rendered output lost text: %q", out)
	}
}
