package ui

import (
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBubblePickerSizeStandardTerminal(t *testing.T) {
	width, height := bubblePickerSize(90, 30, 3)
	if width != 86 {
		t.Fatalf("expected width 86, got %d", width)
	}
	if height != 9 {
		t.Fatalf("expected height 9, got %d", height)
	}
}

func TestBubblePickerSizeTinyTerminalStillFits(t *testing.T) {
	width, height := bubblePickerSize(20, 5, 25)
	if width > 20 {
		t.Fatalf("expected width to fit terminal, got %d", width)
	}
	if height > 5 {
		t.Fatalf("expected height to fit terminal, got %d", height)
	}
	if width <= 0 || height <= 0 {
		t.Fatalf("expected positive dimensions, got width=%d height=%d", width, height)
	}
}

func TestHuhSelectHeightBounds(t *testing.T) {
	if got := huhSelectHeight(0); got != 4 {
		t.Fatalf("expected minimum huh height 4, got %d", got)
	}
	if got := huhSelectHeight(3); got != 4 {
		t.Fatalf("expected huh height 4 for small lists, got %d", got)
	}
	if got := huhSelectHeight(20); got != 10 {
		t.Fatalf("expected max huh height 10, got %d", got)
	}
}

func TestPickPlainByNumberAndName(t *testing.T) {
	var out strings.Builder
	got, ok, err := PickPlain(strings.NewReader("2\n"), &out, "Did you mean one of these?", []string{"calc", "cat", "Calc"})
	if err != nil || !ok {
		t.Fatalf("expected a pick, got ok=%v err=%v", ok, err)
	}
	if got != "cat" {
		t.Fatalf("expected cat, got %q", got)
	}
	want := "Did you mean one of these?\n  1) calc\n  2) cat\n> "
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Fatalf("prompt mismatch (-want +got):\n%s", diff)
	}

	got, ok, err = PickPlain(strings.NewReader("CAT"), io.Discard, "", []string{"calc", "cat"})
	if err != nil || !ok || got != "cat" {
		t.Fatalf("expected name pick cat, got %q ok=%v err=%v", got, ok, err)
	}
}

func TestPickPlainCancelAndErrors(t *testing.T) {
	for _, answer := range []string{"", "\n", "0\n"} {
		if _, ok, err := PickPlain(strings.NewReader(answer), io.Discard, "", []string{"calc"}); ok || err != nil {
			t.Fatalf("answer %q: expected cancel, got ok=%v err=%v", answer, ok, err)
		}
	}
	if _, _, err := PickPlain(strings.NewReader("7\n"), io.Discard, "", []string{"calc"}); err == nil {
		t.Fatalf("expected out of range error")
	}
	if _, _, err := PickPlain(strings.NewReader("dog\n"), io.Discard, "", []string{"calc"}); err == nil {
		t.Fatalf("expected unknown choice error")
	}
}

func TestPickOptionWithoutChoices(t *testing.T) {
	got, used, err := PickOption(BackendAuto, "title", []string{" ", ""})
	if got != "" || used || err != nil {
		t.Fatalf("expected no pick, got %q used=%v err=%v", got, used, err)
	}
}

func TestPickOptionPlainBackendIsNotInteractive(t *testing.T) {
	if IsInteractiveBackend(BackendPlain) {
		t.Fatalf("plain backend must not be interactive")
	}
	got, used, err := PickOption(BackendPlain, "title", []string{"calc"})
	if got != "" || used || err != nil {
		t.Fatalf("expected plain backend to defer to caller, got %q used=%v err=%v", got, used, err)
	}
}
