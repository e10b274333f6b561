package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/ashwch/strinput/internal/tree"
	"github.com/ashwch/strinput/internal/user"
	"github.com/google/go-cmp/cmp"
)

func TestSettingsCommandsPersistChanges(t *testing.T) {
	c, store := newCenter(t, testSettings(0.5), []tree.Category{&calc{}})
	rec := user.NewRecorder("alice")

	lines := [][]string{
		{"settings", "debug", "yes"},
		{"config", "match-threshold", "0.7"},
		{"setting", "set", "locale", "hi-IN"},
		{"settings", "debug-prefix", ">>"},
	}
	for _, line := range lines {
		c.Dispatch(context.Background(), line, rec)
	}

	saved, _ := store.Load()
	if !saved.Debug || saved.MatchThreshold != 0.7 || saved.Locale != "hi-IN" || saved.DebugPrefix != ">>" {
		t.Fatalf("expected every change to be saved, got %+v", saved)
	}
	want := []string{
		"debug set to true",
		"match_threshold set to 0.7",
		"locale set to hi-IN",
	}
	messages := rec.Messages()
	if diff := cmp.Diff(want, messages[:3]); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
	for _, fb := range rec.Feedback() {
		if fb != user.SuccessfulCommand {
			t.Fatalf("expected only successes, got %v", rec.Feedback())
		}
	}
}

func TestSettingsGetAndList(t *testing.T) {
	c, _ := newCenter(t, testSettings(0.5), []tree.Category{&calc{}})
	rec := user.NewRecorder("alice")

	c.Dispatch(context.Background(), []string{"settings", "get", "async"}, rec)
	c.Dispatch(context.Background(), []string{"settings", "list"}, rec)

	transcript := rec.Transcript()
	for _, want := range []string{"async = false", "Current settings:", "  match_threshold = 0.5", "  locale = en"} {
		if !strings.Contains(transcript, want) {
			t.Fatalf("expected %q in:\n%s", want, transcript)
		}
	}
}

func TestSettingsRejectsInvalidValues(t *testing.T) {
	c, store := newCenter(t, testSettings(0.5), []tree.Category{&calc{}})
	rec := user.NewRecorder("alice")

	c.Dispatch(context.Background(), []string{"settings", "set", "match_threshold", "2"}, rec)

	if saved, _ := store.Load(); saved.MatchThreshold != 0.5 {
		t.Fatalf("expected threshold to stay 0.5, got %v", saved.MatchThreshold)
	}
	transcript := rec.Transcript()
	if !strings.Contains(transcript, "Could not change match_threshold") {
		t.Fatalf("expected validation message, got:\n%s", transcript)
	}
	if got, _ := rec.LastFeedback(); got != user.FailedCommand {
		t.Fatalf("expected failed-command feedback, got %s", got)
	}
}

func TestTurningSettingsCommandsOffRemovesTheRoot(t *testing.T) {
	c, _ := newCenter(t, testSettings(0.5), []tree.Category{&calc{}})
	rec := user.NewRecorder("alice")

	c.Dispatch(context.Background(), []string{"settings", "settings-commands", "no"}, rec)
	if len(c.Roots()) != 2 {
		t.Fatalf("expected the change to apply on the next dispatch")
	}

	rec.Reset()
	c.Dispatch(context.Background(), []string{"settings", "list"}, rec)
	if len(c.Roots()) != 1 {
		t.Fatalf("expected settings root to be gone, got %d roots", len(c.Roots()))
	}
	if !strings.Contains(rec.Transcript(), "Could not find root command for: settings") {
		t.Fatalf("expected unknown root, got:\n%s", rec.Transcript())
	}
}

func TestSettingsRootNeedsPermission(t *testing.T) {
	c, _ := newCenter(t, testSettings(0.5), []tree.Category{&calc{}})
	guest := user.NewRecorder("guest")
	guest.DenyUnlisted = true

	c.Dispatch(context.Background(), []string{"settings", "list"}, guest)
	if !strings.Contains(guest.Transcript(), "Could not find root command for: settings") {
		t.Fatalf("expected settings to be hidden, got:\n%s", guest.Transcript())
	}

	admin := user.NewRecorder("admin")
	admin.DenyUnlisted = true
	admin.Permissions[SettingsPermission] = true
	c.Dispatch(context.Background(), []string{"settings", "list"}, admin)
	if got, _ := admin.LastFeedback(); got != user.SuccessfulCommand {
		t.Fatalf("expected admin to list settings, got %s", got)
	}
}

func TestBoolSetterWithoutValueChangesNothing(t *testing.T) {
	c, store := newCenter(t, testSettings(0.5), []tree.Category{&calc{}})
	rec := user.NewRecorder("alice")

	c.Dispatch(context.Background(), []string{"settings", "settings-commands"}, rec)

	if saved, _ := store.Load(); !saved.SettingsCommands {
		t.Fatalf("expected settings commands to stay on, got %+v", saved)
	}
	if diff := cmp.Diff([]string{"Failed to run your command!"}, rec.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestSettingsValueMayContainEquals(t *testing.T) {
	c, store := newCenter(t, testSettings(0.5), []tree.Category{&calc{}})
	rec := user.NewRecorder("alice")

	c.Dispatch(context.Background(), []string{"settings", "set", "debug-prefix", "k=v"}, rec)

	if saved, _ := store.Load(); saved.DebugPrefix != "k=v" {
		t.Fatalf("expected the prefix to be saved verbatim, got %q", saved.DebugPrefix)
	}
}
