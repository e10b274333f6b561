package tree

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/ashwch/strinput/internal/handler"
	"github.com/ashwch/strinput/internal/i18n"
	"github.com/ashwch/strinput/internal/invocation"
	"github.com/ashwch/strinput/internal/settings"
	"github.com/ashwch/strinput/internal/user"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) log(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type calculator struct {
	journal
}

func (c *calculator) Declare() Spec {
	return Spec{
		Name:        "calc",
		Aliases:     []string{"calculator"},
		Description: "Arithmetic",
		Commands: []CommandSpec{
			Cmd("add", func(a, b int) { c.log("add " + strconv.Itoa(a+b)) }, Param("a"), Param("b")).
				Alias("plus").
				Describe("Add two numbers").
				Example("calc add 3 4"),
			Cmd("sub", func(a, b int) { c.log("sub " + strconv.Itoa(a-b)) }, Param("a"), Param("b")),
			Cmd("mult", func(a, b int) { c.log("mult " + strconv.Itoa(a*b)) }, Param("a"), Param("b")).Alias("multiply"),
			Cmd("div", func(a, b float64) error {
				if b == 0 {
					return errors.New("division by zero")
				}
				c.log("div " + strconv.FormatFloat(a/b, 'f', -1, 64))
				return nil
			}, Param("a"), Param("b").Default("1")),
		},
	}
}

type toolbox struct {
	journal
	declared int
}

func (t *toolbox) Declare() Spec {
	t.declared++
	return Spec{
		Name:     "tools",
		Commands: []CommandSpec{Cmd("hammer", func() { t.log("hammer") })},
	}
}

type workshop struct {
	journal
	Tools *toolbox
}

func (w *workshop) Declare() Spec {
	return Spec{
		Name:       "shop",
		Categories: []Child{Lazy(&w.Tools)},
		Commands: []CommandSpec{
			Cmd("sum", func(a, b int) { w.log("sum " + strconv.Itoa(a+b)) }, Param("a"), Param("b")),
			Cmd("sums", func(words string) { w.log("sums " + words) }, Param("words")),
			Cmd("greet", func(name string, times int) {
				w.log("greet " + strings.Repeat(name, times))
			}, Param("name").Alias("who"), Param("times").Default("1")),
			Cmd("echo", func(words ...string) { w.log("echo " + strings.Join(words, " ")) }),
			Cmd("whoami", func(u user.User, loud bool) {
				w.log("whoami " + u.Name() + " " + strconv.FormatBool(loud))
			}, Param("user").Context(), Param("loud")),
			Cmd("wipe", func() { w.log("wipe") }).Perm("shop.admin"),
			Cmd("save", func() { w.log("save") }).RequireSync(),
			Cmd("peek", func() { w.log("peek") }).RequireContext(),
			Cmd("explode", func() { panic("boom") }),
			Cmd("refuse", func() bool { return false }),
		},
	}
}

type countingRunner struct {
	mu    sync.Mutex
	calls int
}

func (r *countingRunner) Sync(fn func()) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	fn()
}

func mustBuild(t *testing.T, host Category) *CategoryNode {
	t.Helper()
	root, err := Build(host, handler.DefaultParameters(), handler.DefaultContexts())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return root
}

func newInv(t *testing.T, u user.User, threshold float64, opts ...invocation.Option) *invocation.Invocation {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	s := settings.Default()
	s.MatchThreshold = threshold
	s.Locale = "en"
	opts = append([]invocation.Option{invocation.WithMessages(i18n.LoadCatalog("en"))}, opts...)
	return invocation.New(context.Background(), u, s, opts...)
}

func TestCalcAddResolvesFromAbbreviation(t *testing.T) {
	calc := &calculator{}
	root := mustBuild(t, calc)
	inv := newInv(t, user.NewRecorder("alice"), 0.5)

	if !root.Run(inv, []string{"ad", "3", "4"}) {
		t.Fatalf("expected calc ad 3 4 to succeed")
	}
	if diff := cmp.Diff([]string{"add 7"}, calc.all()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestAliasAndDefaults(t *testing.T) {
	calc := &calculator{}
	root := mustBuild(t, calc)
	inv := newInv(t, user.NewRecorder("alice"), 0.5)

	for _, line := range [][]string{{"plus", "1", "2"}, {"multiply", "3", "5"}, {"div", "6"}, {"div", "a=9", "b=2"}} {
		if !root.Run(inv, line) {
			t.Fatalf("expected %v to succeed", line)
		}
	}
	want := []string{"add 3", "mult 15", "div 6", "div 4.5"}
	if diff := cmp.Diff(want, calc.all()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestFailuresReportFalse(t *testing.T) {
	calc := &calculator{}
	root := mustBuild(t, calc)
	inv := newInv(t, user.NewRecorder("alice"), 0.5)

	cases := [][]string{
		{"div", "1", "0"},
		{"add", "1"},
		{"add", "1", "2", "3"},
		{"add", "one", "two"},
		{"zzz"},
	}
	for _, tokens := range cases {
		if root.Run(inv, tokens) {
			t.Fatalf("expected %v to fail", tokens)
		}
	}
	if len(calc.all()) != 0 {
		t.Fatalf("expected no successful calls, got %v", calc.all())
	}
}

func TestFallsBackToNextOptionWhenBindingFails(t *testing.T) {
	shop := &workshop{}
	root := mustBuild(t, shop)
	inv := newInv(t, user.NewRecorder("alice"), 0.5)

	if !root.Run(inv, []string{"sum", "1", "2"}) {
		t.Fatalf("expected sum with numbers to succeed")
	}
	if !root.Run(inv, []string{"sum", "hello"}) {
		t.Fatalf("expected sum with a word to fall through to sums")
	}
	if diff := cmp.Diff([]string{"sum 3", "sums hello"}, shop.all()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatchIsDeterministic(t *testing.T) {
	for i := 0; i < 20; i++ {
		shop := &workshop{}
		root := mustBuild(t, shop)
		inv := newInv(t, user.NewRecorder("alice"), 0.25)
		root.Run(inv, []string{"su", "4", "5"})
		if diff := cmp.Diff([]string{"sum 9"}, shop.all()); diff != "" {
			t.Fatalf("run %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestEmptyInputSendsHelpAndSucceeds(t *testing.T) {
	shop := &workshop{}
	root := mustBuild(t, shop)
	rec := user.NewRecorder("alice")
	rec.DenyUnlisted = true
	inv := newInv(t, rec, 0.5)

	if !root.Run(inv, nil) {
		t.Fatalf("expected empty input to succeed")
	}
	transcript := rec.Transcript()
	for _, want := range []string{"shop has these options:", "  tools ...", "  sum <a> <b>", "  greet <name> [times=1]", "  echo [...]"} {
		if !strings.Contains(transcript, want) {
			t.Fatalf("expected help to contain %q, got:\n%s", want, transcript)
		}
	}
	if strings.Contains(transcript, "wipe") || strings.Contains(transcript, "peek") {
		t.Fatalf("expected hidden commands to be left out of help:\n%s", transcript)
	}
	if len(shop.all()) != 0 {
		t.Fatalf("expected no command to run")
	}
}

func TestCommandHelp(t *testing.T) {
	calc := &calculator{}
	root := mustBuild(t, calc)
	rec := user.NewRecorder("alice")
	inv := newInv(t, rec, 0.5)

	root.Commands()[0].Help(inv)
	root.Commands()[3].Help(inv)
	transcript := rec.Transcript()
	for _, want := range []string{
		"Usage: calc add <a> <b>",
		"Add two numbers",
		"  a int required",
		"Examples:",
		"  calc add 3 4",
		"Usage: calc div <a> [b=1]",
		"  b float64 default 1",
	} {
		if !strings.Contains(transcript, want) {
			t.Fatalf("expected command help to contain %q, got:\n%s", want, transcript)
		}
	}
}

func TestPermissionFiltering(t *testing.T) {
	shop := &workshop{}
	root := mustBuild(t, shop)

	denied := user.NewRecorder("guest")
	denied.DenyUnlisted = true
	if root.Run(newInv(t, denied, 0.5), []string{"wipe"}) {
		t.Fatalf("expected wipe to be hidden without permission")
	}

	admin := user.NewRecorder("admin")
	admin.Permissions["shop.admin"] = true
	if !root.Run(newInv(t, admin, 0.5), []string{"wipe"}) {
		t.Fatalf("expected wipe to run with permission")
	}
	if diff := cmp.Diff([]string{"wipe"}, shop.all()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRequiresContextFiltering(t *testing.T) {
	shop := &workshop{}
	root := mustBuild(t, shop)

	if root.Run(newInv(t, user.NewRecorder("console"), 0.5), []string{"peek"}) {
		t.Fatalf("expected peek to be hidden from users without context")
	}
	player := user.NewRecorder("player")
	player.Context = true
	if !root.Run(newInv(t, player, 0.5), []string{"peek"}) {
		t.Fatalf("expected peek to run for users with context")
	}
}

func TestSyncCommandsNeedARunnerWhenAsync(t *testing.T) {
	shop := &workshop{}
	root := mustBuild(t, shop)

	orphan := newInv(t, user.NewRecorder("alice"), 0.5, invocation.WithAsync(true))
	if root.Run(orphan, []string{"save"}) {
		t.Fatalf("expected sync command to be hidden without a runner")
	}

	runner := &countingRunner{}
	async := newInv(t, user.NewRecorder("alice"), 0.5, invocation.WithAsync(true), invocation.WithRunner(runner))
	if !root.Run(async, []string{"save"}) {
		t.Fatalf("expected sync command to run through the runner")
	}
	if runner.calls != 1 {
		t.Fatalf("expected one sync hand-off, got %d", runner.calls)
	}

	inline := newInv(t, user.NewRecorder("alice"), 0.5)
	if !root.Run(inline, []string{"save"}) {
		t.Fatalf("expected sync command to run inline for synchronous invocations")
	}
}

func TestNamedArguments(t *testing.T) {
	shop := &workshop{}
	root := mustBuild(t, shop)
	inv := newInv(t, user.NewRecorder("alice"), 0.5)

	lines := [][]string{
		{"greet", "who=ab"},
		{"greet", "times=2", "cd"},
		{"greet", "ef", "TIMES=3"},
	}
	for _, line := range lines {
		if !root.Run(inv, line) {
			t.Fatalf("expected %v to succeed", line)
		}
	}
	if root.Run(inv, []string{"greet", "name=x", "who=y"}) {
		t.Fatalf("expected a parameter bound twice to fail")
	}
	for _, line := range [][]string{{"sums", "word=x"}, {"sums", "a=b"}} {
		if !root.Run(inv, line) {
			t.Fatalf("expected %v to succeed", line)
		}
	}
	want := []string{"greet ab", "greet cdcd", "greet efefef", "sums word=x", "sums a=b"}
	if diff := cmp.Diff(want, shop.all()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestVariadicAndContextParameters(t *testing.T) {
	shop := &workshop{}
	root := mustBuild(t, shop)
	inv := newInv(t, user.NewRecorder("alice"), 0.5)

	lines := [][]string{
		{"echo", "a=b", "c"},
		{"echo"},
		{"whoami", "no"},
		{"whoami", "yes"},
		{"whoami", "loud="},
	}
	for _, line := range lines {
		if !root.Run(inv, line) {
			t.Fatalf("expected %v to succeed", line)
		}
	}
	want := []string{"echo a=b c", "echo ", "whoami alice false", "whoami alice true", "whoami alice true"}
	if diff := cmp.Diff(want, shop.all()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
	if root.Run(inv, []string{"whoami"}) {
		t.Fatalf("expected a bool without a value or default to fail")
	}
}

func TestMissingBoolFallsThroughToSibling(t *testing.T) {
	var calls []string
	root := mustBuild(t, staticCategory(Spec{
		Name: "switches",
		Commands: []CommandSpec{
			Cmd("toggle", func(on bool) { calls = append(calls, "toggle") }, Param("on")),
			Cmd("toggles", func() { calls = append(calls, "toggles") }),
		},
	}))
	inv := newInv(t, user.NewRecorder("alice"), 0.5)

	if !root.Run(inv, []string{"toggle"}) {
		t.Fatalf("expected the sibling to run")
	}
	if root.Run(inv, []string{"toggle", "on"}) {
		t.Fatalf("expected on to be rejected as a bool")
	}
	if diff := cmp.Diff([]string{"toggles"}, calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestNestedCategoriesAndLazyInstances(t *testing.T) {
	shop := &workshop{}
	root := mustBuild(t, shop)
	first := shop.Tools
	if first == nil {
		t.Fatalf("expected lazy category to be instantiated")
	}
	if root.Categories()[0].Host() != Category(first) {
		t.Fatalf("expected node to wrap the lazy instance")
	}

	mustBuild(t, shop)
	if shop.Tools != first {
		t.Fatalf("expected rebuild to reuse the lazy instance")
	}
	if first.declared != 2 {
		t.Fatalf("expected the instance to declare once per build, got %d", first.declared)
	}

	inv := newInv(t, user.NewRecorder("alice"), 0.5)
	if !root.Run(inv, []string{"tool", "ham"}) {
		t.Fatalf("expected nested fuzzy resolution to succeed")
	}
	if diff := cmp.Diff([]string{"hammer"}, first.all()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
	if got := root.Categories()[0].Commands()[0].Path(); got != "shop tools hammer" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestPanicsAndFalseResultsFail(t *testing.T) {
	shop := &workshop{}
	root := mustBuild(t, shop)
	core, logs := observer.New(zap.ErrorLevel)
	inv := newInv(t, user.NewRecorder("alice"), 0.5, invocation.WithLogger(zap.New(core)))

	if root.Run(inv, []string{"explode"}) {
		t.Fatalf("expected panicking command to fail")
	}
	if logs.FilterMessage("command panicked").Len() != 1 {
		t.Fatalf("expected panic to be logged")
	}
	if root.Run(inv, []string{"refuse"}) {
		t.Fatalf("expected false result to fail")
	}
}

func TestCancelledContextStopsResolution(t *testing.T) {
	shop := &workshop{}
	root := mustBuild(t, shop)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	inv := invocation.New(ctx, user.NewRecorder("alice"), settings.Default(), invocation.WithMessages(i18n.LoadCatalog("en")))

	if root.Run(inv, []string{"sum", "1", "2"}) {
		t.Fatalf("expected cancelled dispatch to fail")
	}
	if len(shop.all()) != 0 {
		t.Fatalf("expected nothing to run after cancellation")
	}
}

func TestDebugLogsFilteredCounts(t *testing.T) {
	shop := &workshop{}
	root := mustBuild(t, shop)
	core, logs := observer.New(zap.DebugLevel)
	inv := newInv(t, user.NewRecorder("alice"), 0.5, invocation.WithLogger(zap.New(core)))
	inv.Settings.Debug = true

	root.Run(inv, []string{"sum", "1", "2"})
	entries := logs.FilterMessage("[strinput] filtered options").All()
	if len(entries) != 1 {
		t.Fatalf("expected one filtered-options line, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["children"] != int64(11) || fields["visible"] != int64(10) {
		t.Fatalf("unexpected counts %v", fields)
	}
}

func TestListing(t *testing.T) {
	root := mustBuild(t, &calculator{})
	got := root.Listing("", "  ", []string{"calc", "ad"})
	want := []string{
		"calc (calculator) cmds: 4 / subcs: 0 matches with calc @ 1.00",
		"  add (plus) params: 2 matches with ad @ 1.00",
		"  sub params: 2 matches with ad @ 0.00",
		"  mult (multiply) params: 2 matches with ad @ 0.00",
		"  div params: 2 matches with ad @ 0.00",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("listing mismatch (-want +got):\n%s", diff)
	}
}

func TestComplete(t *testing.T) {
	shop := &workshop{}
	root := mustBuild(t, shop)
	inv := newInv(t, user.NewRecorder("alice"), 0.5)

	if diff := cmp.Diff([]string{"hammer"}, root.Complete(inv, []string{"tool", "ha"})); diff != "" {
		t.Fatalf("nested completion mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"sum", "sums"}, root.Complete(inv, []string{"sum"})); diff != "" {
		t.Fatalf("completion mismatch (-want +got):\n%s", diff)
	}
	if got := root.Complete(inv, []string{"qqq"}); len(got) != 0 {
		t.Fatalf("expected no completion, got %v", got)
	}
}

type loop struct{}

func (l *loop) Declare() Spec {
	return Spec{Name: "loop", Categories: []Child{Use(l)}}
}

type custom struct{ X int }

func TestBuildRejectsInvalidDeclarations(t *testing.T) {
	cases := []struct {
		name string
		spec Spec
		is   error
	}{
		{name: "duplicate sibling", spec: Spec{Name: "x", Commands: []CommandSpec{Cmd("a", func() {}), Cmd("A", func() {})}}},
		{name: "duplicate alias", spec: Spec{Name: "x", Commands: []CommandSpec{Cmd("a", func() {}), Cmd("b", func() {}).Alias("a")}}},
		{name: "empty name", spec: Spec{Name: ""}},
		{name: "whitespace", spec: Spec{Name: "x", Commands: []CommandSpec{Cmd("a b", func() {})}}},
		{name: "no function", spec: Spec{Name: "x", Commands: []CommandSpec{Cmd("a", nil)}}},
		{name: "not a function", spec: Spec{Name: "x", Commands: []CommandSpec{Cmd("a", 42)}}},
		{name: "bad result", spec: Spec{Name: "x", Commands: []CommandSpec{Cmd("a", func() int { return 0 })}}},
		{name: "arity", spec: Spec{Name: "x", Commands: []CommandSpec{Cmd("a", func(int) {})}}},
		{name: "bad variadic", spec: Spec{Name: "x", Commands: []CommandSpec{Cmd("a", func(...int) {})}}},
		{name: "no handler", spec: Spec{Name: "x", Commands: []CommandSpec{Cmd("a", func(custom) {}, Param("c"))}}, is: handler.ErrNotFound},
		{name: "no context handler", spec: Spec{Name: "x", Commands: []CommandSpec{Cmd("a", func(int) {}, Param("c").Context())}}, is: handler.ErrNotFound},
		{name: "bad default", spec: Spec{Name: "x", Commands: []CommandSpec{Cmd("a", func(int) {}, Param("n").Default("many"))}}},
		{name: "contextual default", spec: Spec{Name: "x", Commands: []CommandSpec{Cmd("a", func(user.User) {}, Param("u").Context().Default("x"))}}},
		{name: "duplicate param", spec: Spec{Name: "x", Commands: []CommandSpec{Cmd("a", func(int, int) {}, Param("n"), Param("N"))}}},
	}
	for _, tc := range cases {
		_, err := Build(staticCategory(tc.spec), handler.DefaultParameters(), handler.DefaultContexts())
		if !errors.Is(err, ErrInvalidDeclaration) {
			t.Fatalf("%s: expected ErrInvalidDeclaration, got %v", tc.name, err)
		}
		if tc.is != nil && !errors.Is(err, tc.is) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.is, err)
		}
	}

	if _, err := Build(&loop{}, handler.DefaultParameters(), handler.DefaultContexts()); !errors.Is(err, ErrInvalidDeclaration) {
		t.Fatalf("expected self-containing category to fail, got %v", err)
	}

	ambiguous := handler.NewParameters(handler.String{}, handler.String{})
	spec := Spec{Name: "x", Commands: []CommandSpec{Cmd("a", func(string) {}, Param("s"))}}
	if _, err := Build(staticCategory(spec), ambiguous, handler.DefaultContexts()); !errors.Is(err, handler.ErrAmbiguous) {
		t.Fatalf("expected ambiguous handler error, got %v", err)
	}
}

func TestBuildAllRejectsRootCollisions(t *testing.T) {
	_, err := BuildAll([]Category{&calculator{}, staticCategory(Spec{Name: "Calculator"})}, handler.DefaultParameters(), handler.DefaultContexts())
	if !errors.Is(err, ErrInvalidDeclaration) {
		t.Fatalf("expected root collision to fail, got %v", err)
	}
	roots, err := BuildAll([]Category{&calculator{}, &workshop{}}, handler.DefaultParameters(), handler.DefaultContexts())
	if err != nil || len(roots) != 2 {
		t.Fatalf("expected two roots, got %d (%v)", len(roots), err)
	}
}

type staticCategory Spec

func (s staticCategory) Declare() Spec { return Spec(s) }
