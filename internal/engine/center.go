// Package engine is the command center: it owns the roots of the command
// tree and runs every dispatched line against them.
package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ashwch/strinput/internal/appdirs"
	"github.com/ashwch/strinput/internal/handler"
	"github.com/ashwch/strinput/internal/i18n"
	"github.com/ashwch/strinput/internal/invocation"
	"github.com/ashwch/strinput/internal/ngram"
	"github.com/ashwch/strinput/internal/safety"
	"github.com/ashwch/strinput/internal/settings"
	"github.com/ashwch/strinput/internal/text"
	"github.com/ashwch/strinput/internal/tree"
	"github.com/ashwch/strinput/internal/user"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// maxSuggestions caps the root names offered for an unknown root.
const maxSuggestions = 5

type Center struct {
	store    settings.Store
	console  user.User
	params   *handler.Parameters
	contexts *handler.Contexts
	hosts    []tree.Category
	executor Executor
	logger   *zap.Logger
	registry prometheus.Registerer
	metrics  *Metrics

	settingsRoot tree.Category
	roots        atomic.Pointer[rootSet]

	mu       sync.Mutex
	settings settings.Settings

	inflight sync.WaitGroup
}

type rootSet struct {
	roots        []*tree.CategoryNode
	byName       map[string]*tree.CategoryNode
	withSettings bool
}

func (r *rootSet) lookup(name string) *tree.CategoryNode {
	return r.byName[strings.ToLower(name)]
}

type Option func(*Center)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Center) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithExecutor(e Executor) Option {
	return func(c *Center) {
		if e != nil {
			c.executor = e
		}
	}
}

// WithConsole sets the user that dispatches without a user run as.
func WithConsole(u user.User) Option {
	return func(c *Center) {
		if u != nil {
			c.console = u
		}
	}
}

// WithParameters registers extra parameter handlers after the builtins.
func WithParameters(handlers ...handler.Parameter) Option {
	return func(c *Center) { c.params.Register(handlers...) }
}

// WithContexts registers extra context handlers after the builtins.
func WithContexts(handlers ...handler.Context) Option {
	return func(c *Center) { c.contexts.Register(handlers...) }
}

func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Center) { c.registry = reg }
}

// New loads settings from store and builds the roots declared by hosts.
func New(store settings.Store, hosts []tree.Category, opts ...Option) (*Center, error) {
	if store == nil {
		return nil, fmt.Errorf("settings store is required")
	}
	c := &Center{
		store:    store,
		console:  user.NewConsole(nil, false),
		params:   handler.DefaultParameters(),
		contexts: handler.DefaultContexts(),
		hosts:    slices.Clone(hosts),
		executor: &GoroutineExecutor{},
		logger:   zap.NewNop(),
	}
	c.settingsRoot = &settingsCategory{center: c}
	for _, opt := range opts {
		opt(c)
	}

	if c.registry != nil {
		m, err := NewMetrics(c.registry)
		if err != nil {
			return nil, fmt.Errorf("could not register metrics: %w", err)
		}
		c.metrics = m
	}

	s, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("could not load settings: %w", err)
	}
	c.settings = s
	if err := c.rebuildLocked(s); err != nil {
		return nil, err
	}

	c.logger.Info("command center ready",
		zap.Int("roots", len(c.roots.Load().roots)),
		zap.Bool("async", s.Async),
	)
	return c, nil
}

// Settings returns the most recently loaded settings.
func (c *Center) Settings() settings.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// Roots returns the current root categories.
func (c *Center) Roots() []*tree.CategoryNode {
	return slices.Clone(c.roots.Load().roots)
}

// Refresh reloads settings from the store and rebuilds the roots when the
// settings commands were switched on or off.
func (c *Center) Refresh() error {
	s, err := c.store.Load()
	if err != nil {
		return fmt.Errorf("could not load settings: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = s
	if c.roots.Load().withSettings != s.SettingsCommands {
		return c.rebuildLocked(s)
	}
	return nil
}

// Reload asks every host to declare itself again and swaps in the new
// tree. Dispatches already running keep the tree they started with.
func (c *Center) Reload() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rebuildLocked(c.settings)
}

func (c *Center) rebuildLocked(s settings.Settings) error {
	hosts := slices.Clone(c.hosts)
	if s.SettingsCommands {
		hosts = append(hosts, c.settingsRoot)
	}
	roots, err := tree.BuildAll(hosts, c.params, c.contexts)
	if err != nil {
		return fmt.Errorf("could not build command tree: %w", err)
	}
	set := &rootSet{
		roots:        roots,
		byName:       map[string]*tree.CategoryNode{},
		withSettings: s.SettingsCommands,
	}
	for _, root := range roots {
		for _, name := range root.Names() {
			set.byName[strings.ToLower(name)] = root
		}
	}
	c.roots.Store(set)
	return nil
}

// hotLoad refreshes settings, keeping the last good ones when the store
// cannot be read.
func (c *Center) hotLoad() settings.Settings {
	if err := c.Refresh(); err != nil {
		c.logger.Warn("settings hot-load failed, keeping previous settings", zap.Error(err))
	}
	return c.Settings()
}

// Dispatch runs one line of tokens for u. With async settings it returns
// immediately and the line runs through the executor; use Wait to block
// until it finishes. A nil u dispatches as the console user.
func (c *Center) Dispatch(ctx context.Context, tokens []string, u user.User) {
	if ctx == nil {
		ctx = context.Background()
	}
	if u == nil {
		u = c.console
	}
	s := c.hotLoad()
	args := stripBlank(tokens)

	if !s.Async {
		c.run(ctx, s, args, u, false)
		return
	}
	c.inflight.Add(1)
	c.executor.Go(func() {
		defer c.inflight.Done()
		c.run(ctx, s, args, u, true)
	})
}

// Wait blocks until every async dispatch started so far has finished.
func (c *Center) Wait() {
	c.inflight.Wait()
}

// Idle is closed once every async dispatch started so far has finished.
func (c *Center) Idle() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()
	return done
}

func (c *Center) newInvocation(ctx context.Context, s settings.Settings, u user.User, async bool) *invocation.Invocation {
	return invocation.New(ctx, u, s,
		invocation.WithCenter(c),
		invocation.WithMessages(i18n.LoadCatalog(s.Locale)),
		invocation.WithLogger(c.logger),
		invocation.WithRunner(c.executor),
		invocation.WithAsync(async),
	)
}

func (c *Center) run(ctx context.Context, s settings.Settings, tokens []string, u user.User, async bool) {
	inv := c.newInvocation(ctx, s, u, async)
	msgs := inv.Messages.Dispatch
	inv.Debug("dispatching",
		zap.String("user", u.Name()),
		zap.Strings("tokens", safety.RedactTokens(tokens)),
		zap.Bool("async", async),
	)

	var outcome string
	switch {
	case len(tokens) == 0:
		u.SendMessage(text.Colored(text.Red, msgs.NoInput))
		u.PlayFeedback(user.FailedCommand)
		outcome = outcomeEmpty
	default:
		root := c.roots.Load().lookup(tokens[0])
		if root == nil || !root.Visible(inv) {
			c.unknownRoot(inv, tokens[0])
			outcome = outcomeUnknownRoot
			break
		}
		if !root.Run(inv, tokens[1:]) {
			u.SendMessage(text.Colored(text.Red, msgs.Failed))
			u.PlayFeedback(user.FailedCommand)
			outcome = outcomeFailed
			break
		}
		inv.Debug("successfully ran your command", zap.String("root", root.Name()))
		u.PlayFeedback(user.SuccessfulCommand)
		outcome = outcomeSucceeded
	}

	elapsed := inv.Elapsed()
	c.metrics.record(outcome, elapsed)
	if s.DebugTime {
		c.logger.Info(s.DebugPrefix+"dispatch finished",
			zap.String("user", u.Name()),
			zap.String("outcome", outcome),
			zap.Duration("elapsed", elapsed),
			zap.String("invocation", inv.ID),
		)
	}
}

func (c *Center) unknownRoot(inv *invocation.Invocation, name string) {
	msgs := inv.Messages.Dispatch
	inv.User.SendMessage(text.Colored(text.Red, i18n.Format(msgs.UnknownRoot, "")).C(text.Blue).A(name))
	if suggestions := c.suggest(inv, name); len(suggestions) > 0 {
		inv.User.SendOptions(msgs.DidYouMean, suggestions)
		inv.User.PlayFeedback(user.PickOption)
	}
	inv.User.PlayFeedback(user.FailedCommand)
}

// suggest ranks the roots inv's user can see against name.
func (c *Center) suggest(inv *invocation.Invocation, name string) []string {
	var visible []*tree.CategoryNode
	for _, root := range c.roots.Load().roots {
		if root.Visible(inv) {
			visible = append(visible, root)
		}
	}
	ranked := ngram.Rank(name, visible, inv.Settings.MatchThreshold)
	out := make([]string, 0, min(len(ranked), maxSuggestions))
	for _, root := range ranked {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, root.Name())
	}
	return out
}

// Complete suggests the next word for a partially typed line.
func (c *Center) Complete(ctx context.Context, tokens []string, u user.User) []string {
	if u == nil {
		u = c.console
	}
	s := c.hotLoad()
	inv := c.newInvocation(ctx, s, u, false)
	args := stripBlank(tokens)

	var out []string
	switch len(args) {
	case 0:
		for _, root := range c.roots.Load().roots {
			if root.Visible(inv) {
				out = append(out, root.Name())
			}
		}
	case 1:
		out = c.suggest(inv, args[0])
	default:
		if root := c.roots.Load().lookup(args[0]); root != nil && root.Visible(inv) {
			out = root.Complete(inv, args[1:])
		}
	}

	if len(out) == 0 {
		u.PlayFeedback(user.FailedTab)
	} else {
		u.PlayFeedback(user.SuccessfulTab)
	}
	return out
}

// Listing describes every root and its subtree. The example tokens show
// how each level would match.
func (c *Center) Listing(indent string, example []string) []string {
	set := c.roots.Load()
	lines := []string{fmt.Sprintf("%s command system with %d loaded roots with input: %s",
		appdirs.AppName, len(set.roots), strings.Join(example, " "))}
	for _, root := range set.roots {
		lines = append(lines, root.Listing(indent, indent, example)...)
	}
	return lines
}

func stripBlank(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if strings.TrimSpace(token) == "" {
			continue
		}
		out = append(out, strings.TrimSpace(token))
	}
	return out
}
