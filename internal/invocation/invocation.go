// Package invocation carries the per-dispatch state every resolver step,
// handler and command function can see.
package invocation

import (
	"context"
	"time"

	"github.com/ashwch/strinput/internal/i18n"
	"github.com/ashwch/strinput/internal/settings"
	"github.com/ashwch/strinput/internal/user"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Center is the slice of the command center an invocation exposes to
// command functions.
type Center interface {
	Listing(indent string, example []string) []string
}

// Runner runs fn on the sync lane and returns once fn has finished.
type Runner interface {
	Sync(fn func())
}

type Invocation struct {
	ID       string
	User     user.User
	Center   Center
	Settings settings.Settings
	Messages i18n.Catalog
	Logger   *zap.Logger
	Started  time.Time
	// Async reports whether the dispatch runs off the caller's goroutine.
	Async bool

	ctx    context.Context
	runner Runner
}

type Option func(*Invocation)

func WithCenter(c Center) Option {
	return func(inv *Invocation) { inv.Center = c }
}

func WithMessages(catalog i18n.Catalog) Option {
	return func(inv *Invocation) { inv.Messages = catalog }
}

func WithLogger(logger *zap.Logger) Option {
	return func(inv *Invocation) {
		if logger != nil {
			inv.Logger = logger
		}
	}
}

func WithRunner(r Runner) Option {
	return func(inv *Invocation) { inv.runner = r }
}

func WithAsync(async bool) Option {
	return func(inv *Invocation) { inv.Async = async }
}

func New(ctx context.Context, u user.User, s settings.Settings, opts ...Option) *Invocation {
	if ctx == nil {
		ctx = context.Background()
	}
	inv := &Invocation{
		ID:       uuid.NewString(),
		User:     u,
		Settings: s,
		Logger:   zap.NewNop(),
		Started:  time.Now(),
		ctx:      ctx,
	}
	for _, opt := range opts {
		opt(inv)
	}
	if inv.Messages.Locale == "" {
		inv.Messages = i18n.LoadCatalog(s.Locale)
	}
	return inv
}

func (inv *Invocation) Context() context.Context {
	return inv.ctx
}

// Err reports whether the dispatch context was cancelled or timed out.
func (inv *Invocation) Err() error {
	return inv.ctx.Err()
}

func (inv *Invocation) Elapsed() time.Duration {
	return time.Since(inv.Started)
}

// Debug logs msg with the configured prefix when debug output is on.
func (inv *Invocation) Debug(msg string, fields ...zap.Field) {
	if !inv.Settings.Debug {
		return
	}
	fields = append(fields, zap.String("invocation", inv.ID))
	inv.Logger.Info(inv.Settings.DebugPrefix+msg, fields...)
}

// CanRunSync reports whether sync-required work can run for this
// invocation: either it already is synchronous, or a sync runner exists.
func (inv *Invocation) CanRunSync() bool {
	return !inv.Async || inv.runner != nil
}

// RunSync runs fn on the sync lane when the invocation is async, and
// inline otherwise.
func (inv *Invocation) RunSync(fn func()) {
	if !inv.Async || inv.runner == nil {
		fn()
		return
	}
	inv.runner.Sync(fn)
}
