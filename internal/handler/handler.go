// Package handler converts tokens into typed command arguments and
// injects values taken from the invocation instead of the input.
package handler

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/ashwch/strinput/internal/invocation"
)

var (
	ErrNotFound  = errors.New("no handler supports type")
	ErrAmbiguous = errors.New("more than one handler supports type")
)

// Parameter turns user tokens into a value of a supported type.
type Parameter interface {
	Supports(t reflect.Type) bool
	// Parse reads token, and any of rest it needs, into a value of type t.
	// consumed counts the tokens used starting at token; zero is allowed
	// for flags written without a value.
	Parse(t reflect.Type, token string, rest []string) (value any, consumed int, err error)
	// Default is the value used when no token is left, if the type has one.
	Default(t reflect.Type) (value any, ok bool)
}

// Context produces a value from the invocation and never reads tokens.
type Context interface {
	Supports(t reflect.Type) bool
	Resolve(inv *invocation.Invocation, t reflect.Type) (any, error)
}

type supporter interface {
	Supports(t reflect.Type) bool
}

// registry is append-only, so a reader never sees a handler disappear.
type registry[H supporter] struct {
	mu       sync.RWMutex
	handlers []H
}

func (r *registry[H]) Register(handlers ...H) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, handlers...)
}

func (r *registry[H]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// Lookup returns the first registered handler supporting t.
func (r *registry[H]) Lookup(t reflect.Type) (H, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.handlers {
		if h.Supports(t) {
			return h, nil
		}
	}
	var zero H
	return zero, fmt.Errorf("%w: %s", ErrNotFound, typeName(t))
}

// Resolve returns the only handler supporting t.
func (r *registry[H]) Resolve(t reflect.Type) (H, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var zero H
	found := -1
	for i, h := range r.handlers {
		if !h.Supports(t) {
			continue
		}
		if found >= 0 {
			return zero, fmt.Errorf("%w: %s (%T and %T)", ErrAmbiguous, typeName(t), r.handlers[found], h)
		}
		found = i
	}
	if found < 0 {
		return zero, fmt.Errorf("%w: %s", ErrNotFound, typeName(t))
	}
	return r.handlers[found], nil
}

// Parameters is the parameter handler registry of one command center.
type Parameters struct {
	registry[Parameter]
}

func NewParameters(handlers ...Parameter) *Parameters {
	p := &Parameters{}
	p.Register(handlers...)
	return p
}

// DefaultParameters holds the builtin handlers.
func DefaultParameters() *Parameters {
	return NewParameters(Builtins()...)
}

// Contexts is the context handler registry of one command center.
type Contexts struct {
	registry[Context]
}

func NewContexts(handlers ...Context) *Contexts {
	c := &Contexts{}
	c.Register(handlers...)
	return c
}

func DefaultContexts() *Contexts {
	return NewContexts(BuiltinContexts()...)
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
