package handler

import (
	"context"
	"errors"
	"reflect"

	"github.com/ashwch/strinput/internal/invocation"
	"github.com/ashwch/strinput/internal/settings"
	"github.com/ashwch/strinput/internal/user"
)

var (
	invocationType = reflect.TypeOf((*invocation.Invocation)(nil))
	userType       = reflect.TypeOf((*user.User)(nil)).Elem()
	settingsType   = reflect.TypeOf(settings.Settings{})
	contextType    = reflect.TypeOf((*context.Context)(nil)).Elem()
)

func BuiltinContexts() []Context {
	return []Context{
		InvocationContext{},
		UserContext{},
		SettingsContext{},
		DispatchContext{},
	}
}

type InvocationContext struct{}

func (InvocationContext) Supports(t reflect.Type) bool { return t == invocationType }

func (InvocationContext) Resolve(inv *invocation.Invocation, _ reflect.Type) (any, error) {
	if inv == nil {
		return nil, errors.New("no invocation")
	}
	return inv, nil
}

type UserContext struct{}

func (UserContext) Supports(t reflect.Type) bool { return t == userType }

func (UserContext) Resolve(inv *invocation.Invocation, _ reflect.Type) (any, error) {
	if inv == nil || inv.User == nil {
		return nil, errors.New("no user on invocation")
	}
	return inv.User, nil
}

// SettingsContext hands out the settings snapshot of the dispatch.
type SettingsContext struct{}

func (SettingsContext) Supports(t reflect.Type) bool { return t == settingsType }

func (SettingsContext) Resolve(inv *invocation.Invocation, _ reflect.Type) (any, error) {
	if inv == nil {
		return nil, errors.New("no invocation")
	}
	return inv.Settings, nil
}

type DispatchContext struct{}

func (DispatchContext) Supports(t reflect.Type) bool { return t == contextType }

func (DispatchContext) Resolve(inv *invocation.Invocation, _ reflect.Type) (any, error) {
	if inv == nil {
		return context.Background(), nil
	}
	return inv.Context(), nil
}
