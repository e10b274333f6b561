package tree

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/ashwch/strinput/internal/handler"
	"github.com/ashwch/strinput/internal/invocation"
)

// Parameter describes a bound command parameter for help and listings.
type Parameter struct {
	Name        string
	Aliases     []string
	Description string
	Type        reflect.Type
	Default     string
	HasDefault  bool
	Contextual  bool
}

type param struct {
	index       int
	names       []string
	description string
	typ         reflect.Type
	contextual  bool
	parser      handler.Parameter
	context     handler.Context
	defaultText string
	hasDefault  bool
	defaultVal  reflect.Value
}

func (p *param) describe() Parameter {
	return Parameter{
		Name:        p.names[0],
		Aliases:     slices.Clone(p.names[1:]),
		Description: p.description,
		Type:        p.typ,
		Default:     p.defaultText,
		HasDefault:  p.hasDefault,
		Contextual:  p.contextual,
	}
}

// bind turns tokens into call arguments. key=value tokens naming a
// parameter bind it by name; the rest bind positionally.
func (c *CommandNode) bind(inv *invocation.Invocation, tokens []string) ([]reflect.Value, error) {
	values := make([]reflect.Value, len(c.params))
	bound := make([]bool, len(c.params))
	var positional []string

	for _, token := range tokens {
		key, value, named := strings.Cut(token, "=")
		if !named || key == "" {
			positional = append(positional, token)
			continue
		}
		p := c.namedParam(key)
		if p == nil {
			positional = append(positional, token)
			continue
		}
		if bound[p.index] {
			return nil, fmt.Errorf("parameter %q given more than once", p.names[0])
		}
		v, _, err := p.parser.Parse(p.typ, value, nil)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", p.names[0], err)
		}
		rv, err := valueOf(v, p.typ)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", p.names[0], err)
		}
		values[p.index] = rv
		bound[p.index] = true
	}

	next := 0
	for i, p := range c.params {
		if p.contextual {
			v, err := p.context.Resolve(inv, p.typ)
			if err != nil {
				return nil, fmt.Errorf("context for %q: %w", p.names[0], err)
			}
			rv, err := valueOf(v, p.typ)
			if err != nil {
				return nil, fmt.Errorf("context for %q: %w", p.names[0], err)
			}
			values[i] = rv
			continue
		}
		if bound[i] {
			continue
		}
		if next < len(positional) {
			v, consumed, err := p.parser.Parse(p.typ, positional[next], positional[next+1:])
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", p.names[0], err)
			}
			if consumed < 0 || next+consumed > len(positional) {
				return nil, fmt.Errorf("parameter %q: handler consumed %d of %d tokens", p.names[0], consumed, len(positional)-next)
			}
			rv, err := valueOf(v, p.typ)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", p.names[0], err)
			}
			next += consumed
			values[i] = rv
			continue
		}
		if p.hasDefault {
			values[i] = p.defaultVal
			continue
		}
		if v, ok := p.parser.Default(p.typ); ok {
			rv, err := valueOf(v, p.typ)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", p.names[0], err)
			}
			values[i] = rv
			continue
		}
		return nil, fmt.Errorf("missing value for parameter %q", p.names[0])
	}

	leftover := positional[next:]
	if c.variadic {
		return append(values, reflect.ValueOf(slices.Clone(leftover))), nil
	}
	if len(leftover) > 0 {
		return nil, fmt.Errorf("unexpected input: %s", strings.Join(leftover, " "))
	}
	return values, nil
}

// namedParam finds the token-bound parameter whose name or alias is key,
// ignoring case. Any other key=value token stays a positional value.
func (c *CommandNode) namedParam(key string) *param {
	for _, p := range c.params {
		if p.contextual {
			continue
		}
		for _, name := range p.names {
			if strings.EqualFold(name, key) {
				return p
			}
		}
	}
	return nil
}

func valueOf(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, errors.New("handler returned no value")
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if rv.Type().ConvertibleTo(t) && rv.Kind() == t.Kind() {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("handler returned %s, want %s", rv.Type(), t)
}
