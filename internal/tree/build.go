package tree

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/ashwch/strinput/internal/handler"
)

// ErrInvalidDeclaration wraps every error Build reports.
var ErrInvalidDeclaration = errors.New("invalid command declaration")

var (
	boolResult  = reflect.TypeOf(false)
	errorResult = reflect.TypeOf((*error)(nil)).Elem()
	wordsType   = reflect.TypeOf([]string(nil))
)

// Build turns host and everything it declares into an immutable category.
func Build(host Category, params *handler.Parameters, contexts *handler.Contexts) (*CategoryNode, error) {
	b := builder{params: params, contexts: contexts}
	return b.category(host, nil)
}

// BuildAll builds several roots and checks their names do not collide.
func BuildAll(hosts []Category, params *handler.Parameters, contexts *handler.Contexts) ([]*CategoryNode, error) {
	roots := make([]*CategoryNode, 0, len(hosts))
	seen := names{}
	for _, host := range hosts {
		root, err := Build(host, params, contexts)
		if err != nil {
			return nil, err
		}
		if err := seen.claim(root.names, "root"); err != nil {
			return nil, err
		}
		roots = append(roots, root)
	}
	return roots, nil
}

type builder struct {
	params   *handler.Parameters
	contexts *handler.Contexts
	stack    []Category
}

func (b *builder) category(host Category, parent *CategoryNode) (*CategoryNode, error) {
	if host == nil {
		return nil, fmt.Errorf("%w: nil category", ErrInvalidDeclaration)
	}
	if reflect.TypeOf(host).Comparable() {
		for _, ancestor := range b.stack {
			if reflect.TypeOf(ancestor) == reflect.TypeOf(host) && ancestor == host {
				return nil, fmt.Errorf("%w: %T contains itself", ErrInvalidDeclaration, host)
			}
		}
	}
	b.stack = append(b.stack, host)
	defer func() { b.stack = b.stack[:len(b.stack)-1] }()

	spec := host.Declare()
	allNames, err := nodeNames(spec.Name, spec.Aliases)
	if err != nil {
		return nil, fmt.Errorf("%w: category %T: %w", ErrInvalidDeclaration, host, err)
	}
	node := &CategoryNode{
		base: base{
			names:           allNames,
			description:     spec.Description,
			permission:      spec.Permission,
			requiresContext: spec.RequiresContext,
			parent:          parent,
		},
		host: host,
	}

	siblings := names{}
	for _, child := range spec.Categories {
		if child == nil {
			return nil, fmt.Errorf("%w: %s: nil child category", ErrInvalidDeclaration, node.Path())
		}
		sub, err := b.category(child(), node)
		if err != nil {
			return nil, err
		}
		if err := siblings.claim(sub.names, node.Path()); err != nil {
			return nil, err
		}
		node.categories = append(node.categories, sub)
	}
	for _, cmdSpec := range spec.Commands {
		cmd, err := b.command(cmdSpec, node)
		if err != nil {
			return nil, err
		}
		if err := siblings.claim(cmd.names, node.Path()); err != nil {
			return nil, err
		}
		node.commands = append(node.commands, cmd)
	}
	return node, nil
}

func (b *builder) command(spec CommandSpec, parent *CategoryNode) (*CommandNode, error) {
	allNames, err := nodeNames(spec.Name, spec.Aliases)
	if err != nil {
		return nil, fmt.Errorf("%w: command in %s: %w", ErrInvalidDeclaration, parent.Path(), err)
	}
	cmd := &CommandNode{
		base: base{
			names:           allNames,
			description:     spec.Description,
			permission:      spec.Permission,
			requiresContext: spec.RequiresContext,
			parent:          parent,
		},
		sync:     spec.Sync,
		examples: append([]string(nil), spec.Examples...),
	}
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidDeclaration, cmd.Path(), fmt.Sprintf(format, args...))
	}

	if spec.Func == nil {
		return nil, fail("no function bound")
	}
	fn := reflect.ValueOf(spec.Func)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, fail("bound value is %T, not a function", spec.Func)
	}
	ft := fn.Type()
	cmd.fn = fn

	switch {
	case ft.NumOut() == 0:
		cmd.result = resultNone
	case ft.NumOut() == 1 && ft.Out(0) == boolResult:
		cmd.result = resultBool
	case ft.NumOut() == 1 && ft.Out(0) == errorResult:
		cmd.result = resultError
	default:
		return nil, fail("function must return nothing, bool or error, got %s", ft)
	}

	arity := ft.NumIn()
	if ft.IsVariadic() {
		if ft.In(arity-1) != wordsType {
			return nil, fail("variadic parameter must be ...string, got %s", ft.In(arity-1))
		}
		cmd.variadic = true
		arity--
	}
	if arity != len(spec.Params) {
		return nil, fail("function takes %d parameters but %d are declared", arity, len(spec.Params))
	}

	seen := names{}
	for i, ps := range spec.Params {
		p, err := b.param(i, ps, ft.In(i))
		if err != nil {
			return nil, fmt.Errorf("%w: %s parameter %q: %w", ErrInvalidDeclaration, cmd.Path(), ps.Name, err)
		}
		if !p.contextual {
			if err := seen.claim(p.names, cmd.Path()); err != nil {
				return nil, err
			}
		}
		cmd.params = append(cmd.params, p)
	}
	return cmd, nil
}

func (b *builder) param(index int, spec ParamSpec, t reflect.Type) (*param, error) {
	allNames, err := nodeNames(spec.Name, spec.Aliases)
	if err != nil {
		return nil, err
	}
	p := &param{
		index:       index,
		names:       allNames,
		description: spec.Description,
		typ:         t,
		contextual:  spec.Contextual,
	}

	if spec.Contextual {
		if spec.HasDefault {
			return nil, errors.New("contextual parameters cannot have a default")
		}
		h, err := b.contexts.Resolve(t)
		if err != nil {
			return nil, err
		}
		p.context = h
		return p, nil
	}

	h, err := b.params.Resolve(t)
	if err != nil {
		return nil, err
	}
	p.parser = h
	if !spec.HasDefault {
		return p, nil
	}

	tokens := strings.Fields(spec.DefaultValue)
	first, rest := "", []string(nil)
	if len(tokens) > 0 {
		first, rest = tokens[0], tokens[1:]
	}
	v, _, err := h.Parse(t, first, rest)
	if err != nil {
		return nil, fmt.Errorf("default %q: %w", spec.DefaultValue, err)
	}
	rv, err := valueOf(v, t)
	if err != nil {
		return nil, fmt.Errorf("default %q: %w", spec.DefaultValue, err)
	}
	p.defaultText = spec.DefaultValue
	p.hasDefault = true
	p.defaultVal = rv
	return p, nil
}

func nodeNames(name string, aliases []string) ([]string, error) {
	all := make([]string, 0, len(aliases)+1)
	for _, n := range append([]string{name}, aliases...) {
		if n == "" {
			return nil, errors.New("empty name")
		}
		if strings.IndexFunc(n, unicode.IsSpace) >= 0 {
			return nil, fmt.Errorf("name %q contains whitespace", n)
		}
		all = append(all, n)
	}
	return all, nil
}

// names tracks claimed names case-insensitively.
type names map[string]struct{}

func (n names) claim(all []string, where string) error {
	for _, name := range all {
		key := strings.ToLower(name)
		if _, taken := n[key]; taken {
			return fmt.Errorf("%w: %s: name %q is used more than once", ErrInvalidDeclaration, where, name)
		}
		n[key] = struct{}{}
	}
	return nil
}
