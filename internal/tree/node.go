package tree

import (
	"reflect"
	"slices"
	"strings"

	"github.com/ashwch/strinput/internal/invocation"
	"github.com/ashwch/strinput/internal/ngram"
	"github.com/ashwch/strinput/internal/safety"
	"go.uber.org/zap"
)

// Node is a category or a command.
type Node interface {
	Name() string
	// Names returns the primary name followed by the aliases.
	Names() []string
	Description() string
	Permission() string
	RequiresContext() bool
	Parent() *CategoryNode
	// Path is the space-separated chain of primary names from the root.
	Path() string
	// Run resolves tokens below this node and reports success.
	Run(inv *invocation.Invocation, tokens []string) bool
	Help(inv *invocation.Invocation)
	Visible(inv *invocation.Invocation) bool
}

type base struct {
	names           []string
	description     string
	permission      string
	requiresContext bool
	parent          *CategoryNode
}

func (b *base) Name() string          { return b.names[0] }
func (b *base) Names() []string       { return slices.Clone(b.names) }
func (b *base) Aliases() []string     { return slices.Clone(b.names[1:]) }
func (b *base) Description() string   { return b.description }
func (b *base) Permission() string    { return b.permission }
func (b *base) RequiresContext() bool { return b.requiresContext }
func (b *base) Parent() *CategoryNode { return b.parent }

func (b *base) Path() string {
	parts := []string{b.Name()}
	for p := b.parent; p != nil; p = p.parent {
		parts = append(parts, p.Name())
	}
	slices.Reverse(parts)
	return strings.Join(parts, " ")
}

func (b *base) visible(inv *invocation.Invocation) bool {
	if b.permission != "" && !inv.User.HasPermission(b.permission) {
		return false
	}
	if b.requiresContext && !inv.User.SupportsContext() {
		return false
	}
	return true
}

// CategoryNode is an immutable level of the command tree.
type CategoryNode struct {
	base
	host       Category
	categories []*CategoryNode
	commands   []*CommandNode
}

func (c *CategoryNode) Host() Category { return c.host }

func (c *CategoryNode) Categories() []*CategoryNode { return slices.Clone(c.categories) }

func (c *CategoryNode) Commands() []*CommandNode { return slices.Clone(c.commands) }

func (c *CategoryNode) Visible(inv *invocation.Invocation) bool { return c.visible(inv) }

// Children lists sub-categories first, then commands, in declaration order.
func (c *CategoryNode) Children() []Node {
	out := make([]Node, 0, len(c.categories)+len(c.commands))
	for _, sub := range c.categories {
		out = append(out, sub)
	}
	for _, cmd := range c.commands {
		out = append(out, cmd)
	}
	return out
}

// Options lists the children inv's user may reach.
func (c *CategoryNode) Options(inv *invocation.Invocation) []Node {
	var out []Node
	for _, child := range c.Children() {
		if child.Visible(inv) {
			out = append(out, child)
		}
	}
	return out
}

func (c *CategoryNode) Run(inv *invocation.Invocation, tokens []string) bool {
	if len(tokens) == 0 {
		c.Help(inv)
		return true
	}

	options := c.Options(inv)
	inv.Debug("filtered options",
		zap.String("category", c.Path()),
		zap.Int("children", len(c.categories)+len(c.commands)),
		zap.Int("visible", len(options)),
	)

	selector, rest := tokens[0], tokens[1:]
	ranked := ngram.RankScored(selector, options, inv.Settings.MatchThreshold)
	if len(ranked) == 0 {
		inv.Debug("no option matched",
			zap.String("category", c.Path()),
			zap.String("input", selector),
			zap.Float64("threshold", inv.Settings.MatchThreshold),
		)
		return false
	}

	inv.Debug("attempting options",
		zap.String("category", c.Path()),
		zap.String("input", selector),
		zap.Strings("options", rankedNames(ranked)),
	)
	for _, option := range ranked {
		if err := inv.Err(); err != nil {
			inv.Debug("dispatch cancelled", zap.String("category", c.Path()), zap.Error(err))
			return false
		}
		if option.Item.Run(inv, slices.Clone(rest)) {
			return true
		}
		inv.Debug("option matched but failed to run",
			zap.String("option", option.Item.Path()),
			zap.String("input", selector),
			zap.Float64("ratio", option.Ratio),
		)
	}
	inv.Debug("no option ran", zap.String("category", c.Path()), zap.String("input", selector))
	return false
}

func rankedNames(ranked []ngram.Scored[Node]) []string {
	names := make([]string, 0, len(ranked))
	for _, r := range ranked {
		names = append(names, r.Item.Name())
	}
	return names
}

type resultKind int

const (
	resultNone resultKind = iota
	resultBool
	resultError
)

// CommandNode is a leaf of the tree bound to a Go function.
type CommandNode struct {
	base
	sync     bool
	examples []string
	params   []*param
	fn       reflect.Value
	variadic bool
	result   resultKind
}

func (c *CommandNode) Sync() bool { return c.sync }

func (c *CommandNode) Examples() []string { return slices.Clone(c.examples) }

// Variadic reports whether trailing words are passed to the function.
func (c *CommandNode) Variadic() bool { return c.variadic }

func (c *CommandNode) Params() []Parameter {
	out := make([]Parameter, 0, len(c.params))
	for _, p := range c.params {
		out = append(out, p.describe())
	}
	return out
}

func (c *CommandNode) Visible(inv *invocation.Invocation) bool {
	if !c.visible(inv) {
		return false
	}
	return !c.sync || inv.CanRunSync()
}

func (c *CommandNode) Run(inv *invocation.Invocation, tokens []string) bool {
	args, err := c.bind(inv, tokens)
	if err != nil {
		inv.Debug("could not bind arguments",
			zap.String("command", c.Path()),
			zap.String("error", safety.RedactText(err.Error())),
		)
		return false
	}

	var ok bool
	call := func() { ok = c.call(inv, args) }
	if c.sync {
		inv.RunSync(call)
	} else {
		call()
	}
	return ok
}

func (c *CommandNode) call(inv *invocation.Invocation, args []reflect.Value) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			inv.Logger.Error("command panicked",
				zap.String("command", c.Path()),
				zap.String("invocation", inv.ID),
				zap.Any("panic", r),
			)
			ok = false
		}
	}()

	var out []reflect.Value
	if c.variadic {
		out = c.fn.CallSlice(args)
	} else {
		out = c.fn.Call(args)
	}

	switch c.result {
	case resultBool:
		return out[0].Bool()
	case resultError:
		if err, _ := out[0].Interface().(error); err != nil {
			inv.Debug("command returned an error",
				zap.String("command", c.Path()),
				zap.String("error", safety.RedactText(err.Error())),
			)
			return false
		}
		return true
	default:
		return true
	}
}
