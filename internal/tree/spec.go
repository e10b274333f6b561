// Package tree builds the command tree from declared categories and walks
// it to resolve a line of tokens into a single command call.
package tree

// Category is implemented by every host object that contributes a level
// to the command tree.
type Category interface {
	Declare() Spec
}

// Spec is what a category declares about itself.
type Spec struct {
	Name            string
	Aliases         []string
	Description     string
	Permission      string
	RequiresContext bool
	Categories      []Child
	Commands        []CommandSpec
}

// Child produces a sub-category when the tree is built.
type Child func() Category

// Use returns c as a child category.
func Use(c Category) Child {
	return func() Category { return c }
}

// Lazy instantiates the category stored in *slot the first time the tree
// is built and reuses it on every rebuild after that.
func Lazy[T any, P interface {
	*T
	Category
}](slot *P) Child {
	return func() Category {
		if *slot == nil {
			*slot = P(new(T))
		}
		return *slot
	}
}

// CommandSpec declares one command. Func must be a function whose
// parameters match Params in order, optionally followed by a
// ...string parameter collecting trailing words, and that returns
// nothing, a bool or an error.
type CommandSpec struct {
	Name            string
	Aliases         []string
	Description     string
	Permission      string
	Sync            bool
	RequiresContext bool
	Examples        []string
	Params          []ParamSpec
	Func            any
}

func Cmd(name string, fn any, params ...ParamSpec) CommandSpec {
	return CommandSpec{Name: name, Func: fn, Params: params}
}

func (c CommandSpec) Alias(names ...string) CommandSpec {
	c.Aliases = append(append([]string(nil), c.Aliases...), names...)
	return c
}

func (c CommandSpec) Describe(description string) CommandSpec {
	c.Description = description
	return c
}

func (c CommandSpec) Perm(node string) CommandSpec {
	c.Permission = node
	return c
}

// RequireSync marks a command that must run on the sync lane.
func (c CommandSpec) RequireSync() CommandSpec {
	c.Sync = true
	return c
}

func (c CommandSpec) RequireContext() CommandSpec {
	c.RequiresContext = true
	return c
}

func (c CommandSpec) Example(lines ...string) CommandSpec {
	c.Examples = append(append([]string(nil), c.Examples...), lines...)
	return c
}

type ParamSpec struct {
	Name         string
	Aliases      []string
	Description  string
	DefaultValue string
	HasDefault   bool
	// Contextual parameters are filled from the invocation, not tokens.
	Contextual bool
}

func Param(name string) ParamSpec {
	return ParamSpec{Name: name}
}

func (p ParamSpec) Alias(names ...string) ParamSpec {
	p.Aliases = append(append([]string(nil), p.Aliases...), names...)
	return p
}

// Default sets the text parsed when the user leaves the parameter out.
func (p ParamSpec) Default(value string) ParamSpec {
	p.DefaultValue = value
	p.HasDefault = true
	return p
}

func (p ParamSpec) Context() ParamSpec {
	p.Contextual = true
	return p
}

func (p ParamSpec) Describe(description string) ParamSpec {
	p.Description = description
	return p
}
