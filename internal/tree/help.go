package tree

import (
	"strings"

	"github.com/ashwch/strinput/internal/i18n"
	"github.com/ashwch/strinput/internal/invocation"
	"github.com/ashwch/strinput/internal/text"
)

// Help lists the options of this category the user can reach.
func (c *CategoryNode) Help(inv *invocation.Invocation) {
	msgs := inv.Messages.Help
	lines := []text.Str{text.Colored(text.Green, i18n.Format(msgs.Category, c.Path()))}
	if c.description != "" {
		lines = append(lines, text.Colored(text.Gray, c.description))
	}
	options := c.Options(inv)
	if len(options) == 0 {
		lines = append(lines, text.Colored(text.Red, msgs.NoOptions))
	}
	for _, option := range options {
		lines = append(lines, optionLine(option, msgs))
	}
	inv.User.SendMessage(lines...)
}

// Help shows how to call this command.
func (c *CommandNode) Help(inv *invocation.Invocation) {
	msgs := inv.Messages.Help
	lines := []text.Str{
		text.Colored(text.Green, i18n.Format(msgs.Command, c.Path()+c.Usage())),
	}
	if c.description != "" {
		lines = append(lines, text.Colored(text.Gray, c.description))
	}
	for _, p := range c.params {
		lines = append(lines, paramLine(p, msgs))
	}
	if c.variadic {
		lines = append(lines, text.Colored(text.Gray, "  ... "+msgs.Variadic))
	}
	if len(c.examples) > 0 {
		lines = append(lines, text.Colored(text.Green, msgs.Examples))
		for _, example := range c.examples {
			lines = append(lines, text.New("  ").C(text.Yellow).A(example))
		}
	}
	inv.User.SendMessage(lines...)
}

// Usage renders the token-bound parameters, e.g. " <a> [b=4]".
func (c *CommandNode) Usage() string {
	var b strings.Builder
	for _, p := range c.params {
		if p.contextual {
			continue
		}
		b.WriteByte(' ')
		if p.hasDefault {
			b.WriteString("[" + p.names[0] + "=" + p.defaultText + "]")
			continue
		}
		b.WriteString("<" + p.names[0] + ">")
	}
	if c.variadic {
		b.WriteString(" [...]")
	}
	return b.String()
}

func optionLine(n Node, msgs i18n.HelpCatalog) text.Str {
	line := text.New("  ").C(text.Blue).A(n.Name())
	switch node := n.(type) {
	case *CommandNode:
		line = line.C(text.Yellow).A(node.Usage())
	case *CategoryNode:
		line = line.C(text.Yellow).A(" ...")
	}
	if aliases := n.Names()[1:]; len(aliases) > 0 {
		line = line.C(text.Gray).A(" (" + msgs.Aliases + ": " + strings.Join(aliases, ", ") + ")")
	}
	if d := n.Description(); d != "" {
		line = line.C(text.Default).A(" - " + d)
	}
	return line
}

func paramLine(p *param, msgs i18n.HelpCatalog) text.Str {
	line := text.New("  ").C(text.Blue).A(p.names[0])
	if len(p.names) > 1 {
		line = line.C(text.Gray).A(" (" + msgs.Aliases + ": " + strings.Join(p.names[1:], ", ") + ")")
	}
	line = line.C(text.Yellow).A(" " + p.typ.String())
	switch {
	case p.contextual:
		line = line.C(text.Gray).A(" " + msgs.Context)
	case p.hasDefault:
		line = line.C(text.Gray).A(" " + i18n.Format(msgs.Default, p.defaultText))
	default:
		line = line.C(text.Red).A(" " + msgs.Required)
	}
	if p.description != "" {
		line = line.C(text.Default).A(" - " + p.description)
	}
	return line
}
