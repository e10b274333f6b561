package tree

import (
	"fmt"
	"strings"

	"github.com/ashwch/strinput/internal/ngram"
)

// Listing describes this category and everything below it, one line per
// node. When example holds tokens, each line also shows how well the
// example token for that depth matches the node.
func (c *CategoryNode) Listing(prefix, indent string, example []string) []string {
	line := prefix + c.Name() + aliasSuffix(c.names) +
		fmt.Sprintf(" cmds: %d / subcs: %d", len(c.commands), len(c.categories)) +
		matchSuffix(c.names, example)
	lines := []string{line}

	deeper := example
	if len(deeper) > 0 {
		deeper = deeper[1:]
	}
	for _, sub := range c.categories {
		lines = append(lines, sub.Listing(prefix+indent, indent, deeper)...)
	}
	for _, cmd := range c.commands {
		lines = append(lines, cmd.Listing(prefix+indent, deeper))
	}
	return lines
}

func (c *CommandNode) Listing(prefix string, example []string) string {
	return prefix + c.Name() + aliasSuffix(c.names) +
		fmt.Sprintf(" params: %d", len(c.params)) +
		matchSuffix(c.names, example)
}

func aliasSuffix(names []string) string {
	if len(names) < 2 {
		return ""
	}
	return " (" + strings.Join(names[1:], ", ") + ")"
}

func matchSuffix(names []string, example []string) string {
	if len(example) == 0 {
		return ""
	}
	return fmt.Sprintf(" matches with %s @ %.2f", example[0], ngram.Best(example[0], names))
}
