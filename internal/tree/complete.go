package tree

import (
	"github.com/ashwch/strinput/internal/invocation"
	"github.com/ashwch/strinput/internal/ngram"
)

// Complete suggests names for the last token. Earlier tokens walk down
// through the best matching sub-category.
func (c *CategoryNode) Complete(inv *invocation.Invocation, tokens []string) []string {
	options := c.Options(inv)
	if len(tokens) == 0 {
		return primaryNames(options)
	}
	if len(tokens) == 1 {
		return primaryNames(ngram.Rank(tokens[0], options, inv.Settings.MatchThreshold))
	}
	for _, option := range ngram.Rank(tokens[0], options, inv.Settings.MatchThreshold) {
		sub, ok := option.(*CategoryNode)
		if !ok {
			continue
		}
		if out := sub.Complete(inv, tokens[1:]); len(out) > 0 {
			return out
		}
	}
	return nil
}

func primaryNames(nodes []Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name())
	}
	return out
}
