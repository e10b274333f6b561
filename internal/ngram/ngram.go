// Package ngram scores how closely a typed token matches candidate names.
//
// Strings are case-folded, prefixed with a start marker and cut into
// contiguous bigrams. The raw score of two strings is the size of the
// multiset intersection of their bigrams; the ratio divides that by the
// input's self-similarity, so a candidate holding every bigram of the
// input scores 1.0 no matter how long it is.
package ngram

import (
	"sort"

	"golang.org/x/text/cases"
)

// Window is the n-gram length.
const Window = 2

// Marker is prepended to every string so leading characters weigh in.
const Marker = ' '

// Named is anything that can be matched by one of several names.
type Named interface {
	Names() []string
}

// Scored pairs a ranked candidate with its best ratio.
type Scored[T any] struct {
	Item  T
	Ratio float64
}

type gramSet map[string]int

func grams(s string) gramSet {
	if s == "" {
		return nil
	}
	runes := []rune(string(Marker) + cases.Fold().String(s))
	out := gramSet{}
	if len(runes) < Window {
		out[string(runes)]++
		return out
	}
	for i := 0; i+Window <= len(runes); i++ {
		out[string(runes[i:i+Window])]++
	}
	return out
}

func intersect(a, b gramSet) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	total := 0
	for gram, count := range a {
		total += min(count, b[gram])
	}
	return total
}

// Similarity returns the number of bigrams a and b share, counting each
// shared bigram up to its smaller multiplicity.
func Similarity(a, b string) int {
	return intersect(grams(a), grams(b))
}

// Normalized returns Similarity(a, b) / Similarity(a, a), in [0, 1].
func Normalized(a, b string) float64 {
	return newMatcher(a).ratio(b)
}

// Best returns the highest ratio of input against any of names.
func Best(input string, names []string) float64 {
	return newMatcher(input).best(names)
}

// Scores returns the ratio of input against each option, in option order.
func Scores(input string, options []string) []float64 {
	m := newMatcher(input)
	out := make([]float64, len(options))
	for i, option := range options {
		out[i] = m.ratio(option)
	}
	return out
}

// Rank orders candidates by descending best ratio against input, dropping
// those below threshold. Equal ratios keep their original order.
func Rank[T Named](input string, candidates []T, threshold float64) []T {
	scored := RankScored(input, candidates, threshold)
	out := make([]T, len(scored))
	for i, s := range scored {
		out[i] = s.Item
	}
	return out
}

// RankScored is Rank, keeping the ratio that placed each candidate.
func RankScored[T Named](input string, candidates []T, threshold float64) []Scored[T] {
	m := newMatcher(input)
	kept := make([]Scored[T], 0, len(candidates))
	for _, candidate := range candidates {
		ratio := m.best(candidate.Names())
		if ratio < threshold {
			continue
		}
		kept = append(kept, Scored[T]{Item: candidate, Ratio: ratio})
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Ratio > kept[j].Ratio
	})
	return kept
}

// RankStrings ranks plain strings the same way Rank ranks candidates.
func RankStrings(input string, options []string, threshold float64) []string {
	named := make([]plain, len(options))
	for i, option := range options {
		named[i] = plain(option)
	}
	ranked := Rank(input, named, threshold)
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = string(r)
	}
	return out
}

type plain string

func (p plain) Names() []string { return []string{string(p)} }

type matcher struct {
	input string
	grams gramSet
	self  int
}

func newMatcher(input string) matcher {
	g := grams(input)
	return matcher{input: input, grams: g, self: intersect(g, g)}
}

func (m matcher) ratio(candidate string) float64 {
	if m.input == "" {
		if candidate == "" {
			return 1
		}
		return 0
	}
	if m.self == 0 {
		return 0
	}
	return float64(intersect(m.grams, grams(candidate))) / float64(m.self)
}

func (m matcher) best(names []string) float64 {
	best := 0.0
	for _, name := range names {
		if r := m.ratio(name); r > best {
			best = r
		}
	}
	return best
}
