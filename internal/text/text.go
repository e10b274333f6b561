// Package text builds short coloured messages that front-ends render in
// whatever way their transport supports.
package text

import "strings"

type Color int

const (
	Default Color = iota
	Red
	Green
	Blue
	Gray
	Yellow
)

var colorNames = map[Color]string{
	Default: "default",
	Red:     "red",
	Green:   "green",
	Blue:    "blue",
	Gray:    "gray",
	Yellow:  "yellow",
}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return "default"
}

type Segment struct {
	Color Color
	Text  string
}

// Str is an immutable sequence of coloured segments. Appending returns a
// new value, so a Str can be shared as a prefix between goroutines.
type Str struct {
	segments []Segment
	current  Color
}

func New(s string) Str {
	return Colored(Default, s)
}

func Colored(c Color, s string) Str {
	out := Str{current: c}
	if s != "" {
		out.segments = []Segment{{Color: c, Text: s}}
	}
	return out
}

// A appends s in the current colour.
func (s Str) A(text string) Str {
	if text == "" {
		return s
	}
	out := s.clone()
	if n := len(out.segments); n > 0 && out.segments[n-1].Color == out.current {
		out.segments[n-1].Text += text
		return out
	}
	out.segments = append(out.segments, Segment{Color: out.current, Text: text})
	return out
}

// C switches the colour used by subsequent appends.
func (s Str) C(c Color) Str {
	out := s.clone()
	out.current = c
	return out
}

// Then appends every segment of other, keeping their colours.
func (s Str) Then(other Str) Str {
	out := s.clone()
	for _, seg := range other.segments {
		out = out.C(seg.Color).A(seg.Text)
	}
	out.current = other.current
	return out
}

func (s Str) Segments() []Segment {
	return append([]Segment(nil), s.segments...)
}

// Plain returns the text without colour information.
func (s Str) Plain() string {
	var b strings.Builder
	for _, seg := range s.segments {
		b.WriteString(seg.Text)
	}
	return b.String()
}

func (s Str) String() string { return s.Plain() }

func (s Str) Empty() bool { return len(s.segments) == 0 }

func (s Str) clone() Str {
	return Str{segments: append([]Segment(nil), s.segments...), current: s.current}
}
