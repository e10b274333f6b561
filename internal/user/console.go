package user

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ashwch/strinput/internal/text"
)

// Console writes messages to a terminal or log stream. It has every
// permission and no session context.
type Console struct {
	Out    io.Writer
	Styled bool
	Label  string

	mu sync.Mutex
}

func NewConsole(out io.Writer, styled bool) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{Out: out, Styled: styled, Label: "Console"}
}

func (c *Console) Name() string {
	if c.Label == "" {
		return "Console"
	}
	return c.Label
}

func (c *Console) SendMessage(messages ...text.Str) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, message := range messages {
		if c.Styled {
			fmt.Fprintln(c.Out, text.Render(message))
			continue
		}
		fmt.Fprintln(c.Out, message.Plain())
	}
}

func (c *Console) SendOptions(title string, choices []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if title != "" {
		fmt.Fprintln(c.Out, title)
	}
	for _, choice := range choices {
		fmt.Fprintf(c.Out, "  - %s\n", choice)
	}
}

func (c *Console) SupportsContext() bool { return false }

func (c *Console) HasPermission(string) bool { return true }

func (c *Console) PlayFeedback(Feedback) {}
