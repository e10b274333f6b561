// Package user describes who sent a line of input and how results reach them.
package user

import (
	"strings"

	"github.com/ashwch/strinput/internal/text"
)

// Feedback is an abstract signal a front-end renders as a sound, an
// emoji reaction or nothing at all.
type Feedback int

const (
	SuccessfulTab Feedback = iota
	FailedTab
	SuccessfulCommand
	FailedCommand
	SuccessfulPick
	FailedPick
	PickOption
)

var feedbackNames = []string{
	"successful-tab",
	"failed-tab",
	"successful-command",
	"failed-command",
	"successful-pick",
	"failed-pick",
	"pick-option",
}

func (f Feedback) String() string {
	if int(f) >= 0 && int(f) < len(feedbackNames) {
		return feedbackNames[f]
	}
	return "unknown"
}

// ParseFeedback is the inverse of Feedback.String.
func ParseFeedback(name string) (Feedback, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, known := range feedbackNames {
		if known == name {
			return Feedback(i), true
		}
	}
	return 0, false
}

// User is implemented by every front-end. Implementations must be safe
// for use from the goroutine an async dispatch runs on.
type User interface {
	Name() string
	SendMessage(messages ...text.Str)
	// SendOptions offers choices the user may pick from; what picking
	// does is up to the front-end.
	SendOptions(title string, choices []string)
	SupportsContext() bool
	HasPermission(node string) bool
	PlayFeedback(signal Feedback)
}
