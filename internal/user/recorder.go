package user

import (
	"strings"
	"sync"

	"github.com/ashwch/strinput/internal/text"
)

// Recorder is an in-memory User for tests and headless front-ends.
type Recorder struct {
	UserName    string
	Context     bool
	Permissions map[string]bool
	// DenyUnlisted makes nodes missing from Permissions denied instead
	// of granted.
	DenyUnlisted bool

	mu       sync.Mutex
	messages []string
	options  [][]string
	feedback []Feedback
}

func NewRecorder(name string) *Recorder {
	return &Recorder{UserName: name, Permissions: map[string]bool{}}
}

func (r *Recorder) Name() string { return r.UserName }

func (r *Recorder) SendMessage(messages ...text.Str) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range messages {
		r.messages = append(r.messages, m.Plain())
	}
}

func (r *Recorder) SendOptions(title string, choices []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.options = append(r.options, append([]string(nil), choices...))
}

func (r *Recorder) SupportsContext() bool { return r.Context }

func (r *Recorder) HasPermission(node string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if node == "" {
		return true
	}
	allowed, ok := r.Permissions[node]
	if !ok {
		return !r.DenyUnlisted
	}
	return allowed
}

func (r *Recorder) PlayFeedback(signal Feedback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedback = append(r.feedback, signal)
}

func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func (r *Recorder) Options() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.options...)
}

func (r *Recorder) Feedback() []Feedback {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Feedback(nil), r.feedback...)
}

// LastFeedback returns the most recent signal, if any.
func (r *Recorder) LastFeedback() (Feedback, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.feedback) == 0 {
		return 0, false
	}
	return r.feedback[len(r.feedback)-1], true
}

// Transcript joins every message with newlines.
func (r *Recorder) Transcript() string {
	return strings.Join(r.Messages(), "\n")
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
	r.options = nil
	r.feedback = nil
}
