package ui

import (
	"slices"
	"strings"
)

const (
	BackendAuto      = "auto"
	BackendBubbleTea = "bubbletea"
	BackendHuh       = "huh"
	BackendTView     = "tview"
	BackendPlain     = "plain"
)

// interactiveBackends is the order auto tries.
var interactiveBackends = []string{BackendBubbleTea, BackendHuh, BackendTView}

// Backends lists every accepted backend name.
func Backends() []string {
	out := []string{BackendAuto}
	out = append(out, interactiveBackends...)
	return append(out, BackendPlain)
}

// NormalizeBackend maps unknown or empty names to auto.
func NormalizeBackend(backend string) string {
	name := strings.ToLower(strings.TrimSpace(backend))
	if name == BackendPlain || slices.Contains(interactiveBackends, name) {
		return name
	}
	return BackendAuto
}

func IsInteractiveBackend(backend string) bool {
	return NormalizeBackend(backend) != BackendPlain
}

// backendCandidates puts the preferred backend first and keeps the other
// interactive ones as fallbacks.
func backendCandidates(backend string) []string {
	preferred := NormalizeBackend(backend)
	switch preferred {
	case BackendPlain:
		return []string{BackendPlain}
	case BackendAuto:
		return slices.Clone(interactiveBackends)
	}
	out := []string{preferred}
	for _, candidate := range interactiveBackends {
		if candidate != preferred {
			out = append(out, candidate)
		}
	}
	return out
}
