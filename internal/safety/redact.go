// Package safety keeps secrets typed into commands out of debug logs.
package safety

import (
	"regexp"
	"strings"
)

const Redacted = "<redacted>"

const sensitiveWord = `(?:token|secret|password|passwd|passphrase|api[_-]?key|access[_-]?key)`

var (
	sensitiveKey = regexp.MustCompile(`(?i)^[a-z0-9_-]*(?:` + sensitiveWord + `|authorization)[a-z0-9_-]*$`)

	textRules = []struct {
		pattern     *regexp.Regexp
		replacement string
	}{
		{
			pattern:     regexp.MustCompile(`(?i)\b(authorization\s*:\s*bearer)\s+([^\s"']+)`),
			replacement: `$1 ` + Redacted,
		},
		{
			pattern:     regexp.MustCompile(`(?i)((?:--)?\b[a-z0-9_-]*` + sensitiveWord + `[a-z0-9_-]*)\s*[=:]\s*([^\s"']+|"[^"]*"|'[^']*')`),
			replacement: `$1=` + Redacted,
		},
		{
			pattern:     regexp.MustCompile(`(?i)((?:--)?\b[a-z0-9_-]*` + sensitiveWord + `[a-z0-9_-]*)\b\s+([^\s"'=:]+|"[^"]*"|'[^']*')`),
			replacement: `$1 ` + Redacted,
		},
	}
)

// RedactText scrubs secret assignments, secret flags and bearer tokens
// from free-form text such as error messages.
func RedactText(input string) string {
	redacted := input
	for _, rule := range textRules {
		redacted = rule.pattern.ReplaceAllString(redacted, rule.replacement)
	}
	return redacted
}

// RedactTokens returns a copy of tokens with the values of secret
// key=value tokens, and the token after a bare secret word, replaced.
func RedactTokens(tokens []string) []string {
	out := make([]string, len(tokens))
	copy(out, tokens)
	for i := 0; i < len(out); i++ {
		if key, _, ok := strings.Cut(out[i], "="); ok {
			if sensitiveKey.MatchString(key) {
				out[i] = key + "=" + Redacted
			}
			continue
		}
		if sensitiveKey.MatchString(out[i]) && i+1 < len(out) {
			out[i+1] = Redacted
			i++
		}
	}
	return out
}
