// Package settings holds the small record that tunes the engine, and the
// store it is hot-loaded from before every dispatch.
package settings

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ashwch/strinput/internal/i18n"
)

type Settings struct {
	Async            bool    `toml:"async" json:"async" yaml:"async"`
	Debug            bool    `toml:"debug" json:"debug" yaml:"debug"`
	DebugTime        bool    `toml:"debug_time" json:"debug_time" yaml:"debug_time"`
	DebugPrefix      string  `toml:"debug_prefix" json:"debug_prefix" yaml:"debug_prefix"`
	MatchThreshold   float64 `toml:"match_threshold" json:"match_threshold" yaml:"match_threshold"`
	SettingsCommands bool    `toml:"settings_commands" json:"settings_commands" yaml:"settings_commands"`
	Locale           string  `toml:"locale" json:"locale" yaml:"locale"`
}

const (
	KeyAsync            = "async"
	KeyDebug            = "debug"
	KeyDebugTime        = "debug_time"
	KeyDebugPrefix      = "debug_prefix"
	KeyMatchThreshold   = "match_threshold"
	KeySettingsCommands = "settings_commands"
	KeyLocale           = "locale"
)

var keys = []string{
	KeyAsync,
	KeyDebug,
	KeyDebugTime,
	KeyDebugPrefix,
	KeyMatchThreshold,
	KeySettingsCommands,
	KeyLocale,
}

func Default() Settings {
	return Settings{
		Async:            true,
		Debug:            false,
		DebugTime:        false,
		DebugPrefix:      "[strinput] ",
		MatchThreshold:   0.3,
		SettingsCommands: true,
		Locale:           "auto",
	}
}

// Keys lists every settable key in declaration order.
func Keys() []string {
	return append([]string(nil), keys...)
}

func (s *Settings) normalize() {
	defaults := Default()
	if math.IsNaN(s.MatchThreshold) || s.MatchThreshold < 0 || s.MatchThreshold > 1 {
		s.MatchThreshold = defaults.MatchThreshold
	}
	s.Locale = normalizeLocaleSetting(s.Locale, defaults.Locale)
	if s.Locale == "" {
		s.Locale = defaults.Locale
	}
}

func normalizeKey(key string) string {
	key = strings.TrimSpace(strings.ToLower(key))
	return strings.ReplaceAll(key, "-", "_")
}

func (s *Settings) Set(key, value string) error {
	key = normalizeKey(key)
	value = strings.TrimSpace(value)

	switch key {
	case KeyAsync:
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("async must be boolean")
		}
		s.Async = b
	case KeyDebug:
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("debug must be boolean")
		}
		s.Debug = b
	case KeyDebugTime:
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("debug_time must be boolean")
		}
		s.DebugTime = b
	case KeyDebugPrefix:
		s.DebugPrefix = value
	case KeyMatchThreshold:
		n, err := parseThreshold(value)
		if err != nil {
			return fmt.Errorf("match_threshold must be between 0 and 1")
		}
		s.MatchThreshold = n
	case KeySettingsCommands:
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("settings_commands must be boolean")
		}
		s.SettingsCommands = b
	case KeyLocale:
		locale := normalizeLocaleSetting(value, "")
		if locale == "" {
			return fmt.Errorf("locale must be 'auto' or a locale like en, en-US, hi, hi-IN")
		}
		s.Locale = locale
	default:
		return fmt.Errorf("unknown settings key: %s", key)
	}
	s.normalize()
	return nil
}

func (s Settings) Get(key string) (string, error) {
	switch normalizeKey(key) {
	case KeyAsync:
		return strconv.FormatBool(s.Async), nil
	case KeyDebug:
		return strconv.FormatBool(s.Debug), nil
	case KeyDebugTime:
		return strconv.FormatBool(s.DebugTime), nil
	case KeyDebugPrefix:
		return s.DebugPrefix, nil
	case KeyMatchThreshold:
		return fmt.Sprintf("%g", s.MatchThreshold), nil
	case KeySettingsCommands:
		return strconv.FormatBool(s.SettingsCommands), nil
	case KeyLocale:
		return s.Locale, nil
	default:
		return "", fmt.Errorf("unknown settings key: %s", key)
	}
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool: %s", value)
	}
}

func parseThreshold(value string) (float64, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || n < 0 || n > 1 {
		return 0, fmt.Errorf("threshold must be between 0 and 1")
	}
	return n, nil
}

func normalizeLocaleSetting(value string, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = strings.TrimSpace(fallback)
	}
	if strings.EqualFold(trimmed, "auto") {
		return "auto"
	}
	return i18n.NormalizeLocale(trimmed)
}
