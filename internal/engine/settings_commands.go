package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ashwch/strinput/internal/i18n"
	"github.com/ashwch/strinput/internal/invocation"
	"github.com/ashwch/strinput/internal/settings"
	"github.com/ashwch/strinput/internal/text"
	"github.com/ashwch/strinput/internal/tree"
)

// SettingsPermission guards the settings root.
const SettingsPermission = "strinput.settings"

// settingsCategory exposes the center's settings as commands. Changes
// are saved to the store and picked up by the next dispatch.
type settingsCategory struct {
	center *Center
}

func (s *settingsCategory) Declare() tree.Spec {
	inv := tree.Param("invocation").Context()
	return tree.Spec{
		Name:        "settings",
		Aliases:     []string{"setting", "config"},
		Description: "Show and change engine settings",
		Permission:  SettingsPermission,
		Commands: []tree.CommandSpec{
			tree.Cmd("list", s.list, inv).
				Alias("show").
				Describe("Show every setting"),
			tree.Cmd("get", s.get, inv, tree.Param("key")).
				Describe("Show one setting").
				Example("settings get match-threshold"),
			tree.Cmd("set", s.set, inv, tree.Param("key")).
				Describe("Change a setting by key").
				Example("settings set debug true"),
			tree.Cmd("async", s.boolSetter(settings.KeyAsync), inv, tree.Param("enabled")).
				Describe("Run commands off the caller's goroutine"),
			tree.Cmd("debug", s.boolSetter(settings.KeyDebug), inv, tree.Param("enabled")).
				Describe("Log resolution details"),
			tree.Cmd("debug-time", s.boolSetter(settings.KeyDebugTime), inv, tree.Param("enabled")).
				Describe("Log how long each command took"),
			tree.Cmd("debug-prefix", s.prefix, inv).
				Describe("Text put before every debug line"),
			tree.Cmd("match-threshold", s.threshold, inv, tree.Param("ratio").Alias("threshold")).
				Describe("Lowest match ratio an option needs, between 0 and 1").
				Example("settings match-threshold 0.5"),
			tree.Cmd("settings-commands", s.boolSetter(settings.KeySettingsCommands), inv, tree.Param("enabled")).
				Describe("Offer these settings commands"),
			tree.Cmd("locale", s.locale, inv, tree.Param("locale")).
				Describe("Message language, or auto").
				Example("settings locale hi-IN"),
		},
	}
}

func (s *settingsCategory) list(inv *invocation.Invocation) {
	msgs := inv.Messages.Settings
	lines := []text.Str{text.Colored(text.Green, msgs.ListHeading)}
	for _, key := range settings.Keys() {
		value, _ := inv.Settings.Get(key)
		lines = append(lines, text.New("  ").C(text.Blue).A(i18n.Format(msgs.Value, key, value)))
	}
	inv.User.SendMessage(lines...)
}

func (s *settingsCategory) get(inv *invocation.Invocation, key string) error {
	value, err := inv.Settings.Get(key)
	if err != nil {
		return err
	}
	inv.User.SendMessage(text.Colored(text.Blue, i18n.Format(inv.Messages.Settings.Value, key, value)))
	return nil
}

func (s *settingsCategory) set(inv *invocation.Invocation, key string, value ...string) error {
	return s.update(inv, key, strings.Join(value, " "))
}

func (s *settingsCategory) boolSetter(key string) func(*invocation.Invocation, bool) error {
	return func(inv *invocation.Invocation, enabled bool) error {
		return s.update(inv, key, strconv.FormatBool(enabled))
	}
}

func (s *settingsCategory) prefix(inv *invocation.Invocation, words ...string) error {
	return s.update(inv, settings.KeyDebugPrefix, strings.Join(words, " "))
}

func (s *settingsCategory) threshold(inv *invocation.Invocation, ratio float64) error {
	return s.update(inv, settings.KeyMatchThreshold, strconv.FormatFloat(ratio, 'g', -1, 64))
}

func (s *settingsCategory) locale(inv *invocation.Invocation, locale string) error {
	return s.update(inv, settings.KeyLocale, locale)
}

// update applies one change on top of what the store holds now, so
// concurrent edits from other front-ends are not lost.
func (s *settingsCategory) update(inv *invocation.Invocation, key, value string) error {
	msgs := inv.Messages.Settings
	next, err := s.center.store.Load()
	if err != nil {
		next = inv.Settings
	}
	if err := next.Set(key, value); err != nil {
		inv.User.SendMessage(text.Colored(text.Red, i18n.Format(msgs.Invalid, key, err.Error())))
		return err
	}
	if err := s.center.store.Save(next); err != nil {
		inv.User.SendMessage(text.Colored(text.Red, msgs.SaveFailed))
		return fmt.Errorf("could not save settings: %w", err)
	}
	shown, _ := next.Get(key)
	inv.User.SendMessage(text.Colored(text.Green, i18n.Format(msgs.Updated, key, shown)))
	return nil
}
