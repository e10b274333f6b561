package i18n

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ashwch/strinput/internal/appdirs"
	"github.com/tidwall/jsonc"
)

// LocaleEnv overrides locale detection from the environment.
const LocaleEnv = "STRINPUT_LOCALE"

type Catalog struct {
	Locale   string          `json:"locale"`
	Dispatch DispatchCatalog `json:"dispatch"`
	Help     HelpCatalog     `json:"help"`
	Settings SettingsCatalog `json:"settings"`
}

type DispatchCatalog struct {
	UnknownRoot string `json:"unknown_root"`
	DidYouMean  string `json:"did_you_mean"`
	Failed      string `json:"failed"`
	NoInput     string `json:"no_input"`
	PickFailed  string `json:"pick_failed"`
}

type HelpCatalog struct {
	Category  string `json:"category"`
	Command   string `json:"command"`
	Aliases   string `json:"aliases"`
	Required  string `json:"required"`
	Default   string `json:"default"`
	Context   string `json:"context"`
	Variadic  string `json:"variadic"`
	Examples  string `json:"examples"`
	NoOptions string `json:"no_options"`
	Roots     string `json:"roots"`
}

type SettingsCatalog struct {
	Value       string `json:"value"`
	Updated     string `json:"updated"`
	Invalid     string `json:"invalid"`
	SaveFailed  string `json:"save_failed"`
	ListHeading string `json:"list_heading"`
}

// Format applies args to a catalog entry, falling back to plain
// concatenation when a community override dropped the verbs.
func Format(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	if strings.Count(format, "%") == 0 {
		parts := make([]string, 0, len(args)+1)
		parts = append(parts, format)
		for _, arg := range args {
			parts = append(parts, fmt.Sprint(arg))
		}
		return strings.Join(parts, " ")
	}
	return fmt.Sprintf(format, args...)
}

// LoadCatalog resolves "auto" and empty locales from the environment.
func LoadCatalog(requestedLocale string) Catalog {
	locale := ""
	if !strings.EqualFold(strings.TrimSpace(requestedLocale), "auto") {
		locale = NormalizeLocale(requestedLocale)
	}
	if locale == "" {
		locale = DetectLocale()
	}
	if locale == "" {
		locale = "en"
	}
	base := baseCatalogForLocale(locale)

	if override, ok := loadCommunityCatalog(locale); ok {
		merged := mergeCatalog(base, override)
		if strings.TrimSpace(override.Locale) != "" {
			merged.Locale = NormalizeLocale(override.Locale)
		} else {
			merged.Locale = locale
		}
		return merged
	}

	base.Locale = locale
	return base
}

func baseCatalogForLocale(locale string) Catalog {
	normalized := strings.ToLower(NormalizeLocale(locale))
	switch {
	case strings.HasPrefix(normalized, "hi"):
		// Hindi first, English fills any gap.
		base := mergeCatalog(defaultEnglishCatalog(), defaultHindiCatalog())
		base.Locale = "hi"
		return base
	default:
		base := defaultEnglishCatalog()
		base.Locale = "en"
		return base
	}
}

func DetectLocale() string {
	candidates := []string{
		os.Getenv(LocaleEnv),
		os.Getenv("LC_ALL"),
		os.Getenv("LC_MESSAGES"),
		os.Getenv("LANG"),
	}
	for _, candidate := range candidates {
		if normalized := NormalizeLocale(candidate); normalized != "" {
			return normalized
		}
	}
	return "en"
}

func NormalizeLocale(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	trimmed = strings.Split(trimmed, ".")[0]
	trimmed = strings.Split(trimmed, "@")[0]
	trimmed = strings.ReplaceAll(trimmed, "_", "-")

	parts := strings.Split(trimmed, "-")
	if len(parts) == 1 {
		lang := strings.ToLower(parts[0])
		if !isValidLocaleToken(lang, true) {
			return ""
		}
		return lang
	}
	lang := strings.ToLower(parts[0])
	region := strings.ToUpper(parts[1])
	if !isValidLocaleToken(lang, true) {
		return ""
	}
	if region == "" {
		return lang
	}
	if !isValidLocaleToken(strings.ToLower(region), false) {
		return ""
	}
	return lang + "-" + region
}

func isValidLocaleToken(token string, lettersOnly bool) bool {
	if len(token) < 2 || len(token) > 8 {
		return false
	}
	for _, r := range token {
		if r >= 'a' && r <= 'z' {
			continue
		}
		if !lettersOnly && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}

func loadCommunityCatalog(locale string) (Catalog, bool) {
	localesDir, err := appdirs.LocalesDir()
	if err != nil {
		return Catalog{}, false
	}

	normalized := NormalizeLocale(locale)
	if normalized == "" {
		return Catalog{}, false
	}
	lang := normalized
	if idx := strings.Index(lang, "-"); idx > 0 {
		lang = lang[:idx]
	}

	paths := []string{
		filepath.Join(localesDir, normalized+".json"),
	}
	if lang != normalized {
		paths = append(paths, filepath.Join(localesDir, lang+".json"))
	}

	for _, path := range paths {
		loaded, ok := loadCatalogFile(path)
		if ok {
			return loaded, true
		}
	}
	return Catalog{}, false
}

func loadCatalogFile(path string) (Catalog, bool) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, false
	}
	var catalog Catalog
	if err := json.Unmarshal(jsonc.ToJSON(bytes), &catalog); err != nil {
		return Catalog{}, false
	}
	return catalog, true
}

// mergeCatalog keeps every base entry the override leaves blank.
func mergeCatalog(base Catalog, override Catalog) Catalog {
	merged := base

	merged.Dispatch.UnknownRoot = mergeString(base.Dispatch.UnknownRoot, override.Dispatch.UnknownRoot)
	merged.Dispatch.DidYouMean = mergeString(base.Dispatch.DidYouMean, override.Dispatch.DidYouMean)
	merged.Dispatch.Failed = mergeString(base.Dispatch.Failed, override.Dispatch.Failed)
	merged.Dispatch.NoInput = mergeString(base.Dispatch.NoInput, override.Dispatch.NoInput)
	merged.Dispatch.PickFailed = mergeString(base.Dispatch.PickFailed, override.Dispatch.PickFailed)

	merged.Help.Category = mergeString(base.Help.Category, override.Help.Category)
	merged.Help.Command = mergeString(base.Help.Command, override.Help.Command)
	merged.Help.Aliases = mergeString(base.Help.Aliases, override.Help.Aliases)
	merged.Help.Required = mergeString(base.Help.Required, override.Help.Required)
	merged.Help.Default = mergeString(base.Help.Default, override.Help.Default)
	merged.Help.Context = mergeString(base.Help.Context, override.Help.Context)
	merged.Help.Variadic = mergeString(base.Help.Variadic, override.Help.Variadic)
	merged.Help.Examples = mergeString(base.Help.Examples, override.Help.Examples)
	merged.Help.NoOptions = mergeString(base.Help.NoOptions, override.Help.NoOptions)
	merged.Help.Roots = mergeString(base.Help.Roots, override.Help.Roots)

	merged.Settings.Value = mergeString(base.Settings.Value, override.Settings.Value)
	merged.Settings.Updated = mergeString(base.Settings.Updated, override.Settings.Updated)
	merged.Settings.Invalid = mergeString(base.Settings.Invalid, override.Settings.Invalid)
	merged.Settings.SaveFailed = mergeString(base.Settings.SaveFailed, override.Settings.SaveFailed)
	merged.Settings.ListHeading = mergeString(base.Settings.ListHeading, override.Settings.ListHeading)

	return merged
}

func mergeString(base string, override string) string {
	if trimmed := strings.TrimSpace(override); trimmed != "" {
		return trimmed
	}
	return base
}

func defaultEnglishCatalog() Catalog {
	return Catalog{
		Locale: "en",
		Dispatch: DispatchCatalog{
			UnknownRoot: "Could not find root command for: %s",
			DidYouMean:  "Did you mean one of these?",
			Failed:      "Failed to run your command!",
			NoInput:     "Please enter a command.",
			PickFailed:  "That option is no longer available.",
		},
		Help: HelpCatalog{
			Category:  "%s has these options:",
			Command:   "Usage: %s",
			Aliases:   "aliases",
			Required:  "required",
			Default:   "default %s",
			Context:   "from context",
			Variadic:  "and any further words",
			Examples:  "Examples:",
			NoOptions: "Nothing is available to you here.",
			Roots:     "Available commands:",
		},
		Settings: SettingsCatalog{
			Value:       "%s = %s",
			Updated:     "%s set to %s",
			Invalid:     "Could not change %s: %s",
			SaveFailed:  "Could not save settings.",
			ListHeading: "Current settings:",
		},
	}
}

func defaultHindiCatalog() Catalog {
	return Catalog{
		Locale: "hi",
		Dispatch: DispatchCatalog{
			UnknownRoot: "इस नाम का कोई मुख्य कमांड नहीं मिला: %s",
			DidYouMean:  "क्या आपका मतलब इनमें से कोई था?",
			Failed:      "आपका कमांड नहीं चल पाया!",
			NoInput:     "कृपया कोई कमांड लिखें।",
			PickFailed:  "यह विकल्प अब उपलब्ध नहीं है।",
		},
		Help: HelpCatalog{
			Category:  "%s के विकल्प:",
			Command:   "उपयोग: %s",
			Aliases:   "अन्य नाम",
			Required:  "ज़रूरी",
			Default:   "डिफ़ॉल्ट %s",
			Context:   "संदर्भ से",
			Variadic:  "और आगे के शब्द",
			Examples:  "उदाहरण:",
			NoOptions: "यहाँ आपके लिए कुछ उपलब्ध नहीं है।",
			Roots:     "उपलब्ध कमांड:",
		},
		Settings: SettingsCatalog{
			Value:       "%s = %s",
			Updated:     "%s अब %s है",
			Invalid:     "%s नहीं बदला जा सका: %s",
			SaveFailed:  "सेटिंग्स सहेजी नहीं जा सकीं।",
			ListHeading: "मौजूदा सेटिंग्स:",
		},
	}
}
