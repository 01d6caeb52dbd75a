// Package i18n localizes the user-facing messages of the command line.
package i18n

import (
	"embed"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-heatmap/internal/config"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Translator resolves message ids for one language.
type Translator struct {
	// Lang is the locale actually selected, e.g. "fr" for a request of "fr-CA".
	Lang string

	localizer *goi18n.Localizer
}

// New loads the embedded locales and selects lang, falling back to English.
func New(lang string) *Translator {
	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc(config.LocaleFormatJSON, json.Unmarshal)

	t := &Translator{Lang: config.DefaultLanguage}

	entries, err := localeFS.ReadDir(config.LocalesDir)
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
		return t
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, config.LocaleFilePrefix) || !strings.HasSuffix(name, config.LocaleFileSuffix) {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		code := strings.TrimSuffix(strings.TrimPrefix(name, config.LocaleFilePrefix), config.LocaleFileSuffix)
		if !slices.Contains(config.SupportedLanguages, code) {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		path := config.LocalesDir + "/" + name
		if _, err := bundle.LoadMessageFileFS(localeFS, path); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}

		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, code,
		)
	}

	// The bundle lists English first, so an unknown or empty lang lands there.
	tags := bundle.LanguageTags()
	_, idx, _ := language.NewMatcher(tags).Match(language.Make(lang))
	t.Lang = tags[idx].String()

	t.localizer = goi18n.NewLocalizer(bundle, t.Lang)
	return t
}

// Msg translates key, returning fallback when the key is unknown.
func (t *Translator) Msg(key, fallback string) string {
	if t == nil || t.localizer == nil {
		return fallback
	}
	msg, err := t.localizer.Localize(&goi18n.LocalizeConfig{MessageID: key})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyError, err,
		)
		return fallback
	}
	return msg
}

// LanguageFromEnv derives a BCP 47 tag from the POSIX locale variables,
// e.g. "fr_FR.UTF-8" becomes "fr-FR". It returns "" when nothing usable is set.
func LanguageFromEnv(getenv func(string) string) string {
	for _, name := range config.EnvLanguageVars {
		value := getenv(name)
		if value == "" {
			continue
		}
		if i := strings.Index(value, config.LocaleEncodingSep); i >= 0 {
			value = value[:i]
		}
		if value == config.LocaleC || value == config.LocalePOSIX {
			continue
		}
		value = strings.ReplaceAll(value, config.LocaleRegionSep, config.LocaleRegionSepBCP)

		tag, err := language.Parse(value)
		if err != nil {
			continue
		}
		return tag.String()
	}
	return ""
}
