// Package i18n localizes command help and operator-facing prompts.
package i18n

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// EnvLang overrides the detected locale
const EnvLang = "APPREBRAND_LANG"

var (
	mu              sync.RWMutex
	localizer       *goi18n.Localizer
	currentLanguage = language.English
)

//go:embed locales/*.toml
var localeFS embed.FS

var localeFiles = []string{
	"locales/active.en.toml",
	"locales/active.zh.toml",
}

// Init loads the bundles and picks a language from, in order:
// langOverride (--lang), APPREBRAND_LANG, LC_ALL, LC_MESSAGES, LANG, the OS UI language.
func Init(langOverride string) error {
	b := goi18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	for _, file := range localeFiles {
		if _, err := b.LoadMessageFileFS(localeFS, file); err != nil {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}

	chosen := selectLanguage(langOverride)

	mu.Lock()
	defer mu.Unlock()
	localizer = goi18n.NewLocalizer(b, chosen.String(), language.English.String())
	currentLanguage = chosen
	return nil
}

// T translates a message by ID; unknown IDs come back unchanged
func T(id string, data ...map[string]interface{}) string {
	mu.RLock()
	l := localizer
	mu.RUnlock()

	if l == nil {
		if err := Init(""); err != nil {
			fmt.Fprintf(os.Stderr, "i18n init failed: %v\n", err)
			return id
		}
		mu.RLock()
		l = localizer
		mu.RUnlock()
	}

	var templateData map[string]interface{}
	if len(data) > 0 {
		templateData = data[0]
	}

	msg, err := l.Localize(&goi18n.LocalizeConfig{
		MessageID:      id,
		TemplateData:   templateData,
		DefaultMessage: &goi18n.Message{ID: id, Other: id},
	})
	if err != nil || msg == "" {
		return id
	}
	return msg
}

// CurrentLanguage returns the chosen language tag
func CurrentLanguage() language.Tag {
	mu.RLock()
	defer mu.RUnlock()
	return currentLanguage
}

func selectLanguage(langOverride string) language.Tag {
	var candidates []string
	if langOverride != "" {
		candidates = append(candidates, langOverride)
	}
	for _, key := range []string{EnvLang, "LC_ALL", "LC_MESSAGES", "LANG"} {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			candidates = append(candidates, val)
		}
	}
	if len(candidates) == 0 {
		candidates = getPlatformLocales()
	}

	// The first supported preference wins
	for _, cand := range candidates {
		tag, ok := parseLocale(cand)
		if !ok {
			continue
		}
		switch base, _ := tag.Base(); base.String() {
		case "zh":
			return language.Chinese
		case "en":
			return language.English
		}
	}
	return language.English
}

// parseLocale accepts POSIX forms such as zh_CN.UTF-8
func parseLocale(s string) (language.Tag, bool) {
	clean := strings.TrimSpace(s)
	if idx := strings.IndexAny(clean, ".@"); idx >= 0 {
		clean = clean[:idx]
	}
	clean = strings.ReplaceAll(clean, "_", "-")
	if clean == "" || strings.EqualFold(clean, "C") || strings.EqualFold(clean, "POSIX") {
		return language.Und, false
	}
	tag, err := language.Parse(clean)
	if err != nil {
		return language.Und, false
	}
	return tag, true
}
