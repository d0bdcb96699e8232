//go:build windows

package i18n

import "golang.org/x/sys/windows"

// getPlatformLocales returns the preferred UI languages, then the user locale
func getPlatformLocales() []string {
	langs, err := windows.GetUserPreferredUILanguages(windows.MUI_LANGUAGE_NAME)
	if err == nil && len(langs) > 0 {
		return langs
	}
	if name, err := windows.GetUserDefaultLocaleName(); err == nil && name != "" {
		return []string{name}
	}
	return nil
}
