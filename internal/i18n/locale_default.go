//go:build !windows

package i18n

// Locale comes from the environment on every other platform
func getPlatformLocales() []string {
	return nil
}
