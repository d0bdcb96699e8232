package i18n

import (
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestInitSelectsOverride(t *testing.T) {
	require.NoError(t, Init("zh"))
	assert.Equal(t, language.Chinese, CurrentLanguage())
	assert.Equal(t, "换品牌完成", T("summary.title"))

	require.NoError(t, Init("en"))
	assert.Equal(t, "Rebrand complete", T("summary.title"))
}

func TestInitReadsEnvironment(t *testing.T) {
	t.Setenv(EnvLang, "zh_CN.UTF-8")
	require.NoError(t, Init(""))
	assert.Equal(t, language.Chinese, CurrentLanguage())
}

func TestTemplateDataAndUnknownIDs(t *testing.T) {
	require.NoError(t, Init("en"))
	assert.Equal(t, "Configuration template written to x.yaml", T("init.written", map[string]interface{}{"path": "x.yaml"}))
	assert.Equal(t, "no.such.message", T("no.such.message"))
}

func TestSelectLanguage(t *testing.T) {
	t.Setenv(EnvLang, "")
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "")

	assert.Equal(t, language.Chinese, selectLanguage("zh-TW"))
	assert.Equal(t, language.English, selectLanguage("en_GB.UTF-8"))
	assert.Equal(t, language.English, selectLanguage("fr_FR"))

	// Unsupported preferences fall through to the next candidate
	t.Setenv("LANG", "zh_CN.UTF-8")
	assert.Equal(t, language.Chinese, selectLanguage("de"))
	assert.Equal(t, language.Chinese, selectLanguage("C"))
}

func TestLocalesHaveTheSameKeys(t *testing.T) {
	load := func(file string) map[string]string {
		data, err := localeFS.ReadFile(file)
		require.NoError(t, err)
		m := map[string]string{}
		require.NoError(t, toml.Unmarshal(data, &m))
		return m
	}

	en := load("locales/active.en.toml")
	zh := load("locales/active.zh.toml")
	for key := range en {
		assert.Contains(t, zh, key)
	}
	for key := range zh {
		assert.Contains(t, en, key)
	}
}
