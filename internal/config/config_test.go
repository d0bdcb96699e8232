package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTemplateMatchesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rebrand.yaml")
	require.NoError(t, SaveTemplate(path))

	cfg, err := Load(path)
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Paths, cfg.Paths)
	assert.Equal(t, def.Runtime, cfg.Runtime)
	assert.Equal(t, def.Signing.Alias, cfg.Signing.Alias)
	assert.Equal(t, 10000, cfg.Signing.ValidityDays)
	assert.Equal(t, "app-store", cfg.IOS.ExportMethod)
	assert.Equal(t, 4, cfg.Build.AssetConcurrency)
}

func TestLoadOverridesAndCommandPlans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rebrand.yaml")
	content := `
paths:
  output_root: /tmp/out
build:
  commands:
    android:
      debug:
        - "flutter build apk --debug --flavor 'acme dev'"
runtime:
  constants:
    api_url: baseUrl
signing:
  dname:
    common_name: Acme
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/out", cfg.Paths.OutputRoot)
	assert.Equal(t, []string{"flutter build apk --debug --flavor 'acme dev'"}, cfg.Build.Commands["android"]["debug"])
	assert.Equal(t, "baseUrl", cfg.Runtime.Constants[ConstantAPIURL])
	assert.Equal(t, "offlineCategoryId", cfg.Runtime.Constants[ConstantCategoryID])
	assert.Equal(t, "Acme", cfg.Signing.DName.CommonName)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rebrand.yaml")
	require.NoError(t, os.WriteFile(path, []byte("paths: [unterminated"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x"), expandHome("~/x"))
	assert.Equal(t, "rel/x", expandHome("rel/x"))
	assert.Equal(t, "", expandHome(""))
}
