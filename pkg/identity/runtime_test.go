package identity

import (
	"path/filepath"
	"testing"

	"github.com/huanfeng/apprebrand/internal/errors"
	"github.com/huanfeng/apprebrand/internal/testutil"
	"github.com/huanfeng/apprebrand/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultRuntimeConfig() models.RuntimeConfig {
	return models.RuntimeConfig{
		File: filepath.Join("lib", "config.dart"),
		Constants: map[string]string{
			RoleCategoryID: "offlineCategoryId",
			RoleAPIURL:     "apiUrl",
			RoleProductID:  "productId",
		},
	}
}

func TestPropagateRuntimeConfig(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTemplate(t, dir)

	skipped, err := PropagateRuntimeConfig(dir, NewRuntimeSettings(defaultRuntimeConfig(), acmeIdentity()))
	require.NoError(t, err)
	assert.Empty(t, skipped)

	got := testutil.ReadFile(t, filepath.Join(dir, "lib", "config.dart"))
	assert.Equal(t, `// Runtime settings
const int offlineCategoryId = 42;
const String apiUrl = 'https://api.acme.test';
const String productId = 'com.acme.app';
`, got)
}

func TestPropagateRuntimeConfigSkipsAbsentDeclarations(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "lib", "config.dart"), "const String apiUrl = 'x';\n")

	skipped, err := PropagateRuntimeConfig(dir, NewRuntimeSettings(defaultRuntimeConfig(), acmeIdentity()))
	require.NoError(t, err)
	assert.Equal(t, []string{"offlineCategoryId", "productId"}, skipped)
	assert.Equal(t, "const String apiUrl = 'https://api.acme.test';\n",
		testutil.ReadFile(t, filepath.Join(dir, "lib", "config.dart")))
}

func TestPropagateRuntimeConfigMissingFile(t *testing.T) {
	_, err := PropagateRuntimeConfig(t.TempDir(), NewRuntimeSettings(defaultRuntimeConfig(), acmeIdentity()))
	re, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeRuntimeConfigNotFound, re.Code)
}
