package models

import (
	stderrors "errors"
	"path/filepath"
	"testing"

	"github.com/huanfeng/apprebrand/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBundleID(t *testing.T) {
	valid := []string{"com.acme", "com.acme.app", "io.x1.y2.Z3"}
	for _, id := range valid {
		assert.NoError(t, ValidateBundleID(id), id)
	}

	invalid := []string{"", "acme", "com..acme", ".com.acme", "com.acme.", "com.ac-me", "com.ac_me", "com acme.app"}
	for _, id := range invalid {
		err := ValidateBundleID(id)
		require.Error(t, err, id)
		re, ok := errors.As(err)
		require.True(t, ok)
		assert.Equal(t, "INVALID_BUNDLE_ID", re.Code)
	}
}

func TestConvertToFolderName(t *testing.T) {
	assert.Equal(t, "com_acme_app", ConvertToFolderName("com.acme.app"))

	ids := []string{"com.acme.app", "com.acme.ap", "com.acmeapp", "comacme.app", "com.acme.app.pro", "org.acme.app"}
	seen := map[string]string{}
	for _, id := range ids {
		require.NoError(t, ValidateBundleID(id))
		folder := ConvertToFolderName(id)
		assert.NotContains(t, folder, ".")
		if prev, dup := seen[folder]; dup {
			t.Errorf("%s and %s both map to %s", prev, id, folder)
		}
		seen[folder] = id
	}
}

func TestPackagePath(t *testing.T) {
	p := NewPackagePath("com.acme.app")
	assert.Equal(t, PackagePath{"com", "acme", "app"}, p)
	assert.Equal(t, filepath.Join("com", "acme", "app"), p.Dir())
	assert.Equal(t, "com.acme.app", p.Identifier())
}

func TestProjectIdentityValidate(t *testing.T) {
	base := ProjectIdentity{BundleID: "com.acme.app", DisplayName: "Acme", APIURL: "https://api.acme.test"}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*ProjectIdentity)
	}{
		{"blank name", func(p *ProjectIdentity) { p.DisplayName = "  " }},
		{"relative url", func(p *ProjectIdentity) { p.APIURL = "/v1" }},
		{"ftp url", func(p *ProjectIdentity) { p.APIURL = "ftp://acme.test" }},
		{"short version", func(p *ProjectIdentity) { p.VersionName = "1.0" }},
		{"negative code", func(p *ProjectIdentity) { p.VersionCode = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.Equal(t, errors.ExitValidation, errors.ExitCode(err))
		})
	}

	assert.Equal(t, "com.acme.app", base.EffectiveProductID())
	base.ProductID = "acme-pro"
	assert.Equal(t, "acme-pro", base.EffectiveProductID())
}

func TestSigningCredentialsValidate(t *testing.T) {
	creds := SigningCredentials{
		Alias:             "upload",
		Password:          "123456",
		ValidityDays:      1,
		DistinguishedName: DistinguishedName{CommonName: "Acme, Inc", Country: "US"},
	}
	require.NoError(t, creds.Validate())
	assert.Equal(t, `CN=Acme\, Inc, C=US`, creds.DistinguishedName.String())

	creds.Password = "12345"
	assert.Error(t, creds.Validate())
}

func TestParseBuildModeAndPlatformOrder(t *testing.T) {
	mode, err := ParseBuildMode(" Release ")
	require.NoError(t, err)
	assert.Equal(t, ModeRelease, mode)

	_, err = ParseBuildMode("profile")
	assert.Error(t, err)
	assert.False(t, stderrors.Is(err, errors.ErrUserCancelled))

	set := NewPlatformSet(PlatformIOS, PlatformAndroid)
	assert.Equal(t, []Platform{PlatformAndroid, PlatformIOS}, set.Ordered())
	assert.True(t, set.Has(PlatformIOS))
	assert.Empty(t, NewPlatformSet().Ordered())
}
