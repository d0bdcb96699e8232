package cmd

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huanfeng/apprebrand/internal/config"
	"github.com/huanfeng/apprebrand/internal/i18n"
	"github.com/huanfeng/apprebrand/pkg/models"
	"github.com/huanfeng/apprebrand/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompterDefaultsAndRetries(t *testing.T) {
	p := newPrompter(strings.NewReader("\n\nvalue\nabc\n12\nYES\n"), io.Discard)

	v, err := p.promptWithDefault("q", "dflt")
	require.NoError(t, err)
	assert.Equal(t, "dflt", v)

	v, err = p.promptRequired("q", "")
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	n, err := p.promptInt("n", 1)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	ok, err := p.promptBool("b", false)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = p.promptRequired("q", "")
	assert.ErrorIs(t, err, io.EOF)
}

func TestConfirmerDeclinesByDefault(t *testing.T) {
	p := newPrompter(strings.NewReader("\n"), io.Discard)
	ok, err := p.confirmer(false).Confirm("replace?")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = p.confirmer(true).Confirm("replace?")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSigningSourceUsesDefaults(t *testing.T) {
	defaults := models.SigningConfig{
		Alias:        "upload",
		ValidityDays: 10000,
		DName:        models.DistinguishedName{CommonName: "Acme", Country: "US"},
	}
	// alias, validity, then CN OU O L ST C
	p := newPrompter(strings.NewReader("\n\n\n\nAcme Org\n\n\n\n"), io.Discard)

	creds, err := p.signingSource(defaults, "from-env-pass")()
	require.NoError(t, err)
	assert.Equal(t, "upload", creds.Alias)
	assert.Equal(t, "from-env-pass", creds.Password)
	assert.Equal(t, 10000, creds.ValidityDays)
	assert.Equal(t, "CN=Acme, O=Acme Org, C=US", creds.DistinguishedName.String())
	assert.NoError(t, creds.Validate())
}

func TestBuildRequestFromFlags(t *testing.T) {
	cfg = config.Default()
	rebrandTemplate, rebrandBundleID, rebrandName = "./template", "com.acme.app", "Acme"
	rebrandMode = "Release"
	rebrandPlatforms = []string{"ios,android"}
	rebrandTeamID = "TEAM123"
	t.Cleanup(func() {
		rebrandTemplate, rebrandBundleID, rebrandName, rebrandTeamID = "", "", "", ""
		rebrandMode = "debug"
		rebrandPlatforms = []string{"android", "ios"}
	})

	req, err := buildRequest(newPrompter(strings.NewReader(""), io.Discard))
	require.NoError(t, err)
	assert.Equal(t, models.ModeRelease, req.Mode)
	assert.Equal(t, []models.Platform{models.PlatformAndroid, models.PlatformIOS}, req.Platforms.Ordered())
	assert.Equal(t, "TEAM123", req.IOS.TeamID)
	assert.Equal(t, "app-store", req.IOS.ExportMethod)
	assert.True(t, req.UpdateLabel)

	rebrandPlatforms = []string{"windows"}
	_, err = buildRequest(newPrompter(strings.NewReader(""), io.Discard))
	assert.Error(t, err)
}

func TestCleanTargets(t *testing.T) {
	workspace := t.TempDir()
	for _, name := range []string{"com_acme_app", "com_other_app"} {
		require.NoError(t, os.MkdirAll(filepath.Join(workspace, name), 0755))
	}

	all, err := cleanTargets([]string{workspace, filepath.Join(workspace, "missing")}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(workspace, "com_acme_app"), filepath.Join(workspace, "com_other_app")}, all)

	one, err := cleanTargets([]string{workspace}, []string{"com.acme.app", "com.gone.app"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(workspace, "com_acme_app")}, one)

	_, err = cleanTargets([]string{workspace}, []string{"../etc"})
	assert.Error(t, err)
}

func TestPersistentPreRunLoadsConfigAndLocalizes(t *testing.T) {
	dir := t.TempDir()
	configPath = filepath.Join(dir, "rebrand.yaml")
	require.NoError(t, config.SaveTemplate(configPath))
	langFlag = "zh"
	logFile = filepath.Join(dir, "run.log")
	t.Cleanup(func() {
		configPath, langFlag, logFile = "", "", ""
		if logger != nil {
			logger.Close()
		}
		logger = nil
		utils.SetGlobalLogger(nil)
		require.NoError(t, i18n.Init("en"))
		applyCommandLocalization()
	})

	require.NotNil(t, rootCmd.PersistentPreRunE)
	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))

	require.NotNil(t, cfg)
	require.NotNil(t, logger)
	assert.Same(t, logger, utils.GetGlobalLogger())
	assert.Equal(t, "为 Flutter 模板更换品牌并构建", rootCmd.Short)
	assert.Equal(t, i18n.T("cmd.rebrand.short"), rebrandCmd.Short)

	_, err := os.Stat(logFile)
	assert.NoError(t, err)
}
