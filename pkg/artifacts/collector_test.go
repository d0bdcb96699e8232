package artifacts

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/huanfeng/apprebrand/internal/errors"
	"github.com/huanfeng/apprebrand/internal/testutil"
	"github.com/huanfeng/apprebrand/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func newCollector(root string, pkgName string) *Collector {
	c := NewCollector(root, nil)
	c.Inspect = func(string) (string, error) { return pkgName, nil }
	return c
}

func TestCollectAndroidDebug(t *testing.T) {
	workDir := t.TempDir()
	outRoot := t.TempDir()
	testutil.WriteFile(t, filepath.Join(workDir, "build/app/outputs/flutter-apk/app-debug.apk"), "apk")

	res, err := newCollector(outRoot, "com.acme.app").Collect(context.Background(), workDir, "com_acme_app",
		models.ModeDebug, models.NewPlatformSet(models.PlatformAndroid), "com.acme.app")
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	require.Len(t, res.Artifacts, 1)

	a := res.Artifacts[0]
	assert.Equal(t, models.KindPackage, a.Kind)
	assert.Equal(t, int64(3), a.Size)
	assert.Len(t, a.SHA256, 64)
	assert.Equal(t, []string{"app-debug.apk"}, listDir(t, filepath.Join(outRoot, "com_acme_app")))
}

func TestCollectTwiceLeavesNoStaleFiles(t *testing.T) {
	workDir := t.TempDir()
	outRoot := t.TempDir()
	testutil.WriteFile(t, filepath.Join(workDir, "build/app/outputs/flutter-apk/app-release.apk"), "apk")
	testutil.WriteFile(t, filepath.Join(workDir, "build/app/outputs/bundle/release/app-release.aab"), "aab")
	testutil.WriteFile(t, filepath.Join(workDir, "build/app/outputs/flutter-apk/app-debug.apk"), "debug")
	c := newCollector(outRoot, "com.acme.app")
	android := models.NewPlatformSet(models.PlatformAndroid)

	_, err := c.Collect(context.Background(), workDir, "com_acme_app", models.ModeRelease, android, "com.acme.app")
	require.NoError(t, err)
	assert.Equal(t, []string{"app-release.aab", "app-release.apk"}, listDir(t, filepath.Join(outRoot, "com_acme_app")))

	_, err = c.Collect(context.Background(), workDir, "com_acme_app", models.ModeDebug, android, "com.acme.app")
	require.NoError(t, err)
	assert.Equal(t, []string{"app-debug.apk"}, listDir(t, filepath.Join(outRoot, "com_acme_app")))
}

func TestCollectMissingArtifactsWarn(t *testing.T) {
	workDir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(workDir, "build/app/outputs/flutter-apk/app-release.apk"), "apk")

	res, err := newCollector(t.TempDir(), "com.acme.app").Collect(context.Background(), workDir, "com_acme_app",
		models.ModeRelease, models.NewPlatformSet(models.PlatformAndroid, models.PlatformIOS), "com.acme.app")
	require.NoError(t, err)
	assert.Len(t, res.Artifacts, 1)
	// aab, xcarchive and ipa are missing
	require.Len(t, res.Warnings, 3)
	for _, w := range res.Warnings {
		assert.True(t, stderrors.Is(w, errors.ErrArtifactNotFound))
	}
	assert.Equal(t, "ios", res.Warnings[2].Context["platform"])
}

func TestCollectIOSRelease(t *testing.T) {
	workDir := t.TempDir()
	outRoot := t.TempDir()
	testutil.WriteFile(t, filepath.Join(workDir, "build/ios/archive/Runner.xcarchive/Info.plist"), "<plist/>")
	testutil.WriteFile(t, filepath.Join(workDir, "build/ios/archive/Runner.xcarchive/Products/Applications/Runner.app/Runner"), "bin")
	testutil.WriteFile(t, filepath.Join(workDir, "build/ios/ipa/Acme.ipa"), "ipa")

	res, err := newCollector(outRoot, "").Collect(context.Background(), workDir, "com_acme_app",
		models.ModeRelease, models.NewPlatformSet(models.PlatformIOS), "com.acme.app")
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	require.Len(t, res.Artifacts, 2)
	assert.Equal(t, models.KindArchive, res.Artifacts[0].Kind)
	assert.Equal(t, int64(11), res.Artifacts[0].Size)
	assert.Empty(t, res.Artifacts[0].SHA256)

	out := filepath.Join(outRoot, "com_acme_app")
	assert.Equal(t, []string{"Runner-release.ipa", "Runner-release.xcarchive"}, listDir(t, out))
	assert.Equal(t, "bin", testutil.ReadFile(t, filepath.Join(out, "Runner-release.xcarchive/Products/Applications/Runner.app/Runner")))
}

func TestCollectPackageMismatchWarns(t *testing.T) {
	workDir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(workDir, "build/app/outputs/flutter-apk/app-debug.apk"), "apk")

	res, err := newCollector(t.TempDir(), "com.example.template").Collect(context.Background(), workDir,
		"com_acme_app", models.ModeDebug, models.NewPlatformSet(models.PlatformAndroid), "com.acme.app")
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, errors.CodeArtifactIdentityMismatch, res.Warnings[0].Code)
	assert.Len(t, res.Artifacts, 1)
}

func TestCollectUnreadablePackageIsNotAWarning(t *testing.T) {
	workDir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(workDir, "build/app/outputs/flutter-apk/app-debug.apk"), "not a zip")

	res, err := NewCollector(t.TempDir(), nil).Collect(context.Background(), workDir, "com_acme_app",
		models.ModeDebug, models.NewPlatformSet(models.PlatformAndroid), "com.acme.app")
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
}

func TestCollectRejectsPathFolder(t *testing.T) {
	_, err := NewCollector(t.TempDir(), nil).Collect(context.Background(), t.TempDir(), "../escape",
		models.ModeDebug, models.NewPlatformSet(models.PlatformAndroid), "com.acme.app")
	assert.Error(t, err)
}

func TestSources(t *testing.T) {
	assert.Len(t, Sources(models.PlatformAndroid, models.ModeRelease), 2)
	assert.Len(t, Sources(models.PlatformIOS, models.ModeDebug), 1)
}
