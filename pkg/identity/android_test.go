package identity

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huanfeng/apprebrand/internal/errors"
	"github.com/huanfeng/apprebrand/internal/testutil"
	"github.com/huanfeng/apprebrand/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acmeIdentity() models.ProjectIdentity {
	return models.ProjectIdentity{
		BundleID:          "com.acme.app",
		DisplayName:       "Acme",
		OfflineCategoryID: 42,
		APIURL:            "https://api.acme.test",
		VersionName:       "2.1.0",
		VersionCode:       12,
	}
}

func TestAndroidRewriteReplacesIdentity(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTemplate(t, dir)

	res, err := NewAndroidRewriter(nil).Rewrite(dir, acmeIdentity(), AndroidOptions{UpdateLabel: true})
	require.NoError(t, err)
	assert.Equal(t, testutil.TemplateID, res.OldID)
	assert.True(t, res.Relocated)

	manifest := testutil.ReadFile(t, filepath.Join(dir, androidMainManifest))
	assert.Contains(t, manifest, `package="com.acme.app"`)
	assert.Contains(t, manifest, `android:label="Acme"`)
	assert.Contains(t, manifest, `android:label="Main"`)
	assert.NotContains(t, manifest, testutil.TemplateID)

	debugManifest := testutil.ReadFile(t, filepath.Join(dir, androidExtraManifests[0]))
	assert.Contains(t, debugManifest, `package="com.acme.app"`)

	gradle := testutil.ReadFile(t, filepath.Join(dir, androidBuildDescriptors[0]))
	assert.Contains(t, gradle, `applicationId "com.acme.app"`)
	assert.Contains(t, gradle, `namespace "com.acme.app"`)
	assert.NotContains(t, gradle, testutil.TemplateID)
}

func TestAndroidRewriteRelocatesEntryFile(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTemplate(t, dir)

	res, err := NewAndroidRewriter(nil).Rewrite(dir, acmeIdentity(), AndroidOptions{})
	require.NoError(t, err)

	kotlinRoot := filepath.Join(dir, androidSourceRoots[0])
	assert.Equal(t, filepath.Join(kotlinRoot, "com", "acme", "app", "MainActivity.kt"), res.EntryFile)

	// The old package directory is gone entirely
	_, err = os.Stat(filepath.Join(kotlinRoot, "com", "example"))
	assert.True(t, os.IsNotExist(err))

	newDir := filepath.Join(kotlinRoot, "com", "acme", "app")
	err = filepath.WalkDir(newDir, func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		if d.IsDir() {
			return nil
		}
		assert.NotContains(t, testutil.ReadFile(t, path), testutil.TemplateID, path)
		return nil
	})
	require.NoError(t, err)

	src := testutil.ReadFile(t, res.EntryFile)
	assert.True(t, strings.HasPrefix(src, "package com.acme.app\n"))
	assert.Contains(t, src, "import com.acme.app.BuildConfig")
}

func TestAndroidRewriteNewIDExtendingOld(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTemplate(t, dir)
	id := acmeIdentity()
	id.BundleID = testutil.TemplateID + ".pro"

	res, err := NewAndroidRewriter(nil).Rewrite(dir, id, AndroidOptions{})
	require.NoError(t, err)

	src := testutil.ReadFile(t, res.EntryFile)
	assert.True(t, strings.HasPrefix(src, "package com.example.template.pro\n"), src)
	assert.Contains(t, src, "import com.example.template.pro.BuildConfig")
	// Every remaining mention of the old id is the prefix of the new one
	assert.NotContains(t, strings.ReplaceAll(src, id.BundleID, ""), testutil.TemplateID)

	// The old directory still holds the new package path, but not the file itself
	_, err = os.Stat(filepath.Join(dir, androidSourceRoots[0], "com", "example", "template", "MainActivity.kt"))
	assert.True(t, os.IsNotExist(err))
}

func TestAndroidRewriteJavaEntryAndPriority(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTemplate(t, dir)
	oldPkg := filepath.Join("com", "example", "template")
	javaFile := filepath.Join(dir, androidSourceRoots[1], oldPkg, "MainActivity.java")
	testutil.WriteFile(t, javaFile, "package com.example.template;\n\npublic class MainActivity {}\n")

	res, err := NewAndroidRewriter(nil).Rewrite(dir, acmeIdentity(), AndroidOptions{})
	require.NoError(t, err)

	// .kt wins; the Java file is left alone
	assert.Equal(t, "MainActivity.kt", filepath.Base(res.EntryFile))
	_, err = os.Stat(javaFile)
	assert.NoError(t, err)
}

func TestAndroidRewriteJavaOnly(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTemplate(t, dir)
	oldPkg := filepath.Join("com", "example", "template")
	require.NoError(t, os.RemoveAll(filepath.Join(dir, androidSourceRoots[0])))
	testutil.WriteFile(t, filepath.Join(dir, androidSourceRoots[1], oldPkg, "MainActivity.java"),
		"package com.example.template;\n\npublic class MainActivity {}\n")

	res, err := NewAndroidRewriter(nil).Rewrite(dir, acmeIdentity(), AndroidOptions{})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, androidSourceRoots[1], "com", "acme", "app", "MainActivity.java"), res.EntryFile)
	assert.True(t, strings.HasPrefix(testutil.ReadFile(t, res.EntryFile), "package com.acme.app;\n"))
}

func TestAndroidRewriteMissingEntry(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTemplate(t, dir)
	require.NoError(t, os.RemoveAll(filepath.Join(dir, androidSourceRoots[0])))

	_, err := NewAndroidRewriter(nil).Rewrite(dir, acmeIdentity(), AndroidOptions{})
	assert.True(t, stderrors.Is(err, errors.ErrSourceEntryMissing), "%v", err)
}

func TestAndroidRewriteMissingManifestPackage(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTemplate(t, dir)
	testutil.WriteFile(t, filepath.Join(dir, androidMainManifest), "<manifest><application/></manifest>\n")

	_, err := NewAndroidRewriter(nil).Rewrite(dir, acmeIdentity(), AndroidOptions{})
	assert.True(t, stderrors.Is(err, errors.ErrManifestIdentifierNotFound), "%v", err)

	// Nothing else was touched
	gradle := testutil.ReadFile(t, filepath.Join(dir, androidBuildDescriptors[0]))
	assert.Contains(t, gradle, testutil.TemplateID)
}

func TestAndroidRewriteMissingApplicationID(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTemplate(t, dir)
	testutil.WriteFile(t, filepath.Join(dir, androidBuildDescriptors[0]), "android {}\n")

	_, err := NewAndroidRewriter(nil).Rewrite(dir, acmeIdentity(), AndroidOptions{})
	re, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeBuildDescriptorFieldNotFound, re.Code)
}

func TestAndroidRewriteSameIDSkipsRelocation(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTemplate(t, dir)
	id := acmeIdentity()
	id.BundleID = testutil.TemplateID

	res, err := NewAndroidRewriter(nil).Rewrite(dir, id, AndroidOptions{UpdateLabel: true})
	require.NoError(t, err)
	assert.False(t, res.Relocated)

	_, err = os.Stat(filepath.Join(dir, androidSourceRoots[0], "com", "example", "template", "MainActivity.kt"))
	assert.NoError(t, err)
}
