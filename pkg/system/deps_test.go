package system

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDependencyUnknown(t *testing.T) {
	dm := NewDependencyManagerWith(map[string]DependencyDefinition{})

	status := dm.CheckDependency("nope")
	assert.False(t, status.Available)
	assert.Equal(t, "Unknown dependency", status.Error)
}

func TestCheckDependencyFindsCommonPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script")
	}

	dir := t.TempDir()
	tool := filepath.Join(dir, "sdk-1", "fake-tool")
	require.NoError(t, os.MkdirAll(filepath.Dir(tool), 0755))
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\necho fake 1.2.3\n"), 0755))

	dm := NewDependencyManagerWith(map[string]DependencyDefinition{
		"fake": {
			Name:        "fake",
			Executables: []string{"fake-tool-not-on-path"},
			CommonPaths: []string{filepath.Join(dir, "*", "fake-tool")},
			VersionArgs: []string{"--version"},
		},
	})

	status := dm.CheckDependency("fake")
	require.True(t, status.Available, status.Error)
	assert.Equal(t, tool, status.Path)
	assert.Equal(t, "fake 1.2.3", status.Version)
}

func TestCheckDependencyMissing(t *testing.T) {
	dm := NewDependencyManagerWith(map[string]DependencyDefinition{
		"ghost": {Name: "ghost", Executables: []string{"ghost-tool-xyz"}},
	})

	status := dm.CheckDependency("ghost")
	assert.False(t, status.Available)
	assert.Contains(t, status.Error, "not found")
}

func TestBuiltInDefinitionsHaveInstructions(t *testing.T) {
	dm := NewDependencyManager()

	assert.Equal(t, []string{"flutter", "keytool", "pod", "xcodebuild"}, dm.Names())
	for _, name := range dm.Names() {
		assert.NotEmpty(t, dm.GetInstallInstructions(name), name)
		assert.NotContains(t, dm.GetInstallInstructions(name)[0], "Unknown dependency")
	}
}

func TestCheckDiskSpaceWalksToExistingParent(t *testing.T) {
	dir := t.TempDir()

	usage, err := CheckDiskSpace(filepath.Join(dir, "not", "yet", "created"))
	require.NoError(t, err)
	assert.Greater(t, usage.Total, uint64(0))
	assert.Equal(t, filepath.Join(dir, "not", "yet", "created"), usage.Path)
}

func TestCheckDependencyFallsBackToPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script")
	}

	dir := t.TempDir()
	tool := filepath.Join(dir, "fvm")
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\nexit 0\n"), 0755))
	t.Setenv("PATH", dir)

	dm := NewDependencyManagerWith(map[string]DependencyDefinition{})

	status := dm.CheckDependency("fvm")
	require.True(t, status.Available, status.Error)
	assert.Equal(t, tool, status.Path)

	status = dm.CheckDependency(tool)
	require.True(t, status.Available, status.Error)
	assert.Equal(t, tool, status.Path)

	// Relative paths are left for the command's working directory
	status = dm.CheckDependency("./gradlew")
	assert.True(t, status.Available)
	assert.Equal(t, "./gradlew", status.Path)

	assert.False(t, dm.CheckDependency(filepath.Join(dir, "missing")).Available)
	assert.NotEmpty(t, dm.GetInstallInstructions("fvm"))
}
