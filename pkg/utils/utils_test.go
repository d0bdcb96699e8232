package utils

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyTreePreservesContentModesAndSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks and unix modes")
	}

	src := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "a", "b"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a", "b", "data.bin"), []byte{0, 1, 2, 255}, 0640))
	require.NoError(t, os.WriteFile(filepath.Join(src, "run.sh"), []byte("#!/bin/sh\n"), 0755))
	require.NoError(t, os.Symlink("a/b/data.bin", filepath.Join(src, "link")))

	dst := filepath.Join(t.TempDir(), "dst")
	require.NoError(t, CopyTree(context.Background(), src, dst))

	data, err := os.ReadFile(filepath.Join(dst, "a", "b", "data.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 255}, data)

	info, err := os.Stat(filepath.Join(dst, "run.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())

	info, err = os.Stat(filepath.Join(dst, "a", "b", "data.bin"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())

	link, err := os.Readlink(filepath.Join(dst, "link"))
	require.NoError(t, err)
	assert.Equal(t, "a/b/data.bin", link)
}

func TestCopyTreeHonorsCancellation(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "f"), []byte("x"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := CopyTree(ctx, src, filepath.Join(t.TempDir(), "dst"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirSize(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), make([]byte, 10), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b"), make([]byte, 5), 0644))

	size, err := DirSize(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(15), size)

	size, err = DirSize(filepath.Join(dir, "a"))
	require.NoError(t, err)
	assert.Equal(t, int64(10), size)
}

func TestStageProgressRecordsTimings(t *testing.T) {
	var out strings.Builder
	sp := NewStageProgress(&out, 2, false)

	sp.StageStarted("materialize")
	sp.StageFinished("materialize", nil)
	sp.StageStarted("build")
	sp.StageFinished("build", assert.AnError)

	timings := sp.Timings()
	require.Len(t, timings, 2)
	assert.False(t, timings[0].Failed)
	assert.True(t, timings[1].Failed)
	assert.Contains(t, out.String(), "[1/2] materialize")
	assert.Contains(t, out.String(), "[2/2] build")
}

func TestLoggerJSONOutputAndFields(t *testing.T) {
	var out strings.Builder
	logger, err := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: LogFormatJSON, Output: &out})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.WithField("run_id", "abc").Info("built %d artifacts", 2)

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), `"run_id":"abc"`)
	assert.Contains(t, out.String(), `"message":"built 2 artifacts"`)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("bogus"))
}

func TestSetGlobalLoggerSharesFileHandle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	logger, err := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: LogFormatJSON, Output: &strings.Builder{}, FilePath: path})
	require.NoError(t, err)

	prev := globalLogger
	t.Cleanup(func() { globalLogger = prev })

	SetGlobalLogger(logger)
	assert.Same(t, logger, GetGlobalLogger())

	GetGlobalLogger().Info("once")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), `"message":"once"`))
}
