package system

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandStringRedactsSecrets(t *testing.T) {
	cmd := Command{
		Tool:    "keytool",
		Args:    []string{"-storepass", "hunter22", "-dname", "CN=Acme Inc"},
		Secrets: []string{"hunter22"},
	}

	got := cmd.String()
	assert.NotContains(t, got, "hunter22")
	assert.Equal(t, "keytool -storepass ***REDACTED*** -dname 'CN=Acme Inc'", got)
}

func TestFormatCommand(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{"empty", nil, "<empty command>"},
		{"plain", []string{"flutter", "build", "apk"}, "flutter build apk"},
		{"spaces", []string{"echo", "a b"}, "echo 'a b'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCommand(tt.in))
		})
	}
}

func TestParseCommandString(t *testing.T) {
	parts, err := ParseCommandString(`flutter build apk --flavor "acme dev"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"flutter", "build", "apk", "--flavor", "acme dev"}, parts)

	_, err = ParseCommandString("   ")
	assert.Error(t, err)

	_, err = ParseCommandString(`echo "unterminated`)
	assert.Error(t, err)
}

func TestExecRunnerStreamsLinesAndExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	var lines []string
	var streams []Stream
	sink := func(stream Stream, line string) {
		streams = append(streams, stream)
		lines = append(lines, line)
	}

	code, err := NewExecRunner().Run(context.Background(), Command{
		Tool:    "sh",
		Args:    []string{"-c", "echo one; echo secret-value >&2; exit 3"},
		Dir:     t.TempDir(),
		Secrets: []string{"secret-value"},
	}, sink)
	require.NoError(t, err)
	assert.Equal(t, 3, code)
	assert.ElementsMatch(t, []string{"one", RedactedPlaceholder}, lines)
	assert.ElementsMatch(t, []Stream{Stdout, Stderr}, streams)
}

func TestExecRunnerMissingExecutable(t *testing.T) {
	code, err := NewExecRunner().Run(context.Background(), Command{Tool: "definitely-not-a-real-tool-xyz"}, nil)
	assert.Error(t, err)
	assert.Equal(t, -1, code)
}
