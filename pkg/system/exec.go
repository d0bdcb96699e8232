package system

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/kballard/go-shellquote"
)

// RedactedPlaceholder replaces secrets in logged command lines
const RedactedPlaceholder = "***REDACTED***"

// Stream identifies which pipe a line came from
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// Command is one external tool invocation
type Command struct {
	// Tool is the dependency name used for resolution.
	Tool string
	// Path is the resolved executable. Empty means Tool is looked up on PATH.
	Path string
	Args []string
	// Dir is the working directory of the process.
	Dir     string
	Env     []string
	Secrets []string
}

// Executable returns the program that will be spawned
func (c Command) Executable() string {
	if c.Path != "" {
		return c.Path
	}
	return c.Tool
}

// String renders the command for logs with secrets redacted
func (c Command) String() string {
	parts := append([]string{c.Tool}, c.Args...)
	for i := range parts {
		parts[i] = Redact(parts[i], c.Secrets)
	}
	return FormatCommand(parts)
}

// OutputSink receives every line of output as it arrives
type OutputSink func(stream Stream, line string)

// Runner spawns external processes
type Runner interface {
	// Run blocks until the process exits and returns its exit code.
	// A non-nil error means the process could not be run at all.
	Run(ctx context.Context, cmd Command, sink OutputSink) (int, error)
}

// ExecRunner runs commands through os/exec, with no timeout and no retry
type ExecRunner struct{}

// NewExecRunner creates a runner backed by os/exec
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes cmd and forwards stdout and stderr line by line
func (r *ExecRunner) Run(ctx context.Context, cmd Command, sink OutputSink) (int, error) {
	if cmd.Executable() == "" {
		return -1, fmt.Errorf("empty command")
	}

	proc := exec.CommandContext(ctx, cmd.Executable(), cmd.Args...)
	proc.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		proc.Env = append(proc.Environ(), cmd.Env...)
	}

	stdout, err := proc.StdoutPipe()
	if err != nil {
		return -1, fmt.Errorf("failed to attach stdout: %w", err)
	}
	stderr, err := proc.StderrPipe()
	if err != nil {
		return -1, fmt.Errorf("failed to attach stderr: %w", err)
	}

	if err := proc.Start(); err != nil {
		return -1, fmt.Errorf("failed to start %s: %w", cmd.Tool, err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	forward := func(stream Stream, rd io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(rd)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			if sink == nil {
				continue
			}
			line := Redact(scanner.Text(), cmd.Secrets)
			mu.Lock()
			sink(stream, line)
			mu.Unlock()
		}
	}
	wg.Add(2)
	go forward(Stdout, stdout)
	go forward(Stderr, stderr)
	// Pipes must be drained before Wait closes them.
	wg.Wait()

	err = proc.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ctx.Err() != nil {
			return exitErr.ExitCode(), ctx.Err()
		}
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// FormatCommand formats command parts into a readable string for logging.
// Example: ["git", "commit", "-m", "my message"] -> "git commit -m 'my message'"
func FormatCommand(cmdParts []string) string {
	if len(cmdParts) == 0 {
		return "<empty command>"
	}

	quoted := make([]string, len(cmdParts))
	for i, part := range cmdParts {
		if strings.ContainsAny(part, " \t\n\"'$") {
			quoted[i] = shellquote.Join(part)
		} else {
			quoted[i] = part
		}
	}
	return strings.Join(quoted, " ")
}

// ParseCommandString parses a shell-quoted command string into parts
func ParseCommandString(cmdStr string) ([]string, error) {
	parts, err := shellquote.Split(cmdStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command string: %w", err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command string")
	}
	return parts, nil
}

// Redact removes every secret from s
func Redact(s string, secrets []string) string {
	for _, secret := range secrets {
		if secret != "" {
			s = strings.ReplaceAll(s, secret, RedactedPlaceholder)
		}
	}
	return s
}
