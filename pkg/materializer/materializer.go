// Package materializer produces the isolated working copy every later stage mutates.
package materializer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/huanfeng/apprebrand/internal/errors"
	"github.com/huanfeng/apprebrand/pkg/utils"
)

// Confirmer asks the operator a yes/no question
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(prompt string) (bool, error)

// Confirm calls f
func (f ConfirmFunc) Confirm(prompt string) (bool, error) {
	return f(prompt)
}

// AlwaysConfirm accepts every prompt
var AlwaysConfirm = ConfirmFunc(func(string) (bool, error) { return true, nil })

// Materializer copies a template into WorkspaceRoot/<destName>
type Materializer struct {
	WorkspaceRoot string
	Confirmer     Confirmer
	Logger        utils.Logger
}

// New creates a materializer
func New(workspaceRoot string, confirmer Confirmer, logger utils.Logger) *Materializer {
	return &Materializer{
		WorkspaceRoot: workspaceRoot,
		Confirmer:     confirmer,
		Logger:        logger,
	}
}

// Materialize produces a byte-identical copy of sourceDir and returns its path
func (m *Materializer) Materialize(ctx context.Context, sourceDir, destName string) (string, error) {
	if destName == "" || destName != filepath.Base(destName) || destName == "." || destName == ".." {
		return "", errors.NewValidationError("INVALID_DESTINATION_NAME",
			fmt.Sprintf("destination name %q must be a single path element", destName))
	}

	source, err := Resolve(sourceDir)
	if err != nil {
		return "", errors.NewFileSystemError(err, errors.CodeTemplateNotFound, "failed to resolve template directory")
	}
	info, err := os.Stat(source)
	if err != nil || !info.IsDir() {
		return "", errors.NewError(errors.ErrorTypeNotFound, errors.CodeTemplateNotFound,
			fmt.Sprintf("template directory %s does not exist", sourceDir)).
			WithContext("path", source)
	}

	root, err := Resolve(m.WorkspaceRoot)
	if err != nil {
		return "", errors.NewFileSystemError(err, "WORKSPACE_RESOLVE_FAILED", "failed to resolve workspace root")
	}
	dest := filepath.Join(root, destName)

	// The reverse case would delete the template when the destination is replaced.
	if IsWithin(source, dest) || IsWithin(dest, source) {
		return "", errors.NewSelfNestingError(source, dest)
	}

	if _, err := os.Lstat(dest); err == nil {
		ok, err := m.confirm(fmt.Sprintf("%s already exists. Remove it and copy the template again?", dest))
		if err != nil {
			return "", errors.WrapError(err, errors.ErrorTypeCancelled, errors.CodeUserCancelled,
				"failed to read confirmation")
		}
		if !ok {
			return "", errors.NewUserCancelledError("overwrite of existing working copy declined").
				WithContext("destination", dest)
		}
		m.debug("Removing existing working copy %s", dest)
		if err := os.RemoveAll(dest); err != nil {
			return "", errors.NewFileSystemError(err, "WORKING_COPY_REMOVE_FAILED",
				"failed to remove existing working copy")
		}
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return "", errors.NewFileSystemError(err, "WORKSPACE_CREATE_FAILED", "failed to create workspace root")
	}

	m.debug("Copying %s -> %s", source, dest)
	if err := utils.CopyTree(ctx, source, dest); err != nil {
		if ctx.Err() != nil {
			return "", errors.WrapError(err, errors.ErrorTypeCancelled, errors.CodeUserCancelled,
				"copy interrupted")
		}
		return "", errors.NewFileSystemError(err, "TEMPLATE_COPY_FAILED", "failed to copy template")
	}
	return dest, nil
}

func (m *Materializer) confirm(prompt string) (bool, error) {
	if m.Confirmer == nil {
		return false, nil
	}
	return m.Confirmer.Confirm(prompt)
}

func (m *Materializer) debug(msg string, args ...interface{}) {
	if m.Logger != nil {
		m.Logger.Debug(msg, args...)
	}
}

// IsWithin reports whether path equals base or lies below it.
// Both paths must already be absolute and clean.
func IsWithin(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// Resolve makes path absolute and evaluates symlinks on its longest existing prefix
func Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	existing := abs
	var rest []string
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return abs, nil
		}
		rest = append([]string{filepath.Base(existing)}, rest...)
		existing = parent
	}

	real, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{real}, rest...)...), nil
}
