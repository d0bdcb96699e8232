package identity

import (
	"os"

	"github.com/huanfeng/apprebrand/internal/errors"
)

// textFile is a file loaded for in-place pattern edits
type textFile struct {
	path    string
	content string
	mode    os.FileMode
	dirty   bool
}

func loadText(path string) (*textFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewFileSystemError(err, "READ_FAILED", "failed to read "+path)
	}
	return &textFile{path: path, content: string(data), mode: info.Mode().Perm()}, nil
}

func (f *textFile) apply(p *Pattern, value string) int {
	updated, n := p.Apply(f.content, value)
	f.set(updated)
	return n
}

func (f *textFile) applyAll(p *Pattern, value string) int {
	updated, n := p.ApplyAll(f.content, value)
	f.set(updated)
	return n
}

func (f *textFile) applyAllFunc(p *Pattern, fn func(string) string) int {
	updated, n := p.ApplyAllFunc(f.content, fn)
	f.set(updated)
	return n
}

func (f *textFile) set(content string) {
	if content != f.content {
		f.content = content
		f.dirty = true
	}
}

// save writes the file back only when something changed
func (f *textFile) save() error {
	if !f.dirty {
		return nil
	}
	if err := os.WriteFile(f.path, []byte(f.content), f.mode); err != nil {
		return errors.NewFileSystemError(err, "WRITE_FAILED", "failed to write "+f.path)
	}
	f.dirty = false
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
