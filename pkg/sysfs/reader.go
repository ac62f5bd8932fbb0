// Package sysfs reads single-value hardware attributes exposed by the kernel.
// Nothing is cached: every call reads the attribute again.
package sysfs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/devnode/devnoti/pkg/hal"
)

// Reader returns the current content of a named attribute path.
//
// Errors wrap hal.ErrIOFailure. A missing attribute also matches
// fs.ErrNotExist. ReadInt parses like C atoi: the leading integer is used and
// text without one reads as 0, so only I/O fails.
type Reader interface {
	ReadText(path string) (string, error)
	ReadInt(path string) (int, error)
}

var _ Reader = &FS{}

// FS reads attributes from the filesystem. Attribute paths are absolute and
// resolved below Root, so a test or a container can point Root at a copy of
// the attribute tree.
type FS struct {
	Root string
}

// NewFS returns an FS rooted at root. An empty root means "/".
func NewFS(root string) *FS {
	if root == "" {
		root = "/"
	}
	return &FS{Root: root}
}

func (f *FS) resolve(path string) string {
	if f.Root == "" || f.Root == "/" {
		return path
	}
	return filepath.Join(f.Root, path)
}

// ReadText returns the first line of the attribute, without the line break.
func (f *FS) ReadText(path string) (string, error) {
	b, err := os.ReadFile(f.resolve(path))
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", hal.ErrIOFailure, path, err)
	}
	return firstLine(string(b)), nil
}

// ReadInt returns the attribute parsed as a decimal integer.
func (f *FS) ReadInt(path string) (int, error) {
	s, err := f.ReadText(path)
	if err != nil {
		return 0, err
	}
	return hal.Atoi(s), nil
}

// Map is a Reader backed by a fixed set of attribute values. Paths missing
// from the map behave like missing files.
type Map map[string]string

var _ Reader = Map{}

func (m Map) ReadText(path string) (string, error) {
	v, ok := m[path]
	if !ok {
		return "", fmt.Errorf("%w: read %s: %w", hal.ErrIOFailure, path, fs.ErrNotExist)
	}
	return firstLine(v), nil
}

func (m Map) ReadInt(path string) (int, error) {
	s, err := m.ReadText(path)
	if err != nil {
		return 0, err
	}
	return hal.Atoi(s), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimRight(s, "\r")
}
