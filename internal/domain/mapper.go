package domain

import (
	"errors"
	"fmt"
	"path/filepath"
)

var ErrInvalidPath = errors.New("path is not under the expected root")

// PathMapper translates paths between the source tree and the mirror by
// substituting one root for the other.
type PathMapper struct {
	SourceRoot string
	TargetRoot string
}

func NewPathMapper(sourceRoot, targetRoot string) PathMapper {
	return PathMapper{
		SourceRoot: filepath.Clean(sourceRoot),
		TargetRoot: filepath.Clean(targetRoot),
	}
}

func (m PathMapper) Map(path string) (string, error) {
	return swapRoot(path, m.SourceRoot, m.TargetRoot)
}

func (m PathMapper) Unmap(path string) (string, error) {
	return swapRoot(path, m.TargetRoot, m.SourceRoot)
}

// Rel returns the slash separated path of p relative to the source root.
func (m PathMapper) Rel(path string) (string, error) {
	if !IsWithin(path, m.SourceRoot) {
		return "", fmt.Errorf("%w: %s not under %s", ErrInvalidPath, path, m.SourceRoot)
	}
	rel, err := filepath.Rel(m.SourceRoot, filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	return filepath.ToSlash(rel), nil
}

// Source joins a slash separated relative path onto the source root.
func (m PathMapper) Source(rel string) string {
	return filepath.Join(m.SourceRoot, filepath.FromSlash(rel))
}

func swapRoot(path, from, to string) (string, error) {
	if !IsWithin(path, from) {
		return "", fmt.Errorf("%w: %s not under %s", ErrInvalidPath, path, from)
	}
	rel, err := filepath.Rel(from, filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if rel == "." {
		return to, nil
	}
	return filepath.Join(to, rel), nil
}
