package app

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
)

// Materializer creates directories together with every missing ancestor.
type Materializer struct {
	FS FileSystem
}

// Ensure makes path exist as a directory. Missing ancestors are collected
// first and created root to leaf. It returns the directories it created; an
// existing directory yields nothing.
func (m Materializer) Ensure(path string) ([]string, error) {
	if m.FS == nil {
		return nil, errors.New("materializer requires FS")
	}

	var missing []string
	current := filepath.Clean(path)
	for {
		info, err := m.FS.Stat(current)
		if err == nil {
			if !info.IsDir() {
				return nil, fmt.Errorf("%s exists and is not a directory", current)
			}
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		missing = append(missing, current)
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	created := make([]string, 0, len(missing))
	for i := len(missing) - 1; i >= 0; i-- {
		dir := missing[i]
		if err := m.FS.Mkdir(dir, 0o755); err != nil {
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			return created, err
		}
		created = append(created, dir)
	}
	return created, nil
}
