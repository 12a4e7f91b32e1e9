package app

import (
	"errors"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"

	"junctionmirror/internal/domain"
)

// loadNode reads one level of path. Symlinked entries are classified by what
// they resolve to.
func loadNode(fsys FileSystem, path string) (domain.DirectoryNode, error) {
	entries, err := fsys.ReadDir(path)
	if err != nil {
		return domain.DirectoryNode{}, err
	}

	var subdirs, files []string
	for _, entry := range entries {
		full := filepath.Join(path, entry.Name())
		isDir := entry.IsDir()
		if entry.Type()&fs.ModeSymlink != 0 {
			info, statErr := fsys.Stat(full)
			if statErr != nil {
				continue
			}
			isDir = info.IsDir()
		}
		if isDir {
			subdirs = append(subdirs, full)
		} else {
			files = append(files, full)
		}
	}
	return domain.NewDirectoryNode(path, subdirs, files), nil
}

type linkState int

const (
	targetMissing linkState = iota
	targetLinked
	targetOccupied
)

// inspectTarget reports what currently sits at a link target. For links the
// resolved destination is returned as well.
func inspectTarget(fsys FileSystem, target string) (linkState, string, error) {
	info, err := fsys.Lstat(target)
	if err != nil {
		if isNotExist(err) {
			return targetMissing, "", nil
		}
		return targetOccupied, "", err
	}
	if info.Mode()&(fs.ModeSymlink|fs.ModeIrregular) == 0 {
		return targetOccupied, "", nil
	}
	dest, err := fsys.Readlink(target)
	if err != nil {
		return targetOccupied, "", nil
	}
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(filepath.Dir(target), dest)
	}
	return targetLinked, filepath.Clean(dest), nil
}

func samePath(a, b string) bool {
	a, b = filepath.Clean(a), filepath.Clean(b)
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func baseName(path string) string {
	return filepath.Base(path)
}
