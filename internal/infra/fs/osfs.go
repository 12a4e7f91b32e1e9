package fs

import (
	"io/fs"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	cp "github.com/otiai10/copy"
)

type OSFS struct{}

func (OSFS) ReadDir(path string) ([]fs.DirEntry, error) {
	return os.ReadDir(path)
}

func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

func (OSFS) Lstat(path string) (fs.FileInfo, error) {
	return os.Lstat(path)
}

// Readlink strips the NT object prefix that junction targets carry.
func (OSFS) Readlink(path string) (string, error) {
	dest, err := os.Readlink(path)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(dest, `\??\`), nil
}

func (OSFS) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (OSFS) Mkdir(path string, perm fs.FileMode) error {
	return os.Mkdir(path, perm)
}

// Remove deletes a single entry. Links are removed without touching what
// they point to.
func (OSFS) Remove(path string) error {
	return os.Remove(path)
}

func (OSFS) CopyFile(src, dst string) error {
	return copyFile(src, dst)
}

// CopyTree copies src onto dst, keeping links as links and skipping files
// whose size and modification time already match.
func (OSFS) CopyTree(src, dst string) (int, error) {
	written := 0
	opts := cp.Options{
		OnSymlink: func(string) cp.SymlinkAction {
			return cp.Shallow
		},
		OnDirExists: func(string, string) cp.DirExistsAction {
			return cp.Merge
		},
		Skip: func(info os.FileInfo, _, dest string) (bool, error) {
			if info.IsDir() {
				return false, nil
			}
			if info.Mode()&os.ModeSymlink != 0 {
				if _, err := os.Lstat(dest); err == nil {
					return true, nil
				}
				written++
				return false, nil
			}
			existing, err := os.Stat(dest)
			if err == nil && !existing.IsDir() && existing.Size() == info.Size() && existing.ModTime().Equal(info.ModTime()) {
				return true, nil
			}
			written++
			return false, nil
		},
		PreserveTimes: true,
	}
	if err := cp.Copy(src, dst, opts); err != nil {
		return written, err
	}
	return written, nil
}

// Glob returns the slash separated paths below root that match pattern.
func (OSFS) Glob(root, pattern string) ([]string, error) {
	return doublestar.Glob(os.DirFS(root), pattern)
}
