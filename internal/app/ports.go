package app

import (
	"context"
	"io/fs"
)

type FileSystem interface {
	ReadDir(path string) ([]fs.DirEntry, error)
	Stat(path string) (fs.FileInfo, error)
	Lstat(path string) (fs.FileInfo, error)
	Readlink(path string) (string, error)
	Exists(path string) (bool, error)
	Mkdir(path string, perm fs.FileMode) error
	Remove(path string) error
	CopyFile(src, dst string) error
	// CopyTree copies src recursively onto dst and returns how many files
	// were written.
	CopyTree(src, dst string) (int, error)
	// Glob matches a slash separated pattern against root and returns
	// relative paths.
	Glob(root, pattern string) ([]string, error)
}

// Linker creates a directory link at target that resolves to source.
type Linker interface {
	Link(ctx context.Context, target, source string) error
}
