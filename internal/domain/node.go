package domain

import "path/filepath"

// DirectoryNode is a one-level snapshot of a directory. It is built fresh for
// every traversal step and never cached.
type DirectoryNode struct {
	Path    string
	Subdirs []string
	Files   []string
}

func NewDirectoryNode(path string, subdirs, files []string) DirectoryNode {
	clean := filepath.Clean(path)
	return DirectoryNode{
		Path:    clean,
		Subdirs: subdirs,
		Files:   files,
	}
}

func (n DirectoryNode) HasSubdirs() bool {
	return len(n.Subdirs) > 0
}

func (n DirectoryNode) SubdirNames() []string {
	names := make([]string, 0, len(n.Subdirs))
	for _, dir := range n.Subdirs {
		names = append(names, filepath.Base(dir))
	}
	return names
}
