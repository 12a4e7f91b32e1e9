package domain

import (
	"path/filepath"
	"sort"
	"strings"
)

// PluginsDirName is the directory name that holds plugin categories.
const PluginsDirName = "Plugins"

type PluginDirectory struct {
	Path   string
	Marker string
}

// PluginSet keeps at most one PluginDirectory per absolute path.
type PluginSet struct {
	byPath map[string]PluginDirectory
}

func NewPluginSet() PluginSet {
	return PluginSet{byPath: map[string]PluginDirectory{}}
}

// Add inserts plugin unless its path is already present. It reports whether
// the set changed.
func (s *PluginSet) Add(plugin PluginDirectory) bool {
	if s.byPath == nil {
		s.byPath = map[string]PluginDirectory{}
	}
	key := filepath.Clean(plugin.Path)
	if _, ok := s.byPath[key]; ok {
		return false
	}
	plugin.Path = key
	s.byPath[key] = plugin
	return true
}

func (s *PluginSet) Union(other PluginSet) {
	for _, plugin := range other.byPath {
		s.Add(plugin)
	}
}

func (s PluginSet) Contains(path string) bool {
	_, ok := s.byPath[filepath.Clean(path)]
	return ok
}

func (s PluginSet) Len() int {
	return len(s.byPath)
}

// Sorted returns the plugins ordered by path.
func (s PluginSet) Sorted() []PluginDirectory {
	plugins := make([]PluginDirectory, 0, len(s.byPath))
	for _, plugin := range s.byPath {
		plugins = append(plugins, plugin)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Path < plugins[j].Path
	})
	return plugins
}

// IsWithin reports whether path equals root or lies beneath it.
func IsWithin(path, root string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
