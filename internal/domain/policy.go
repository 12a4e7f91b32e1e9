package domain

import (
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const DefaultMarkerPattern = "*.uplugin"

// DefaultExclusiveNames are build and cache output directories that diverge
// between a source tree and its mirror.
var DefaultExclusiveNames = []string{"Binaries", "DerivedDataCache", "Intermediate", "Saved", "Build"}

// PolicyOptions is the raw input to NewExclusionPolicy. Relative paths are
// slash separated and relative to the source root.
type PolicyOptions struct {
	ExclusiveNames  []string
	IgnoredPaths    []string
	ExtraCopyPaths  []string
	PluginRoots     []string
	MarkerPattern   string
	LinkEmptyLeaves bool
}

// ExclusionPolicy is read-only once constructed.
type ExclusionPolicy struct {
	exclusiveNames  map[string]struct{}
	ignored         map[string]struct{}
	extraCopy       []string
	pluginRoots     []string
	markerPattern   string
	linkEmptyLeaves bool
}

func NewExclusionPolicy(opts PolicyOptions) ExclusionPolicy {
	marker := strings.TrimSpace(opts.MarkerPattern)
	if marker == "" {
		marker = DefaultMarkerPattern
	}
	return ExclusionPolicy{
		exclusiveNames:  toSet(opts.ExclusiveNames, strings.TrimSpace),
		ignored:         toSet(opts.IgnoredPaths, NormalizeRel),
		extraCopy:       sortedUnique(opts.ExtraCopyPaths),
		pluginRoots:     sortedUnique(opts.PluginRoots),
		markerPattern:   marker,
		linkEmptyLeaves: opts.LinkEmptyLeaves,
	}
}

func DefaultExclusionPolicy() ExclusionPolicy {
	return NewExclusionPolicy(PolicyOptions{ExclusiveNames: DefaultExclusiveNames})
}

func (p ExclusionPolicy) IsExclusive(name string) bool {
	_, ok := p.exclusiveNames[name]
	return ok
}

// HasExclusiveChild reports whether any of names is an exclusive name.
func (p ExclusionPolicy) HasExclusiveChild(names []string) bool {
	for _, name := range names {
		if p.IsExclusive(name) {
			return true
		}
	}
	return false
}

func (p ExclusionPolicy) IsIgnored(rel string) bool {
	_, ok := p.ignored[NormalizeRel(rel)]
	return ok
}

func (p ExclusionPolicy) IsExtraCopy(rel string) bool {
	rel = NormalizeRel(rel)
	for _, extra := range p.extraCopy {
		if extra == rel {
			return true
		}
	}
	return false
}

func (p ExclusionPolicy) IgnoredPaths() []string {
	paths := make([]string, 0, len(p.ignored))
	for rel := range p.ignored {
		paths = append(paths, rel)
	}
	sort.Strings(paths)
	return paths
}

func (p ExclusionPolicy) ExclusiveNames() []string {
	names := make([]string, 0, len(p.exclusiveNames))
	for name := range p.exclusiveNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p ExclusionPolicy) ExtraCopyPaths() []string {
	return append([]string(nil), p.extraCopy...)
}

// PluginRoots returns the configured plugin roots. An empty result means the
// roots are detected from the source tree.
func (p ExclusionPolicy) PluginRoots() []string {
	return append([]string(nil), p.pluginRoots...)
}

func (p ExclusionPolicy) MarkerPattern() string {
	return p.markerPattern
}

func (p ExclusionPolicy) LinkEmptyLeaves() bool {
	return p.linkEmptyLeaves
}

// IsMarker reports whether a file name matches the plugin marker pattern.
// Matching is case-insensitive to follow the Windows file system.
func (p ExclusionPolicy) IsMarker(fileName string) bool {
	ok, err := doublestar.Match(strings.ToLower(p.markerPattern), strings.ToLower(fileName))
	return err == nil && ok
}

// NormalizeRel cleans a slash separated relative path.
func NormalizeRel(rel string) string {
	rel = strings.TrimSpace(strings.ReplaceAll(rel, "\\", "/"))
	if rel == "" {
		return ""
	}
	return strings.TrimPrefix(path.Clean(rel), "./")
}

// IsStrictAncestorRel reports whether ancestor is a proper prefix directory
// of rel.
func IsStrictAncestorRel(ancestor, rel string) bool {
	ancestor = NormalizeRel(ancestor)
	rel = NormalizeRel(rel)
	if ancestor == "." {
		return rel != "."
	}
	return strings.HasPrefix(rel, ancestor+"/")
}

func toSet(values []string, normalize func(string) string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = normalize(value)
		if value == "" {
			continue
		}
		set[value] = struct{}{}
	}
	return set
}

func sortedUnique(values []string) []string {
	set := toSet(values, NormalizeRel)
	out := make([]string, 0, len(set))
	for value := range set {
		out = append(out, value)
	}
	sort.Strings(out)
	return out
}
