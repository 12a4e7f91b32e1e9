package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
	"github.com/samber/lo"

	"junctionmirror/internal/domain"
)

// PolicyFile is the TOML form of the exclusion policy:
//
//	exclusive_names   = ["Binaries", "Intermediate"]
//	ignored_paths     = ["Engine/Source/ThirdParty"]
//	extra_copy_paths  = ["Engine/Config"]
//	plugin_roots      = ["Engine/Plugins", "MyGame/Plugins"]
//	marker_pattern    = "*.uplugin"
//	link_empty_leaves = false
type PolicyFile struct {
	ExclusiveNames  []string `toml:"exclusive_names"`
	IgnoredPaths    []string `toml:"ignored_paths"`
	ExtraCopyPaths  []string `toml:"extra_copy_paths"`
	PluginRoots     []string `toml:"plugin_roots"`
	MarkerPattern   string   `toml:"marker_pattern"`
	LinkEmptyLeaves *bool    `toml:"link_empty_leaves"`
}

// LoadPolicy reads the policy file at path. An empty path yields the default
// policy. linkEmptyLeaves from the command line wins over the file.
func LoadPolicy(path string, linkEmptyLeaves bool) (domain.ExclusionPolicy, error) {
	var file PolicyFile
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.ExclusionPolicy{}, fmt.Errorf("failed to read policy file: %w", err)
		}
		if err := toml.Unmarshal(data, &file); err != nil {
			return domain.ExclusionPolicy{}, fmt.Errorf("failed to parse TOML: %w", err)
		}
	}
	return file.Policy(linkEmptyLeaves)
}

// Policy validates the file contents and builds the immutable policy.
func (f PolicyFile) Policy(linkEmptyLeaves bool) (domain.ExclusionPolicy, error) {
	exclusive := f.ExclusiveNames
	if exclusive == nil {
		exclusive = domain.DefaultExclusiveNames
	}
	for _, name := range exclusive {
		if strings.ContainsAny(name, `/\`) {
			return domain.ExclusionPolicy{}, fmt.Errorf("exclusive name %q must be a directory name, not a path", name)
		}
	}

	for _, group := range [][]string{f.IgnoredPaths, f.ExtraCopyPaths, f.PluginRoots} {
		if err := validateRelPaths(group); err != nil {
			return domain.ExclusionPolicy{}, err
		}
	}

	for _, extra := range f.ExtraCopyPaths {
		for _, root := range f.PluginRoots {
			if domain.IsStrictAncestorRel(extra, root) {
				return domain.ExclusionPolicy{}, fmt.Errorf("extra copy path %q contains plugin root %q", extra, root)
			}
		}
	}

	if f.MarkerPattern != "" && !doublestar.ValidatePattern(f.MarkerPattern) {
		return domain.ExclusionPolicy{}, fmt.Errorf("invalid marker pattern %q", f.MarkerPattern)
	}

	if f.LinkEmptyLeaves != nil && !linkEmptyLeaves {
		linkEmptyLeaves = *f.LinkEmptyLeaves
	}

	return domain.NewExclusionPolicy(domain.PolicyOptions{
		ExclusiveNames:  lo.Uniq(exclusive),
		IgnoredPaths:    f.IgnoredPaths,
		ExtraCopyPaths:  f.ExtraCopyPaths,
		PluginRoots:     f.PluginRoots,
		MarkerPattern:   f.MarkerPattern,
		LinkEmptyLeaves: linkEmptyLeaves,
	}), nil
}

func validateRelPaths(paths []string) error {
	for _, raw := range paths {
		rel := domain.NormalizeRel(raw)
		switch {
		case rel == "" || rel == ".":
			return errors.New("policy paths must not be empty or the root itself")
		case path.IsAbs(rel) || strings.Contains(rel, ":"):
			return fmt.Errorf("policy path %q must be relative to the source root", raw)
		case rel == ".." || strings.HasPrefix(rel, "../"):
			return fmt.Errorf("policy path %q escapes the source root", raw)
		}
	}
	return nil
}
