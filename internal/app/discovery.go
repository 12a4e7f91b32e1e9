package app

import (
	"context"
	"path/filepath"

	"junctionmirror/internal/domain"
	"junctionmirror/internal/logging"
)

// Discovery finds plugin directories beneath a Plugins directory. A plugin is
// a directory with exactly one marker file; its contents are never searched.
type Discovery struct {
	FS     FileSystem
	Policy domain.ExclusionPolicy
	Logger logging.Logger
}

// DiscoveryResult is the outcome of walking one or more category roots.
// EmptyLeaves lists non-plugin directories without subdirectories.
type DiscoveryResult struct {
	Plugins     domain.PluginSet
	EmptyLeaves []string
}

func (r *DiscoveryResult) merge(other DiscoveryResult) {
	r.Plugins.Union(other.Plugins)
	r.EmptyLeaves = append(r.EmptyLeaves, other.EmptyLeaves...)
}

// DiscoverAll runs Discover on every category directory directly inside
// pluginsRoot.
func (d *Discovery) DiscoverAll(ctx context.Context, pluginsRoot string) (DiscoveryResult, error) {
	result := DiscoveryResult{Plugins: domain.NewPluginSet()}

	root, err := loadNode(d.FS, pluginsRoot)
	if err != nil {
		d.Logger.Warnf("Cannot list plugins directory %s: %v", pluginsRoot, err)
		return result, nil
	}

	visited := map[string]bool{}
	for _, category := range root.Subdirs {
		found, err := d.walk(ctx, category, visited)
		if err != nil {
			return result, err
		}
		result.merge(found)
	}
	d.Logger.Verbosef("Discovered %d plugins under %s (%d empty leaves)", result.Plugins.Len(), pluginsRoot, len(result.EmptyLeaves))
	return result, nil
}

// Discover walks one category root.
func (d *Discovery) Discover(ctx context.Context, categoryRoot string) (DiscoveryResult, error) {
	return d.walk(ctx, categoryRoot, map[string]bool{})
}

func (d *Discovery) walk(ctx context.Context, path string, visited map[string]bool) (DiscoveryResult, error) {
	result := DiscoveryResult{Plugins: domain.NewPluginSet()}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	key := filepath.Clean(path)
	if visited[key] {
		return result, nil
	}
	visited[key] = true

	node, err := loadNode(d.FS, key)
	if err != nil {
		d.Logger.Warnf("Skipping unreadable directory %s: %v", key, err)
		return result, nil
	}

	if marker, ok := d.pluginMarker(node); ok {
		result.Plugins.Add(domain.PluginDirectory{Path: node.Path, Marker: marker})
		return result, nil
	}

	if !node.HasSubdirs() {
		result.EmptyLeaves = append(result.EmptyLeaves, node.Path)
		return result, nil
	}

	for _, sub := range node.Subdirs {
		found, err := d.walk(ctx, sub, visited)
		if err != nil {
			return result, err
		}
		result.merge(found)
	}
	return result, nil
}

// pluginMarker returns the marker file when node holds exactly one.
func (d *Discovery) pluginMarker(node domain.DirectoryNode) (string, bool) {
	var marker string
	count := 0
	for _, file := range node.Files {
		if d.Policy.IsMarker(filepath.Base(file)) {
			marker = file
			count++
		}
	}
	if count != 1 {
		if count > 1 {
			d.Logger.Verbosef("Ignoring %s: %d marker files", node.Path, count)
		}
		return "", false
	}
	return marker, true
}
