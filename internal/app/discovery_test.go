package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"junctionmirror/internal/domain"
)

func pluginTree() *memFS {
	return newMemFS(
		"/src/Engine/Plugins/Runtime/Foo/Foo.uplugin",
		"/src/Engine/Plugins/Runtime/Foo/Source/Foo.cpp",
		"/src/Engine/Plugins/Runtime/Foo/Inner/Inner.uplugin",
		"/src/Engine/Plugins/Runtime/Bar/Bar.uplugin",
		"/src/Engine/Plugins/Runtime/Bar/README.md",
		"/src/Engine/Plugins/Runtime/Bar/Intermediate/Bar.obj",
		"/src/Engine/Plugins/Runtime/Bar/Content/Bar.uasset",
		"/src/Engine/Plugins/Runtime/Empty/",
		"/src/Engine/Plugins/Editor/Two/A.uplugin",
		"/src/Engine/Plugins/Editor/Two/B.uplugin",
		"/src/Engine/Plugins/Editor/Two/Sub/SUB.UPLUGIN",
	)
}

func pluginPaths(set domain.PluginSet) []string {
	var paths []string
	for _, plugin := range set.Sorted() {
		paths = append(paths, plugin.Path)
	}
	return paths
}

func TestDiscoverAll(t *testing.T) {
	d := Discovery{FS: pluginTree(), Policy: domain.DefaultExclusionPolicy()}

	result, err := d.DiscoverAll(context.Background(), "/src/Engine/Plugins")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/src/Engine/Plugins/Editor/Two/Sub",
		"/src/Engine/Plugins/Runtime/Bar",
		"/src/Engine/Plugins/Runtime/Foo",
	}, pluginPaths(result.Plugins))
	assert.Equal(t, []string{"/src/Engine/Plugins/Runtime/Empty"}, result.EmptyLeaves)
}

func TestDiscoverStopsAtPlugin(t *testing.T) {
	d := Discovery{FS: pluginTree(), Policy: domain.DefaultExclusionPolicy()}

	result, err := d.Discover(context.Background(), "/src/Engine/Plugins/Runtime")
	require.NoError(t, err)

	assert.False(t, result.Plugins.Contains("/src/Engine/Plugins/Runtime/Foo/Inner"))
	assert.True(t, result.Plugins.Contains("/src/Engine/Plugins/Runtime/Foo"))
}

func TestDiscoverTwoMarkersIsNotPlugin(t *testing.T) {
	d := Discovery{FS: pluginTree(), Policy: domain.DefaultExclusionPolicy()}

	result, err := d.Discover(context.Background(), "/src/Engine/Plugins/Editor")
	require.NoError(t, err)

	assert.False(t, result.Plugins.Contains("/src/Engine/Plugins/Editor/Two"))
	assert.True(t, result.Plugins.Contains("/src/Engine/Plugins/Editor/Two/Sub"))
}

func TestDiscoverPluginRecordsMarker(t *testing.T) {
	d := Discovery{FS: pluginTree(), Policy: domain.DefaultExclusionPolicy()}

	result, err := d.Discover(context.Background(), "/src/Engine/Plugins/Runtime/Foo")
	require.NoError(t, err)

	plugins := result.Plugins.Sorted()
	require.Len(t, plugins, 1)
	assert.Equal(t, "/src/Engine/Plugins/Runtime/Foo/Foo.uplugin", plugins[0].Marker)
}

func TestDiscoverSkipsUnreadableDirectory(t *testing.T) {
	fsys := pluginTree()
	fsys.readErrs["/src/Engine/Plugins/Runtime/Bar"] = errors.New("access denied")
	d := Discovery{FS: fsys, Policy: domain.DefaultExclusionPolicy()}

	result, err := d.Discover(context.Background(), "/src/Engine/Plugins/Runtime")
	require.NoError(t, err)

	assert.False(t, result.Plugins.Contains("/src/Engine/Plugins/Runtime/Bar"))
	assert.True(t, result.Plugins.Contains("/src/Engine/Plugins/Runtime/Foo"))
}

func TestDiscoverMissingRoot(t *testing.T) {
	d := Discovery{FS: newMemFS(), Policy: domain.DefaultExclusionPolicy()}

	result, err := d.DiscoverAll(context.Background(), "/nowhere/Plugins")
	require.NoError(t, err)
	assert.Zero(t, result.Plugins.Len())
	assert.Empty(t, result.EmptyLeaves)
}

func TestDiscoverCustomMarker(t *testing.T) {
	fsys := newMemFS(
		"/src/Plugins/Misc/Tool/tool.plugin.json",
		"/src/Plugins/Misc/Other/Other.uplugin",
	)
	policy := domain.NewExclusionPolicy(domain.PolicyOptions{MarkerPattern: "*.plugin.json"})
	d := Discovery{FS: fsys, Policy: policy}

	result, err := d.DiscoverAll(context.Background(), "/src/Plugins")
	require.NoError(t, err)
	assert.Equal(t, []string{"/src/Plugins/Misc/Tool"}, pluginPaths(result.Plugins))
	assert.Equal(t, []string{"/src/Plugins/Misc/Other"}, result.EmptyLeaves)
}

func TestDiscoverHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := Discovery{FS: pluginTree(), Policy: domain.DefaultExclusionPolicy()}

	_, err := d.DiscoverAll(ctx, "/src/Engine/Plugins")
	assert.ErrorIs(t, err, context.Canceled)
}
