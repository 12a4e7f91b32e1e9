package domain

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathMapperRoundTrip(t *testing.T) {
	m := NewPathMapper("/engine/UE5", "/mirror/UE5")

	for _, p := range []string{
		"/engine/UE5",
		"/engine/UE5/Engine",
		"/engine/UE5/Engine/Plugins/Runtime/Foo/Foo.uplugin",
	} {
		target, err := m.Map(p)
		require.NoError(t, err)
		back, err := m.Unmap(target)
		require.NoError(t, err)
		assert.Equal(t, filepath.Clean(p), back)
	}
}

func TestPathMapperMap(t *testing.T) {
	m := NewPathMapper("/engine/UE5/", "/mirror")

	target, err := m.Map("/engine/UE5/Engine/Source")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/mirror", "Engine", "Source"), target)

	root, err := m.Map("/engine/UE5")
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean("/mirror"), root)
}

func TestPathMapperRejectsOutsidePaths(t *testing.T) {
	m := NewPathMapper("/engine/UE5", "/mirror")

	for _, p := range []string{"/engine/UE", "/engine/UE5x/Engine", "/other", "/engine"} {
		_, err := m.Map(p)
		assert.ErrorIs(t, err, ErrInvalidPath, p)
	}
	_, err := m.Unmap("/engine/UE5/Engine")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestPathMapperRel(t *testing.T) {
	m := NewPathMapper("/engine/UE5", "/mirror")

	rel, err := m.Rel("/engine/UE5/Engine/Plugins")
	require.NoError(t, err)
	assert.Equal(t, "Engine/Plugins", rel)
	assert.Equal(t, filepath.Join("/engine/UE5", "Engine", "Plugins"), m.Source("Engine/Plugins"))
}

func TestExclusionPolicy(t *testing.T) {
	p := NewExclusionPolicy(PolicyOptions{
		ExclusiveNames: []string{"Intermediate", " Saved "},
		IgnoredPaths:   []string{`Engine\Extras`, "./Samples/"},
		ExtraCopyPaths: []string{"Engine/Config", "Engine/Config"},
	})

	assert.True(t, p.IsExclusive("Intermediate"))
	assert.True(t, p.IsExclusive("Saved"))
	assert.False(t, p.IsExclusive("intermediate"))
	assert.True(t, p.HasExclusiveChild([]string{"Content", "Saved"}))
	assert.False(t, p.HasExclusiveChild(nil))

	assert.True(t, p.IsIgnored("Engine/Extras"))
	assert.True(t, p.IsIgnored("Samples"))
	assert.Equal(t, []string{"Engine/Extras", "Samples"}, p.IgnoredPaths())

	assert.Equal(t, []string{"Engine/Config"}, p.ExtraCopyPaths())
	assert.True(t, p.IsExtraCopy(`Engine\Config`))
	assert.Equal(t, DefaultMarkerPattern, p.MarkerPattern())
	assert.Empty(t, p.PluginRoots())
}

func TestIsMarker(t *testing.T) {
	p := DefaultExclusionPolicy()

	assert.True(t, p.IsMarker("Foo.uplugin"))
	assert.True(t, p.IsMarker("FOO.UPLUGIN"))
	assert.False(t, p.IsMarker("Foo.uplugin.bak"))
	assert.False(t, p.IsMarker("Foo.uproject"))
}

func TestIsStrictAncestorRel(t *testing.T) {
	assert.True(t, IsStrictAncestorRel("Engine", "Engine/Plugins"))
	assert.True(t, IsStrictAncestorRel(".", "Engine"))
	assert.False(t, IsStrictAncestorRel("Engine", "Engine"))
	assert.False(t, IsStrictAncestorRel("Eng", "Engine/Plugins"))
}

func TestPluginSet(t *testing.T) {
	set := NewPluginSet()

	assert.True(t, set.Add(PluginDirectory{Path: "/p/Runtime/Foo"}))
	assert.False(t, set.Add(PluginDirectory{Path: "/p/Runtime/Foo/"}))
	assert.True(t, set.Add(PluginDirectory{Path: "/p/Editor/Bar"}))

	other := NewPluginSet()
	other.Add(PluginDirectory{Path: "/p/Runtime/Foo"})
	other.Add(PluginDirectory{Path: "/p/Runtime/Baz"})
	set.Union(other)

	assert.Equal(t, 3, set.Len())
	assert.True(t, set.Contains("/p/Runtime/Baz"))

	sorted := set.Sorted()
	require.Len(t, sorted, 3)
	assert.Equal(t, filepath.Clean("/p/Editor/Bar"), sorted[0].Path)
}

func TestIsWithin(t *testing.T) {
	assert.True(t, IsWithin("/a/b", "/a"))
	assert.True(t, IsWithin("/a", "/a"))
	assert.False(t, IsWithin("/ab", "/a"))
	assert.False(t, IsWithin("/", "/a"))
}

func TestMirrorReportChanges(t *testing.T) {
	r := MirrorReport{Linked: 2, AlreadyLinked: 5, Materialized: 1, Unchanged: 3, Copied: 1}
	assert.Equal(t, 4, r.Changes())
	assert.False(t, r.HasFailures())
}

func TestMirrorPlanCount(t *testing.T) {
	plan := MirrorPlan{Actions: []MirrorAction{
		{Kind: LinkWhole}, {Kind: LinkWhole}, {Kind: CopyFile},
	}}
	assert.Equal(t, 2, plan.Count(LinkWhole))
	assert.Zero(t, plan.Count(CopyTree))
	assert.Equal(t, "materialize", MaterializeAndDescend.String())
}

func TestStaleLinkDescribe(t *testing.T) {
	link := StaleLink{CurrentDest: "/old/Docs"}
	dir := StaleLink{Directory: true}
	assert.Equal(t, "/old/Docs", link.Describe())
	assert.Equal(t, "(directory)", dir.Describe())
}
