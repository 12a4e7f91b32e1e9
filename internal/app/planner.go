package app

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"

	"github.com/samber/lo"

	"junctionmirror/internal/domain"
	appErrors "junctionmirror/internal/errors"
	"junctionmirror/internal/logging"
)

// ProgressFunc is called during planning to report progress
type ProgressFunc func(current, total int)

// pluginRootPattern finds Plugins directories one level below the source
// root when none are configured.
const pluginRootPattern = "*/" + domain.PluginsDirName

type Planner struct {
	FS         FileSystem
	Policy     domain.ExclusionPolicy
	Logger     logging.Logger
	OnProgress ProgressFunc
}

// planBuilder carries the state of one Plan call.
type planBuilder struct {
	planner     *Planner
	mapper      domain.PathMapper
	selector    Selector
	pluginRoots []string
	barriers    []string
	targets     map[string]bool
	plan        domain.MirrorPlan
}

// Plan computes every action of a mirroring pass: the directory skeleton and
// top-level links, the plugin pass and the extra full copies.
func (p *Planner) Plan(ctx context.Context, sourceRoot, targetRoot string) (domain.MirrorPlan, error) {
	if p.FS == nil {
		return domain.MirrorPlan{}, errors.New("planner requires FS")
	}

	stop := p.Logger.Measure("Planning mirror")
	defer stop()

	mapper := domain.NewPathMapper(sourceRoot, targetRoot)
	b := &planBuilder{
		planner:  p,
		mapper:   mapper,
		selector: Selector{Policy: p.Policy, Mapper: mapper},
		targets:  map[string]bool{},
		plan: domain.MirrorPlan{
			SourceRoot: mapper.SourceRoot,
			TargetRoot: mapper.TargetRoot,
		},
	}

	root, err := loadNode(p.FS, mapper.SourceRoot)
	if err != nil {
		return domain.MirrorPlan{}, appErrors.Wrap(appErrors.NotFound, "read", mapper.SourceRoot, err)
	}

	pluginRoots, err := p.resolvePluginRoots(mapper)
	if err != nil {
		return domain.MirrorPlan{}, err
	}
	b.pluginRoots = pluginRoots
	b.barriers = lo.Uniq(append(append(p.Policy.IgnoredPaths(), pluginRoots...), p.Policy.ExtraCopyPaths()...))

	if err := b.skeleton(ctx, root); err != nil {
		return domain.MirrorPlan{}, err
	}
	if err := b.pluginPass(ctx); err != nil {
		return domain.MirrorPlan{}, err
	}
	b.extraCopies()

	b.collectStaleLinks()

	plan := b.plan
	p.Logger.Verbosef("Planned %d links, %d materialized directories, %d file copies, %d tree copies, %d plugins, %d stale links",
		plan.Count(domain.LinkWhole), plan.Count(domain.MaterializeAndDescend), plan.Count(domain.CopyFile),
		plan.Count(domain.CopyTree), len(plan.Plugins), len(plan.StaleLinks))
	return plan, nil
}

func (p *Planner) resolvePluginRoots(mapper domain.PathMapper) ([]string, error) {
	configured := p.Policy.PluginRoots()
	if len(configured) == 0 {
		matches, err := p.FS.Glob(mapper.SourceRoot, pluginRootPattern)
		if err != nil {
			return nil, appErrors.Wrap(appErrors.IOFailure, "glob", mapper.SourceRoot, err)
		}
		configured = lo.Map(matches, func(match string, _ int) string { return domain.NormalizeRel(match) })
		p.Logger.Verbosef("Detected plugin roots: %v", configured)
	}

	var roots []string
	for _, rel := range configured {
		if path.Base(rel) != domain.PluginsDirName {
			p.Logger.Warnf("Ignoring plugin root %s: directory is not named %s", rel, domain.PluginsDirName)
			continue
		}
		info, err := p.FS.Stat(mapper.Source(rel))
		if err != nil || !info.IsDir() {
			p.Logger.Warnf("Ignoring plugin root %s: not a directory", rel)
			continue
		}
		roots = append(roots, rel)
	}
	return lo.Uniq(roots), nil
}

// skeleton materializes node, copies its loose files and decides for each
// subdirectory whether to skip it, descend into it or hand it to the
// selector. Directories above an ignored, plugin or extra path are always
// descended so that nothing beneath them ends up behind a link.
func (b *planBuilder) skeleton(ctx context.Context, node domain.DirectoryNode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	policy := b.planner.Policy
	logger := b.planner.Logger

	if err := b.materialize(node); err != nil {
		return err
	}

	for _, sub := range node.Subdirs {
		rel, err := b.mapper.Rel(sub)
		if err != nil {
			return appErrors.Wrap(appErrors.PathContract, "rel", sub, err)
		}

		switch {
		case policy.IsIgnored(rel), b.isPluginRoot(rel):
			logger.Verbosef("Top-level pass skips %s", rel)
		case policy.IsExtraCopy(rel) && !b.isBarrierAncestor(rel):
			logger.Verbosef("Top-level pass leaves %s to the extra copy", rel)
		case policy.IsExclusive(baseName(sub)):
			logger.Verbosef("Top-level pass skips exclusive directory %s", rel)
		case b.isBarrierAncestor(rel):
			child, err := loadNode(b.planner.FS, sub)
			if err != nil {
				b.warn("Cannot read %s: %v", sub, err)
				continue
			}
			if err := b.skeleton(ctx, child); err != nil {
				return err
			}
		default:
			child, err := loadNode(b.planner.FS, sub)
			if err != nil {
				b.warn("Cannot read %s: %v", sub, err)
				continue
			}
			actions, err := b.selector.Select(child)
			if err != nil {
				return err
			}
			b.add(actions...)
		}
	}
	return nil
}

// materialize emits the directory itself followed by a copy of every loose
// file in it.
func (b *planBuilder) materialize(node domain.DirectoryNode) error {
	target, err := b.mapper.Map(node.Path)
	if err != nil {
		return appErrors.Wrap(appErrors.PathContract, "map", node.Path, err)
	}
	b.add(domain.MirrorAction{Kind: domain.MaterializeAndDescend, Source: node.Path, Target: target})
	for _, file := range node.Files {
		fileTarget, err := b.mapper.Map(file)
		if err != nil {
			return appErrors.Wrap(appErrors.PathContract, "map", file, err)
		}
		b.add(domain.MirrorAction{Kind: domain.CopyFile, Source: file, Target: fileTarget})
	}
	return nil
}

func (b *planBuilder) pluginPass(ctx context.Context) error {
	p := b.planner
	discovery := Discovery{FS: p.FS, Policy: p.Policy, Logger: p.Logger}

	all := DiscoveryResult{Plugins: domain.NewPluginSet()}
	for _, rel := range b.pluginRoots {
		source := b.mapper.Source(rel)
		target, err := b.mapper.Map(source)
		if err != nil {
			return appErrors.Wrap(appErrors.PathContract, "map", source, err)
		}
		b.add(domain.MirrorAction{Kind: domain.MaterializeAndDescend, Source: source, Target: target})

		found, err := discovery.DiscoverAll(ctx, source)
		if err != nil {
			return err
		}
		all.merge(found)
	}

	plugins := all.Plugins.Sorted()
	b.plan.Plugins = plugins
	for i, plugin := range plugins {
		node, err := loadNode(p.FS, plugin.Path)
		if err != nil {
			b.warn("Cannot read plugin %s: %v", plugin.Path, err)
			continue
		}
		actions, err := b.selector.Select(node)
		if err != nil {
			// A single plugin outside the root is skipped, not fatal.
			b.warn("Skipping plugin %s: %v", plugin.Path, err)
			continue
		}
		b.add(actions...)
		if p.OnProgress != nil {
			p.OnProgress(i+1, len(plugins))
		}
	}

	for _, leaf := range all.EmptyLeaves {
		b.plan.EmptyLeaves = append(b.plan.EmptyLeaves, leaf)
		if !p.Policy.LinkEmptyLeaves() {
			p.Logger.Verbosef("Dropping empty non-plugin directory %s", leaf)
			continue
		}
		target, err := b.mapper.Map(leaf)
		if err != nil {
			b.warn("Skipping empty directory %s: %v", leaf, err)
			continue
		}
		b.add(domain.MirrorAction{Kind: domain.LinkWhole, Source: leaf, Target: target})
	}
	return nil
}

// extraCopies emits one CopyTree per configured extra path. An extra whose
// target lies behind a planned link, or that contains a plugin root, another
// extra or any other planned target, is dropped: copying it would merge
// through links into the source tree.
func (b *planBuilder) extraCopies() {
	for _, rel := range b.planner.Policy.ExtraCopyPaths() {
		source := b.mapper.Source(rel)
		info, err := b.planner.FS.Stat(source)
		if err != nil || !info.IsDir() {
			b.warn("Extra copy path %s is not a directory", rel)
			continue
		}
		target, err := b.mapper.Map(source)
		if err != nil {
			b.warn("Skipping extra copy %s: %v", rel, err)
			continue
		}
		if linked, ok := b.linkedAncestor(target); ok {
			b.warn("Skipping extra copy %s: %s is a link", rel, linked)
			continue
		}
		if inner, ok := b.plannedBelow(rel, target); ok {
			b.warn("Skipping extra copy %s: %s is mirrored separately", rel, inner)
			continue
		}
		b.add(domain.MirrorAction{Kind: domain.CopyTree, Source: source, Target: target})
	}
}

// collectStaleLinks compares every link and directory target with what is on
// disk. Targets beneath a stale link are not inspected, since looking at them
// would look into the link's destination.
func (b *planBuilder) collectStaleLinks() {
	var linkedDirs []string
	for _, action := range b.plan.Actions {
		if action.Kind != domain.LinkWhole && action.Kind != domain.MaterializeAndDescend {
			continue
		}
		if lo.SomeBy(linkedDirs, func(dir string) bool { return domain.IsWithin(action.Target, dir) }) {
			continue
		}
		state, dest, err := inspectTarget(b.planner.FS, action.Target)
		if err != nil {
			b.warn("Cannot inspect %s: %v", action.Target, err)
			continue
		}

		switch {
		case action.Kind == domain.MaterializeAndDescend && state == targetLinked:
			// An earlier pass linked this directory whole.
			b.plan.StaleLinks = append(b.plan.StaleLinks, domain.StaleLink{Action: action, CurrentDest: dest})
			linkedDirs = append(linkedDirs, action.Target)
		case action.Kind == domain.LinkWhole && state == targetLinked && !samePath(dest, action.Source):
			b.plan.StaleLinks = append(b.plan.StaleLinks, domain.StaleLink{Action: action, CurrentDest: dest})
		case action.Kind == domain.LinkWhole && state == targetOccupied:
			if info, err := b.planner.FS.Lstat(action.Target); err == nil && info.IsDir() {
				b.plan.StaleLinks = append(b.plan.StaleLinks, domain.StaleLink{Action: action, Directory: true})
			}
		}
	}
}

func (b *planBuilder) add(actions ...domain.MirrorAction) {
	for _, action := range actions {
		key := fmt.Sprintf("%d:%s", action.Kind, action.Target)
		if b.targets[key] {
			continue
		}
		b.targets[key] = true
		b.plan.Actions = append(b.plan.Actions, action)
	}
}

func (b *planBuilder) linkedAncestor(target string) (string, bool) {
	for _, action := range b.plan.Actions {
		if action.Kind == domain.LinkWhole && domain.IsWithin(target, action.Target) {
			return action.Target, true
		}
	}
	return "", false
}

// plannedBelow returns a planned target, plugin root or other extra that lies
// strictly beneath the extra path rel.
func (b *planBuilder) plannedBelow(rel, target string) (string, bool) {
	for _, action := range b.plan.Actions {
		if !samePath(action.Target, target) && domain.IsWithin(action.Target, target) {
			return action.Target, true
		}
	}
	for _, other := range slices.Concat(b.pluginRoots, b.planner.Policy.ExtraCopyPaths()) {
		if domain.IsStrictAncestorRel(rel, other) {
			return other, true
		}
	}
	return "", false
}

func (b *planBuilder) isPluginRoot(rel string) bool {
	return lo.Contains(b.pluginRoots, domain.NormalizeRel(rel))
}

func (b *planBuilder) isBarrierAncestor(rel string) bool {
	return lo.SomeBy(b.barriers, func(barrier string) bool {
		return domain.IsStrictAncestorRel(rel, barrier)
	})
}

func (b *planBuilder) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	b.planner.Logger.Warnf("%s", msg)
	b.plan.Warnings = append(b.plan.Warnings, msg)
}
