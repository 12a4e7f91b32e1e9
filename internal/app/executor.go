package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/samber/lo"

	"junctionmirror/internal/domain"
	appErrors "junctionmirror/internal/errors"
	"junctionmirror/internal/logging"
)

// ExecuteProgressFunc is called after each action has been applied.
type ExecuteProgressFunc func(current, total int, action domain.MirrorAction)

type Executor struct {
	FS         FileSystem
	Linker     Linker
	Logger     logging.Logger
	OnProgress ExecuteProgressFunc
}

// Execute applies the plan in order. Failures of single actions are recorded
// in the report and the pass continues; only a cancelled context stops it
// early. Stale targets are replaced only when relinkStale is set; without it
// a link found where a directory is planned is left alone together with every
// action beneath it.
func (e *Executor) Execute(ctx context.Context, plan domain.MirrorPlan, relinkStale bool) (domain.MirrorReport, error) {
	var report domain.MirrorReport
	if e.FS == nil || e.Linker == nil {
		return report, errors.New("executor requires FS and Linker")
	}

	stop := e.Logger.Measure("Executing mirror")
	defer stop()

	materializer := Materializer{FS: e.FS}
	// Directories left behind a stale link; nothing below them is touched.
	var kept []string
	total := len(plan.Actions)
	for i, action := range plan.Actions {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		switch {
		case lo.SomeBy(kept, func(dir string) bool { return domain.IsWithin(action.Target, dir) }):
			report.Skipped++
		case action.Kind == domain.MaterializeAndDescend:
			if !e.materialize(materializer, action, relinkStale, &report) {
				kept = append(kept, action.Target)
			}
		case action.Kind == domain.LinkWhole:
			e.link(ctx, materializer, action, relinkStale, &report)
		case action.Kind == domain.CopyFile:
			e.copyFile(action, &report)
		case action.Kind == domain.CopyTree:
			e.copyTree(materializer, action, &report)
		default:
			e.fail(&report, action, appErrors.Wrap(appErrors.Internal, "execute", action.Target, fmt.Errorf("unknown action %s", action.Kind)))
		}

		if e.OnProgress != nil {
			e.OnProgress(i+1, total, action)
		}
	}

	e.Logger.Verbosef("Linked %d (%d already linked, %d relinked), materialized %d, copied %d (%d unchanged), %d trees, %d failures",
		report.Linked, report.AlreadyLinked, report.Relinked, report.Materialized, report.Copied, report.Unchanged, report.TreesCopied, len(report.Failures))
	return report, nil
}

// materialize makes the target a real directory. A link left there by an
// earlier pass is replaced when relinkStale is set; otherwise it is kept and
// materialize reports false.
func (e *Executor) materialize(materializer Materializer, action domain.MirrorAction, relinkStale bool, report *domain.MirrorReport) bool {
	state, dest, err := inspectTarget(e.FS, action.Target)
	if err != nil {
		e.fail(report, action, appErrors.Wrap(appErrors.IOFailure, "mkdir", action.Target, err))
		return true
	}
	replaced := false
	if state == targetLinked {
		if !relinkStale {
			e.Logger.Warnf("Leaving link %s -> %s where a directory is planned", action.Target, dest)
			report.Skipped++
			return false
		}
		if err := e.FS.Remove(action.Target); err != nil {
			e.fail(report, action, appErrors.WrapPair(appErrors.LinkFailure, "unlink", dest, action.Target, err))
			return false
		}
		replaced = true
	}

	created, err := materializer.Ensure(action.Target)
	report.Materialized += len(created)
	if err != nil {
		e.fail(report, action, appErrors.Wrap(appErrors.IOFailure, "mkdir", action.Target, err))
		return true
	}
	if replaced {
		report.Relinked++
	}
	return true
}

func (e *Executor) link(ctx context.Context, materializer Materializer, action domain.MirrorAction, relinkStale bool, report *domain.MirrorReport) {
	created, err := materializer.Ensure(filepath.Dir(action.Target))
	report.Materialized += len(created)
	if err != nil {
		e.fail(report, action, appErrors.Wrap(appErrors.IOFailure, "mkdir", filepath.Dir(action.Target), err))
		return
	}

	state, dest, err := inspectTarget(e.FS, action.Target)
	if err != nil {
		e.fail(report, action, appErrors.WrapPair(appErrors.LinkFailure, "link", action.Source, action.Target, err))
		return
	}

	relinked := false
	switch state {
	case targetLinked:
		if samePath(dest, action.Source) {
			report.AlreadyLinked++
			return
		}
		if !relinkStale {
			e.Logger.Warnf("Leaving stale link %s -> %s", action.Target, dest)
			report.Skipped++
			return
		}
		if err := e.FS.Remove(action.Target); err != nil {
			e.fail(report, action, appErrors.WrapPair(appErrors.LinkFailure, "unlink", action.Source, action.Target, err))
			return
		}
		relinked = true
	case targetOccupied:
		info, err := e.FS.Lstat(action.Target)
		if err != nil || !info.IsDir() {
			e.fail(report, action, appErrors.WrapPair(appErrors.LinkFailure, "link", action.Source, action.Target,
				errors.New("target exists and is not a link")))
			return
		}
		if !relinkStale {
			e.Logger.Warnf("Leaving directory %s where a link is planned", action.Target)
			report.Skipped++
			return
		}
		if err := e.clearMirrorDir(action.Target, action.Source); err != nil {
			e.fail(report, action, appErrors.WrapPair(appErrors.LinkFailure, "replace", action.Source, action.Target, err))
			return
		}
		relinked = true
	}

	if err := e.Linker.Link(ctx, action.Target, action.Source); err != nil {
		e.fail(report, action, appErrors.WrapPair(appErrors.LinkFailure, "link", action.Source, action.Target, err))
		return
	}
	if exists, err := e.FS.Exists(action.Target); err != nil || !exists {
		e.fail(report, action, appErrors.WrapPair(appErrors.LinkFailure, "link", action.Source, action.Target,
			errors.New("link was not created")))
		return
	}

	if relinked {
		report.Relinked++
	} else {
		report.Linked++
	}
}

func (e *Executor) copyFile(action domain.MirrorAction, report *domain.MirrorReport) {
	unchanged, err := e.sameFile(action.Source, action.Target)
	if err != nil {
		e.fail(report, action, appErrors.Wrap(appErrors.CopyFailure, "stat", action.Source, err))
		return
	}
	if unchanged {
		report.Unchanged++
		return
	}
	if err := e.FS.CopyFile(action.Source, action.Target); err != nil {
		e.fail(report, action, appErrors.WrapPair(appErrors.CopyFailure, "copy", action.Source, action.Target, err))
		return
	}
	report.Copied++
}

func (e *Executor) copyTree(materializer Materializer, action domain.MirrorAction, report *domain.MirrorReport) {
	created, err := materializer.Ensure(filepath.Dir(action.Target))
	report.Materialized += len(created)
	if err != nil {
		e.fail(report, action, appErrors.Wrap(appErrors.IOFailure, "mkdir", filepath.Dir(action.Target), err))
		return
	}
	written, err := e.FS.CopyTree(action.Source, action.Target)
	if err != nil {
		e.fail(report, action, appErrors.WrapPair(appErrors.CopyFailure, "copy-tree", action.Source, action.Target, err))
		return
	}
	if written == 0 {
		report.Unchanged++
		return
	}
	e.Logger.Verbosef("Copied %d files into %s", written, action.Target)
	report.TreesCopied++
}

// sameFile reports whether dst already holds a copy of src with the same
// size and modification time.
func (e *Executor) sameFile(src, dst string) (bool, error) {
	srcInfo, err := e.FS.Stat(src)
	if err != nil {
		return false, err
	}
	dstInfo, err := e.FS.Stat(dst)
	if err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if dstInfo.IsDir() {
		return false, nil
	}
	return srcInfo.Size() == dstInfo.Size() && srcInfo.ModTime().Equal(dstInfo.ModTime()), nil
}

// clearMirrorDir removes a directory an earlier pass materialized, so that a
// link can take its place. It refuses when the directory holds anything the
// source cannot restore: a regular file that is not an unchanged copy of its
// source counterpart.
func (e *Executor) clearMirrorDir(dir, source string) error {
	if err := e.checkMirrorDir(dir, source); err != nil {
		return err
	}
	return e.removeMirrorDir(dir)
}

func (e *Executor) checkMirrorDir(dir, source string) error {
	entries, err := e.FS.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		sourcePath := filepath.Join(source, entry.Name())
		info, err := e.FS.Lstat(path)
		if err != nil {
			return err
		}
		switch {
		case info.Mode()&(fs.ModeSymlink|fs.ModeIrregular) != 0:
		case info.IsDir():
			if err := e.checkMirrorDir(path, sourcePath); err != nil {
				return err
			}
		default:
			same, err := e.sameFile(sourcePath, path)
			if err != nil && !isNotExist(err) {
				return err
			}
			if !same {
				return fmt.Errorf("%s exists only in the mirror", path)
			}
		}
	}
	return nil
}

func (e *Executor) removeMirrorDir(dir string) error {
	entries, err := e.FS.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		info, err := e.FS.Lstat(path)
		if err != nil {
			return err
		}
		if info.IsDir() && info.Mode()&(fs.ModeSymlink|fs.ModeIrregular) == 0 {
			if err := e.removeMirrorDir(path); err != nil {
				return err
			}
			continue
		}
		if err := e.FS.Remove(path); err != nil {
			return err
		}
	}
	return e.FS.Remove(dir)
}

func (e *Executor) fail(report *domain.MirrorReport, action domain.MirrorAction, err error) {
	e.Logger.Warnf("%s", appErrors.UserMessage(err))
	report.Failures = append(report.Failures, domain.Failure{Action: action, Err: err})
}
