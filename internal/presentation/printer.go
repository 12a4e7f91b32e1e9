package presentation

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"junctionmirror/internal/domain"
	appErrors "junctionmirror/internal/errors"
)

type Printer struct {
	Writer  io.Writer
	Verbose bool
}

func (p Printer) PrintDryRun(plan domain.MirrorPlan) {
	fmt.Fprintln(p.Writer, "Mirroring:")
	fmt.Fprintln(p.Writer)

	for _, line := range formatActionLines(plan, plan.Actions) {
		fmt.Fprintln(p.Writer, line)
	}

	if len(plan.StaleLinks) > 0 {
		fmt.Fprintln(p.Writer)
		fmt.Fprintln(p.Writer, "Stale Links:")
		for _, stale := range plan.StaleLinks {
			fmt.Fprintf(p.Writer, "%s -> %s\n", relTo(plan.TargetRoot, stale.Action.Target), stale.Describe())
		}
	}

	fmt.Fprintln(p.Writer)
	p.printPlanSummary(plan)
	p.printWarnings(plan)
}

func (p Printer) PrintExecution(plan domain.MirrorPlan, report domain.MirrorReport) {
	fmt.Fprintln(p.Writer, "Mirrored:")
	fmt.Fprintln(p.Writer)

	fmt.Fprintf(p.Writer, "Linked %d directories (%d already linked, %d relinked, %d skipped).\n",
		report.Linked, report.AlreadyLinked, report.Relinked, report.Skipped)
	fmt.Fprintf(p.Writer, "Created %d directories.\n", report.Materialized)
	fmt.Fprintf(p.Writer, "Copied %d files (%d unchanged) and %d extra directories.\n",
		report.Copied, report.Unchanged, report.TreesCopied)
	fmt.Fprintf(p.Writer, "Discovered %d plugins.\n", len(plan.Plugins))

	if report.HasFailures() {
		fmt.Fprintln(p.Writer)
		fmt.Fprintf(p.Writer, "Failures (%d):\n", len(report.Failures))
		for _, failure := range report.Failures {
			fmt.Fprintln(p.Writer, "- "+appErrors.UserMessage(failure.Err))
		}
		fmt.Fprintln(p.Writer, "Run the mirror again to retry the failed paths.")
	} else if report.Changes() == 0 {
		fmt.Fprintln(p.Writer, "Mirror was already up to date.")
	}
	p.printWarnings(plan)
}

func (p Printer) printPlanSummary(plan domain.MirrorPlan) {
	fmt.Fprintf(p.Writer, "Would link %d directories, materialize %d, copy %d files and %d extra directories.\n",
		plan.Count(domain.LinkWhole), plan.Count(domain.MaterializeAndDescend),
		plan.Count(domain.CopyFile), plan.Count(domain.CopyTree))
	fmt.Fprintf(p.Writer, "Discovered %d plugins, %d empty directories.\n", len(plan.Plugins), len(plan.EmptyLeaves))
	if len(plan.StaleLinks) > 0 {
		fmt.Fprintf(p.Writer, "Would ask to replace %d stale links when not in dry run.\n", len(plan.StaleLinks))
	} else {
		fmt.Fprintln(p.Writer, "No stale links found.")
	}
}

func (p Printer) printWarnings(plan domain.MirrorPlan) {
	if !p.Verbose || len(plan.Warnings) == 0 {
		return
	}
	fmt.Fprintln(p.Writer)
	fmt.Fprintln(p.Writer, "Warnings:")
	for _, warning := range plan.Warnings {
		fmt.Fprintln(p.Writer, "- "+warning)
	}
}

func formatActionLines(plan domain.MirrorPlan, actions []domain.MirrorAction) []string {
	lines := make([]string, 0, len(actions))
	for _, action := range actions {
		lines = append(lines, FormatAction(plan.SourceRoot, action))
	}

	if len(lines) <= 4 {
		return lines
	}
	head := lines[:2]
	tail := lines[len(lines)-2:]
	return append(append(head, "..."), tail...)
}

// FormatAction renders one action relative to the source root.
func FormatAction(sourceRoot string, action domain.MirrorAction) string {
	var verb string
	switch action.Kind {
	case domain.LinkWhole:
		verb = "Link"
	case domain.MaterializeAndDescend:
		verb = "Mkdir"
	case domain.CopyFile:
		verb = "Copy"
	case domain.CopyTree:
		verb = "CopyTree"
	default:
		verb = action.Kind.String()
	}
	return fmt.Sprintf("%-8s %s", verb, relTo(sourceRoot, action.Source))
}

func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
