package domain

import "fmt"

type ActionKind int

const (
	LinkWhole ActionKind = iota
	MaterializeAndDescend
	CopyFile
	CopyTree
)

func (k ActionKind) String() string {
	switch k {
	case LinkWhole:
		return "link"
	case MaterializeAndDescend:
		return "materialize"
	case CopyFile:
		return "copy"
	case CopyTree:
		return "copy-tree"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// MirrorAction is a single effect on the mirror. Paths are plain values; the
// executor resolves the filesystem again when it applies the action.
type MirrorAction struct {
	Kind   ActionKind
	Source string
	Target string
}

func (a MirrorAction) String() string {
	return fmt.Sprintf("%s %s -> %s", a.Kind, a.Source, a.Target)
}

// StaleLink is a planned target whose current form no longer matches the
// action: a link resolving elsewhere, a link where a real directory is
// planned, or a real directory where a link is planned. Directory is set for
// the last case and CurrentDest is empty.
type StaleLink struct {
	Action      MirrorAction
	CurrentDest string
	Directory   bool
}

// Describe names what currently sits at the target.
func (s StaleLink) Describe() string {
	if s.Directory {
		return "(directory)"
	}
	return s.CurrentDest
}

type MirrorPlan struct {
	SourceRoot  string
	TargetRoot  string
	Actions     []MirrorAction
	Plugins     []PluginDirectory
	StaleLinks  []StaleLink
	EmptyLeaves []string
	Warnings    []string
}

// Count returns the number of planned actions of the given kind.
func (p MirrorPlan) Count(kind ActionKind) int {
	n := 0
	for _, action := range p.Actions {
		if action.Kind == kind {
			n++
		}
	}
	return n
}
