package domain

type Failure struct {
	Action MirrorAction
	Err    error
}

// MirrorReport summarizes an executed plan. Failures never stop a pass, so a
// report can carry both successes and failures.
type MirrorReport struct {
	Linked        int
	AlreadyLinked int
	Relinked      int // stale targets replaced
	Materialized  int
	Copied        int
	Unchanged     int
	TreesCopied   int
	Skipped       int
	Failures      []Failure
}

func (r MirrorReport) HasFailures() bool {
	return len(r.Failures) > 0
}

// Changes counts actions that modified the mirror.
func (r MirrorReport) Changes() int {
	return r.Linked + r.Relinked + r.Materialized + r.Copied + r.TreesCopied
}
