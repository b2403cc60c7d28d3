package check

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Result is the immutable outcome of one evaluated check.
type Result struct {
	CheckName string
	Observed  any
	Expected  string
	Passed    bool
	Detail    string
}

// Report is the terminal artifact of one evaluation run: every check's
// Result in declaration order, plus the derived overall outcome. A fresh
// Report is built per run; nothing is carried between runs.
type Report struct {
	RunID   string
	Results []Result
}

// Aggregate collects per-check results into a Report. It never fails
// itself; deciding whether a failed report aborts the run is the
// caller's job.
func Aggregate(results []Result) *Report {
	return &Report{
		RunID:   uuid.NewString(),
		Results: results,
	}
}

// OverallPassed reports whether every check in the batch passed.
func (r *Report) OverallPassed() bool {
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// FailingNames returns the names of failing checks in declaration order.
func (r *Report) FailingNames() []string {
	var names []string
	for _, res := range r.Results {
		if !res.Passed {
			names = append(names, res.CheckName)
		}
	}
	return names
}

// FailureSummary formats one multi-line message naming every failing
// check, preserving declaration order.
func (r *Report) FailureSummary() string {
	var b strings.Builder

	b.WriteString("the following checks failed:")
	for _, res := range r.Results {
		if res.Passed {
			continue
		}
		fmt.Fprintf(&b, "\n\t%s: %s", res.CheckName, res.Detail)
	}

	return b.String()
}
