// Package branch turns a single query result into a routing decision:
// one set of follow identifiers is selected, the other is reported back
// as skipped.
package branch

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/datadrift/sqlsentinel/internal/check"
)

// Decision is the outcome of one branch evaluation.
type Decision struct {
	Value  bool
	Follow []string
	Skip   []string
}

// Decider evaluates a branch query through the truth-value rules.
type Decider struct {
	exec check.Executor
	log  logrus.FieldLogger
}

// NewDecider creates a branch decider.
func NewDecider(log logrus.FieldLogger, exec check.Executor) *Decider {
	return &Decider{
		exec: exec,
		log:  log.WithField("component", "branch_decider"),
	}
}

// Decide runs the query and selects the follow set matching its truth
// value. Both identifier sets must be supplied; a missing set is a
// configuration error detected before the query runs.
func (d *Decider) Decide(ctx context.Context, query string, ifTrue, ifFalse []string) (*Decision, error) {
	if len(ifTrue) == 0 {
		return nil, &check.ConfigError{Reason: "no branch targets declared for the true outcome"}
	}
	if len(ifFalse) == 0 {
		return nil, &check.ConfigError{Reason: "no branch targets declared for the false outcome"}
	}

	row, err := d.exec.FetchRow(ctx, query)
	if err != nil {
		return nil, &check.ExecError{Reason: "fetching branch query result", Err: err}
	}

	value, err := check.Truth(row)
	if err != nil {
		return nil, err
	}

	decision := &Decision{Value: value, Follow: ifTrue, Skip: ifFalse}
	if !value {
		decision.Follow, decision.Skip = ifFalse, ifTrue
	}

	d.log.WithFields(logrus.Fields{
		"value":  value,
		"follow": decision.Follow,
		"skip":   decision.Skip,
	}).Info("branch decided")

	return decision, nil
}
