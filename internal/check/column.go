package check

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// ColumnChecks pairs one column with its ordered check definitions. The
// order is load-bearing: it fixes the positional alignment between the
// combined query's result row and the checks.
type ColumnChecks struct {
	Column string
	Checks []Definition
}

// ColumnEvaluator runs per-column statistic checks through one aggregate
// query per table.
type ColumnEvaluator struct {
	exec Executor
	log  logrus.FieldLogger
}

// NewColumnEvaluator creates a column check evaluator.
func NewColumnEvaluator(log logrus.FieldLogger, exec Executor) *ColumnEvaluator {
	return &ColumnEvaluator{
		exec: exec,
		log:  log.WithField("component", "column_evaluator"),
	}
}

type flatColumnCheck struct {
	column string
	def    Definition
}

// Evaluate flattens all checks across all columns into one query, pairs
// the returned row with the checks positionally, and reports every check
// before failing. A FailureError is returned when any check failed; the
// Report still lists the passing ones.
func (e *ColumnEvaluator) Evaluate(ctx context.Context, table string, columns []ColumnChecks) (*Report, error) {
	query, flattened := buildColumnQuery(table, columns)

	e.log.WithFields(logrus.Fields{
		"table":  table,
		"checks": len(flattened),
	}).Debug("running column checks")

	row, err := e.exec.FetchRow(ctx, query)
	if err != nil {
		return nil, &ExecError{Reason: "fetching column check row", Err: err}
	}

	if len(row) == 0 {
		return nil, execErrorf("query returned no result")
	}

	if len(row) != len(flattened) {
		return nil, execErrorf("column check query returned %d values for %d checks", len(row), len(flattened))
	}

	results := make([]Result, len(flattened))

	for i, fc := range flattened {
		observed, err := asFloat(row[i])
		if err != nil {
			return nil, err
		}

		passed := fc.def.evaluate(observed)
		name := fmt.Sprintf("%s.%s", fc.column, fc.def.Kind)

		results[i] = Result{
			CheckName: name,
			Observed:  observed,
			Expected:  fc.def.expectation(),
			Passed:    passed,
			Detail: fmt.Sprintf("column %s check %s: observed %v, expected %s",
				fc.column, fc.def.Kind, observed, fc.def.expectation()),
		}
	}

	report := Aggregate(results)

	e.log.WithFields(logrus.Fields{
		"table":  table,
		"run_id": report.RunID,
		"passed": report.OverallPassed(),
	}).Info("column checks complete")

	if !report.OverallPassed() {
		return report, &FailureError{Report: report}
	}

	return report, nil
}

// buildColumnQuery renders one SELECT with an aggregate expression per
// flattened check, in declaration order.
func buildColumnQuery(table string, columns []ColumnChecks) (string, []flatColumnCheck) {
	var (
		fragments []string
		flattened []flatColumnCheck
	)

	for _, cc := range columns {
		for _, def := range cc.Checks {
			fragments = append(fragments, def.selectFragment(cc.Column))
			flattened = append(flattened, flatColumnCheck{column: cc.Column, def: def})
		}
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(fragments, ", "), table)

	return query, flattened
}
