package check

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// RowEvaluator runs a free-form check statement and requires every cell
// of the first result row to interpret as true under the truth-value
// rules. Cells that are neither a recognized truthy nor falsy token count
// as failing and are named in the detail, rather than being coerced.
type RowEvaluator struct {
	exec Executor
	log  logrus.FieldLogger
}

// NewRowEvaluator creates a row truth check evaluator.
func NewRowEvaluator(log logrus.FieldLogger, exec Executor) *RowEvaluator {
	return &RowEvaluator{
		exec: exec,
		log:  log.WithField("component", "row_evaluator"),
	}
}

// Evaluate fetches the first row of the query and checks every cell.
func (e *RowEvaluator) Evaluate(ctx context.Context, name, query string) (*Report, error) {
	row, err := e.exec.FetchRow(ctx, query)
	if err != nil {
		return nil, &ExecError{Reason: "fetching check row", Err: err}
	}

	if len(row) == 0 {
		return nil, execErrorf("query returned no result")
	}

	var failing []int

	for i, cell := range row {
		truthy, err := Truth(cell)
		if err != nil || !truthy {
			failing = append(failing, i)
		}
	}

	passed := len(failing) == 0

	detail := fmt.Sprintf("check %s: all %d cells true", name, len(row))
	if !passed {
		detail = fmt.Sprintf("check %s: cells %v of row %v are not true", name, failing, row)
	}

	report := Aggregate([]Result{{
		CheckName: name,
		Observed:  row,
		Expected:  "every cell true",
		Passed:    passed,
		Detail:    detail,
	}})

	e.log.WithFields(logrus.Fields{
		"check":  name,
		"run_id": report.RunID,
		"passed": passed,
	}).Info("row check complete")

	if !passed {
		return report, &FailureError{Report: report}
	}

	return report, nil
}
