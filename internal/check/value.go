package check

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ValueEvaluator is the simplest check: one observed scalar against one
// expected value, with an optional relative tolerance. It is the building
// block the column and threshold comparisons share their arithmetic with.
type ValueEvaluator struct {
	exec Executor
	log  logrus.FieldLogger
}

// NewValueEvaluator creates a scalar value check evaluator.
func NewValueEvaluator(log logrus.FieldLogger, exec Executor) *ValueEvaluator {
	return &ValueEvaluator{
		exec: exec,
		log:  log.WithField("component", "value_evaluator"),
	}
}

// Evaluate fetches the observed scalar and compares it to expected.
// Without a tolerance the match must be exact; with one, the observed
// value may deviate by |expected| * tolerance (a tolerance of 1 is 100%).
func (e *ValueEvaluator) Evaluate(ctx context.Context, name, query string, expected float64, tolerance *float64) (*Report, error) {
	row, err := e.exec.FetchRow(ctx, query)
	if err != nil {
		return nil, &ExecError{Reason: "fetching value check row", Err: err}
	}

	if len(row) == 0 {
		return nil, execErrorf("query returned no result")
	}

	observed, err := asFloat(row[0])
	if err != nil {
		return nil, err
	}

	passed := equalWithTolerance(observed, expected, tolerance)

	expectation := fmt.Sprintf("%v", expected)
	if tolerance != nil {
		expectation = fmt.Sprintf("%v (tolerance %v%%)", expected, *tolerance*100)
	}

	report := Aggregate([]Result{{
		CheckName: name,
		Observed:  observed,
		Expected:  expectation,
		Passed:    passed,
		Detail:    fmt.Sprintf("value check %s: observed %v, expected %s", name, observed, expectation),
	}})

	e.log.WithFields(logrus.Fields{
		"check":  name,
		"run_id": report.RunID,
		"passed": passed,
	}).Info("value check complete")

	if !passed {
		return report, &FailureError{Report: report}
	}

	return report, nil
}
