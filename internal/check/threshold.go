package check

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Bound is a numeric limit for a threshold check: either a literal number
// or a query resolved into one at evaluation time.
type Bound struct {
	value float64
	query string
	isSQL bool
}

// LiteralBound wraps a number used as-is.
func LiteralBound(v float64) Bound {
	return Bound{value: v}
}

// QueryBound defers the limit to a query returning a single scalar.
func QueryBound(sql string) Bound {
	return Bound{query: sql, isSQL: true}
}

// ThresholdEvaluator compares one observed scalar against an inclusive
// min/max band whose bounds may themselves be resolved by queries.
type ThresholdEvaluator struct {
	exec Executor
	log  logrus.FieldLogger
}

// NewThresholdEvaluator creates a threshold check evaluator.
func NewThresholdEvaluator(log logrus.FieldLogger, exec Executor) *ThresholdEvaluator {
	return &ThresholdEvaluator{
		exec: exec,
		log:  log.WithField("component", "threshold_evaluator"),
	}
}

// Evaluate resolves both bounds, fetches the observed value, and passes
// iff min <= observed <= max. The failure detail carries the resolved
// numbers, never the bound queries.
func (e *ThresholdEvaluator) Evaluate(ctx context.Context, name, query string, minBound, maxBound Bound) (*Report, error) {
	var observed, minVal, maxVal float64

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := e.fetchScalar(gCtx, query)
		if err != nil {
			return err
		}
		observed = v
		return nil
	})
	g.Go(func() error {
		v, err := e.resolveBound(gCtx, minBound)
		if err != nil {
			return err
		}
		minVal = v
		return nil
	})
	g.Go(func() error {
		v, err := e.resolveBound(gCtx, maxBound)
		if err != nil {
			return err
		}
		maxVal = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	passed := minVal <= observed && observed <= maxVal

	report := Aggregate([]Result{{
		CheckName: name,
		Observed:  observed,
		Expected:  fmt.Sprintf("between %v and %v", minVal, maxVal),
		Passed:    passed,
		Detail: fmt.Sprintf("threshold check %s: observed %v, min threshold %v, max threshold %v",
			name, observed, minVal, maxVal),
	}})

	e.log.WithFields(logrus.Fields{
		"check":  name,
		"run_id": report.RunID,
		"passed": passed,
	}).Info("threshold check complete")

	if !passed {
		return report, &FailureError{Report: report}
	}

	return report, nil
}

func (e *ThresholdEvaluator) resolveBound(ctx context.Context, b Bound) (float64, error) {
	if !b.isSQL {
		return b.value, nil
	}
	return e.fetchScalar(ctx, b.query)
}

func (e *ThresholdEvaluator) fetchScalar(ctx context.Context, query string) (float64, error) {
	row, err := e.exec.FetchRow(ctx, query)
	if err != nil {
		return 0, &ExecError{Reason: "fetching scalar", Err: err}
	}

	if len(row) == 0 {
		return 0, execErrorf("query returned no result")
	}

	return asFloat(row[0])
}
