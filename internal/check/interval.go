package check

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// RatioFormula names the function comparing a current and a reference
// metric value.
type RatioFormula string

const (
	// RatioMaxOverMin is max(cur, ref) / min(cur, ref).
	RatioMaxOverMin RatioFormula = "max_over_min"
	// RatioRelativeDiff is |cur - ref| / ref.
	RatioRelativeDiff RatioFormula = "relative_diff"
)

const defaultDaysBack = 7

// ParseRatioFormula maps a configured formula name onto the closed enum.
// Anything outside the two recognized formulas is a configuration error.
func ParseRatioFormula(name string) (RatioFormula, error) {
	switch RatioFormula(name) {
	case RatioMaxOverMin:
		return RatioMaxOverMin, nil
	case RatioRelativeDiff:
		return RatioRelativeDiff, nil
	default:
		return "", configErrorf("invalid diff method: %s", name)
	}
}

// Metric pairs a metric name with the maximum ratio it may move between
// the two windows. Metrics are matched to query columns by position, not
// by name: the declared order here must be the order the snapshot query
// selects them in. Mismatched lengths fail rather than mispair.
type Metric struct {
	Name      string
	Threshold float64
}

// IntervalEvaluator compares each metric between two time windows of the
// same table and fails when the ratio formula exceeds the declared
// threshold.
type IntervalEvaluator struct {
	exec       Executor
	log        logrus.FieldLogger
	formula    RatioFormula
	ignoreZero bool
	daysBack   int
	dateColumn string
	now        func() time.Time
}

// NewIntervalEvaluator validates the ratio formula eagerly; anything
// outside the two recognized formulas is a configuration error. daysBack
// fixes the distance of the reference window behind the current one and
// defaults to 7 when zero or negative.
func NewIntervalEvaluator(log logrus.FieldLogger, exec Executor, formula RatioFormula, ignoreZero bool, daysBack int, dateColumn string) (*IntervalEvaluator, error) {
	switch formula {
	case RatioMaxOverMin, RatioRelativeDiff:
	default:
		return nil, configErrorf("invalid diff method: %s", formula)
	}

	if daysBack <= 0 {
		daysBack = defaultDaysBack
	}

	if dateColumn == "" {
		dateColumn = "ds"
	}

	return &IntervalEvaluator{
		exec:       exec,
		log:        log.WithField("component", "interval_evaluator"),
		formula:    formula,
		ignoreZero: ignoreZero,
		daysBack:   daysBack,
		dateColumn: dateColumn,
		now:        time.Now,
	}, nil
}

// Evaluate fetches the reference (older) and current (newer) snapshots
// and compares them index by index. All metrics are evaluated before
// failing; the failure is one combined message naming every exceeded
// metric in declared order.
func (e *IntervalEvaluator) Evaluate(ctx context.Context, table string, metrics []Metric) (*Report, error) {
	if len(metrics) == 0 {
		return nil, configErrorf("no interval metrics declared for %s", table)
	}

	var (
		today     = e.now().UTC().Truncate(24 * time.Hour)
		reference []any
		current   []any
	)

	// Both snapshots come from the same executor; implementations are
	// documented safe for concurrent use.
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		row, err := e.exec.FetchRow(gCtx, e.buildSnapshotQuery(table, metrics, today.AddDate(0, 0, -e.daysBack)))
		if err != nil {
			return &ExecError{Reason: "fetching reference snapshot", Err: err}
		}
		reference = row
		return nil
	})
	g.Go(func() error {
		row, err := e.exec.FetchRow(gCtx, e.buildSnapshotQuery(table, metrics, today))
		if err != nil {
			return &ExecError{Reason: "fetching current snapshot", Err: err}
		}
		current = row
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(reference) == 0 || len(current) == 0 {
		return nil, execErrorf("query returned no result")
	}

	if len(reference) != len(metrics) || len(current) != len(metrics) {
		return nil, execErrorf("snapshot width mismatch: %d metrics declared, reference returned %d, current returned %d",
			len(metrics), len(reference), len(current))
	}

	results := make([]Result, len(metrics))

	for i, m := range metrics {
		ref, err := asFloat(reference[i])
		if err != nil {
			return nil, err
		}
		cur, err := asFloat(current[i])
		if err != nil {
			return nil, err
		}

		res, err := e.compare(m, cur, ref)
		if err != nil {
			return nil, err
		}
		results[i] = res
	}

	report := Aggregate(results)

	e.log.WithFields(logrus.Fields{
		"table":   table,
		"run_id":  report.RunID,
		"formula": e.formula,
		"passed":  report.OverallPassed(),
	}).Info("interval checks complete")

	if failing := report.FailingNames(); len(failing) > 0 {
		return report, &FailureError{
			Report:  report,
			Summary: fmt.Sprintf("the following %d metrics exceeded their thresholds: %s", len(failing), strings.Join(failing, ", ")),
		}
	}

	return report, nil
}

// compare applies the configured ratio formula to one metric pair. A zero
// divisor is either skipped as passed (ignoreZero) or fatal.
func (e *IntervalEvaluator) compare(m Metric, current, reference float64) (Result, error) {
	var (
		ratio float64
		ok    bool
	)

	switch e.formula {
	case RatioMaxOverMin:
		ratio, ok = maxOverMinRatio(current, reference)
	case RatioRelativeDiff:
		ratio, ok = relativeDiffRatio(current, reference)
	}

	if !ok {
		if !e.ignoreZero {
			return Result{}, execErrorf("division by zero computing %s for metric %s (current=%v, reference=%v)",
				e.formula, m.Name, current, reference)
		}

		return Result{
			CheckName: m.Name,
			Observed:  0.0,
			Expected:  fmt.Sprintf("%s <= %v", e.formula, m.Threshold),
			Passed:    true,
			Detail:    fmt.Sprintf("metric %s skipped: zero value with ignore_zero enabled", m.Name),
		}, nil
	}

	return Result{
		CheckName: m.Name,
		Observed:  ratio,
		Expected:  fmt.Sprintf("%s <= %v", e.formula, m.Threshold),
		Passed:    ratio <= m.Threshold,
		Detail: fmt.Sprintf("metric %s: %s ratio %v against threshold %v (current=%v, reference=%v)",
			m.Name, e.formula, ratio, m.Threshold, current, reference),
	}, nil
}

// buildSnapshotQuery selects one scalar per metric, in declared order, for
// one day's window.
func (e *IntervalEvaluator) buildSnapshotQuery(table string, metrics []Metric, day time.Time) string {
	names := make([]string, 0, len(metrics))
	for _, m := range metrics {
		names = append(names, m.Name)
	}

	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = '%s'",
		strings.Join(names, ", "), table, e.dateColumn, day.Format("2006-01-02"))
}
