package suite

import (
	"context"
	"errors"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/datadrift/sqlsentinel/internal/check"
)

// Runner executes every check section of a suite against one executor.
// Sections run in file order. Check failures are collected across the
// whole suite so the final error names every failing check; execution
// and configuration errors abort the run immediately.
type Runner struct {
	exec check.Executor
	log  logrus.FieldLogger
}

// NewRunner creates a suite runner.
func NewRunner(log logrus.FieldLogger, exec check.Executor) *Runner {
	return &Runner{
		exec: exec,
		log:  log.WithField("component", "suite_runner"),
	}
}

// Run evaluates all sections and returns the per-section reports. The
// returned error is nil when every check passed, a combined failure when
// only checks failed, and the underlying error when execution broke.
func (r *Runner) Run(ctx context.Context, s *Suite) ([]*check.Report, error) {
	var (
		reports  []*check.Report
		failures *multierror.Error
	)

	collect := func(report *check.Report, err error) error {
		if report != nil {
			reports = append(reports, report)
		}
		if err == nil {
			return nil
		}

		var failure *check.FailureError
		if errors.As(err, &failure) {
			failures = multierror.Append(failures, err)
			return nil
		}

		return err
	}

	for _, section := range s.ColumnChecks {
		columns, err := section.Definitions()
		if err != nil {
			return reports, err
		}

		ev := check.NewColumnEvaluator(r.log, r.exec)
		if err := collect(ev.Evaluate(ctx, section.Table, columns)); err != nil {
			return reports, err
		}
	}

	for _, section := range s.TableChecks {
		checks := make([]check.TableCheck, 0, len(section.Checks))
		for _, rule := range section.Checks {
			checks = append(checks, check.TableCheck{Name: rule.Name, Statement: rule.Statement})
		}

		ev := check.NewTableEvaluator(r.log, r.exec)
		if err := collect(ev.Evaluate(ctx, section.Table, checks)); err != nil {
			return reports, err
		}
	}

	for _, section := range s.IntervalChecks {
		formula, err := check.ParseRatioFormula(section.RatioFormula)
		if err != nil {
			return reports, err
		}

		ev, err := check.NewIntervalEvaluator(r.log, r.exec, formula, section.IgnoreZero, section.DaysBack, section.DateColumn)
		if err != nil {
			return reports, err
		}

		metrics := make([]check.Metric, 0, len(section.Metrics))
		for _, m := range section.Metrics {
			metrics = append(metrics, check.Metric{Name: m.Name, Threshold: m.Threshold})
		}

		if err := collect(ev.Evaluate(ctx, section.Table, metrics)); err != nil {
			return reports, err
		}
	}

	for _, section := range s.ThresholdChecks {
		minBound, err := section.MinBound()
		if err != nil {
			return reports, err
		}
		maxBound, err := section.MaxBound()
		if err != nil {
			return reports, err
		}

		ev := check.NewThresholdEvaluator(r.log, r.exec)
		if err := collect(ev.Evaluate(ctx, section.Name, section.SQL, minBound, maxBound)); err != nil {
			return reports, err
		}
	}

	for _, section := range s.ValueChecks {
		if section.Expected == nil {
			return reports, &check.ConfigError{Reason: "value check " + section.Name + " is missing an expected value"}
		}

		ev := check.NewValueEvaluator(r.log, r.exec)
		if err := collect(ev.Evaluate(ctx, section.Name, section.SQL, *section.Expected, section.Tolerance)); err != nil {
			return reports, err
		}
	}

	for _, section := range s.RowChecks {
		ev := check.NewRowEvaluator(r.log, r.exec)
		if err := collect(ev.Evaluate(ctx, section.Name, section.SQL)); err != nil {
			return reports, err
		}
	}

	failureCount := 0
	if failures != nil {
		failureCount = failures.Len()
	}

	r.log.WithFields(logrus.Fields{
		"reports":  len(reports),
		"failures": failureCount,
	}).Info("suite run complete")

	return reports, failures.ErrorOrNil()
}
