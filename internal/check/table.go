package check

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// TableCheck pairs a check name with an opaque boolean statement evaluated
// against the table, for example "COUNT(*) >= 1000".
type TableCheck struct {
	Name      string
	Statement string
}

// TableEvaluator runs arbitrary boolean check statements against a table
// through a single UNION ALL query.
type TableEvaluator struct {
	exec Executor
	log  logrus.FieldLogger
}

// NewTableEvaluator creates a table check evaluator.
func NewTableEvaluator(log logrus.FieldLogger, exec Executor) *TableEvaluator {
	return &TableEvaluator{
		exec: exec,
		log:  log.WithField("component", "table_evaluator"),
	}
}

// Evaluate builds one query producing a {check_name, check_result} record
// per check and interprets the result tokens: "1" and "y" pass, "0" and
// "n" fail, case-sensitively. Any other token is an execution error, not
// a silent pass. Results keep the order the database returned them in.
func (e *TableEvaluator) Evaluate(ctx context.Context, table string, checks []TableCheck) (*Report, error) {
	if len(checks) == 0 {
		return nil, configErrorf("no table checks declared for %s", table)
	}

	query := buildTableQuery(table, checks)

	e.log.WithFields(logrus.Fields{
		"table":  table,
		"checks": len(checks),
	}).Debug("running table checks")

	records, err := e.exec.FetchTable(ctx, query)
	if err != nil {
		return nil, &ExecError{Reason: "fetching table check results", Err: err}
	}

	if len(records) == 0 {
		return nil, execErrorf("query returned no result")
	}

	results := make([]Result, 0, len(records))

	for _, rec := range records {
		name := cast.ToString(rec["check_name"])
		token := cast.ToString(rec["check_result"])

		var passed bool
		switch token {
		case "1", "y":
			passed = true
		case "0", "n":
			passed = false
		default:
			return nil, execErrorf("unexpected check result %q for table check %s", token, name)
		}

		results = append(results, Result{
			CheckName: name,
			Observed:  token,
			Expected:  "1",
			Passed:    passed,
			Detail:    fmt.Sprintf("table %s check %s returned %q", table, name, token),
		})
	}

	report := Aggregate(results)

	e.log.WithFields(logrus.Fields{
		"table":  table,
		"run_id": report.RunID,
		"passed": report.OverallPassed(),
	}).Info("table checks complete")

	if !report.OverallPassed() {
		return report, &FailureError{Report: report}
	}

	return report, nil
}

// buildTableQuery renders one result row per check statement.
func buildTableQuery(table string, checks []TableCheck) string {
	selects := make([]string, 0, len(checks))

	for _, c := range checks {
		selects = append(selects, fmt.Sprintf(
			"SELECT '%s' AS check_name, CASE WHEN %s THEN 1 ELSE 0 END AS check_result FROM %s",
			c.Name, c.Statement, table,
		))
	}

	return strings.Join(selects, " UNION ALL ")
}
