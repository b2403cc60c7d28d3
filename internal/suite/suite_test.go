package suite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/datadrift/sqlsentinel/internal/check"
)

func writeSuite(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidSuite(t *testing.T) {
	t.Parallel()

	path := writeSuite(t, `---
column_checks:
  - table: orders
    columns:
      - column: order_id
        checks:
          - name: null_check
            equal_to: 0
          - name: distinct_check
            equal_to: 10
            tolerance: 0.1
table_checks:
  - table: orders
    checks:
      - name: row_count_check
        statement: COUNT(*) >= 1000
interval_checks:
  - table: orders
    ratio_formula: max_over_min
    ignore_zero: true
    metrics:
      - name: total_amount
        threshold: 1.5
threshold_checks:
  - name: avg_band
    sql: SELECT avg(amount) FROM orders
    min: 10
    max: SELECT 100
value_checks:
  - name: expected_rows
    sql: SELECT count(*) FROM orders
    expected: 100
    tolerance: 0.1
row_checks:
  - name: freshness
    sql: SELECT COUNT(*) > 0 FROM orders
branch:
  sql: SELECT 1
  follow_if_true: path_a
  follow_if_false: [path_b, path_c]
`)

	s, err := Load(logrus.New(), path)
	require.NoError(t, err)

	columns, err := s.ColumnChecks[0].Definitions()
	require.NoError(t, err)
	require.Len(t, columns, 1)
	require.Len(t, columns[0].Checks, 2)
	require.Equal(t, check.KindNullCheck, columns[0].Checks[0].Kind)

	minBound, err := s.ThresholdChecks[0].MinBound()
	require.NoError(t, err)
	require.Equal(t, check.LiteralBound(10), minBound)

	maxBound, err := s.ThresholdChecks[0].MaxBound()
	require.NoError(t, err)
	require.Equal(t, check.QueryBound("SELECT 100"), maxBound)

	require.Equal(t, StringList{"path_a"}, s.Branch.FollowIfTrue)
	require.Equal(t, StringList{"path_b", "path_c"}, s.Branch.FollowIfFalse)
}

func TestLoad_ReportsEveryProblem(t *testing.T) {
	t.Parallel()

	path := writeSuite(t, `---
column_checks:
  - table: orders
    columns:
      - column: order_id
        checks:
          - name: invalid_check_name
            equal_to: 5
interval_checks:
  - table: orders
    ratio_formula: abs
    metrics:
      - name: total_amount
        threshold: 1.5
branch:
  sql: SELECT 1
  follow_if_true: path_a
`)

	_, err := Load(logrus.New(), path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid column check: invalid_check_name")
	require.Contains(t, err.Error(), "invalid diff method: abs")
	require.Contains(t, err.Error(), "follow_if_false")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(logrus.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate_DuplicateTableCheckNames(t *testing.T) {
	t.Parallel()

	s := &Suite{TableChecks: []TableSection{{
		Table: "orders",
		Checks: []TableRule{
			{Name: "row_count_check", Statement: "COUNT(*) > 0"},
			{Name: "row_count_check", Statement: "COUNT(*) > 1"},
		},
	}}}

	err := s.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate table check name")
}

func TestThresholdSection_NonNumericBound(t *testing.T) {
	t.Parallel()

	section := ThresholdSection{Name: "band", SQL: "SELECT 1", Min: []any{1}, Max: 10}
	_, err := section.MinBound()
	require.Error(t, err)

	var cfgErr *check.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}
