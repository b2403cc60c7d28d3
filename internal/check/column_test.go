package check

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// validColumnChecks mirrors a typical per-column declaration: null and
// distinct counts, uniqueness floor, and min/max bands on column X.
func validColumnChecks(t *testing.T) []ColumnChecks {
	t.Helper()

	mk := func(kind Kind, params map[string]float64, tol *float64) Definition {
		def, err := NewDefinition(kind, params, tol)
		require.NoError(t, err)
		return def
	}

	return []ColumnChecks{{
		Column: "X",
		Checks: []Definition{
			mk(KindNullCheck, map[string]float64{ParamEqualTo: 0}, nil),
			mk(KindDistinctCheck, map[string]float64{ParamEqualTo: 10}, floatPtr(0.1)),
			mk(KindUniqueCheck, map[string]float64{ParamGeqTo: 10}, nil),
			mk(KindMin, map[string]float64{ParamLeqTo: 1}, nil),
			mk(KindMax, map[string]float64{ParamLessThan: 20, ParamGreaterThan: 10}, nil),
		},
	}}
}

func TestColumnEvaluator_AllChecksPass(t *testing.T) {
	t.Parallel()

	exec := fixedRow(0, 10, 10, 1, 19)
	ev := NewColumnEvaluator(logrus.New(), exec)

	report, err := ev.Evaluate(context.Background(), "test_table", validColumnChecks(t))
	require.NoError(t, err)
	require.True(t, report.OverallPassed())
	require.Len(t, report.Results, 5)
	require.Equal(t, 1, exec.queryCount())
}

func TestColumnEvaluator_AllChecksPassInexact(t *testing.T) {
	t.Parallel()

	ev := NewColumnEvaluator(logrus.New(), fixedRow(0, 9, 12, 0, 15))

	report, err := ev.Evaluate(context.Background(), "test_table", validColumnChecks(t))
	require.NoError(t, err)
	require.True(t, report.OverallPassed())
}

func TestColumnEvaluator_OnlyMaxFails(t *testing.T) {
	t.Parallel()

	for _, maxVal := range []any{21, 9} {
		ev := NewColumnEvaluator(logrus.New(), fixedRow(0, 10, 10, 1, maxVal))

		report, err := ev.Evaluate(context.Background(), "test_table", validColumnChecks(t))
		require.Error(t, err)

		var failure *FailureError
		require.True(t, errors.As(err, &failure))

		require.Len(t, report.Results, 5)
		for _, res := range report.Results[:4] {
			require.True(t, res.Passed, "check %s should still pass", res.CheckName)
		}
		require.False(t, report.Results[4].Passed)
		require.Equal(t, []string{"X.max"}, report.FailingNames())
	}
}

func TestColumnEvaluator_ManyChecksFail(t *testing.T) {
	t.Parallel()

	ev := NewColumnEvaluator(logrus.New(), fixedRow(1, 12, 11, -1, 20))

	report, err := ev.Evaluate(context.Background(), "test_table", validColumnChecks(t))
	require.Error(t, err)
	require.False(t, report.OverallPassed())
	require.Contains(t, report.FailingNames(), "X.null_check")
	require.Contains(t, report.FailingNames(), "X.distinct_check")
	require.Contains(t, report.FailingNames(), "X.max")
}

func TestColumnEvaluator_WidthMismatch(t *testing.T) {
	t.Parallel()

	ev := NewColumnEvaluator(logrus.New(), fixedRow(0, 10))

	_, err := ev.Evaluate(context.Background(), "test_table", validColumnChecks(t))
	require.Error(t, err)

	var execErr *ExecError
	require.True(t, errors.As(err, &execErr))
}

func TestColumnEvaluator_EmptyResult(t *testing.T) {
	t.Parallel()

	ev := NewColumnEvaluator(logrus.New(), &fakeExecutor{})

	_, err := ev.Evaluate(context.Background(), "test_table", validColumnChecks(t))
	require.Error(t, err)
	require.Contains(t, err.Error(), "query returned no result")
}

func TestBuildColumnQuery_PositionalOrder(t *testing.T) {
	t.Parallel()

	query, flattened := buildColumnQuery("test_table", validColumnChecks(t))
	require.Len(t, flattened, 5)
	require.Contains(t, query, "SUM(CASE WHEN X IS NULL THEN 1 ELSE 0 END)")
	require.Contains(t, query, "COUNT(DISTINCT X)")
	require.Contains(t, query, "COUNT(X) - COUNT(DISTINCT X)")
	require.Contains(t, query, "MIN(X)")
	require.Contains(t, query, "MAX(X)")
	require.Contains(t, query, "FROM test_table")

	// Fragment order must follow declaration order.
	require.Equal(t, KindNullCheck, flattened[0].def.Kind)
	require.Equal(t, KindMax, flattened[4].def.Kind)
}

func TestColumnEvaluator_Idempotent(t *testing.T) {
	t.Parallel()

	checks := validColumnChecks(t)
	ev := NewColumnEvaluator(logrus.New(), fixedRow(0, 10, 10, 1, 19))

	first, err := ev.Evaluate(context.Background(), "test_table", checks)
	require.NoError(t, err)

	second, err := ev.Evaluate(context.Background(), "test_table", checks)
	require.NoError(t, err)

	require.Equal(t, first.Results, second.Results)
}
