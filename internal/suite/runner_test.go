package suite

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/datadrift/sqlsentinel/internal/check"
)

type fakeExecutor struct {
	mu      sync.Mutex
	queries []string
	rowFn   func(query string) ([]any, error)
	tableFn func(query string) ([]check.Record, error)
}

func (f *fakeExecutor) FetchRow(_ context.Context, query string) ([]any, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.rowFn == nil {
		return nil, nil
	}
	return f.rowFn(query)
}

func (f *fakeExecutor) FetchTable(_ context.Context, query string) ([]check.Record, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.tableFn == nil {
		return nil, nil
	}
	return f.tableFn(query)
}

func passingSuite() *Suite {
	zero := 0.0
	hundred := 100.0

	return &Suite{
		ColumnChecks: []ColumnSection{{
			Table: "orders",
			Columns: []ColumnChecks{{
				Column: "order_id",
				Checks: []ColumnRule{{Name: "null_check", EqualTo: &zero}},
			}},
		}},
		TableChecks: []TableSection{{
			Table:  "orders",
			Checks: []TableRule{{Name: "row_count_check", Statement: "COUNT(*) > 0"}},
		}},
		ValueChecks: []ValueSection{{
			Name:     "expected_rows",
			SQL:      "SELECT count(*) FROM orders",
			Expected: &hundred,
		}},
	}
}

func TestRunner_AllSectionsPass(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{
		rowFn: func(query string) ([]any, error) {
			if strings.Contains(query, "count(*)") {
				return []any{100}, nil
			}
			return []any{0}, nil
		},
		tableFn: func(string) ([]check.Record, error) {
			return []check.Record{{"check_name": "row_count_check", "check_result": "1"}}, nil
		},
	}

	reports, err := NewRunner(logrus.New(), exec).Run(context.Background(), passingSuite())
	require.NoError(t, err)
	require.Len(t, reports, 3)
	for _, report := range reports {
		require.True(t, report.OverallPassed())
	}
}

func TestRunner_CollectsFailuresAcrossSections(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{
		rowFn: func(query string) ([]any, error) {
			if strings.Contains(query, "count(*)") {
				return []any{150}, nil // value check fails
			}
			return []any{5}, nil // null check fails
		},
		tableFn: func(string) ([]check.Record, error) {
			return []check.Record{{"check_name": "row_count_check", "check_result": "1"}}, nil
		},
	}

	reports, err := NewRunner(logrus.New(), exec).Run(context.Background(), passingSuite())
	require.Error(t, err)
	require.Len(t, reports, 3)

	// Both failures are reported, not just the first.
	require.Contains(t, err.Error(), "null_check")
	require.Contains(t, err.Error(), "expected_rows")
}

func TestRunner_ExecutionErrorAborts(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{
		rowFn: func(string) ([]any, error) {
			return nil, errors.New("connection refused")
		},
	}

	_, err := NewRunner(logrus.New(), exec).Run(context.Background(), passingSuite())
	require.Error(t, err)

	var execErr *check.ExecError
	require.ErrorAs(t, err, &execErr)
}
