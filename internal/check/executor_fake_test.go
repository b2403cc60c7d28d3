package check

import (
	"context"
	"sync"
)

// fakeExecutor stands in for a database connection. Responses are
// computed per query so concurrent fetches stay deterministic.
type fakeExecutor struct {
	mu      sync.Mutex
	queries []string

	rowFn   func(query string) ([]any, error)
	tableFn func(query string) ([]Record, error)
}

func (f *fakeExecutor) FetchRow(_ context.Context, query string) ([]any, error) {
	f.record(query)
	if f.rowFn == nil {
		return nil, nil
	}
	return f.rowFn(query)
}

func (f *fakeExecutor) FetchTable(_ context.Context, query string) ([]Record, error) {
	f.record(query)
	if f.tableFn == nil {
		return nil, nil
	}
	return f.tableFn(query)
}

func (f *fakeExecutor) record(query string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
}

func (f *fakeExecutor) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

// fixedRow returns the same row for every query.
func fixedRow(row ...any) *fakeExecutor {
	return &fakeExecutor{rowFn: func(string) ([]any, error) { return row, nil }}
}
