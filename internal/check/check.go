// Package check implements the data-quality check engine: declarative
// check definitions, the evaluators that run them against a database, and
// the report aggregation that turns per-check outcomes into one result.
package check

import (
	"context"
	"fmt"
	"strings"
)

// Record is a single row of a table-producing query, keyed by column name.
type Record map[string]any

// Executor fetches query results on behalf of the evaluators. The engine
// never interprets the SQL it is given; statements are handed over
// verbatim. Implementations must be safe for concurrent use, as some
// evaluators issue their queries in parallel.
//
// FetchRow returns the first row of the result set, or a nil slice when
// the query returned no rows. Connectivity and syntax failures must be
// returned as errors, never as an empty result.
type Executor interface {
	FetchRow(ctx context.Context, query string) ([]any, error)
	FetchTable(ctx context.Context, query string) ([]Record, error)
}

// Kind names one of the recognized column statistic checks.
type Kind string

const (
	KindNullCheck     Kind = "null_check"
	KindDistinctCheck Kind = "distinct_check"
	KindUniqueCheck   Kind = "unique_check"
	KindMin           Kind = "min"
	KindMax           Kind = "max"
)

// Comparison parameter names a Definition may carry. The order here fixes
// the order bounds appear in expectation descriptions.
const (
	ParamEqualTo     = "equal_to"
	ParamGeqTo       = "geq_to"
	ParamLeqTo       = "leq_to"
	ParamLessThan    = "less_than"
	ParamGreaterThan = "greater_than"
)

var paramOrder = []string{ParamEqualTo, ParamGeqTo, ParamLeqTo, ParamLessThan, ParamGreaterThan}

var columnCheckSQL = map[Kind]string{
	KindNullCheck:     "SUM(CASE WHEN %s IS NULL THEN 1 ELSE 0 END)",
	KindDistinctCheck: "COUNT(DISTINCT %s)",
	KindUniqueCheck:   "COUNT(%s) - COUNT(DISTINCT %s)",
	KindMin:           "MIN(%s)",
	KindMax:           "MAX(%s)",
}

// Definition is one declared expectation about a column statistic. It is
// immutable after construction; evaluation never writes results back into
// it, so the same Definition can be reused across runs.
type Definition struct {
	Kind      Kind
	Params    map[string]float64
	Tolerance *float64
}

// NewDefinition validates the check kind and its comparison parameters
// against the fixed vocabulary. Unknown entries fail construction before
// any query is issued.
func NewDefinition(kind Kind, params map[string]float64, tolerance *float64) (Definition, error) {
	if _, ok := columnCheckSQL[kind]; !ok {
		return Definition{}, configErrorf("invalid column check: %s", kind)
	}

	if len(params) == 0 {
		return Definition{}, configErrorf("column check %s declares no comparison bounds", kind)
	}

	for name := range params {
		if !knownParam(name) {
			return Definition{}, configErrorf("invalid comparison parameter %q on column check %s", name, kind)
		}
	}

	return Definition{Kind: kind, Params: params, Tolerance: tolerance}, nil
}

func knownParam(name string) bool {
	for _, p := range paramOrder {
		if p == name {
			return true
		}
	}
	return false
}

// selectFragment renders the aggregate SQL expression producing this
// check's observed value for the given column.
func (d Definition) selectFragment(column string) string {
	if d.Kind == KindUniqueCheck {
		return fmt.Sprintf(columnCheckSQL[d.Kind], column, column)
	}
	return fmt.Sprintf(columnCheckSQL[d.Kind], column)
}

// evaluate applies every supplied bound to the observed value. All bounds
// must hold for the check to pass; equal_to honors the tolerance.
func (d Definition) evaluate(observed float64) bool {
	passed := true

	for _, name := range paramOrder {
		bound, ok := d.Params[name]
		if !ok {
			continue
		}

		switch name {
		case ParamEqualTo:
			passed = passed && equalWithTolerance(observed, bound, d.Tolerance)
		case ParamGeqTo:
			passed = passed && observed >= bound
		case ParamLeqTo:
			passed = passed && observed <= bound
		case ParamLessThan:
			passed = passed && observed < bound
		case ParamGreaterThan:
			passed = passed && observed > bound
		}
	}

	return passed
}

// expectation renders the declared bounds for report details, for example
// "equal_to 10 (tolerance 10%)" or "greater_than 10, less_than 20".
func (d Definition) expectation() string {
	parts := make([]string, 0, len(d.Params))

	for _, name := range paramOrder {
		bound, ok := d.Params[name]
		if !ok {
			continue
		}

		part := fmt.Sprintf("%s %v", name, bound)
		if name == ParamEqualTo && d.Tolerance != nil {
			part = fmt.Sprintf("%s (tolerance %v%%)", part, *d.Tolerance*100)
		}
		parts = append(parts, part)
	}

	return strings.Join(parts, ", ")
}
