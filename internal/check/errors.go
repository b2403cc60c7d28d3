package check

import "fmt"

// ConfigError reports invalid declarative configuration. It is always
// raised before any query is issued and is never worth retrying.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return e.Reason
}

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// ExecError reports a failure while executing or interpreting a query:
// connection problems, empty results where a value was required, tokens
// or values the engine does not recognize, or a zero divisor in a ratio
// formula. Retrying is the caller's decision, not the engine's.
type ExecError struct {
	Reason string
	Err    error
}

func (e *ExecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

func execErrorf(format string, args ...any) *ExecError {
	return &ExecError{Reason: fmt.Sprintf(format, args...)}
}

// FailureError is raised after a full batch evaluated and one or more
// checks did not meet their expectation. The attached Report covers the
// whole batch, so every failing check is named, not only the first.
type FailureError struct {
	Report  *Report
	Summary string
}

func (e *FailureError) Error() string {
	if e.Summary != "" {
		return e.Summary
	}
	return e.Report.FailureSummary()
}
