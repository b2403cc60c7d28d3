// Package suite loads and validates declarative check-suite files. A
// suite groups every category of check to run against one connection,
// plus an optional branch decision block. Validation is eager: every
// problem in the file is reported before any query is issued.
package suite

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/datadrift/sqlsentinel/internal/check"
)

// Suite is the root of a check-suite file.
type Suite struct {
	ColumnChecks    []ColumnSection    `yaml:"column_checks,omitempty"`
	TableChecks     []TableSection     `yaml:"table_checks,omitempty"`
	IntervalChecks  []IntervalSection  `yaml:"interval_checks,omitempty"`
	ThresholdChecks []ThresholdSection `yaml:"threshold_checks,omitempty"`
	ValueChecks     []ValueSection     `yaml:"value_checks,omitempty"`
	RowChecks       []RowSection       `yaml:"row_checks,omitempty"`
	Branch          *BranchSection     `yaml:"branch,omitempty"`
}

// ColumnSection declares column statistic checks for one table. Column
// and check order is preserved; it fixes the alignment between the
// combined query's row and the checks.
type ColumnSection struct {
	Table   string         `yaml:"table"`
	Columns []ColumnChecks `yaml:"columns"`
}

// ColumnChecks declares the checks for one column.
type ColumnChecks struct {
	Column string       `yaml:"column"`
	Checks []ColumnRule `yaml:"checks"`
}

// ColumnRule is one declared column check with its comparison bounds.
type ColumnRule struct {
	Name        string   `yaml:"name"`
	EqualTo     *float64 `yaml:"equal_to,omitempty"`
	GeqTo       *float64 `yaml:"geq_to,omitempty"`
	LeqTo       *float64 `yaml:"leq_to,omitempty"`
	LessThan    *float64 `yaml:"less_than,omitempty"`
	GreaterThan *float64 `yaml:"greater_than,omitempty"`
	Tolerance   *float64 `yaml:"tolerance,omitempty"`
}

// TableSection declares boolean check statements for one table.
type TableSection struct {
	Table  string      `yaml:"table"`
	Checks []TableRule `yaml:"checks"`
}

// TableRule is one named boolean statement.
type TableRule struct {
	Name      string `yaml:"name"`
	Statement string `yaml:"statement"`
}

// IntervalSection declares a two-window ratio comparison for one table.
// Metric order must match the column order of the snapshot query the
// engine builds from it; values are paired by position.
type IntervalSection struct {
	Table        string       `yaml:"table"`
	RatioFormula string       `yaml:"ratio_formula"`
	IgnoreZero   bool         `yaml:"ignore_zero"`
	DaysBack     int          `yaml:"days_back"`
	DateColumn   string       `yaml:"date_column"`
	Metrics      []MetricRule `yaml:"metrics"`
}

// MetricRule is one metric with its ratio threshold.
type MetricRule struct {
	Name      string  `yaml:"name"`
	Threshold float64 `yaml:"threshold"`
}

// ThresholdSection declares a min/max band check. Min and max accept
// either a number or a SQL string resolved at evaluation time.
type ThresholdSection struct {
	Name string `yaml:"name"`
	SQL  string `yaml:"sql"`
	Min  any    `yaml:"min"`
	Max  any    `yaml:"max"`
}

// ValueSection declares an exact-value check with optional tolerance.
type ValueSection struct {
	Name      string   `yaml:"name"`
	SQL       string   `yaml:"sql"`
	Expected  *float64 `yaml:"expected,omitempty"`
	Tolerance *float64 `yaml:"tolerance,omitempty"`
}

// RowSection declares a free-form check whose first result row must be
// entirely truthy.
type RowSection struct {
	Name string `yaml:"name"`
	SQL  string `yaml:"sql"`
}

// BranchSection declares the branch decision block.
type BranchSection struct {
	SQL           string     `yaml:"sql"`
	FollowIfTrue  StringList `yaml:"follow_if_true"`
	FollowIfFalse StringList `yaml:"follow_if_false"`
}

// StringList accepts either a single scalar or a sequence of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v string
		if err := node.Decode(&v); err != nil {
			return err
		}
		*s = StringList{v}
		return nil
	case yaml.SequenceNode:
		var vs []string
		if err := node.Decode(&vs); err != nil {
			return err
		}
		*s = StringList(vs)
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", node.Line)
	}
}

// Load reads, parses, and validates a suite file. Every validation
// problem is accumulated and reported together.
func Load(log logrus.FieldLogger, path string) (*Suite, error) {
	log.WithField("path", path).Debug("loading check suite")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite file: %w", err)
	}

	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing suite file %s: %w", path, err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// Validate checks the whole suite eagerly, before any query is issued.
func (s *Suite) Validate() error {
	var result *multierror.Error

	for _, section := range s.ColumnChecks {
		if section.Table == "" {
			result = multierror.Append(result, &check.ConfigError{Reason: "column_checks entry is missing a table"})
		}
		if _, err := section.Definitions(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	for _, section := range s.TableChecks {
		if section.Table == "" {
			result = multierror.Append(result, &check.ConfigError{Reason: "table_checks entry is missing a table"})
		}

		seen := map[string]bool{}
		for _, rule := range section.Checks {
			switch {
			case rule.Name == "":
				result = multierror.Append(result, &check.ConfigError{Reason: fmt.Sprintf("table check on %s is missing a name", section.Table)})
			case seen[rule.Name]:
				result = multierror.Append(result, &check.ConfigError{Reason: fmt.Sprintf("duplicate table check name %s", rule.Name)})
			case rule.Statement == "":
				result = multierror.Append(result, &check.ConfigError{Reason: fmt.Sprintf("table check %s is missing a statement", rule.Name)})
			}
			seen[rule.Name] = true
		}
	}

	for _, section := range s.IntervalChecks {
		if section.Table == "" {
			result = multierror.Append(result, &check.ConfigError{Reason: "interval_checks entry is missing a table"})
		}
		if _, err := check.ParseRatioFormula(section.RatioFormula); err != nil {
			result = multierror.Append(result, err)
		}
		if len(section.Metrics) == 0 {
			result = multierror.Append(result, &check.ConfigError{Reason: fmt.Sprintf("interval check on %s declares no metrics", section.Table)})
		}
		for _, m := range section.Metrics {
			if m.Name == "" {
				result = multierror.Append(result, &check.ConfigError{Reason: fmt.Sprintf("interval metric on %s is missing a name", section.Table)})
			}
		}
	}

	for _, section := range s.ThresholdChecks {
		if section.Name == "" || section.SQL == "" {
			result = multierror.Append(result, &check.ConfigError{Reason: "threshold check needs both a name and sql"})
		}
		if _, err := section.MinBound(); err != nil {
			result = multierror.Append(result, err)
		}
		if _, err := section.MaxBound(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	for _, section := range s.ValueChecks {
		if section.Name == "" || section.SQL == "" {
			result = multierror.Append(result, &check.ConfigError{Reason: "value check needs both a name and sql"})
		}
		if section.Expected == nil {
			result = multierror.Append(result, &check.ConfigError{Reason: fmt.Sprintf("value check %s is missing an expected value", section.Name)})
		}
	}

	for _, section := range s.RowChecks {
		if section.Name == "" || section.SQL == "" {
			result = multierror.Append(result, &check.ConfigError{Reason: "row check needs both a name and sql"})
		}
	}

	if s.Branch != nil {
		if s.Branch.SQL == "" {
			result = multierror.Append(result, &check.ConfigError{Reason: "branch block is missing sql"})
		}
		if len(s.Branch.FollowIfTrue) == 0 {
			result = multierror.Append(result, &check.ConfigError{Reason: "branch block is missing follow_if_true targets"})
		}
		if len(s.Branch.FollowIfFalse) == 0 {
			result = multierror.Append(result, &check.ConfigError{Reason: "branch block is missing follow_if_false targets"})
		}
	}

	return result.ErrorOrNil()
}

// Definitions converts the section's rules into validated check
// definitions, preserving column and check order.
func (c ColumnSection) Definitions() ([]check.ColumnChecks, error) {
	var (
		out    []check.ColumnChecks
		result *multierror.Error
	)

	for _, col := range c.Columns {
		cc := check.ColumnChecks{Column: col.Column}

		if col.Column == "" {
			result = multierror.Append(result, &check.ConfigError{Reason: fmt.Sprintf("column_checks on %s has an entry with no column name", c.Table)})
		}

		for _, rule := range col.Checks {
			def, err := rule.definition()
			if err != nil {
				result = multierror.Append(result, err)
				continue
			}
			cc.Checks = append(cc.Checks, def)
		}

		out = append(out, cc)
	}

	return out, result.ErrorOrNil()
}

func (r ColumnRule) definition() (check.Definition, error) {
	params := map[string]float64{}

	for name, v := range map[string]*float64{
		check.ParamEqualTo:     r.EqualTo,
		check.ParamGeqTo:       r.GeqTo,
		check.ParamLeqTo:       r.LeqTo,
		check.ParamLessThan:    r.LessThan,
		check.ParamGreaterThan: r.GreaterThan,
	} {
		if v != nil {
			params[name] = *v
		}
	}

	return check.NewDefinition(check.Kind(r.Name), params, r.Tolerance)
}

// MinBound resolves the min field into a literal or deferred bound.
func (t ThresholdSection) MinBound() (check.Bound, error) {
	return toBound(t.Name, "min", t.Min)
}

// MaxBound resolves the max field into a literal or deferred bound.
func (t ThresholdSection) MaxBound() (check.Bound, error) {
	return toBound(t.Name, "max", t.Max)
}

func toBound(name, side string, v any) (check.Bound, error) {
	if v == nil {
		return check.Bound{}, &check.ConfigError{Reason: fmt.Sprintf("threshold check %s is missing its %s bound", name, side)}
	}

	if s, ok := v.(string); ok {
		return check.QueryBound(s), nil
	}

	f, err := cast.ToFloat64E(v)
	if err != nil {
		return check.Bound{}, &check.ConfigError{Reason: fmt.Sprintf("threshold check %s has a non-numeric %s bound: %v", name, side, v)}
	}

	return check.LiteralBound(f), nil
}
