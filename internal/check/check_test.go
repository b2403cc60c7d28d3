package check

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestNewDefinition_RejectsUnknownKind(t *testing.T) {
	t.Parallel()

	_, err := NewDefinition("invalid_check_name", map[string]float64{ParamEqualTo: 5}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid column check: invalid_check_name")

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
}

func TestNewDefinition_RejectsUnknownParam(t *testing.T) {
	t.Parallel()

	_, err := NewDefinition(KindNullCheck, map[string]float64{"expectation": 5}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), `invalid comparison parameter "expectation"`)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
}

func TestNewDefinition_RejectsEmptyParams(t *testing.T) {
	t.Parallel()

	_, err := NewDefinition(KindMin, nil, nil)
	require.Error(t, err)
}

func TestDefinitionEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		kind      Kind
		params    map[string]float64
		tolerance *float64
		observed  float64
		want      bool
	}{
		{"equal exact pass", KindNullCheck, map[string]float64{ParamEqualTo: 0}, nil, 0, true},
		{"equal exact fail", KindNullCheck, map[string]float64{ParamEqualTo: 0}, nil, 1, false},
		{"equal tolerant pass", KindDistinctCheck, map[string]float64{ParamEqualTo: 10}, floatPtr(0.1), 9, true},
		{"equal tolerant edge", KindDistinctCheck, map[string]float64{ParamEqualTo: 10}, floatPtr(0.1), 11, true},
		{"equal tolerant fail", KindDistinctCheck, map[string]float64{ParamEqualTo: 10}, floatPtr(0.1), 12, false},
		{"geq pass", KindUniqueCheck, map[string]float64{ParamGeqTo: 10}, nil, 10, true},
		{"geq fail", KindUniqueCheck, map[string]float64{ParamGeqTo: 10}, nil, 9, false},
		{"leq pass", KindMin, map[string]float64{ParamLeqTo: 1}, nil, 1, true},
		{"leq fail", KindMin, map[string]float64{ParamLeqTo: 1}, nil, 2, false},
		{"open interval pass", KindMax, map[string]float64{ParamLessThan: 20, ParamGreaterThan: 10}, nil, 19, true},
		{"open interval high", KindMax, map[string]float64{ParamLessThan: 20, ParamGreaterThan: 10}, nil, 21, false},
		{"open interval low", KindMax, map[string]float64{ParamLessThan: 20, ParamGreaterThan: 10}, nil, 9, false},
		{"one-sided interval", KindMax, map[string]float64{ParamLessThan: 20}, nil, -100, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			def, err := NewDefinition(tt.kind, tt.params, tt.tolerance)
			require.NoError(t, err)
			require.Equal(t, tt.want, def.evaluate(tt.observed))
		})
	}
}
