package check

import (
	"reflect"
	"strings"
)

// maxUnwrapDepth bounds the nested-result unwrapping loop. Drivers wrap a
// scalar in at most a row and a result set, so anything deeper than a
// small constant is a malformed result rather than legitimate nesting.
const maxUnwrapDepth = 32

// Truth normalizes an arbitrary query result into a boolean. Wrappers are
// peeled off while the value is a single-element non-string sequence, then
// the remaining scalar is classified: true/1/"true"/"1"/"on" are true,
// false/0/"false"/"0"/"off" are false (strings case-insensitively).
// Anything else, and an empty or nil result, is an execution error rather
// than a silent false.
func Truth(raw any) (bool, error) {
	for depth := 0; depth <= maxUnwrapDepth; depth++ {
		if raw == nil {
			return false, execErrorf("query returned no result")
		}

		inner, ok, err := unwrapSingle(raw)
		if err != nil {
			return false, err
		}
		if !ok {
			break
		}
		raw = inner

		if depth == maxUnwrapDepth {
			return false, execErrorf("query result nested deeper than %d levels", maxUnwrapDepth)
		}
	}

	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(v) {
		case "true", "1", "on":
			return true, nil
		case "false", "0", "off":
			return false, nil
		}
		return false, execErrorf("unexpected query return result %q", v)
	}

	if f, ok := numericScalar(raw); ok {
		switch f {
		case 1:
			return true, nil
		case 0:
			return false, nil
		}
	}

	return false, execErrorf("unexpected query return result %v", raw)
}

// unwrapSingle peels one layer off a single-element sequence. The second
// return is false once raw is not a sequence. An empty sequence means the
// query produced nothing usable.
func unwrapSingle(raw any) (any, bool, error) {
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false, nil
	}

	switch rv.Len() {
	case 0:
		return nil, false, execErrorf("query returned no result")
	case 1:
		return rv.Index(0).Interface(), true, nil
	default:
		return nil, false, execErrorf("unexpected query return result: expected a single value, got %d", rv.Len())
	}
}

// numericScalar reports a numeric value as float64. Strings never match;
// they are classified by token above.
func numericScalar(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
