package options

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/smtgo/pkg/errors"
)

// kindOf maps a Go value to its Kind, converting sized integer and float
// types to int and float64.
func kindOf(v any) (any, Kind, bool) {
	switch x := v.(type) {
	case bool:
		return x, Bool, true
	case int:
		return x, Int, true
	case int32:
		return int(x), Int, true
	case int64:
		return int(x), Int, true
	case float64:
		return x, Float, true
	case float32:
		return float64(x), Float, true
	case string:
		return x, String, true
	case []float64:
		return x, Floats, true
	case []int:
		return x, Ints, true
	case *mat.Dense:
		return x, Matrix, x != nil
	case mat.Matrix:
		return mat.DenseCopyOf(x), Matrix, true
	default:
		return nil, 0, false
	}
}

// normalize checks v against d and returns the value to store: a deep copy,
// widened to float when an integer is given for a float-only option.
func normalize(d Declaration, v any) (any, error) {
	if m, ok := v.(*mat.Dense); ok && m == nil {
		v = nil
	}
	if v == nil {
		if d.Default == nil {
			return nil, nil
		}
		return nil, errors.NewInvalidOptionValueError(d.Name, "value must not be nil", v)
	}

	val, kind, ok := kindOf(v)
	if !ok {
		return nil, errors.NewInvalidOptionValueError(d.Name,
			fmt.Sprintf("unsupported type %T, expected %s", v, typeList(d.Types)), v)
	}

	if !d.accepts(kind) {
		switch {
		case kind == Int && d.accepts(Float):
			val, kind = float64(val.(int)), Float
		case kind == Ints && d.accepts(Floats):
			ints := val.([]int)
			fs := make([]float64, len(ints))
			for i, n := range ints {
				fs[i] = float64(n)
			}
			val, kind = fs, Floats
		default:
			return nil, errors.NewInvalidOptionValueError(d.Name,
				fmt.Sprintf("type %s not allowed, expected %s", kind, typeList(d.Types)), v)
		}
	}

	if len(d.Values) > 0 && isScalar(kind) && !inValues(d.Values, val) {
		return nil, errors.NewInvalidOptionValueError(d.Name,
			fmt.Sprintf("must be one of %v", d.Values), v)
	}

	val = copyValue(val)
	if d.Validate != nil {
		if err := d.Validate(val); err != nil {
			return nil, errors.NewInvalidOptionValueError(d.Name, err.Error(), v)
		}
	}
	return val, nil
}

func isScalar(k Kind) bool {
	return k == Bool || k == Int || k == Float || k == String
}

func inValues(values []any, v any) bool {
	for _, allowed := range values {
		a, _, ok := kindOf(allowed)
		if !ok || !isScalarValue(a) {
			continue
		}
		if a == v {
			return true
		}
		// 1 and 1.0 name the same allowed value.
		if af, ok := a.(int); ok {
			if vf, ok := v.(float64); ok && float64(af) == vf {
				return true
			}
		}
	}
	return false
}

func isScalarValue(v any) bool {
	switch v.(type) {
	case bool, int, float64, string:
		return true
	}
	return false
}

func typeList(kinds []Kind) string {
	if len(kinds) == 0 {
		return "any"
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, " or ")
}

// copyValue deep-copies slices and matrices. Scalars are returned as is.
func copyValue(v any) any {
	switch x := v.(type) {
	case []float64:
		if x == nil {
			return x
		}
		out := make([]float64, len(x))
		copy(out, x)
		return out
	case []int:
		if x == nil {
			return x
		}
		out := make([]int, len(x))
		copy(out, x)
		return out
	case *mat.Dense:
		if x == nil {
			return x
		}
		return mat.DenseCopyOf(x)
	default:
		return v
	}
}
