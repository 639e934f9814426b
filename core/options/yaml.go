package options

import (
	"io"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/smtgo/pkg/errors"
)

// LoadYAML reads a mapping of option names to values and applies it with
// Update. Numeric sequences become []int or []float64 and a sequence of
// equal-length numeric sequences becomes a *mat.Dense:
//
//	theta0: [0.01, 0.1]
//	xlimits:
//	  - [-1.0, 1.0]
//	  - [0.0, 2.0]
func (o *Options) LoadYAML(r io.Reader) error {
	raw := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errors.Wrap(err, "options: decode yaml")
	}
	values := make(map[string]any, len(raw))
	for k, v := range raw {
		conv, err := fromYAML(k, v)
		if err != nil {
			return err
		}
		values[k] = conv
	}
	return o.Update(values)
}

func fromYAML(key string, v any) (any, error) {
	seq, ok := v.([]any)
	if !ok {
		return v, nil
	}
	if len(seq) == 0 {
		return []float64{}, nil
	}
	if _, nested := seq[0].([]any); nested {
		return yamlMatrix(key, seq)
	}
	return yamlNumbers(key, seq)
}

func yamlNumbers(key string, seq []any) (any, error) {
	allInts := true
	fs := make([]float64, len(seq))
	for i, e := range seq {
		switch x := e.(type) {
		case int:
			fs[i] = float64(x)
		case float64:
			fs[i] = x
			allInts = false
		default:
			return nil, errors.NewInvalidOptionValueError(key, "sequence must hold numbers", seq)
		}
	}
	if allInts {
		ints := make([]int, len(seq))
		for i, f := range fs {
			ints[i] = int(f)
		}
		return ints, nil
	}
	return fs, nil
}

func yamlMatrix(key string, rows []any) (*mat.Dense, error) {
	var data []float64
	cols := -1
	for _, r := range rows {
		row, ok := r.([]any)
		if !ok || (cols >= 0 && len(row) != cols) || len(row) == 0 {
			return nil, errors.NewInvalidOptionValueError(key, "matrix rows must be non-empty and of equal length", rows)
		}
		cols = len(row)
		nums, err := yamlNumbers(key, row)
		if err != nil {
			return nil, err
		}
		switch x := nums.(type) {
		case []int:
			for _, n := range x {
				data = append(data, float64(n))
			}
		case []float64:
			data = append(data, x...)
		}
	}
	return mat.NewDense(len(rows), cols, data), nil
}
