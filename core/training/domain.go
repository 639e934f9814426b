package training

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/smtgo/pkg/errors"
)

// Bounds is a per-dimension closed interval [lower, upper].
type Bounds struct {
	lower []float64
	upper []float64
}

// NewBounds reads a (d, 2) xlimits matrix whose row j is [lower_j, upper_j].
func NewBounds(xlimits mat.Matrix) (Bounds, error) {
	if xlimits == nil {
		return Bounds{}, errors.NewValueError("training.NewBounds", "xlimits must not be nil")
	}
	d, c := xlimits.Dims()
	if c != 2 {
		return Bounds{}, errors.NewDimensionError("training.NewBounds", 2, c, 1)
	}
	b := Bounds{lower: make([]float64, d), upper: make([]float64, d)}
	for j := 0; j < d; j++ {
		lo, hi := xlimits.At(j, 0), xlimits.At(j, 1)
		if math.IsNaN(lo) || math.IsNaN(hi) {
			return Bounds{}, errors.NewValueError("training.NewBounds", fmt.Sprintf("NaN bound for dimension %d", j))
		}
		if lo > hi {
			return Bounds{}, errors.NewValueError("training.NewBounds",
				fmt.Sprintf("lower bound %g exceeds upper bound %g for dimension %d", lo, hi, j))
		}
		b.lower[j], b.upper[j] = lo, hi
	}
	return b, nil
}

// Dim returns the number of input dimensions.
func (b Bounds) Dim() int { return len(b.lower) }

// Lower returns the lower bound of dimension j.
func (b Bounds) Lower(j int) float64 { return b.lower[j] }

// Upper returns the upper bound of dimension j.
func (b Bounds) Upper(j int) float64 { return b.upper[j] }

// Width returns upper - lower of dimension j.
func (b Bounds) Width(j int) float64 { return b.upper[j] - b.lower[j] }

// Contains reports whether every coordinate of x lies inside its interval.
// NaN is never inside.
func (b Bounds) Contains(x []float64) bool {
	if len(x) != len(b.lower) {
		return false
	}
	for j, v := range x {
		if !(v >= b.lower[j] && v <= b.upper[j]) {
			return false
		}
	}
	return true
}

// Matrix returns the bounds as a (d, 2) xlimits matrix.
func (b Bounds) Matrix() *mat.Dense {
	m := mat.NewDense(len(b.lower), 2, nil)
	for j := range b.lower {
		m.Set(j, 0, b.lower[j])
		m.Set(j, 1, b.upper[j])
	}
	return m
}

// CheckValue tests one coordinate. Bounds are inclusive and the below-min
// test comes first. The returned error has Row -1. NaN is rejected with a
// ValueError since it compares false against both bounds.
func CheckValue(dim int, v, lower, upper float64) error {
	if math.IsNaN(v) {
		return nanError(dim, -1)
	}
	if v < lower {
		return errors.NewDomainViolationError(dim, errors.BelowMin, -1, v, lower)
	}
	if v > upper {
		return errors.NewDomainViolationError(dim, errors.AboveMax, -1, v, upper)
	}
	return nil
}

// CheckDomain validates every row of X against b. Dimensions are visited in
// order; within dimension j all rows are tested against lower_j before any is
// tested against upper_j. The first violation is returned as a
// *errors.DomainViolationError. A NaN coordinate in dimension j is reported
// as a ValueError before the bound tests of that dimension.
func CheckDomain(X mat.Matrix, b Bounds) error {
	rows, cols := X.Dims()
	if cols != b.Dim() {
		return errors.NewDimensionError("training.CheckDomain", b.Dim(), cols, 1)
	}
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			if math.IsNaN(X.At(i, j)) {
				return nanError(j, i)
			}
		}
		for i := 0; i < rows; i++ {
			if v := X.At(i, j); v < b.lower[j] {
				return errors.NewDomainViolationError(j, errors.BelowMin, i, v, b.lower[j])
			}
		}
		for i := 0; i < rows; i++ {
			if v := X.At(i, j); v > b.upper[j] {
				return errors.NewDomainViolationError(j, errors.AboveMax, i, v, b.upper[j])
			}
		}
	}
	return nil
}

func nanError(dim, row int) error {
	return errors.NewValueError("training.CheckDomain",
		fmt.Sprintf("training pt is NaN for %d (row %d)", dim, row))
}

// CheckStore validates every stored point of every class against b.
func CheckStore(s *Store, b Bounds) error {
	X, _ := s.StackAll()
	if X == nil {
		return nil
	}
	return CheckDomain(X, b)
}
