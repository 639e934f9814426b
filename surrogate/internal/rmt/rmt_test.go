package rmt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/smtgo/core/training"
	"github.com/YuminosukeSato/smtgo/pkg/errors"
	"github.com/YuminosukeSato/smtgo/pkg/log"
)

func sum(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}

func TestLinear_PartitionOfUnityAndExtrapolation(t *testing.T) {
	l := NewLinear(4)
	assert.Equal(t, 5, l.Size())
	for _, u := range []float64{0, 0.1, 0.25, 0.6, 1} {
		_, val := l.Eval(u)
		assert.InDelta(t, 1.0, sum(val), 1e-12)
	}

	idx, val := l.Eval(1.5)
	assert.Equal(t, []int{3, 4}, idx)
	// t = 1.5*4 - 3 = 3
	assert.InDelta(t, -2.0, val[0], 1e-12)
	assert.InDelta(t, 3.0, val[1], 1e-12)

	idx, _ = l.Eval(-0.2)
	assert.Equal(t, []int{0, 1}, idx)
}

func TestBSpline_Knots(t *testing.T) {
	b := NewBSpline(4, 10)
	knots := b.Knots()
	require.Len(t, knots, 14)
	assert.Equal(t, []float64{0, 0, 0, 0}, knots[:4])
	assert.Equal(t, []float64{1, 1, 1, 1}, knots[10:])
	assert.InDelta(t, 1.0/7, knots[4], 1e-12)
}

func TestBSpline_PartitionOfUnity(t *testing.T) {
	for _, order := range []int{2, 3, 4} {
		b := NewBSpline(order, 7)
		for _, u := range []float64{0, 0.05, 0.3, 0.5, 0.77, 1} {
			idx, val := b.Eval(u)
			require.Len(t, idx, order)
			assert.InDelta(t, 1.0, sum(val), 1e-12, "order %d u %g", order, u)
			for _, i := range idx {
				assert.GreaterOrEqual(t, i, 0)
				assert.Less(t, i, 7)
			}
		}
	}
}

func TestBSpline_DerivativeMatchesFiniteDifference(t *testing.T) {
	b := NewBSpline(4, 8)
	const h = 1e-6
	for _, u := range []float64{0.13, 0.42, 0.9} {
		s := b.span(u)
		_, der := b.basis(s, u)
		lo, _ := b.basis(s, u-h)
		hi, _ := b.basis(s, u+h)
		for j := range der {
			assert.InDelta(t, (hi[j]-lo[j])/(2*h), der[j], 1e-5)
		}
	}
}

func TestBSpline_LinearExtrapolation(t *testing.T) {
	b := NewBSpline(3, 6)
	coef := []float64{0.3, -1, 2, 0.5, 1.5, 4}
	eval := func(u float64) float64 {
		idx, val := b.Eval(u)
		var s float64
		for a, i := range idx {
			s += val[a] * coef[i]
		}
		return s
	}
	f1, f2, f3 := eval(1.1), eval(1.2), eval(1.3)
	assert.InDelta(t, f2-f1, f3-f2, 1e-12)
	// continuity at the boundary
	assert.InDelta(t, eval(1), eval(1+1e-9), 1e-6)
}

func TestTensor_Row(t *testing.T) {
	tensor := NewTensor(NewLinear(2), NewLinear(3))
	assert.Equal(t, 12, tensor.NumCoeffs())
	assert.Equal(t, []int{3, 4}, tensor.Shape())

	idx, val := tensor.Row([]float64{0.5, 0})
	require.Len(t, idx, 4)
	assert.InDelta(t, 1.0, sum(val), 1e-12)
	// node (1, 0) has flat index 1*4 + 0
	for a, i := range idx {
		if i == 4 {
			assert.InDelta(t, 1.0, val[a], 1e-12)
		}
	}
}

func unitSquare(t *testing.T) *training.Bounds {
	t.Helper()
	b, err := training.NewBounds(mat.NewDense(2, 2, []float64{-1, 1, 0, 2}))
	require.NoError(t, err)
	return &b
}

func TestSolve_ReproducesLinearFunction(t *testing.T) {
	bounds := unitSquare(t)
	f := func(a, b float64) float64 { return 1 + 2*a - b }

	X := mat.NewDense(25, 2, nil)
	Y := mat.NewDense(25, 1, nil)
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			r := i*5 + j
			a, b := -1+0.5*float64(i), 0.5*float64(j)
			X.Set(r, 0, a)
			X.Set(r, 1, b)
			Y.Set(r, 0, f(a, b))
		}
	}

	cfg := Config{Op: "test", RegDV: 1e-4, RegCons: 1e-10, MinEnergy: true}
	p, err := Solve(NewTensor(NewLinear(4), NewLinear(4)), bounds, X, Y, cfg, log.Nop())
	require.NoError(t, err)

	x := mat.NewDense(3, 2, []float64{0.1, 0.7, 2, 3, -2, -1})
	y, err := p.Predict(x)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, f(x.At(i, 0), x.At(i, 1)), y.At(i, 0), 1e-6)
	}
	assert.Equal(t, 25, p.Coefficients().RawMatrix().Rows)
}

func TestSolve_SmoothFunctionWithBSplines(t *testing.T) {
	bounds := unitSquare(t)
	f := func(a, b float64) float64 { return math.Sin(a) * b * b }

	n := 15
	X := mat.NewDense(n*n, 2, nil)
	Y := mat.NewDense(n*n, 1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			r := i*n + j
			a, b := -1+2*float64(i)/float64(n-1), 2*float64(j)/float64(n-1)
			X.Set(r, 0, a)
			X.Set(r, 1, b)
			Y.Set(r, 0, f(a, b))
		}
	}
	cfg := Config{Op: "test", RegDV: 1e-8, RegCons: 1e-10, MinEnergy: true}
	p, err := Solve(NewTensor(NewBSpline(4, 8), NewBSpline(4, 8)), bounds, X, Y, cfg, log.Nop())
	require.NoError(t, err)

	y, err := p.Predict(mat.NewDense(1, 2, []float64{0.3, 1.1}))
	require.NoError(t, err)
	assert.InDelta(t, f(0.3, 1.1), y.At(0, 0), 1e-2)
}

func TestSolve_SmoothnessLength(t *testing.T) {
	bounds := unitSquare(t)
	X := mat.NewDense(1, 2, []float64{0, 1})
	Y := mat.NewDense(1, 1, []float64{1})
	cfg := Config{Op: "test", Smoothness: []float64{1}, RegCons: 1e-10}
	_, err := Solve(NewTensor(NewLinear(2), NewLinear(2)), bounds, X, Y, cfg, log.Nop())
	var valErr *errors.ValueError
	assert.True(t, errors.As(err, &valErr))
}

func TestSolveSPD_JitterWarning(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	H := mat.NewSymDense(2, []float64{1, 1, 1, 1})
	B := mat.NewDense(2, 1, []float64{2, 2})
	x, err := solveSPD("test", H, B)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	var ill *errors.IllConditionedWarning
	assert.True(t, errors.As(warnings[0], &ill))
	assert.Equal(t, "test", ill.Op)
	assert.InDelta(t, 2.0, x.At(0, 0)+x.At(1, 0), 1e-3)
}
