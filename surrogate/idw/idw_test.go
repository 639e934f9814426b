package idw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/smtgo/core/training"
	"github.com/YuminosukeSato/smtgo/pkg/errors"
	"github.com/YuminosukeSato/smtgo/surrogate"
)

func trained(t *testing.T, p float64) *surrogate.Model {
	t.Helper()
	sm := New()
	require.NoError(t, sm.SetOption(surrogate.OptPrintGlobal, false))
	require.NoError(t, sm.SetOption(OptP, p))
	X := mat.NewDense(2, 1, []float64{0, 1})
	Y := mat.NewDense(2, 2, []float64{0, 10, 1, 20})
	require.NoError(t, sm.AddTrainingPoints(training.Exact, X, Y))
	require.NoError(t, sm.Train())
	return sm
}

func TestIDW_ExactHitReturnsTrainingOutput(t *testing.T) {
	sm := trained(t, 2.5)
	y, err := sm.Predict(mat.NewDense(2, 1, []float64{1, 0}))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 20}, mat.Row(nil, 0, y))
	assert.Equal(t, []float64{0, 10}, mat.Row(nil, 1, y))
}

func TestIDW_Weighting(t *testing.T) {
	sm := trained(t, 2)
	y, err := sm.Predict(mat.NewDense(2, 1, []float64{0.5, 2}))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, y.At(0, 0), 1e-12)
	assert.InDelta(t, 15.0, y.At(0, 1), 1e-12)

	// at x=2: w0 = 1/4, w1 = 1 -> y = (0.25*0 + 1*1)/1.25
	assert.InDelta(t, 0.8, y.At(1, 0), 1e-12)
}

func TestIDW_ManyRowsInParallel(t *testing.T) {
	sm := trained(t, 2.5)
	x := mat.NewDense(500, 1, nil)
	for i := 0; i < 500; i++ {
		x.Set(i, 0, float64(i)/499)
	}
	y, err := sm.Predict(x)
	require.NoError(t, err)
	for i := 0; i < 500; i++ {
		assert.GreaterOrEqual(t, y.At(i, 0), 0.0)
		assert.LessOrEqual(t, y.At(i, 0), 1.0)
	}
	assert.Equal(t, 1.0, y.At(499, 0))
}

func TestIDW_InvalidPower(t *testing.T) {
	sm := New()
	var invalid *errors.InvalidOptionValueError
	assert.True(t, errors.As(sm.SetOption(OptP, -1.0), &invalid))
	assert.True(t, errors.As(sm.SetOption(OptP, "two"), &invalid))
}
