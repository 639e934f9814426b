package kpls

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/smtgo/core/training"
	"github.com/YuminosukeSato/smtgo/pkg/errors"
	"github.com/YuminosukeSato/smtgo/surrogate"
)

func quiet(t *testing.T) *surrogate.Model {
	t.Helper()
	sm := New()
	require.NoError(t, sm.SetOption(surrogate.OptPrintGlobal, false))
	return sm
}

func sineData(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 1, nil)
	Y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)
		X.Set(i, 0, x)
		Y.Set(i, 0, math.Sin(2*math.Pi*x))
	}
	return X, Y
}

func TestKPLS_InterpolatesTrainingPoints(t *testing.T) {
	sm := quiet(t)
	require.NoError(t, sm.SetOption(OptTheta0, []float64{1.0}))
	X, Y := sineData(10)
	require.NoError(t, sm.AddTrainingPoints(training.Exact, X, Y))
	require.NoError(t, sm.Train())

	y, err := sm.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		assert.InDelta(t, Y.At(i, 0), y.At(i, 0), 1e-4)
	}

	// between samples the sine is followed reasonably
	y, err = sm.Predict(mat.NewDense(1, 1, []float64{0.25}))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, y.At(0, 0), 0.1)
}

func TestKPLS_MultiDimensionalAndMultiOutput(t *testing.T) {
	sm := quiet(t)
	require.NoError(t, sm.SetOption(OptNComp, 2))
	require.NoError(t, sm.SetOption(OptTheta0, []float64{0.5, 0.5}))
	require.NoError(t, sm.SetOption(OptPoly, PolyLinear))
	require.NoError(t, sm.SetOption(OptCorr, CorrAbsExp))

	var xs []float64
	for _, a := range []float64{-1, -0.5, 0, 0.5, 1} {
		for _, b := range []float64{-1, 0, 1} {
			xs = append(xs, a, b, a*b)
		}
	}
	X := mat.NewDense(15, 3, xs)
	Y := mat.NewDense(15, 2, nil)
	for i := 0; i < 15; i++ {
		Y.Set(i, 0, X.At(i, 0)+2*X.At(i, 1))
		Y.Set(i, 1, X.At(i, 0)*X.At(i, 0))
	}
	require.NoError(t, sm.AddTrainingPoints(training.Exact, X, Y))
	require.NoError(t, sm.Train())

	y, err := sm.Predict(mat.NewDense(2, 3, []float64{0.25, 0.5, 0.125, 3, 3, 9}))
	require.NoError(t, err)
	r, c := y.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.False(t, math.IsNaN(y.At(1, 0)))
}

func TestKPLS_WithoutOptimisationUsesTheta0(t *testing.T) {
	sm := quiet(t)
	require.NoError(t, sm.SetOption(OptOptimize, false))
	require.NoError(t, sm.SetOption(OptTheta0, []float64{2.0}))
	X, Y := sineData(6)
	require.NoError(t, sm.AddTrainingPoints(training.Exact, X, Y))
	require.NoError(t, sm.Train())
	assert.True(t, sm.IsTrained())
}

func TestKPLS_ConvergenceWarning(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	sm := quiet(t)
	require.NoError(t, sm.SetOption(OptMaxIter, 1))
	require.NoError(t, sm.SetOption(OptTheta0, []float64{1.0}))
	X, Y := sineData(8)
	require.NoError(t, sm.AddTrainingPoints(training.Exact, X, Y))
	require.NoError(t, sm.Train())

	require.NotEmpty(t, warnings)
	var cw *errors.ConvergenceWarning
	assert.True(t, errors.As(warnings[0], &cw))
	assert.Equal(t, Name, cw.Algorithm)
}

func TestKPLS_OptionErrors(t *testing.T) {
	sm := quiet(t)
	var invalid *errors.InvalidOptionValueError
	assert.True(t, errors.As(sm.SetOption(OptPoly, "quadratic"), &invalid))
	assert.True(t, errors.As(sm.SetOption(OptCorr, "matern52"), &invalid))
	assert.True(t, errors.As(sm.SetOption(OptNComp, 0), &invalid))
	assert.True(t, errors.As(sm.SetOption(OptTheta0, []float64{-1}), &invalid))
	assert.True(t, errors.As(sm.SetOption(OptNugget, 0.0), &invalid))

	var unknown *errors.UnknownOptionError
	assert.True(t, errors.As(sm.SetOption("xlimits", mat.NewDense(1, 2, []float64{0, 1})), &unknown))
}

func TestKPLS_TrainErrors(t *testing.T) {
	X, Y := sineData(5)
	var ve *errors.ValueError

	sm := quiet(t)
	require.NoError(t, sm.SetOption(OptNComp, 2))
	require.NoError(t, sm.AddTrainingPoints(training.Exact, X, Y))
	assert.True(t, errors.As(sm.Train(), &ve))

	sm = quiet(t)
	require.NoError(t, sm.SetOption(OptTheta0, []float64{0.1, 0.2}))
	require.NoError(t, sm.AddTrainingPoints(training.Exact, X, Y))
	assert.True(t, errors.As(sm.Train(), &ve))
}

func TestPLSRotations_SingleOutputAlignsWithGradient(t *testing.T) {
	// y depends only on the first column
	X := mat.NewDense(4, 2, []float64{-1, 1, -0.5, -1, 0.5, -1, 1, 1})
	Y := mat.NewDense(4, 1, []float64{-1, -0.5, 0.5, 1})
	rot := plsRotations(X, Y, 1)
	assert.InDelta(t, 1.0, math.Abs(rot.At(0, 0)), 1e-9)
	assert.InDelta(t, 0.0, rot.At(1, 0), 1e-9)
}

func TestFromLog_ClipsToThetaRange(t *testing.T) {
	theta := fromLog([]float64{-10, 0, 3})
	assert.InDelta(t, 1e-6, theta[0], 1e-18)
	assert.InDelta(t, 1.0, theta[1], 1e-12)
	assert.InDelta(t, 20.0, theta[2], 1e-9)
}
