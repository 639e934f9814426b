package linear

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/smtgo/pkg/errors"
)

// createData は y_k = 1 + k + Σ (j+1)·0.5·x_j の多出力データを生成する
func createData(rows, cols, outputs int) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(42, 42))
	X := mat.NewDense(rows, cols, nil)
	Y := mat.NewDense(rows, outputs, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			X.Set(i, j, rng.Float64()*2-1)
		}
		for k := 0; k < outputs; k++ {
			sum := 1.0 + float64(k)
			for j := 0; j < cols; j++ {
				sum += X.At(i, j) * float64(j+1) * 0.5 * float64(k+1)
			}
			Y.Set(i, k, sum)
		}
	}
	return X, Y
}

func TestLeastSquares_RecoversCoefficients(t *testing.T) {
	X, Y := createData(200, 3, 2)
	sol, err := NewLeastSquares().Fit(X, Y)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, sol.Intercept[0], 1e-9)
	assert.InDelta(t, 2.0, sol.Intercept[1], 1e-9)
	for j := 0; j < 3; j++ {
		assert.InDelta(t, float64(j+1)*0.5, sol.Coef.At(j, 0), 1e-9)
		assert.InDelta(t, float64(j+1), sol.Coef.At(j, 1), 1e-9)
	}
	assert.Equal(t, 4, sol.Rank)

	rmse, err := sol.RMSE(X, Y)
	require.NoError(t, err)
	assert.Less(t, rmse, 1e-9)
}

func TestLeastSquares_ParallelDesignMatchesSequential(t *testing.T) {
	X, Y := createData(3000, 4, 1)
	seq, err := NewLeastSquares(WithParallelThreshold(1 << 20)).Fit(X, Y)
	require.NoError(t, err)
	par, err := NewLeastSquares(WithParallelThreshold(10)).Fit(X, Y)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(seq.Coef, par.Coef, 1e-10))
}

func TestLeastSquares_RankDeficientFallsBackToSVD(t *testing.T) {
	// 2列目は1列目の2倍
	X := mat.NewDense(4, 2, []float64{1, 2, 2, 4, 3, 6, 4, 8})
	Y := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	sol, err := NewLeastSquares(WithFitIntercept(false), WithRCond(1e-10)).Fit(X, Y)
	require.NoError(t, err)
	assert.Equal(t, 1, sol.Rank)

	pred, err := sol.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(pred, Y, 1e-9))
}

func TestLeastSquares_Underdetermined(t *testing.T) {
	X := mat.NewDense(1, 3, []float64{1, 2, 3})
	Y := mat.NewDense(1, 1, []float64{6})
	sol, err := NewLeastSquares().Fit(X, Y)
	require.NoError(t, err)
	pred, err := sol.Predict(X)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, pred.At(0, 0), 1e-9)
}

func TestLeastSquares_Errors(t *testing.T) {
	var dimErr *errors.DimensionError
	_, err := NewLeastSquares().Fit(mat.NewDense(3, 1, nil), mat.NewDense(2, 1, nil))
	assert.True(t, errors.As(err, &dimErr))

	bad := mat.NewDense(2, 1, []float64{1, 0})
	bad.Set(1, 0, math.NaN())
	_, err = NewLeastSquares().Fit(bad, mat.NewDense(2, 1, nil))
	var inst *errors.NumericalInstabilityError
	assert.True(t, errors.As(err, &inst))

	X, Y := createData(10, 2, 1)
	sol, err := NewLeastSquares().Fit(X, Y)
	require.NoError(t, err)
	_, err = sol.Predict(mat.NewDense(1, 3, nil))
	assert.True(t, errors.As(err, &dimErr))
}

func TestQuadraticFeatures(t *testing.T) {
	X := mat.NewDense(1, 2, []float64{2, 3})
	F := QuadraticFeatures(X)
	_, c := F.Dims()
	assert.Equal(t, NumQuadraticTerms(2), c)
	assert.Equal(t, []float64{1, 2, 3, 4, 6, 9}, mat.Row(nil, 0, F))
	assert.Equal(t, 10, NumQuadraticTerms(3))
}

func BenchmarkLeastSquaresFit(b *testing.B) {
	sizes := []struct {
		name string
		rows int
		cols int
	}{
		{"Small_100x10", 100, 10},
		{"Medium_2000x10", 2000, 10},
		{"Large_10000x20", 10000, 20},
	}
	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			X, Y := createData(size.rows, size.cols, 1)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := NewLeastSquares().Fit(X, Y); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
