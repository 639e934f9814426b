package sampling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/smtgo/core/training"
	"github.com/YuminosukeSato/smtgo/pkg/errors"
)

var xlimits = mat.NewDense(3, 2, []float64{-1, 1, 0, 10, 5, 6})

func assertInside(t *testing.T, X *mat.Dense) {
	t.Helper()
	n, d := X.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			assert.GreaterOrEqual(t, X.At(i, j), xlimits.At(j, 0))
			assert.LessOrEqual(t, X.At(i, j), xlimits.At(j, 1))
		}
	}
}

func TestLHS_OnePointPerStratum(t *testing.T) {
	for _, criterion := range []string{CriterionRandom, CriterionCenter} {
		t.Run(criterion, func(t *testing.T) {
			s := &LHS{XLimits: xlimits, Criterion: criterion, Seed: 42}
			X, err := s.Sample(50)
			require.NoError(t, err)
			r, c := X.Dims()
			assert.Equal(t, 50, r)
			assert.Equal(t, 3, c)
			assertInside(t, X)

			for j := 0; j < 3; j++ {
				lo, w := xlimits.At(j, 0), xlimits.At(j, 1)-xlimits.At(j, 0)
				seen := make([]bool, 50)
				for i := 0; i < 50; i++ {
					cell := int((X.At(i, j) - lo) / w * 50)
					if cell == 50 {
						cell = 49
					}
					assert.False(t, seen[cell], "stratum %d of dim %d hit twice", cell, j)
					seen[cell] = true
				}
			}
		})
	}
}

func TestLHS_CenterUsesMidpoints(t *testing.T) {
	s := &LHS{XLimits: mat.NewDense(1, 2, []float64{0, 1}), Criterion: CriterionCenter}
	X, err := s.Sample(4)
	require.NoError(t, err)
	got := mat.Col(nil, 0, X)
	assert.ElementsMatch(t, []float64{0.125, 0.375, 0.625, 0.875}, got)
}

func TestLHS_SeedIsReproducible(t *testing.T) {
	a, err := (&LHS{XLimits: xlimits, Seed: 7}).Sample(20)
	require.NoError(t, err)
	b, err := (&LHS{XLimits: xlimits, Seed: 7}).Sample(20)
	require.NoError(t, err)
	c, err := (&LHS{XLimits: xlimits, Seed: 8}).Sample(20)
	require.NoError(t, err)
	assert.True(t, mat.Equal(a, b))
	assert.False(t, mat.Equal(a, c))
}

func TestLHS_Errors(t *testing.T) {
	_, err := (&LHS{XLimits: xlimits, Criterion: "maximin"}).Sample(10)
	var valErr *errors.ValueError
	assert.True(t, errors.As(err, &valErr))

	_, err = (&LHS{XLimits: xlimits}).Sample(0)
	assert.Error(t, err)

	_, err = (&LHS{}).Sample(3)
	assert.Error(t, err)

	_, err = (&LHS{XLimits: mat.NewDense(1, 2, []float64{1, 0})}).Sample(3)
	assert.Error(t, err)
}

func TestRandom(t *testing.T) {
	X, err := (&Random{XLimits: xlimits, Seed: 1}).Sample(100)
	require.NoError(t, err)
	assertInside(t, X)
	Y, err := (&Random{XLimits: xlimits, Seed: 1}).Sample(100)
	require.NoError(t, err)
	assert.True(t, mat.Equal(X, Y))
}

func TestFullFactorial(t *testing.T) {
	s := &FullFactorial{XLimits: mat.NewDense(2, 2, []float64{0, 1, -2, 2})}
	X, err := s.Sample(9)
	require.NoError(t, err)
	want := mat.NewDense(9, 2, []float64{
		0, -2, 0, 0, 0, 2,
		0.5, -2, 0.5, 0, 0.5, 2,
		1, -2, 1, 0, 1, 2,
	})
	assert.True(t, mat.EqualApprox(want, X, 1e-12))

	X, err = s.Sample(5)
	require.NoError(t, err)
	r, _ := X.Dims()
	assert.Equal(t, 5, r)
}

func TestSamplers_StayInsideInexactBounds(t *testing.T) {
	limits := mat.NewDense(3, 2, []float64{-1, 0.3, 0.1, 0.7, -0.7, 0.2})
	bounds, err := training.NewBounds(limits)
	require.NoError(t, err)

	samplers := map[string]Sampler{
		"full_factorial": &FullFactorial{XLimits: limits},
		"lhs_center":     &LHS{XLimits: limits, Criterion: CriterionCenter, Seed: 3},
		"lhs_random":     &LHS{XLimits: limits, Seed: 3},
		"random":         &Random{XLimits: limits, Seed: 3},
	}
	for name, s := range samplers {
		t.Run(name, func(t *testing.T) {
			X, err := s.Sample(64)
			require.NoError(t, err)
			n, _ := X.Dims()
			for i := 0; i < n; i++ {
				assert.True(t, bounds.Contains(X.RawRowView(i)), "row %d = %v", i, X.RawRowView(i))
			}
			require.NoError(t, training.CheckDomain(X, bounds))
		})
	}

	// 格子の角は上限そのものになる
	X, err := (&FullFactorial{XLimits: mat.NewDense(1, 2, []float64{-1, 0.3})}).Sample(2)
	require.NoError(t, err)
	assert.Equal(t, -1.0, X.At(0, 0))
	assert.Equal(t, 0.3, X.At(1, 0))
}

func TestSamplersImplementInterface(t *testing.T) {
	var _ Sampler = &LHS{}
	var _ Sampler = &Random{}
	var _ Sampler = &FullFactorial{}
}
