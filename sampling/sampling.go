// Package sampling generates designs of experiments inside a box domain.
//
// すべてのサンプラーは xlimits (nx, 2) を受け取り、単位超立方体上で点を生成してから
// MinMaxScaler の逆変換で定義域に写す。乱数は Seed から作る PCG で再現可能。
package sampling

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/smtgo/core/training"
	"github.com/YuminosukeSato/smtgo/pkg/errors"
	"github.com/YuminosukeSato/smtgo/preprocessing"
)

// Sampler draws n points of a design.
type Sampler interface {
	Sample(n int) (*mat.Dense, error)
}

// LHS criteria.
const (
	CriterionRandom = "random"
	CriterionCenter = "center"
)

// toDomain は単位超立方体上の点 U を xlimits の範囲に写す。
func toDomain(op string, xlimits mat.Matrix, U *mat.Dense) (*mat.Dense, error) {
	b, err := training.NewBounds(xlimits)
	if err != nil {
		return nil, err
	}
	d := b.Dim()
	lower := make([]float64, d)
	upper := make([]float64, d)
	for j := 0; j < d; j++ {
		lower[j], upper[j] = b.Lower(j), b.Upper(j)
	}
	scaler := preprocessing.NewMinMaxScalerDefault()
	if err := scaler.FitBounds(lower, upper); err != nil {
		return nil, errors.Wrap(err, op)
	}
	X, err := scaler.InverseTransform(U)
	if err != nil {
		return nil, err
	}
	// 逆変換の丸めで区間をはみ出すことがあるので [lower, upper] に収める。
	// 幅 0 の次元は下限に固定される。
	n, _ := X.Dims()
	for j := 0; j < d; j++ {
		for i := 0; i < n; i++ {
			X.Set(i, j, math.Min(math.Max(X.At(i, j), lower[j]), upper[j]))
		}
	}
	return X, nil
}

func checkN(op string, n int) error {
	if n < 1 {
		return errors.NewValueError(op, fmt.Sprintf("number of samples must be >= 1, got %d", n))
	}
	return nil
}

func dimOf(op string, xlimits mat.Matrix) (int, error) {
	if xlimits == nil {
		return 0, errors.NewValueError(op, "xlimits must not be nil")
	}
	b, err := training.NewBounds(xlimits)
	if err != nil {
		return 0, err
	}
	return b.Dim(), nil
}

func newSource(seed uint64) *rand.PCG {
	return rand.NewPCG(seed, seed)
}

// LHS はラテン超方格サンプリング。各次元を n 個の等幅区間に分け、
// 各区間からちょうど一点を取る。
type LHS struct {
	XLimits mat.Matrix
	// Criterion は "random"（区間内で一様）か "center"（区間の中点）。空なら random。
	Criterion string
	Seed      uint64
}

// Sample draws an (n, nx) Latin hypercube design.
func (l *LHS) Sample(n int) (*mat.Dense, error) {
	const op = "LHS.Sample"
	if err := checkN(op, n); err != nil {
		return nil, err
	}
	d, err := dimOf(op, l.XLimits)
	if err != nil {
		return nil, err
	}
	criterion := l.Criterion
	if criterion == "" {
		criterion = CriterionRandom
	}
	if criterion != CriterionRandom && criterion != CriterionCenter {
		return nil, errors.NewValueError(op,
			fmt.Sprintf("criterion must be %q or %q, got %q", CriterionRandom, CriterionCenter, criterion))
	}

	src := newSource(l.Seed)
	rng := rand.New(src)
	unif := distuv.Uniform{Min: 0, Max: 1, Src: src}
	U := mat.NewDense(n, d, nil)
	for j := 0; j < d; j++ {
		perm := rng.Perm(n)
		for i, cell := range perm {
			offset := 0.5
			if criterion == CriterionRandom {
				offset = unif.Rand()
			}
			U.Set(i, j, (float64(cell)+offset)/float64(n))
		}
	}
	return toDomain(op, l.XLimits, U)
}

// Random draws points independently and uniformly.
type Random struct {
	XLimits mat.Matrix
	Seed    uint64
}

// Sample draws an (n, nx) uniform random design.
func (r *Random) Sample(n int) (*mat.Dense, error) {
	const op = "Random.Sample"
	if err := checkN(op, n); err != nil {
		return nil, err
	}
	d, err := dimOf(op, r.XLimits)
	if err != nil {
		return nil, err
	}
	unif := distuv.Uniform{Min: 0, Max: 1, Src: newSource(r.Seed)}
	U := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			U.Set(i, j, unif.Rand())
		}
	}
	return toDomain(op, r.XLimits, U)
}

// FullFactorial は各次元 ceil(n^(1/nx)) 水準の格子を作り、先頭 n 点を返す。
type FullFactorial struct {
	XLimits mat.Matrix
}

// Sample returns the first n points of a full factorial grid that includes
// the corners of the domain.
func (f *FullFactorial) Sample(n int) (*mat.Dense, error) {
	const op = "FullFactorial.Sample"
	if err := checkN(op, n); err != nil {
		return nil, err
	}
	d, err := dimOf(op, f.XLimits)
	if err != nil {
		return nil, err
	}
	levels := int(math.Ceil(math.Pow(float64(n), 1/float64(d)) - 1e-9))
	if levels < 1 {
		levels = 1
	}
	U := mat.NewDense(n, d, nil)
	idx := make([]int, d)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			if levels > 1 {
				U.Set(i, j, float64(idx[j])/float64(levels-1))
			}
		}
		for j := d - 1; j >= 0; j-- {
			idx[j]++
			if idx[j] < levels {
				break
			}
			idx[j] = 0
		}
	}
	return toDomain(op, f.XLimits, U)
}
