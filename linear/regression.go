// Package linear は多出力の線形最小二乗ソルバーを提供します。
package linear

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/smtgo/core/parallel"
	"github.com/YuminosukeSato/smtgo/pkg/errors"
)

// LeastSquares は min ||[1, X] W - Y|| を解くソルバー
type LeastSquares struct {
	fitIntercept      bool
	rcond             float64
	parallelThreshold int
}

// NewLeastSquares は切片ありの最小二乗ソルバーを作成する
func NewLeastSquares(opts ...Option) *LeastSquares {
	ls := &LeastSquares{
		fitIntercept:      true,
		rcond:             1e-12,
		parallelThreshold: 1000,
	}
	for _, opt := range opts {
		opt(ls)
	}
	return ls
}

// Solution は学習済みの係数
type Solution struct {
	Coef      *mat.Dense // (nx, ny)
	Intercept []float64  // ny 個、切片なしの場合は 0
	Rank      int        // 計画行列の数値ランク
}

// Fit は X (n, nx) と Y (n, ny) から係数を求める。
// 列フルランクなら QR 分解、そうでなければ SVD による最小ノルム解を使う。
func (ls *LeastSquares) Fit(X, Y mat.Matrix) (*Solution, error) {
	r, c := X.Dims()
	ry, cy := Y.Dims()
	if r == 0 || c == 0 || cy == 0 {
		return nil, errors.NewModelError("LeastSquares.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return nil, errors.NewDimensionError("LeastSquares.Fit", r, ry, 0)
	}
	if err := errors.CheckMatrix("LeastSquares.Fit", X, 0); err != nil {
		return nil, err
	}

	A := ls.design(X)
	_, p := A.Dims()
	W := mat.NewDense(p, cy, nil)
	rank := p

	solved := false
	if r >= p {
		var qr mat.QR
		qr.Factorize(A)
		if qr.Cond() < 1/ls.rcond {
			if err := qr.SolveTo(W, false, Y); err == nil {
				solved = true
			}
		}
	}
	if !solved {
		var svd mat.SVD
		if ok := svd.Factorize(A, mat.SVDThin); !ok {
			return nil, errors.NewModelError("LeastSquares.Fit", "SVD did not converge", errors.ErrSingularMatrix)
		}
		rank = svd.Rank(ls.rcond)
		if rank == 0 {
			return nil, errors.NewModelError("LeastSquares.Fit", "design matrix has rank 0", errors.ErrSingularMatrix)
		}
		svd.SolveTo(W, Y, rank)
	}
	if err := errors.CheckMatrix("LeastSquares.Fit", W, 0); err != nil {
		return nil, err
	}

	sol := &Solution{Intercept: make([]float64, cy), Rank: rank}
	if ls.fitIntercept {
		copy(sol.Intercept, mat.Row(nil, 0, W))
		sol.Coef = mat.DenseCopyOf(W.Slice(1, p, 0, cy))
	} else {
		sol.Coef = W
	}
	return sol, nil
}

// design は切片項の列 1 を先頭に付けた計画行列を作る
func (ls *LeastSquares) design(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	if !ls.fitIntercept {
		return mat.DenseCopyOf(X)
	}
	A := mat.NewDense(r, c+1, nil)
	parallel.ParallelizeRows(r, ls.parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			A.Set(i, 0, 1.0)
			for j := 0; j < c; j++ {
				A.Set(i, j+1, X.At(i, j))
			}
		}
	})
	return A
}

// Predict は y = X Coef + Intercept を返す
func (s *Solution) Predict(X mat.Matrix) (*mat.Dense, error) {
	nx, ny := s.Coef.Dims()
	r, c := X.Dims()
	if c != nx {
		return nil, errors.NewDimensionError("Solution.Predict", nx, c, 1)
	}
	out := mat.NewDense(r, ny, nil)
	out.Mul(X, s.Coef)
	for i := 0; i < r; i++ {
		for j := 0; j < ny; j++ {
			out.Set(i, j, out.At(i, j)+s.Intercept[j])
		}
	}
	return out, nil
}

// NumQuadraticTerms は d 次元の2次多項式の項数 (d+1)(d+2)/2 を返す
func NumQuadraticTerms(d int) int {
	return (d + 1) * (d + 2) / 2
}

// QuadraticFeatures は各行を [1, x_i, x_i x_j (i <= j)] に展開する
func QuadraticFeatures(X mat.Matrix) *mat.Dense {
	r, d := X.Dims()
	out := mat.NewDense(r, NumQuadraticTerms(d), nil)
	parallel.ParallelizeRows(r, 0, func(start, end int) {
		row := make([]float64, d)
		for i := start; i < end; i++ {
			for j := range row {
				row[j] = X.At(i, j)
			}
			k := 0
			out.Set(i, k, 1)
			k++
			for j := 0; j < d; j++ {
				out.Set(i, k, row[j])
				k++
			}
			for a := 0; a < d; a++ {
				for b := a; b < d; b++ {
					out.Set(i, k, row[a]*row[b])
					k++
				}
			}
		}
	})
	return out
}

// RMSE は Solution の学習データに対する二乗平均平方根誤差
func (s *Solution) RMSE(X, Y mat.Matrix) (float64, error) {
	pred, err := s.Predict(X)
	if err != nil {
		return 0, err
	}
	r, c := pred.Dims()
	var sum float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			d := pred.At(i, j) - Y.At(i, j)
			sum += d * d
		}
	}
	return math.Sqrt(sum / float64(r*c)), nil
}
