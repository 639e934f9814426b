package rmt

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/smtgo/core/parallel"
	"github.com/YuminosukeSato/smtgo/core/training"
	"github.com/YuminosukeSato/smtgo/pkg/errors"
	"github.com/YuminosukeSato/smtgo/pkg/log"
	"github.com/YuminosukeSato/smtgo/preprocessing"
)

// maxJitterTries は Cholesky 失敗時に対角に加える摂動の試行回数。
const maxJitterTries = 8

// Config は正則化付き最小二乗の設定。
type Config struct {
	// Op はエラーや警告に付く操作名（"RMTS.Train" など）。
	Op string
	// Smoothness は次元ごとのエネルギー項の重み。nil なら全て 1。
	Smoothness []float64
	// RegDV はエネルギー項全体の重み。
	RegDV float64
	// RegCons は係数に対する Tikhonov 正則化の重み。
	RegCons float64
	// MinEnergy が false のときエネルギー項を使わない。
	MinEnergy bool
	// Threshold is the row count above which prediction runs in parallel.
	Threshold int
}

// Predictor evaluates a fitted tensor-product model.
type Predictor struct {
	tensor *Tensor
	scaler *preprocessing.MinMaxScaler
	coef   *mat.Dense
	thresh int
}

// Coefficients returns the fitted coefficient matrix (ncoef, ny).
func (p *Predictor) Coefficients() *mat.Dense { return mat.DenseCopyOf(p.coef) }

// Solve fits coefficients of the tensor basis so that the model matches
// (X, Y) in the least-squares sense plus the regularisation terms.
func Solve(tensor *Tensor, bounds *training.Bounds, X, Y *mat.Dense, cfg Config, logger log.Logger) (*Predictor, error) {
	nt, nx := X.Dims()
	_, ny := Y.Dims()
	shape := tensor.Shape()
	if len(shape) != nx || bounds.Dim() != nx {
		return nil, errors.NewDimensionError(cfg.Op, len(shape), nx, 1)
	}
	smooth := cfg.Smoothness
	if smooth == nil {
		smooth = make([]float64, nx)
		for k := range smooth {
			smooth[k] = 1
		}
	}
	if len(smooth) != nx {
		return nil, errors.NewValueError(cfg.Op,
			fmt.Sprintf("smoothness must have %d entries, got %d", nx, len(smooth)))
	}

	scaler := preprocessing.NewMinMaxScalerDefault()
	lower := make([]float64, nx)
	upper := make([]float64, nx)
	for j := 0; j < nx; j++ {
		lower[j], upper[j] = bounds.Lower(j), bounds.Upper(j)
	}
	if err := scaler.FitBounds(lower, upper); err != nil {
		return nil, err
	}
	U, err := scaler.Transform(X)
	if err != nil {
		return nil, err
	}

	nc := tensor.NumCoeffs()
	logger.Debug("Assembling regularised system",
		log.CoefficientsKey, nc,
		log.SamplesKey, nt,
	)

	H := mat.NewSymDense(nc, nil)
	rhs := mat.NewDense(nc, ny, nil)
	u := make([]float64, nx)
	for i := 0; i < nt; i++ {
		mat.Row(u, i, U)
		idx, val := tensor.Row(u)
		for a := range idx {
			for b := a; b < len(idx); b++ {
				H.SetSym(idx[a], idx[b], H.At(idx[a], idx[b])+val[a]*val[b])
			}
			for c := 0; c < ny; c++ {
				rhs.Set(idx[a], c, rhs.At(idx[a], c)+val[a]*Y.At(i, c))
			}
		}
	}

	if cfg.MinEnergy && cfg.RegDV > 0 {
		addEnergy(H, shape, tensor.strides, smooth, cfg.RegDV)
	}
	for i := 0; i < nc; i++ {
		H.SetSym(i, i, H.At(i, i)+cfg.RegCons)
	}

	coef, err := solveSPD(cfg.Op, H, rhs)
	if err != nil {
		return nil, err
	}
	if err := errors.CheckMatrix(cfg.Op, coef, 0); err != nil {
		return nil, err
	}
	return &Predictor{tensor: tensor, scaler: scaler, coef: coef, thresh: cfg.Threshold}, nil
}

// addEnergy は係数格子上の二階差分の二乗和を H に加える。
// 次元 k の格子間隔 h_k に対して差分を h_k^2 で割り、セル体積で重み付ける。
func addEnergy(H *mat.SymDense, shape, strides []int, smooth []float64, regDV float64) {
	nc, _ := H.Dims()
	vol := 1.0
	for _, n := range shape {
		vol /= float64(n - 1)
	}
	stencil := [3]float64{1, -2, 1}
	for k, n := range shape {
		if n < 3 || smooth[k] == 0 {
			continue
		}
		h := 1 / float64(n-1)
		w := regDV * smooth[k] * vol / math.Pow(h, 4)
		for flat := 0; flat < nc; flat++ {
			ik := (flat / strides[k]) % n
			if ik == 0 || ik == n-1 {
				continue
			}
			pts := [3]int{flat - strides[k], flat, flat + strides[k]}
			for a := 0; a < 3; a++ {
				for b := a; b < 3; b++ {
					// SetSym は (i,j) と (j,i) を同時に書く
					H.SetSym(pts[a], pts[b], H.At(pts[a], pts[b])+w*stencil[a]*stencil[b])
				}
			}
		}
	}
}

// solveSPD は Cholesky で H X = B を解く。失敗したら対角に摂動を足して再試行し、
// IllConditionedWarning を出す。
func solveSPD(op string, H *mat.SymDense, B *mat.Dense) (*mat.Dense, error) {
	n, _ := H.Dims()
	var chol mat.Cholesky
	if chol.Factorize(H) {
		var x mat.Dense
		if err := chol.SolveTo(&x, B); err == nil {
			return &x, nil
		}
	}

	var trace float64
	for i := 0; i < n; i++ {
		trace += H.At(i, i)
	}
	jitter := 1e-12 * math.Max(trace/float64(n), 1)
	work := mat.NewSymDense(n, nil)
	for try := 0; try < maxJitterTries; try++ {
		work.CopySym(H)
		for i := 0; i < n; i++ {
			work.SetSym(i, i, work.At(i, i)+jitter)
		}
		if chol.Factorize(work) {
			var x mat.Dense
			if err := chol.SolveTo(&x, B); err == nil {
				errors.Warn(errors.NewIllConditionedWarning(op, jitter))
				return &x, nil
			}
		}
		jitter *= 100
	}
	return nil, errors.NewModelError(op, "regularised system is not positive definite", errors.ErrSingularMatrix)
}

// Predict evaluates the model at x, extrapolating linearly outside xlimits.
func (p *Predictor) Predict(x *mat.Dense) (*mat.Dense, error) {
	U, err := p.scaler.Transform(x)
	if err != nil {
		return nil, err
	}
	m, nx := U.Dims()
	_, ny := p.coef.Dims()
	out := mat.NewDense(m, ny, nil)
	parallel.ParallelizeRows(m, p.thresh, func(start, end int) {
		u := make([]float64, nx)
		for i := start; i < end; i++ {
			mat.Row(u, i, U)
			idx, val := p.tensor.Row(u)
			for c := 0; c < ny; c++ {
				var s float64
				for a, j := range idx {
					s += val[a] * p.coef.At(j, c)
				}
				out.Set(i, c, s)
			}
		}
	})
	return out, nil
}
