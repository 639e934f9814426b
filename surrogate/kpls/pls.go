package kpls

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	nipalsMaxIter = 500
	nipalsTol     = 1e-10
)

// plsRotations returns the (d, ncomp) x-rotations W (PᵀW)⁻¹ of a PLS2
// regression of Y on X computed with NIPALS. X and Y are expected to be
// standardised.
func plsRotations(X, Y *mat.Dense, ncomp int) *mat.Dense {
	n, d := X.Dims()
	_, ny := Y.Dims()

	Xk := mat.DenseCopyOf(X)
	Yk := mat.DenseCopyOf(Y)
	W := mat.NewDense(d, ncomp, nil)
	P := mat.NewDense(d, ncomp, nil)

	for l := 0; l < ncomp; l++ {
		u := mat.NewVecDense(n, mat.Col(nil, maxVarianceCol(Yk), Yk))
		w := mat.NewVecDense(d, nil)
		t := mat.NewVecDense(n, nil)
		c := mat.NewVecDense(ny, nil)
		tOld := mat.NewVecDense(n, nil)

		for it := 0; it < nipalsMaxIter; it++ {
			w.MulVec(Xk.T(), u)
			nw := mat.Norm(w, 2)
			if nw < 1e-14 {
				// X carries no signal toward Y; fall back to a coordinate axis.
				w.Zero()
				w.SetVec(l%d, 1)
			} else {
				w.ScaleVec(1/nw, w)
			}
			t.MulVec(Xk, w)
			tt := mat.Dot(t, t)
			if tt == 0 {
				break
			}
			c.MulVec(Yk.T(), t)
			c.ScaleVec(1/tt, c)
			if ny == 1 || nw < 1e-14 {
				break
			}
			u.MulVec(Yk, c)
			u.ScaleVec(1/mat.Dot(c, c), u)

			var diff mat.VecDense
			diff.SubVec(t, tOld)
			if it > 0 && mat.Norm(&diff, 2) < nipalsTol*math.Max(1, mat.Norm(t, 2)) {
				break
			}
			tOld.CopyVec(t)
		}

		tt := mat.Dot(t, t)
		p := mat.NewVecDense(d, nil)
		if tt > 0 {
			p.MulVec(Xk.T(), t)
			p.ScaleVec(1/tt, p)
		}

		var tp, tc mat.Dense
		tp.Outer(1, t, p)
		Xk.Sub(Xk, &tp)
		tc.Outer(1, t, c)
		Yk.Sub(Yk, &tc)

		W.SetCol(l, w.RawVector().Data)
		P.SetCol(l, p.RawVector().Data)
	}

	var ptw, inv mat.Dense
	ptw.Mul(P.T(), W)
	if err := inv.Inverse(&ptw); err != nil {
		return W
	}
	var rot mat.Dense
	rot.Mul(W, &inv)
	return &rot
}

func maxVarianceCol(Y *mat.Dense) int {
	n, ny := Y.Dims()
	best, bestVar := 0, -1.0
	for j := 0; j < ny; j++ {
		var s, s2 float64
		for i := 0; i < n; i++ {
			v := Y.At(i, j)
			s += v
			s2 += v * v
		}
		if v := s2/float64(n) - (s/float64(n))*(s/float64(n)); v > bestVar {
			best, bestVar = j, v
		}
	}
	return best
}
