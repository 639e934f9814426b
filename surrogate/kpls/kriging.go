package kpls

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/smtgo/core/parallel"
	"github.com/YuminosukeSato/smtgo/preprocessing"
)

// infeasible is the objective of hyperparameters whose correlation matrix
// cannot be factorised.
const infeasible = 1e10

type kriging struct {
	X, Y   *mat.Dense // standardised training data
	F      *mat.Dense // regression matrix
	rot    *mat.Dense // (nx, ncomp) PLS rotations
	corr   string
	nugget float64
	pairs  [][]float64 // per pair i<j, transformed coordinate differences
}

type fitState struct {
	beta      *mat.Dense
	gamma     *mat.Dense
	objective float64
}

func kernelTerm(corr string, d float64) float64 {
	if corr == CorrAbsExp {
		return math.Abs(d)
	}
	return d * d
}

func pairDistances(X *mat.Dense, corr string) [][]float64 {
	n, d := X.Dims()
	pairs := make([][]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			p := make([]float64, d)
			for k := 0; k < d; k++ {
				p[k] = kernelTerm(corr, X.At(i, k)-X.At(j, k))
			}
			pairs = append(pairs, p)
		}
	}
	return pairs
}

// dimWeights maps one theta per PLS component to one weight per input
// dimension: θ'_j = Σ_l θ_l g(w_jl) with g the kernel term.
func (k *kriging) dimWeights(theta []float64) []float64 {
	d, ncomp := k.rot.Dims()
	return projectTheta(k.rot, k.corr, theta, d, ncomp)
}

func projectTheta(rot *mat.Dense, corr string, theta []float64, d, ncomp int) []float64 {
	w := make([]float64, d)
	for j := 0; j < d; j++ {
		for l := 0; l < ncomp; l++ {
			w[j] += theta[l] * kernelTerm(corr, rot.At(j, l))
		}
	}
	return w
}

// evaluate computes the generalised least squares fit for theta and the
// objective log(Σσ²) + log|R|/n, which is minimal where the reduced
// likelihood is maximal.
func (k *kriging) evaluate(theta []float64) (fitState, bool) {
	n, _ := k.X.Dims()
	_, ny := k.Y.Dims()
	w := k.dimWeights(theta)

	R := mat.NewSymDense(n, nil)
	idx := 0
	for i := 0; i < n; i++ {
		R.SetSym(i, i, 1+k.nugget)
		for j := i + 1; j < n; j++ {
			var s float64
			for d, v := range k.pairs[idx] {
				s += w[d] * v
			}
			R.SetSym(i, j, math.Exp(-s))
			idx++
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(R); !ok {
		return fitState{}, false
	}

	var riF, riY mat.Dense
	if err := chol.SolveTo(&riF, k.F); err != nil {
		return fitState{}, false
	}
	if err := chol.SolveTo(&riY, k.Y); err != nil {
		return fitState{}, false
	}
	var A, b, beta mat.Dense
	A.Mul(k.F.T(), &riF)
	b.Mul(k.F.T(), &riY)
	if err := beta.Solve(&A, &b); err != nil {
		return fitState{}, false
	}

	var resid mat.Dense
	resid.Mul(k.F, &beta)
	resid.Sub(k.Y, &resid)
	var gamma mat.Dense
	if err := chol.SolveTo(&gamma, &resid); err != nil {
		return fitState{}, false
	}

	var sigma2 float64
	for c := 0; c < ny; c++ {
		sigma2 += mat.Dot(resid.ColView(c), gamma.ColView(c)) / float64(n)
	}
	obj := math.Log(math.Max(sigma2, 1e-300)) + chol.LogDet()/float64(n)
	if math.IsNaN(obj) || math.IsInf(obj, 0) {
		return fitState{}, false
	}
	return fitState{beta: &beta, gamma: &gamma, objective: obj}, true
}

func regression(poly string, X mat.Matrix) *mat.Dense {
	n, d := X.Dims()
	if poly != PolyLinear {
		F := mat.NewDense(n, 1, nil)
		for i := 0; i < n; i++ {
			F.Set(i, 0, 1)
		}
		return F
	}
	F := mat.NewDense(n, d+1, nil)
	for i := 0; i < n; i++ {
		F.Set(i, 0, 1)
		for j := 0; j < d; j++ {
			F.Set(i, j+1, X.At(i, j))
		}
	}
	return F
}

type predictor struct {
	xs, ys *preprocessing.StandardScaler
	X      *mat.Dense
	poly   string
	corr   string
	weight []float64
	beta   *mat.Dense
	gamma  *mat.Dense
}

func (p *predictor) Predict(x *mat.Dense) (*mat.Dense, error) {
	xn, err := p.xs.Transform(x)
	if err != nil {
		return nil, err
	}
	m, d := xn.Dims()
	n, _ := p.X.Dims()
	_, ny := p.gamma.Dims()
	F := regression(p.poly, xn)
	out := mat.NewDense(m, ny, nil)

	parallel.ParallelizeRows(m, 64, func(start, end int) {
		r := make([]float64, n)
		for i := start; i < end; i++ {
			for j := 0; j < n; j++ {
				var s float64
				for k := 0; k < d; k++ {
					s += p.weight[k] * kernelTerm(p.corr, xn.At(i, k)-p.X.At(j, k))
				}
				r[j] = math.Exp(-s)
			}
			rv := mat.NewVecDense(n, r)
			for c := 0; c < ny; c++ {
				y := mat.Dot(F.RowView(i), p.beta.ColView(c)) + mat.Dot(rv, p.gamma.ColView(c))
				out.Set(i, c, y)
			}
		}
	})
	return p.ys.InverseTransform(out)
}
