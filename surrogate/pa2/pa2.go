// Package pa2 implements the PA2 surrogate: a full second-order polynomial
// fitted by least squares.
package pa2

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/smtgo/linear"
	"github.com/YuminosukeSato/smtgo/pkg/errors"
	"github.com/YuminosukeSato/smtgo/pkg/log"
	"github.com/YuminosukeSato/smtgo/surrogate"
)

// Name is the registry name of the variant.
const Name = "PA2"

// Spec describes the PA2 variant. It declares no domain.
var Spec = surrogate.Spec{
	Name:   Name,
	Schema: surrogate.MustSchema(),
	Policy: surrogate.DomainIgnore,
	Fit:    fit,
}

// New returns an untrained PA2 model with default options.
func New() *surrogate.Model {
	return surrogate.MustNew(Spec)
}

type predictor struct {
	sol *linear.Solution
}

func (p *predictor) Predict(x *mat.Dense) (*mat.Dense, error) {
	return p.sol.Predict(linear.QuadraticFeatures(x))
}

func fit(in surrogate.FitInput) (surrogate.Predictor, error) {
	X, Y := in.Points.StackAll()
	nt, nx := X.Dims()
	if need := linear.NumQuadraticTerms(nx); nt < need {
		return nil, errors.NewValueError("PA2.Train",
			fmt.Sprintf("number of training points should be greater or equal to %d", need))
	}
	F := linear.QuadraticFeatures(X)
	sol, err := linear.NewLeastSquares(linear.WithFitIntercept(false)).Fit(F, Y)
	if err != nil {
		return nil, err
	}
	in.Logger.Debug("Quadratic least squares solved", log.CoefficientsKey, linear.NumQuadraticTerms(nx))
	return &predictor{sol: sol}, nil
}
