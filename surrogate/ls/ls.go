// Package ls implements the LS surrogate: ordinary linear least squares with
// an intercept, fitted on every fidelity class at once.
package ls

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/smtgo/linear"
	"github.com/YuminosukeSato/smtgo/pkg/log"
	"github.com/YuminosukeSato/smtgo/surrogate"
)

// Name is the registry name of the variant.
const Name = "LS"

// Spec describes the LS variant. It declares no domain.
var Spec = surrogate.Spec{
	Name:   Name,
	Schema: surrogate.MustSchema(),
	Policy: surrogate.DomainIgnore,
	Fit:    fit,
}

// New returns an untrained LS model with default options.
func New() *surrogate.Model {
	return surrogate.MustNew(Spec)
}

type predictor struct {
	sol *linear.Solution
}

func (p *predictor) Predict(x *mat.Dense) (*mat.Dense, error) {
	return p.sol.Predict(x)
}

func fit(in surrogate.FitInput) (surrogate.Predictor, error) {
	X, Y := in.Points.StackAll()
	sol, err := linear.NewLeastSquares().Fit(X, Y)
	if err != nil {
		return nil, err
	}
	in.Logger.Debug("Least squares solved", log.CoefficientsKey, sol.Rank)
	return &predictor{sol: sol}, nil
}
