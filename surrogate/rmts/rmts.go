// Package rmts implements the RMTS surrogate: regularized minimal-energy
// tensor-product splines on a uniform grid of multilinear elements.
//
// RMTS は xlimits を必須とし、訓練点の領域を即時に検査する。
// AddTrainingPoints の時点で xlimits の外にある点は拒否され、
// xlimits を後から変更した場合も既存の訓練点を再検査する。
package rmts

import (
	"fmt"

	"github.com/YuminosukeSato/smtgo/core/options"
	"github.com/YuminosukeSato/smtgo/pkg/log"
	"github.com/YuminosukeSato/smtgo/surrogate"
	"github.com/YuminosukeSato/smtgo/surrogate/internal/rmt"
)

// Name is the registry name of the variant.
const Name = "RMTS"

// OptNumElem is the number of elements per dimension.
const OptNumElem = "num_elem"

// Spec describes the RMTS variant.
var Spec = surrogate.Spec{
	Name: Name,
	Schema: surrogate.MustSchema(append([]options.Declaration{
		surrogate.XLimitsDeclaration(true),
		{
			Name:    OptNumElem,
			Default: 4,
			Types:   []options.Kind{options.Int},
			Desc:    "# elements in each dimension",
			Validate: func(v any) error {
				if v.(int) < 1 {
					return fmt.Errorf("must be >= 1")
				}
				return nil
			},
		},
	}, rmt.Declarations()...)...),
	Policy: surrogate.DomainEager,
	Fit:    fit,
}

// New returns an untrained RMTS model with default options.
func New() *surrogate.Model {
	return surrogate.MustNew(Spec)
}

func fit(in surrogate.FitInput) (surrogate.Predictor, error) {
	ne, err := in.Options.Int(OptNumElem)
	if err != nil {
		return nil, err
	}
	cfg, err := rmt.ReadConfig("RMTS.Train", in.Options)
	if err != nil {
		return nil, err
	}
	X, Y := in.Points.StackAll()
	_, nx := X.Dims()

	bases := make([]rmt.Basis1D, nx)
	for k := range bases {
		bases[k] = rmt.NewLinear(ne)
	}
	tensor := rmt.NewTensor(bases...)
	in.Logger.Info("Multilinear elements", log.FeaturesKey, nx, log.CoefficientsKey, tensor.NumCoeffs())

	return rmt.Solve(tensor, in.Bounds, X, Y, cfg, in.Logger)
}
