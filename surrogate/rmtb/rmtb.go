// Package rmtb implements the RMTB surrogate: regularized minimal-energy
// tensor-product B-splines.
//
// RMTB は xlimits を必須とするが、領域の検査は Train まで遅延する。
package rmtb

import (
	"fmt"

	"github.com/YuminosukeSato/smtgo/core/options"
	"github.com/YuminosukeSato/smtgo/pkg/errors"
	"github.com/YuminosukeSato/smtgo/pkg/log"
	"github.com/YuminosukeSato/smtgo/surrogate"
	"github.com/YuminosukeSato/smtgo/surrogate/internal/rmt"
)

// Name is the registry name of the variant.
const Name = "RMTB"

// Option names.
const (
	OptOrder      = "order"
	OptNumCtrlPts = "num_ctrl_pts"
)

func atLeast(n int) func(any) error {
	return func(v any) error {
		if v.(int) < n {
			return fmt.Errorf("must be >= %d", n)
		}
		return nil
	}
}

// Spec describes the RMTB variant.
var Spec = surrogate.Spec{
	Name: Name,
	Schema: surrogate.MustSchema(append([]options.Declaration{
		surrogate.XLimitsDeclaration(true),
		{Name: OptOrder, Default: 3, Types: []options.Kind{options.Int}, Validate: atLeast(2), Desc: "B-spline order in each dimension"},
		{Name: OptNumCtrlPts, Default: 10, Types: []options.Kind{options.Int}, Validate: atLeast(2), Desc: "# B-spline control points in each dimension"},
	}, rmt.Declarations()...)...),
	Policy: surrogate.DomainDeferred,
	Fit:    fit,
}

// New returns an untrained RMTB model with default options.
func New() *surrogate.Model {
	return surrogate.MustNew(Spec)
}

func fit(in surrogate.FitInput) (surrogate.Predictor, error) {
	order, err := in.Options.Int(OptOrder)
	if err != nil {
		return nil, err
	}
	n, err := in.Options.Int(OptNumCtrlPts)
	if err != nil {
		return nil, err
	}
	if n < order {
		return nil, errors.NewValueError("RMTB.Train",
			fmt.Sprintf("num_ctrl_pts (%d) must be >= order (%d)", n, order))
	}
	cfg, err := rmt.ReadConfig("RMTB.Train", in.Options)
	if err != nil {
		return nil, err
	}
	X, Y := in.Points.StackAll()
	_, nx := X.Dims()

	bases := make([]rmt.Basis1D, nx)
	for k := range bases {
		bases[k] = rmt.NewBSpline(order, n)
	}
	tensor := rmt.NewTensor(bases...)
	in.Logger.Info("B-spline control points", log.FeaturesKey, nx, log.CoefficientsKey, tensor.NumCoeffs())

	return rmt.Solve(tensor, in.Bounds, X, Y, cfg, in.Logger)
}
