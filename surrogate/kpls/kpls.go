// Package kpls implements the KPLS surrogate: Kriging whose correlation
// kernel is built on the weights of a partial least squares projection, so
// that the number of hyperparameters is the number of PLS components rather
// than the input dimension.
package kpls

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/YuminosukeSato/smtgo/core/options"
	"github.com/YuminosukeSato/smtgo/pkg/errors"
	"github.com/YuminosukeSato/smtgo/pkg/log"
	"github.com/YuminosukeSato/smtgo/preprocessing"
	"github.com/YuminosukeSato/smtgo/surrogate"
)

// Name is the registry name of the variant.
const Name = "KPLS"

// Option names.
const (
	OptNComp    = "n_comp"
	OptTheta0   = "theta0"
	OptPoly     = "poly"
	OptCorr     = "corr"
	OptNugget   = "nugget"
	OptOptimize = "optimize"
	OptMaxIter  = "max_iter"
)

// Regression trends and correlation kernels.
const (
	PolyConstant = "constant"
	PolyLinear   = "linear"
	CorrSquarExp = "squar_exp"
	CorrAbsExp   = "abs_exp"
)

// log10 bounds of the hyperparameters during optimisation.
var (
	minLogTheta = -6.0
	maxLogTheta = math.Log10(20)
)

func positiveInt(v any) error {
	if v.(int) < 1 {
		return fmt.Errorf("must be >= 1")
	}
	return nil
}

func positiveFloat(v any) error {
	if v.(float64) <= 0 {
		return fmt.Errorf("must be > 0")
	}
	return nil
}

func positiveFloats(v any) error {
	fs := v.([]float64)
	if len(fs) == 0 {
		return fmt.Errorf("must not be empty")
	}
	for _, f := range fs {
		if f <= 0 {
			return fmt.Errorf("all values must be > 0")
		}
	}
	return nil
}

// Spec describes the KPLS variant. It declares no domain.
var Spec = surrogate.Spec{
	Name: Name,
	Schema: surrogate.MustSchema(
		options.Declaration{Name: OptNComp, Default: 1, Types: []options.Kind{options.Int}, Validate: positiveInt, Desc: "Number of principal components"},
		options.Declaration{Name: OptTheta0, Default: []float64{1e-2}, Types: []options.Kind{options.Floats}, Validate: positiveFloats, Desc: "Initial hyperparameters"},
		options.Declaration{Name: OptPoly, Default: PolyConstant, Types: []options.Kind{options.String}, Values: []any{PolyConstant, PolyLinear}, Desc: "Regression function type"},
		options.Declaration{Name: OptCorr, Default: CorrSquarExp, Types: []options.Kind{options.String}, Values: []any{CorrSquarExp, CorrAbsExp}, Desc: "Correlation function type"},
		options.Declaration{Name: OptNugget, Default: 100 * 2.220446049250313e-16, Types: []options.Kind{options.Float}, Validate: positiveFloat, Desc: "Diagonal regularisation of the correlation matrix"},
		options.Declaration{Name: OptOptimize, Default: true, Types: []options.Kind{options.Bool}, Desc: "Whether to optimise the hyperparameters"},
		options.Declaration{Name: OptMaxIter, Default: 200, Types: []options.Kind{options.Int}, Validate: positiveInt, Desc: "Maximum number of optimiser iterations"},
	),
	Policy: surrogate.DomainIgnore,
	Fit:    fit,
}

// New returns an untrained KPLS model with default options.
func New() *surrogate.Model {
	return surrogate.MustNew(Spec)
}

type config struct {
	nComp    int
	theta0   []float64
	poly     string
	corr     string
	nugget   float64
	optimize bool
	maxIter  int
}

func readConfig(o *options.Options, nx int) (config, error) {
	var c config
	var err error
	if c.nComp, err = o.Int(OptNComp); err != nil {
		return c, err
	}
	if c.theta0, err = o.Floats(OptTheta0); err != nil {
		return c, err
	}
	if c.poly, err = o.String(OptPoly); err != nil {
		return c, err
	}
	if c.corr, err = o.String(OptCorr); err != nil {
		return c, err
	}
	if c.nugget, err = o.Float(OptNugget); err != nil {
		return c, err
	}
	if c.optimize, err = o.Bool(OptOptimize); err != nil {
		return c, err
	}
	if c.maxIter, err = o.Int(OptMaxIter); err != nil {
		return c, err
	}

	if c.nComp > nx {
		return c, errors.NewValueError("KPLS.Train", fmt.Sprintf("n_comp (%d) must not exceed the input dimension (%d)", c.nComp, nx))
	}
	switch len(c.theta0) {
	case c.nComp:
	case 1:
		th := make([]float64, c.nComp)
		for i := range th {
			th[i] = c.theta0[0]
		}
		c.theta0 = th
	default:
		return c, errors.NewValueError("KPLS.Train", fmt.Sprintf("theta0 must have 1 or n_comp (%d) values, got %d", c.nComp, len(c.theta0)))
	}
	return c, nil
}

func fit(in surrogate.FitInput) (surrogate.Predictor, error) {
	X, Y := in.Points.StackAll()
	n, nx := X.Dims()

	cfg, err := readConfig(in.Options, nx)
	if err != nil {
		return nil, err
	}
	if cfg.poly == PolyLinear && n < nx+1 {
		return nil, errors.NewValueError("KPLS.Train", fmt.Sprintf("linear trend needs at least %d training points, got %d", nx+1, n))
	}

	xs := preprocessing.NewStandardScalerDefault()
	Xn, err := xs.FitTransform(X)
	if err != nil {
		return nil, err
	}
	ys := preprocessing.NewStandardScalerDefault()
	Yn, err := ys.FitTransform(Y)
	if err != nil {
		return nil, err
	}

	k := &kriging{
		X:      Xn,
		Y:      Yn,
		F:      regression(cfg.poly, Xn),
		rot:    plsRotations(Xn, Yn, cfg.nComp),
		corr:   cfg.corr,
		nugget: cfg.nugget,
	}
	k.pairs = pairDistances(Xn, cfg.corr)

	logTheta := make([]float64, cfg.nComp)
	for i, th := range cfg.theta0 {
		logTheta[i] = clip(math.Log10(th))
	}

	if cfg.optimize {
		logTheta = k.optimize(logTheta, cfg.maxIter, in.Logger)
	}

	theta := fromLog(logTheta)
	st, ok := k.evaluate(theta)
	if !ok {
		return nil, errors.NewModelError("KPLS.Train", "correlation matrix is not positive definite", errors.ErrSingularMatrix)
	}
	in.Logger.Info("Kriging hyperparameters selected",
		log.HyperParamsKey, theta,
		log.LossKey, st.objective,
	)

	return &predictor{
		xs:     xs,
		ys:     ys,
		X:      Xn,
		poly:   cfg.poly,
		corr:   cfg.corr,
		weight: k.dimWeights(theta),
		beta:   st.beta,
		gamma:  st.gamma,
	}, nil
}

func clip(logTheta float64) float64 {
	return errors.ClipValue(logTheta, minLogTheta, maxLogTheta)
}

func fromLog(logTheta []float64) []float64 {
	out := make([]float64, len(logTheta))
	for i, v := range logTheta {
		out[i] = math.Pow(10, clip(v))
	}
	return out
}

// optimize minimises the negated reduced likelihood over log10(theta) with
// Nelder-Mead. On failure the starting point is kept.
func (k *kriging) optimize(start []float64, maxIter int, logger log.Logger) []float64 {
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			st, ok := k.evaluate(fromLog(x))
			if !ok {
				return infeasible
			}
			return st.objective
		},
	}
	settings := &optimize.Settings{
		MajorIterations: maxIter,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-9,
			Iterations: 20,
		},
	}
	result, err := optimize.Minimize(problem, start, settings, &optimize.NelderMead{})
	if result == nil {
		logger.Warn("Likelihood optimisation failed, keeping theta0", log.ErrAttrKey, err)
		return start
	}
	if result.Status == optimize.IterationLimit {
		errors.Warn(errors.NewConvergenceWarning(Name, result.Stats.MajorIterations, ""))
	}
	logger.Debug("Likelihood optimisation finished",
		log.IterationKey, result.Stats.MajorIterations,
		log.LossKey, result.F,
	)
	out := make([]float64, len(result.X))
	for i, v := range result.X {
		out[i] = clip(v)
	}
	return out
}
