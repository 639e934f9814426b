package rmt

import (
	"fmt"

	"github.com/YuminosukeSato/smtgo/core/options"
)

// Option names shared by RMTS and RMTB.
const (
	OptSmoothness = "smoothness"
	OptRegDV      = "reg_dv"
	OptRegCons    = "reg_cons"
	OptMinEnergy  = "min_energy"
)

func nonNegative(v any) error {
	if v.(float64) < 0 {
		return fmt.Errorf("must be >= 0")
	}
	return nil
}

func nonNegativeAll(v any) error {
	for _, f := range v.([]float64) {
		if f < 0 {
			return fmt.Errorf("all values must be >= 0")
		}
	}
	return nil
}

// Declarations returns the regularisation options.
func Declarations() []options.Declaration {
	return []options.Declaration{
		{Name: OptSmoothness, Types: []options.Kind{options.Floats}, Validate: nonNegativeAll, Desc: "Smoothness parameter in each dimension - length nx. None implies all ones."},
		{Name: OptRegDV, Default: 1e-4, Types: []options.Kind{options.Float}, Validate: nonNegative, Desc: "Regularization coeff. for system degrees of freedom"},
		{Name: OptRegCons, Default: 1e-10, Types: []options.Kind{options.Float}, Validate: nonNegative, Desc: "Negative of the regularization coeff. of the Lagrange mult. block"},
		{Name: OptMinEnergy, Default: true, Types: []options.Kind{options.Bool}, Desc: "Whether to perform energy minimization"},
	}
}

// ReadConfig reads the regularisation options into a Config.
func ReadConfig(op string, o *options.Options) (Config, error) {
	cfg := Config{Op: op}
	var err error
	if cfg.Smoothness, err = o.Floats(OptSmoothness); err != nil {
		return cfg, err
	}
	if cfg.RegDV, err = o.Float(OptRegDV); err != nil {
		return cfg, err
	}
	if cfg.RegCons, err = o.Float(OptRegCons); err != nil {
		return cfg, err
	}
	if cfg.MinEnergy, err = o.Bool(OptMinEnergy); err != nil {
		return cfg, err
	}
	return cfg, nil
}
