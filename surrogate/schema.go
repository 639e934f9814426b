package surrogate

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/smtgo/core/options"
	"github.com/YuminosukeSato/smtgo/core/training"
)

// Option names shared by every variant.
const (
	OptPrintGlobal     = "print_global"
	OptPrintTraining   = "print_training"
	OptPrintPrediction = "print_prediction"
	OptPrintProblem    = "print_problem"
	OptPrintSolver     = "print_solver"

	// OptXLimits is declared by variants with a training domain.
	OptXLimits = "xlimits"
)

// BaseDeclarations returns the output switches every model carries.
// print_global false silences the model entirely.
func BaseDeclarations() []options.Declaration {
	return []options.Declaration{
		{Name: OptPrintGlobal, Default: true, Types: []options.Kind{options.Bool}, Desc: "Global print toggle. If False, all printing is suppressed"},
		{Name: OptPrintTraining, Default: true, Types: []options.Kind{options.Bool}, Desc: "Whether to print training information"},
		{Name: OptPrintPrediction, Default: true, Types: []options.Kind{options.Bool}, Desc: "Whether to print prediction information"},
		{Name: OptPrintProblem, Default: true, Types: []options.Kind{options.Bool}, Desc: "Whether to print problem information"},
		{Name: OptPrintSolver, Default: true, Types: []options.Kind{options.Bool}, Desc: "Whether to print solver information"},
	}
}

// XLimitsDeclaration declares the (nx, 2) training domain. Values are
// checked with training.NewBounds when set.
func XLimitsDeclaration(required bool) options.Declaration {
	return options.Declaration{
		Name:     OptXLimits,
		Types:    []options.Kind{options.Matrix},
		Required: required,
		Desc:     "Lower/upper bounds in each dimension - ndarray [nx, 2]",
		Validate: func(v any) error {
			_, err := training.NewBounds(v.(*mat.Dense))
			return err
		},
	}
}

// NewSchema returns the base declarations extended with decls.
func NewSchema(decls ...options.Declaration) (*options.Schema, error) {
	return options.NewSchema(append(BaseDeclarations(), decls...)...)
}

// MustSchema is NewSchema that panics on error.
func MustSchema(decls ...options.Declaration) *options.Schema {
	return options.MustSchema(append(BaseDeclarations(), decls...)...)
}
