// Package idw implements the IDW surrogate: Shepard's inverse distance
// weighting interpolation.
package idw

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/smtgo/core/options"
	"github.com/YuminosukeSato/smtgo/core/parallel"
	"github.com/YuminosukeSato/smtgo/pkg/log"
	"github.com/YuminosukeSato/smtgo/surrogate"
)

// Name is the registry name of the variant.
const Name = "IDW"

// OptP is the power of the inverse distance.
const OptP = "p"

// Spec describes the IDW variant. It declares no domain.
var Spec = surrogate.Spec{
	Name: Name,
	Schema: surrogate.MustSchema(
		options.Declaration{
			Name:    OptP,
			Default: 2.5,
			Types:   []options.Kind{options.Float},
			Desc:    "order of distance norm",
			Validate: func(v any) error {
				if v.(float64) <= 0 {
					return fmt.Errorf("must be > 0")
				}
				return nil
			},
		},
	),
	Policy: surrogate.DomainIgnore,
	Fit:    fit,
}

// New returns an untrained IDW model with default options.
func New() *surrogate.Model {
	return surrogate.MustNew(Spec)
}

type predictor struct {
	X, Y *mat.Dense
	p    float64
}

func fit(in surrogate.FitInput) (surrogate.Predictor, error) {
	p, err := in.Options.Float(OptP)
	if err != nil {
		return nil, err
	}
	X, Y := in.Points.StackAll()
	n, _ := X.Dims()
	in.Logger.Debug("Stored interpolation nodes", log.SamplesKey, n)
	return &predictor{X: X, Y: Y, p: p}, nil
}

func (pr *predictor) Predict(x *mat.Dense) (*mat.Dense, error) {
	m, d := x.Dims()
	n, _ := pr.X.Dims()
	_, ny := pr.Y.Dims()
	out := mat.NewDense(m, ny, nil)

	parallel.ParallelizeRows(m, 64, func(start, end int) {
		w := make([]float64, n)
		for i := start; i < end; i++ {
			hit := -1
			for j := 0; j < n && hit < 0; j++ {
				var s float64
				for k := 0; k < d; k++ {
					diff := x.At(i, k) - pr.X.At(j, k)
					s += diff * diff
				}
				if s == 0 {
					hit = j
					break
				}
				w[j] = math.Pow(s, -pr.p/2)
			}
			if hit >= 0 {
				out.SetRow(i, mat.Row(nil, hit, pr.Y))
				continue
			}
			var sw float64
			for _, v := range w {
				sw += v
			}
			for c := 0; c < ny; c++ {
				var s float64
				for j := 0; j < n; j++ {
					s += w[j] * pr.Y.At(j, c)
				}
				out.Set(i, c, s/sw)
			}
		}
	})
	return out, nil
}
