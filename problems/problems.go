// Package problems provides analytic benchmark functions used to generate
// training data for surrogate models.
package problems

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/smtgo/core/parallel"
	"github.com/YuminosukeSato/smtgo/pkg/errors"
)

// Problem is an analytic function on a box-shaped domain.
type Problem interface {
	Name() string
	NDim() int
	// XLimits returns a fresh (ndim, 2) matrix of lower/upper bounds.
	XLimits() *mat.Dense
	// Evaluate returns an (n, 1) matrix of outputs for X (n, ndim).
	Evaluate(X mat.Matrix) (*mat.Dense, error)
}

type base struct {
	name  string
	ndim  int
	lower float64
	upper float64
}

func (b base) Name() string { return b.name }
func (b base) NDim() int    { return b.ndim }

func (b base) XLimits() *mat.Dense {
	xl := mat.NewDense(b.ndim, 2, nil)
	for j := 0; j < b.ndim; j++ {
		xl.Set(j, 0, b.lower)
		xl.Set(j, 1, b.upper)
	}
	return xl
}

func (b base) eval(X mat.Matrix, row func(x []float64) float64) (*mat.Dense, error) {
	if X == nil {
		return nil, errors.NewValueError(b.name+".Evaluate", "X must not be nil")
	}
	n, d := X.Dims()
	if d != b.ndim {
		return nil, errors.NewDimensionError(b.name+".Evaluate", b.ndim, d, 1)
	}
	out := mat.NewDense(n, 1, nil)
	parallel.ParallelizeRows(n, 0, func(start, end int) {
		x := make([]float64, d)
		for i := start; i < end; i++ {
			for j := range x {
				x[j] = X.At(i, j)
			}
			out.Set(i, 0, row(x))
		}
	})
	return out, nil
}

// Carre は二乗和 Σ x_j^2。定義域は各次元 [-1, 1]。
type Carre struct {
	base
}

// NewCarre returns the sum-of-squares problem in ndim dimensions.
func NewCarre(ndim int) *Carre {
	return &Carre{base{name: "carre", ndim: ndim, lower: -1, upper: 1}}
}

// Evaluate computes Σ x_j^2 for every row.
func (c *Carre) Evaluate(X mat.Matrix) (*mat.Dense, error) {
	return c.eval(X, func(x []float64) float64 {
		var s float64
		for _, v := range x {
			s += v * v
		}
		return s
	})
}

// Tensor product factor functions.
const (
	FuncCos      = "cos"
	FuncExp      = "exp"
	FuncTanh     = "tanh"
	FuncGaussian = "gaussian"
)

var factors = map[string]func(x, width float64) float64{
	FuncCos:      func(x, w float64) float64 { return math.Cos(w * math.Pi * x) },
	FuncExp:      func(x, w float64) float64 { return math.Exp(w * x) },
	FuncTanh:     func(x, w float64) float64 { return math.Tanh(w * x) },
	FuncGaussian: func(x, w float64) float64 { return math.Exp(-2 * w * x * x) },
}

// TensorProduct は一次元関数の積 Π f(width * x_j)。定義域は各次元 [-1, 1]。
type TensorProduct struct {
	base
	fn    func(x, width float64) float64
	width float64
}

// NewTensorProduct returns the product problem for fn, one of cos, exp,
// tanh or gaussian.
func NewTensorProduct(ndim int, fn string, width float64) (*TensorProduct, error) {
	f, ok := factors[fn]
	if !ok {
		return nil, errors.NewValueError("problems.NewTensorProduct",
			fmt.Sprintf("unknown function %q, expected one of %s", fn, strings.Join(funcNames(), ", ")))
	}
	return &TensorProduct{
		base:  base{name: "tensor_product_" + fn, ndim: ndim, lower: -1, upper: 1},
		fn:    f,
		width: width,
	}, nil
}

// Evaluate computes the product of the factor over all dimensions.
func (t *TensorProduct) Evaluate(X mat.Matrix) (*mat.Dense, error) {
	return t.eval(X, func(x []float64) float64 {
		p := 1.0
		for _, v := range x {
			p *= t.fn(v, t.width)
		}
		return p
	})
}

func funcNames() []string {
	names := make([]string, 0, len(factors))
	for k := range factors {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Names lists the names accepted by New.
func Names() []string {
	names := []string{"carre"}
	for _, fn := range funcNames() {
		names = append(names, "tensor_product_"+fn)
	}
	return names
}

// New returns the named problem in ndim dimensions. Names are case-insensitive.
func New(name string, ndim int) (Problem, error) {
	if ndim < 1 {
		return nil, errors.NewValueError("problems.New", fmt.Sprintf("ndim must be >= 1, got %d", ndim))
	}
	key := strings.ToLower(name)
	if key == "carre" {
		return NewCarre(ndim), nil
	}
	if fn, ok := strings.CutPrefix(key, "tensor_product_"); ok {
		return NewTensorProduct(ndim, fn, 1)
	}
	return nil, errors.NewValueError("problems.New",
		fmt.Sprintf("unknown problem %q, expected one of %s", name, strings.Join(Names(), ", ")))
}
