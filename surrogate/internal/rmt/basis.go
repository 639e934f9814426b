// Package rmt holds the regularized minimal-energy tensor-product solver
// shared by the RMTS and RMTB surrogates.
//
// 入力は xlimits により単位超立方体 [0,1]^nx に写される。各次元の一次元基底の
// テンソル積で出力を表し、係数はエネルギー最小化付き最小二乗で決める。
package rmt

import "math"

// Basis1D は一次元の基底。Eval は u における非零の係数インデックスと値を返す。
// u が [0,1] の外にあるときは境界からの線形外挿になる。
type Basis1D interface {
	Size() int
	Eval(u float64) (idx []int, val []float64)
}

// Linear は ne 要素の区分線形（ハット関数）基底。節点数は ne+1。
type Linear struct {
	ne int
}

// NewLinear returns a piecewise-linear basis with ne uniform elements.
func NewLinear(ne int) *Linear {
	return &Linear{ne: ne}
}

// Size is the number of nodes.
func (l *Linear) Size() int { return l.ne + 1 }

// Eval は端の要素の形状関数をそのまま延長するので、外側では線形外挿になる。
func (l *Linear) Eval(u float64) ([]int, []float64) {
	s := u * float64(l.ne)
	e := int(math.Floor(s))
	if e < 0 {
		e = 0
	}
	if e > l.ne-1 {
		e = l.ne - 1
	}
	t := s - float64(e)
	return []int{e, e + 1}, []float64{1 - t, t}
}

// BSpline はクランプされた一様ノットの B スプライン基底。
// order は次数+1（order=4 で三次）。
type BSpline struct {
	order int
	n     int
	knots []float64
}

// NewBSpline returns a clamped uniform B-spline basis with n control points.
// It requires 2 <= order <= n.
func NewBSpline(order, n int) *BSpline {
	p := order - 1
	knots := make([]float64, n+order)
	inner := n - p
	for i := range knots {
		switch {
		case i <= p:
			knots[i] = 0
		case i >= n:
			knots[i] = 1
		default:
			knots[i] = float64(i-p) / float64(inner)
		}
	}
	return &BSpline{order: order, n: n, knots: knots}
}

// Size is the number of control points.
func (b *BSpline) Size() int { return b.n }

// Knots returns the knot vector.
func (b *BSpline) Knots() []float64 { return b.knots }

// span は t[s] <= u < t[s+1] となる s を返す。u=1 は最後の区間に含める。
func (b *BSpline) span(u float64) int {
	p := b.order - 1
	if u >= 1 {
		return b.n - 1
	}
	if u <= 0 {
		return p
	}
	lo, hi := p, b.n
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if u < b.knots[mid] {
			hi = mid
		} else {
			lo = mid
		}
	}
	return lo
}

// basis は span s 上で非零な order 個の基底値と一階導関数を Cox-de Boor で計算する。
func (b *BSpline) basis(s int, u float64) (val, der []float64) {
	p := b.order - 1
	t := b.knots
	// N[j] は N_{s-deg+j, deg}
	N := make([]float64, b.order)
	N[0] = 1
	left := make([]float64, b.order)
	right := make([]float64, b.order)
	var prev []float64
	for deg := 1; deg <= p; deg++ {
		left[deg] = u - t[s+1-deg]
		right[deg] = t[s+deg] - u
		if deg == p {
			prev = append([]float64(nil), N[:p]...)
		}
		saved := 0.0
		for r := 0; r < deg; r++ {
			tmp := N[r] / (right[r+1] + left[deg-r])
			N[r] = saved + right[r+1]*tmp
			saved = left[deg-r] * tmp
		}
		N[deg] = saved
	}
	der = make([]float64, b.order)
	if p == 0 {
		return N, der
	}
	// N'_{i,p} = p/(t_{i+p}-t_i) N_{i,p-1} - p/(t_{i+p+1}-t_{i+1}) N_{i+1,p-1}
	for j := 0; j <= p; j++ {
		i := s - p + j
		var d float64
		if j >= 1 {
			if den := t[i+p] - t[i]; den > 0 {
				d += float64(p) / den * prev[j-1]
			}
		}
		if j <= p-1 {
			if den := t[i+p+1] - t[i+1]; den > 0 {
				d -= float64(p) / den * prev[j]
			}
		}
		der[j] = d
	}
	return N, der
}

// Eval は [0,1] の外では境界値と境界での導関数で線形に延長する。
func (b *BSpline) Eval(u float64) ([]int, []float64) {
	u0 := math.Max(0, math.Min(1, u))
	s := b.span(u0)
	val, der := b.basis(s, u0)
	idx := make([]int, b.order)
	for j := range idx {
		idx[j] = s - b.order + 1 + j
	}
	if du := u - u0; du != 0 {
		for j := range val {
			val[j] += der[j] * du
		}
	}
	return idx, val
}

// Tensor は一次元基底のテンソル積。係数は行優先（最後の次元が最速）で並ぶ。
type Tensor struct {
	bases   []Basis1D
	strides []int
	size    int
}

// NewTensor combines one basis per input dimension.
func NewTensor(bases ...Basis1D) *Tensor {
	strides := make([]int, len(bases))
	size := 1
	for k := len(bases) - 1; k >= 0; k-- {
		strides[k] = size
		size *= bases[k].Size()
	}
	return &Tensor{bases: bases, strides: strides, size: size}
}

// NumCoeffs is the total number of coefficients.
func (t *Tensor) NumCoeffs() int { return t.size }

// Shape returns the number of coefficients per dimension.
func (t *Tensor) Shape() []int {
	out := make([]int, len(t.bases))
	for k, b := range t.bases {
		out[k] = b.Size()
	}
	return out
}

// Row evaluates the tensor basis at u and returns its sparse row.
func (t *Tensor) Row(u []float64) ([]int, []float64) {
	idx := []int{0}
	val := []float64{1}
	for k, b := range t.bases {
		bi, bv := b.Eval(u[k])
		nextIdx := make([]int, 0, len(idx)*len(bi))
		nextVal := make([]float64, 0, len(idx)*len(bi))
		for a := range idx {
			for c := range bi {
				nextIdx = append(nextIdx, idx[a]+bi[c]*t.strides[k])
				nextVal = append(nextVal, val[a]*bv[c])
			}
		}
		idx, val = nextIdx, nextVal
	}
	return idx, val
}
