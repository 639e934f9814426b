// Package preprocessing はサロゲートモデルが使う入出力のスケーラーを提供します。
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/smtgo/core"
	"github.com/YuminosukeSato/smtgo/core/model"
	"github.com/YuminosukeSato/smtgo/pkg/errors"
)

// StandardScaler はデータを平均0、標準偏差1に変換する。
// 標準偏差は不偏推定 (n-1) で、0 または1点のみの列はスケール1とする。
type StandardScaler struct {
	state *model.StateManager

	// Mean は各列の平均値
	Mean []float64

	// Scale は各列の標準偏差
	Scale []float64

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	err := scaler.Fit(X)
//	XScaled, err := scaler.Transform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    model.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit は各列の平均と標準偏差を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		mean, std := stat.MeanStdDev(col, nil)
		if s.WithMean {
			s.Mean[j] = mean
		}
		s.Scale[j] = 1.0
		// 標準偏差が0に近い場合は1のまま（ゼロ除算を避ける）
		if s.WithStd && r > 1 && !math.IsNaN(std) && math.Abs(std) >= 1e-8 {
			s.Scale[j] = std
		}
	}

	s.state.SetDimensions(c, 0, r)
	s.state.SetTrained()
	return nil
}

func (s *StandardScaler) check(op string, X mat.Matrix) error {
	if !s.state.IsTrained() {
		return errors.NewNotTrainedError("StandardScaler", op)
	}
	nx, _, _ := s.state.GetDimensions()
	if _, c := X.Dims(); c != nx {
		return errors.NewDimensionError("StandardScaler."+op, nx, c, 1)
	}
	return nil
}

// Transform は (X - Mean) / Scale を返す
func (s *StandardScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.check("Transform", X); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は X * Scale + Mean を返す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.check("InverseTransform", X); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}, X)
	return result, nil
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.state.IsTrained() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	nx, _, _ := s.state.GetDimensions()
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)", s.WithMean, s.WithStd, nx)
}

// MinMaxScaler はデータを FeatureRange（デフォルト[0,1]）に線形に写す。
// 範囲はデータから学習するか、FitBounds で xlimits から直接与える。
type MinMaxScaler struct {
	state *model.StateManager

	// DataMin は元の空間の下限
	DataMin []float64

	// Scale は元の空間の幅 (max - min)、幅0の列は1
	Scale []float64

	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{state: model.NewStateManager(), FeatureRange: featureRange}
}

// NewMinMaxScalerDefault は[0,1]範囲のMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// Fit は各列の最小値・最大値を計算する
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MinMaxScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	lower := make([]float64, c)
	upper := make([]float64, c)
	for j := 0; j < c; j++ {
		lower[j], upper[j] = math.Inf(1), math.Inf(-1)
		for i := 0; i < r; i++ {
			v := X.At(i, j)
			lower[j] = math.Min(lower[j], v)
			upper[j] = math.Max(upper[j], v)
		}
	}
	return m.FitBounds(lower, upper)
}

// FitBounds は列ごとの範囲 [lower_j, upper_j] を直接設定する
func (m *MinMaxScaler) FitBounds(lower, upper []float64) error {
	if len(lower) == 0 || len(lower) != len(upper) {
		return errors.NewDimensionError("MinMaxScaler.FitBounds", len(lower), len(upper), 1)
	}
	m.DataMin = make([]float64, len(lower))
	m.Scale = make([]float64, len(lower))
	for j := range lower {
		m.DataMin[j] = lower[j]
		m.Scale[j] = upper[j] - lower[j]
		// 定数列の場合、スケールを1に設定
		if math.Abs(m.Scale[j]) < 1e-12 {
			m.Scale[j] = 1.0
		}
	}
	m.state.SetDimensions(len(lower), 0, 0)
	m.state.SetTrained()
	return nil
}

func (m *MinMaxScaler) check(op string, X mat.Matrix) error {
	if !m.state.IsTrained() {
		return errors.NewNotTrainedError("MinMaxScaler", op)
	}
	nx, _, _ := m.state.GetDimensions()
	if _, c := X.Dims(); c != nx {
		return errors.NewDimensionError("MinMaxScaler."+op, nx, c, 1)
	}
	return nil
}

// Transform は元の空間から FeatureRange へ写す
func (m *MinMaxScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if err := m.check("Transform", X); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	width := m.FeatureRange[1] - m.FeatureRange[0]
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v-m.DataMin[j])/m.Scale[j]*width + m.FeatureRange[0]
	}, X)
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform は FeatureRange から元の空間へ戻す
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := m.check("InverseTransform", X); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	width := m.FeatureRange[1] - m.FeatureRange[0]
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v-m.FeatureRange[0])/width*m.Scale[j] + m.DataMin[j]
	}, X)
	return result, nil
}

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])", m.FeatureRange[0], m.FeatureRange[1])
}

var (
	_ core.Transformer = (*StandardScaler)(nil)
	_ core.Transformer = (*MinMaxScaler)(nil)
)
