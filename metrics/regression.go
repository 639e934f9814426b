// Package metrics は代理モデルの予測精度を測る回帰指標を提供する。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/smtgo/pkg/errors"
)

func checkVecs(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError(op, "nil vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// MSE は平均二乗誤差 (1/n) Σ(yTrue - yPred)² を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVecs("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE は MSE の平方根
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差 (1/n) Σ|yTrue - yPred|
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVecs("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score は決定係数 1 - RSS/TSS。
// yTrue の分散が 0 のときは UndefinedMetricWarning を出して 0 を返す。
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVecs("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	mean := mat.Sum(yTrue) / float64(n)
	var tss, rss float64
	for i := 0; i < n; i++ {
		t := yTrue.AtVec(i)
		tss += (t - mean) * (t - mean)
		d := t - yPred.AtVec(i)
		rss += d * d
	}
	if tss == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("R2Score", "yTrue has zero variance", 0))
		return 0, nil
	}
	return 1 - rss/tss, nil
}

func checkMatrices(op string, yTrue, yPred mat.Matrix) error {
	if yTrue == nil || yPred == nil {
		return errors.NewValueError(op, "nil matrix")
	}
	r, c := yTrue.Dims()
	if r == 0 || c == 0 {
		return errors.NewValueError(op, "empty matrix")
	}
	pr, pc := yPred.Dims()
	if pr != r {
		return errors.NewDimensionError(op, r, pr, 0)
	}
	if pc != c {
		return errors.NewDimensionError(op, c, pc, 1)
	}
	return nil
}

// RMSEMatrix は多出力 (n, ny) の全要素にわたる RMSE を計算する
func RMSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	if err := checkMatrices("RMSEMatrix", yTrue, yPred); err != nil {
		return 0, err
	}
	r, c := yTrue.Dims()
	var diff mat.Dense
	diff.Sub(yTrue, yPred)
	return mat.Norm(&diff, 2) / math.Sqrt(float64(r*c)), nil
}

// RelativeError は ‖yPred - yTrue‖_F / ‖yTrue‖_F。
// ‖yTrue‖ が 0 のときは絶対誤差のノルムを返す。
func RelativeError(yTrue, yPred mat.Matrix) (float64, error) {
	if err := checkMatrices("RelativeError", yTrue, yPred); err != nil {
		return 0, err
	}
	var diff mat.Dense
	diff.Sub(yPred, yTrue)
	num := mat.Norm(&diff, 2)
	den := mat.Norm(yTrue, 2)
	if den == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("RelativeError", "yTrue is all zeros", num))
		return num, nil
	}
	return num / den, nil
}

// MaxAbsError は全要素の最大絶対誤差
func MaxAbsError(yTrue, yPred mat.Matrix) (float64, error) {
	if err := checkMatrices("MaxAbsError", yTrue, yPred); err != nil {
		return 0, err
	}
	var diff mat.Dense
	diff.Sub(yTrue, yPred)
	return floats.Norm(diff.RawMatrix().Data, math.Inf(1)), nil
}
