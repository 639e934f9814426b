// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// サロゲートモデルのオプション検証、学習点の定義域チェック、学習・予測の各段階で
// 発生するエラーを構造化された型として表現します。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("smtgo-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nil を渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されている場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// ConvergenceWarning は最適化アルゴリズムが収束しなかった場合に発生する警告です。
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing max_iter or adjusting theta0.", w.Algorithm, w.Iterations)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning は新しいConvergenceWarningを作成します。
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// IllConditionedWarning は線形系が悪条件のため正則化を追加して解いた場合の警告です。
type IllConditionedWarning struct {
	Op     string
	Jitter float64
}

func (w *IllConditionedWarning) Error() string {
	return fmt.Sprintf("%s: system is ill-conditioned, solved with diagonal jitter %g", w.Op, w.Jitter)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *IllConditionedWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("operation", w.Op).
		Float64("jitter", w.Jitter).
		Str("type", "IllConditionedWarning")
}

// NewIllConditionedWarning は新しいIllConditionedWarningを作成します。
func NewIllConditionedWarning(op string, jitter float64) *IllConditionedWarning {
	return &IllConditionedWarning{Op: op, Jitter: jitter}
}

// UndefinedMetricWarning は評価指標が計算できない場合に発生する警告です。
// 例えば、正解値の分散が0のときのR²など。
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64 // この条件で返される値
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %f due to %s.", w.Metric, w.Result, w.Condition)
}

// NewUndefinedMetricWarning は新しいUndefinedMetricWarningを作成します。
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}

// ===========================================================================
//
//	オプション関連のエラー型
//
// ===========================================================================

// UnknownOptionError は宣言されていないオプションキーに get/set した場合のエラーです。
type UnknownOptionError struct {
	Key   string
	Model string
}

func (e *UnknownOptionError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("smtgo: unknown option '%s' for %s", e.Key, e.Model)
	}
	return fmt.Sprintf("smtgo: unknown option '%s'", e.Key)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *UnknownOptionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("option", e.Key).
		Str("model_name", e.Model).
		Str("type", "UnknownOptionError")
}

// NewUnknownOptionError は新しいUnknownOptionErrorを作成し、スタックトレースを付与します。
func NewUnknownOptionError(key, model string) error {
	return errors.WithStack(&UnknownOptionError{Key: key, Model: model})
}

// InvalidOptionValueError はオプション値がスキーマの制約（型・許容値・検証関数）を満たさない場合のエラーです。
type InvalidOptionValueError struct {
	Key    string
	Reason string
	Value  interface{}
}

func (e *InvalidOptionValueError) Error() string {
	return fmt.Sprintf("smtgo: invalid value for option '%s': %s (got: %v)", e.Key, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InvalidOptionValueError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("option", e.Key).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "InvalidOptionValueError")
}

// NewInvalidOptionValueError は新しいInvalidOptionValueErrorを作成し、スタックトレースを付与します。
func NewInvalidOptionValueError(key, reason string, value interface{}) error {
	return errors.WithStack(&InvalidOptionValueError{Key: key, Reason: reason, Value: value})
}

// MissingOptionError は学習前に必須オプションが設定されていない場合のエラーです。
type MissingOptionError struct {
	Key string
}

func (e *MissingOptionError) Error() string {
	return fmt.Sprintf("smtgo: option '%s' is required before training", e.Key)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *MissingOptionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("option", e.Key).
		Str("type", "MissingOptionError")
}

// NewMissingOptionError は新しいMissingOptionErrorを作成し、スタックトレースを付与します。
func NewMissingOptionError(key string) error {
	return errors.WithStack(&MissingOptionError{Key: key})
}

// ===========================================================================
//
//	定義域エラー
//
// ===========================================================================

// DomainKind は定義域違反の種類（上限超過・下限未満）を表します。
type DomainKind int

const (
	// BelowMin は値が下限を下回ったことを示す
	BelowMin DomainKind = iota
	// AboveMax は値が上限を上回ったことを示す
	AboveMax
)

// String は違反の種類をメッセージ中の表記で返します。
func (k DomainKind) String() string {
	if k == AboveMax {
		return "above max"
	}
	return "below min"
}

// DomainViolationError は学習点が宣言された入力定義域の外にある場合のエラーです。
// メッセージ形式 "Training pts above max for {dim}" は外部契約の一部です。
type DomainViolationError struct {
	Dim   int        // 違反した次元（0始まり）
	Kind  DomainKind // 上限超過か下限未満か
	Row   int        // 最初に違反した行
	Value float64    // 違反した値
	Bound float64    // 違反した境界値
}

func (e *DomainViolationError) Error() string {
	return fmt.Sprintf("Training pts %s for %d", e.Kind, e.Dim)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DomainViolationError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("dim", e.Dim).
		Str("kind", e.Kind.String()).
		Int("row", e.Row).
		Float64("value", e.Value).
		Float64("bound", e.Bound).
		Str("type", "DomainViolationError")
}

// NewDomainViolationError は新しいDomainViolationErrorを作成し、スタックトレースを付与します。
func NewDomainViolationError(dim int, kind DomainKind, row int, value, bound float64) error {
	return errors.WithStack(&DomainViolationError{Dim: dim, Kind: kind, Row: row, Value: value, Bound: bound})
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotTrainedError はモデルが未学習の状態で `Predict` を呼び出した場合のエラーです。
type NotTrainedError struct {
	ModelName string
	Method    string
}

func (e *NotTrainedError) Error() string {
	return fmt.Sprintf("smtgo: %s: this model is not trained yet. Call Train() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotTrainedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotTrainedError")
}

// NewNotTrainedError は新しいNotTrainedErrorを作成し、スタックトレースを付与します。
func NewNotTrainedError(modelName, method string) error {
	return errors.WithStack(&NotTrainedError{ModelName: modelName, Method: method})
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("smtgo: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("smtgo: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError はサロゲートモデルの学習に関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("smtgo: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("smtgo: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// NumericalInstabilityError は数値計算が不安定になった場合のエラーです。
// NaN、Infなどを検出します。
type NumericalInstabilityError struct {
	Operation string    // 発生した操作（例: "kpls.likelihood", "rmt.solve"）
	Values    []float64 // 問題のある値
	Iteration int       // 発生したイテレーション番号
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("smtgo: numerical instability detected in %s at iteration %d. Values: [%s]",
		e.Operation, e.Iteration, valStr)
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	return errors.WithStack(&NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
	})
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// GetSafeDetails はcockroachdb/errorsが保持する安全な詳細情報（スタックトレース等）を返します。
func GetSafeDetails(err error) []string {
	return errors.GetSafeDetails(err).SafeDetails
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix は特異行列の場合のエラーです。
	ErrSingularMatrix = New("singular matrix")
)
