// Package core は smtgo の各パッケージが共有するインターフェースを定義します。
package core

import "gonum.org/v1/gonum/mat"

// Predictor は学習済みの表現です。x は (n, nx)、戻り値は (n, ny)。
type Predictor interface {
	Predict(x *mat.Dense) (*mat.Dense, error)
}

// Trainer は学習点を受け取り学習するモデルのインターフェース
type Trainer interface {
	// AddTrainingPoints は忠実度クラス class に (X, Y) を追加する
	AddTrainingPoints(class string, X, Y mat.Matrix) error
	// Train は保持している全ての学習点でモデルを学習する
	Train() error
}

// Surrogate はサロゲートモデルの基本インターフェース
type Surrogate interface {
	Trainer
	Predictor
	Name() string
	IsTrained() bool
}

// Transformer はデータ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (*mat.Dense, error)

	// InverseTransform は Transform の逆変換を行う
	InverseTransform(X mat.Matrix) (*mat.Dense, error)
}
