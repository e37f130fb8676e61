// Package model defines the interfaces shared by estimators and
// preprocessing steps, so that pipelines can compose them without knowing
// the concrete types.
package model

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// ContextFitter is implemented by iterative models that can abandon a fit
// when ctx is done.
type ContextFitter interface {
	FitContext(ctx context.Context, X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う (n_samples × 1)
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Estimator は教師あり学習モデルの基本インターフェース
type Estimator interface {
	Fitter
	Predictor
}

// Classifier は確率を出力できる分類器
type Classifier interface {
	Estimator

	// PredictProba returns probability estimates, one column per entry of Classes().
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the sorted class codes seen during fitting.
	Classes() []int
}

// Regressor is an Estimator predicting continuous values.
type Regressor interface {
	Estimator
}

// Transformer はデータ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// ParameterGetter is the interface for models that expose their hyperparameters
// using scikit-learn style names.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}
