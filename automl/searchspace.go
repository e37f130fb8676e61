package automl

import (
	"github.com/YuminosukeSato/gamabench/core/model"
	"github.com/YuminosukeSato/gamabench/linear"
	"github.com/YuminosukeSato/gamabench/preprocessing"
	"github.com/YuminosukeSato/gamabench/sklearn/linear_model"
	"github.com/YuminosukeSato/gamabench/sklearn/naive_bayes"
	"github.com/YuminosukeSato/gamabench/sklearn/tree"
)

// Hyperparameter is a named categorical range. Numeric ranges are
// discretised the way GAMA's default search space lists them.
type Hyperparameter struct {
	Name   string
	Values []any
}

type primitiveKind int

const (
	kindPreprocessor primitiveKind = iota
	kindClassifier
	kindRegressor
)

// Primitive is one searchable component together with its ranges and a
// constructor from concrete values.
type Primitive struct {
	Name   string
	Params []Hyperparameter

	kind           primitiveKind
	newTransformer func(p map[string]any) model.Transformer
	newEstimator   func(p map[string]any) model.Estimator
}

func values[T any](vs ...T) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func intRange(lo, hi int) []any {
	out := make([]any, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, i)
	}
	return out
}

var (
	preprocessors = []*Primitive{
		{
			Name: "StandardScaler",
			Params: []Hyperparameter{
				{Name: "with_mean", Values: values(true, false)},
				{Name: "with_std", Values: values(true, false)},
			},
			kind: kindPreprocessor,
			newTransformer: func(p map[string]any) model.Transformer {
				return preprocessing.NewStandardScaler(p["with_mean"].(bool), p["with_std"].(bool))
			},
		},
		{
			Name: "MinMaxScaler",
			kind: kindPreprocessor,
			newTransformer: func(map[string]any) model.Transformer {
				return preprocessing.NewMinMaxScalerDefault()
			},
		},
	}

	classifiers = []*Primitive{
		{
			Name: "LogisticRegression",
			Params: []Hyperparameter{
				{Name: "C", Values: values(1e-4, 1e-3, 1e-2, 1e-1, 0.5, 1.0, 5.0, 10.0, 15.0, 20.0, 25.0)},
				{Name: "penalty", Values: values("l2", "none")},
			},
			kind: kindClassifier,
			newEstimator: func(p map[string]any) model.Estimator {
				return linear_model.NewLogisticRegression(
					linear_model.WithLRC(p["C"].(float64)),
					linear_model.WithLRPenalty(p["penalty"].(string)),
					linear_model.WithLRMaxIter(200),
				)
			},
		},
		{
			Name:   "DecisionTreeClassifier",
			Params: treeParams("gini", "entropy"),
			kind:   kindClassifier,
			newEstimator: func(p map[string]any) model.Estimator {
				return tree.NewDecisionTreeClassifier(treeOptions(p)...)
			},
		},
		{
			Name: "GaussianNB",
			Params: []Hyperparameter{
				{Name: "var_smoothing", Values: values(1e-9, 1e-7, 1e-5, 1e-3)},
			},
			kind: kindClassifier,
			newEstimator: func(p map[string]any) model.Estimator {
				return naive_bayes.NewGaussianNB(naive_bayes.WithVarSmoothing(p["var_smoothing"].(float64)))
			},
		},
	}

	regressors = []*Primitive{
		{
			Name: "LinearRegression",
			Params: []Hyperparameter{
				{Name: "alpha", Values: values(0.0, 1e-3, 1e-2, 1e-1, 1.0, 10.0)},
				{Name: "fit_intercept", Values: values(true, false)},
			},
			kind: kindRegressor,
			newEstimator: func(p map[string]any) model.Estimator {
				return linear.NewLinearRegression(
					linear.WithAlpha(p["alpha"].(float64)),
					linear.WithFitIntercept(p["fit_intercept"].(bool)),
				)
			},
		},
		{
			Name:   "DecisionTreeRegressor",
			Params: treeParams("squared_error"),
			kind:   kindRegressor,
			newEstimator: func(p map[string]any) model.Estimator {
				return tree.NewDecisionTreeRegressor(treeOptions(p)...)
			},
		},
	}
)

func treeParams(criteria ...string) []Hyperparameter {
	return []Hyperparameter{
		{Name: "criterion", Values: values(criteria...)},
		{Name: "max_depth", Values: intRange(1, 10)},
		{Name: "min_samples_split", Values: intRange(2, 20)},
		{Name: "min_samples_leaf", Values: intRange(1, 20)},
	}
}

func treeOptions(p map[string]any) []tree.Option {
	return []tree.Option{
		tree.WithCriterion(p["criterion"].(string)),
		tree.WithMaxDepth(p["max_depth"].(int)),
		tree.WithMinSamplesSplit(p["min_samples_split"].(int)),
		tree.WithMinSamplesLeaf(p["min_samples_leaf"].(int)),
	}
}

// estimatorsFor returns the estimator primitives of a task.
func estimatorsFor(classification bool) []*Primitive {
	if classification {
		return classifiers
	}
	return regressors
}
