package metrics

import (
	"sort"

	"github.com/YuminosukeSato/gamabench/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Scorer evaluates predictions under a scikit-learn scoring name. Scores are
// oriented so that greater is better: the neg_* losses are negated.
type Scorer struct {
	Name string
	// NeedsProba is set for scores computed from class probabilities.
	NeedsProba bool
	// Classification is set for scores that only make sense on class codes.
	Classification bool

	sign   float64
	labels func(yTrue, yPred *mat.VecDense, classes []int) (float64, error)
	proba  func(yTrue *mat.VecDense, proba mat.Matrix, classes []int) (float64, error)
}

// Score computes the oriented score. yPred is used by label scorers and
// proba by probability scorers; the other may be nil.
func (s *Scorer) Score(yTrue, yPred *mat.VecDense, proba mat.Matrix, classes []int) (float64, error) {
	var v float64
	var err error
	if s.NeedsProba {
		v, err = s.proba(yTrue, proba, classes)
	} else {
		v, err = s.labels(yTrue, yPred, classes)
	}
	if err != nil {
		return 0, errors.Wrapf(err, "scoring %s", s.Name)
	}
	return s.sign * v, nil
}

func regression(fn func(yTrue, yPred *mat.VecDense) (float64, error)) func(yTrue, yPred *mat.VecDense, _ []int) (float64, error) {
	return func(yTrue, yPred *mat.VecDense, _ []int) (float64, error) { return fn(yTrue, yPred) }
}

var scorers = map[string]*Scorer{
	"accuracy": {
		Name: "accuracy", Classification: true, sign: 1,
		labels: func(yTrue, yPred *mat.VecDense, _ []int) (float64, error) { return Accuracy(yTrue, yPred) },
	},
	"f1": {
		Name: "f1", Classification: true, sign: 1,
		labels: F1Score,
	},
	"roc_auc": {
		Name: "roc_auc", Classification: true, NeedsProba: true, sign: 1,
		proba: ROCAUC,
	},
	"neg_log_loss": {
		Name: "neg_log_loss", Classification: true, NeedsProba: true, sign: -1,
		proba: LogLoss,
	},
	"neg_mean_absolute_error":     {Name: "neg_mean_absolute_error", sign: -1, labels: regression(MAE)},
	"neg_mean_squared_error":      {Name: "neg_mean_squared_error", sign: -1, labels: regression(MSE)},
	"neg_root_mean_squared_error": {Name: "neg_root_mean_squared_error", sign: -1, labels: regression(RMSE)},
	"neg_mean_squared_log_error":  {Name: "neg_mean_squared_log_error", sign: -1, labels: regression(MSLE)},
	"r2":                          {Name: "r2", sign: 1, labels: regression(R2Score)},
}

// GetScorer returns the scorer registered under a scikit-learn scoring name.
func GetScorer(name string) (*Scorer, error) {
	s, ok := scorers[name]
	if !ok {
		return nil, errors.NewUnsupportedMetricError(name, ScorerNames())
	}
	return s, nil
}

// ScorerNames lists the registered scoring names in sorted order.
func ScorerNames() []string {
	names := make([]string, 0, len(scorers))
	for name := range scorers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
