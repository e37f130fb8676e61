// Package naive_bayes provides naive Bayes classifiers.
package naive_bayes

import (
	"fmt"
	"math"
	"sort"

	"github.com/YuminosukeSato/gamabench/core/model"
	"github.com/YuminosukeSato/gamabench/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// GaussianNB is naive Bayes with a per-class normal likelihood on each feature.
type GaussianNB struct {
	state *model.StateManager

	varSmoothing float64

	classes    []int
	classPrior []float64
	theta      [][]float64 // per-class feature means
	variance   [][]float64 // per-class feature variances, smoothed
}

// GaussianNBOption configures a GaussianNB.
type GaussianNBOption func(*GaussianNB)

// WithVarSmoothing sets the portion of the largest feature variance added to
// every variance.
func WithVarSmoothing(v float64) GaussianNBOption {
	return func(nb *GaussianNB) {
		nb.varSmoothing = v
	}
}

// NewGaussianNB creates a GaussianNB with var_smoothing=1e-9.
func NewGaussianNB(opts ...GaussianNBOption) *GaussianNB {
	nb := &GaussianNB{
		state:        model.NewStateManager(),
		varSmoothing: 1e-9,
	}
	for _, opt := range opts {
		opt(nb)
	}
	return nb
}

// Fit estimates class priors and per-class feature moments.
func (nb *GaussianNB) Fit(X, y mat.Matrix) error {
	rows, cols := X.Dims()
	yRows, _ := y.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("GaussianNB.Fit", "empty data", errors.ErrEmptyData)
	}
	if yRows != rows {
		return errors.NewDimensionError("GaussianNB.Fit", rows, yRows, 0)
	}
	if nb.varSmoothing < 0 {
		return errors.NewValidationError("var_smoothing", "must be non-negative", nb.varSmoothing)
	}

	members := make(map[int][]int)
	for i := 0; i < rows; i++ {
		c := int(math.Round(y.At(i, 0)))
		members[c] = append(members[c], i)
	}
	nb.classes = make([]int, 0, len(members))
	for c := range members {
		nb.classes = append(nb.classes, c)
	}
	sort.Ints(nb.classes)

	// epsilon = var_smoothing * max feature variance over all samples
	maxVar := 0.0
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, X)
		_, std := stat.PopMeanStdDev(col, nil)
		maxVar = math.Max(maxVar, std*std)
	}
	epsilon := nb.varSmoothing * maxVar

	nClasses := len(nb.classes)
	nb.classPrior = make([]float64, nClasses)
	nb.theta = make([][]float64, nClasses)
	nb.variance = make([][]float64, nClasses)
	for k, c := range nb.classes {
		idx := members[c]
		nb.classPrior[k] = float64(len(idx)) / float64(rows)
		nb.theta[k] = make([]float64, cols)
		nb.variance[k] = make([]float64, cols)
		vals := make([]float64, len(idx))
		for j := 0; j < cols; j++ {
			for n, i := range idx {
				vals[n] = X.At(i, j)
			}
			mean, std := stat.PopMeanStdDev(vals, nil)
			nb.theta[k][j] = mean
			nb.variance[k][j] = std*std + epsilon
		}
	}

	nb.state.SetDimensions(cols, rows)
	nb.state.SetFitted()
	return nil
}

// PredictLogProba returns normalized log probabilities per class.
func (nb *GaussianNB) PredictLogProba(X mat.Matrix) (mat.Matrix, error) {
	if err := nb.state.RequireFitted("GaussianNB", "PredictLogProba"); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if err := nb.state.RequireFeatures("GaussianNB.PredictLogProba", cols); err != nil {
		return nil, err
	}

	out := mat.NewDense(rows, len(nb.classes), nil)
	jll := make([]float64, len(nb.classes))
	for i := 0; i < rows; i++ {
		for k := range nb.classes {
			ll := math.Log(nb.classPrior[k])
			for j := 0; j < cols; j++ {
				v := nb.variance[k][j]
				if v == 0 {
					// zero variance with zero smoothing: degenerate point mass
					if X.At(i, j) == nb.theta[k][j] {
						continue
					}
					ll = math.Inf(-1)
					break
				}
				d := X.At(i, j) - nb.theta[k][j]
				ll -= 0.5*math.Log(2*math.Pi*v) + d*d/(2*v)
			}
			jll[k] = ll
		}
		norm := errors.LogSumExp(jll)
		for k := range jll {
			out.Set(i, k, jll[k]-norm)
		}
	}
	return out, nil
}

// PredictProba returns class probabilities, one column per Classes() entry.
func (nb *GaussianNB) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	logProba, err := nb.PredictLogProba(X)
	if err != nil {
		return nil, err
	}
	out := mat.DenseCopyOf(logProba)
	out.Apply(func(_, _ int, v float64) float64 { return math.Exp(v) }, out)
	return out, nil
}

// Predict returns the most probable class code for each sample.
func (nb *GaussianNB) Predict(X mat.Matrix) (mat.Matrix, error) {
	logProba, err := nb.PredictLogProba(X)
	if err != nil {
		return nil, err
	}
	p := logProba.(*mat.Dense)
	rows, _ := p.Dims()
	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		out.Set(i, 0, float64(nb.classes[floats.MaxIdx(p.RawRowView(i))]))
	}
	return out, nil
}

// Score returns the mean accuracy on the given data.
func (nb *GaussianNB) Score(X, y mat.Matrix) float64 {
	pred, err := nb.Predict(X)
	if err != nil {
		return 0
	}
	n, _ := y.Dims()
	correct := 0
	for i := 0; i < n; i++ {
		if pred.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(n)
}

// Classes returns the sorted class codes seen during fitting.
func (nb *GaussianNB) Classes() []int { return nb.classes }

// GetParams returns the hyperparameters using scikit-learn names.
func (nb *GaussianNB) GetParams() map[string]interface{} {
	return map[string]interface{}{"var_smoothing": nb.varSmoothing}
}

func (nb *GaussianNB) String() string {
	return fmt.Sprintf("GaussianNB(var_smoothing=%g)", nb.varSmoothing)
}
