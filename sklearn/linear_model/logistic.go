package linear_model

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/YuminosukeSato/gamabench/core/model"
	"github.com/YuminosukeSato/gamabench/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LogisticRegression implements L2-regularised logistic regression.
// Binary problems use a single sigmoid; more classes use a multinomial
// (softmax) model. Compatible with scikit-learn's LogisticRegression
// defaults (C=1.0, max_iter=100, tol=1e-4).
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	penalty      string  // "l2" or "none"
	C            float64 // Inverse regularization strength
	fitIntercept bool
	maxIter      int
	tol          float64

	// Model parameters
	coef_      [][]float64 // 1 x n_features for binary, n_classes x n_features otherwise
	intercept_ []float64
	classes_   []int
	nClasses_  int
	nIter_     int
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      "l2",
		C:            1.0,
		fitIntercept: true,
		maxIter:      100,
		tol:          1e-4,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithLRPenalty sets the regularization type ("l2" or "none")
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance on the gradient for the stopping criterion
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// Fit trains the model by full-batch gradient descent.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	return lr.FitContext(context.Background(), X, y)
}

// FitContext is Fit that stops between iterations once ctx is done. The
// model is left unfitted in that case.
func (lr *LogisticRegression) FitContext(ctx context.Context, X, y mat.Matrix) error {
	rows, cols := X.Dims()
	yRows, yCols := y.Dims()

	if rows == 0 || cols == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if yRows != rows {
		return errors.NewDimensionError("LogisticRegression.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector")
	}
	if err := lr.validate(); err != nil {
		return err
	}

	labels := lr.extractClasses(y)
	if lr.nClasses_ < 2 {
		return errors.NewValueError("LogisticRegression.Fit",
			fmt.Sprintf("needs samples of at least 2 classes, got %d", lr.nClasses_))
	}

	nOut := lr.nClasses_
	if nOut == 2 {
		nOut = 1
	}
	lr.coef_ = make([][]float64, nOut)
	for k := range lr.coef_ {
		lr.coef_[k] = make([]float64, cols)
	}
	lr.intercept_ = make([]float64, nOut)

	lambda := 0.0
	if lr.penalty == "l2" {
		lambda = 1.0 / (lr.C * float64(rows))
	}

	// 1/L for the smooth part bounds the step so descent is monotone.
	maxNorm := 0.0
	for i := 0; i < rows; i++ {
		s := 0.0
		for j := 0; j < cols; j++ {
			v := X.At(i, j)
			s += v * v
		}
		maxNorm = math.Max(maxNorm, s)
	}
	if lr.fitIntercept {
		maxNorm++
	}
	curvature := 0.25
	if nOut > 1 {
		curvature = 0.5
	}
	step := 1.0 / (curvature*maxNorm + lambda)

	gradW := make([][]float64, nOut)
	for k := range gradW {
		gradW[k] = make([]float64, cols)
	}
	gradB := make([]float64, nOut)
	probs := make([]float64, lr.nClasses_)
	row := make([]float64, cols)

	converged := false
	for iter := 0; iter < lr.maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "LogisticRegression.Fit")
		}
		for k := range gradW {
			for j := range gradW[k] {
				gradW[k][j] = lambda * lr.coef_[k][j]
			}
			gradB[k] = 0
		}

		for i := 0; i < rows; i++ {
			mat.Row(row, i, X)
			lr.probaRow(row, probs)
			for k := 0; k < nOut; k++ {
				target := 0.0
				var residual float64
				if nOut == 1 {
					if labels[i] == 1 {
						target = 1
					}
					residual = probs[1] - target
				} else {
					if labels[i] == k {
						target = 1
					}
					residual = probs[k] - target
				}
				residual /= float64(rows)
				floats.AddScaled(gradW[k], residual, row)
				gradB[k] += residual
			}
		}

		maxGrad := 0.0
		for k := 0; k < nOut; k++ {
			floats.AddScaled(lr.coef_[k], -step, gradW[k])
			maxGrad = math.Max(maxGrad, floats.Norm(gradW[k], math.Inf(1)))
			if lr.fitIntercept {
				lr.intercept_[k] -= step * gradB[k]
				maxGrad = math.Max(maxGrad, math.Abs(gradB[k]))
			}
		}

		lr.nIter_ = iter + 1
		if maxGrad < lr.tol {
			converged = true
			break
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.nIter_,
			"gradient descent did not reach tol; increase max_iter"))
	}

	lr.state.SetDimensions(cols, rows)
	lr.state.SetFitted()
	return nil
}

func (lr *LogisticRegression) validate() error {
	if lr.C <= 0 {
		return errors.NewValidationError("C", "must be positive", lr.C)
	}
	if lr.maxIter <= 0 {
		return errors.NewValidationError("max_iter", "must be positive", lr.maxIter)
	}
	if lr.penalty != "l2" && lr.penalty != "none" {
		return errors.NewValidationError("penalty", "must be 'l2' or 'none'", lr.penalty)
	}
	return nil
}

// extractClasses stores the sorted class codes and returns each sample's
// index into them.
func (lr *LogisticRegression) extractClasses(y mat.Matrix) []int {
	n, _ := y.Dims()
	seen := make(map[int]bool)
	for i := 0; i < n; i++ {
		seen[int(math.Round(y.At(i, 0)))] = true
	}
	lr.classes_ = make([]int, 0, len(seen))
	for c := range seen {
		lr.classes_ = append(lr.classes_, c)
	}
	sort.Ints(lr.classes_)
	lr.nClasses_ = len(lr.classes_)

	index := make(map[int]int, len(lr.classes_))
	for i, c := range lr.classes_ {
		index[c] = i
	}
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		labels[i] = index[int(math.Round(y.At(i, 0)))]
	}
	return labels
}

// probaRow writes the class probabilities of one sample into out.
func (lr *LogisticRegression) probaRow(x, out []float64) {
	if len(lr.coef_) == 1 {
		p := sigmoid(floats.Dot(lr.coef_[0], x) + lr.intercept_[0])
		out[0], out[1] = 1-p, p
		return
	}
	for k := range lr.coef_ {
		out[k] = floats.Dot(lr.coef_[k], x) + lr.intercept_[k]
	}
	lse := errors.LogSumExp(out)
	for k := range out {
		out[k] = math.Exp(out[k] - lse)
	}
}

// PredictProba returns class probabilities, one column per Classes() entry.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LogisticRegression", "PredictProba"); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if err := lr.state.RequireFeatures("LogisticRegression.PredictProba", cols); err != nil {
		return nil, err
	}

	out := mat.NewDense(rows, lr.nClasses_, nil)
	row := make([]float64, cols)
	probs := make([]float64, lr.nClasses_)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		lr.probaRow(row, probs)
		out.SetRow(i, probs)
	}
	return out, nil
}

// Predict returns the most probable class code for each sample.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LogisticRegression", "Predict"); err != nil {
		return nil, err
	}
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	p := proba.(*mat.Dense)
	rows, _ := p.Dims()
	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		out.Set(i, 0, float64(lr.classes_[floats.MaxIdx(p.RawRowView(i))]))
	}
	return out, nil
}

// Score returns the mean accuracy on the given data.
func (lr *LogisticRegression) Score(X, y mat.Matrix) float64 {
	pred, err := lr.Predict(X)
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
func (lr *LogisticRegression) Classes() []int {
	return lr.classes_
}

// GetParams returns the hyperparameters using scikit-learn names.
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
	}
}

// SetParams updates hyperparameters from a scikit-learn style map.
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "penalty":
			lr.penalty, ok = value.(string)
		case "C":
			lr.C, ok = value.(float64)
		case "fit_intercept":
			lr.fitIntercept, ok = value.(bool)
		case "max_iter":
			lr.maxIter, ok = value.(int)
		case "tol":
			lr.tol, ok = value.(float64)
		default:
			return errors.NewUnknownParameterError("LogisticRegression", []string{key})
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return nil
}

func (lr *LogisticRegression) String() string {
	return fmt.Sprintf("LogisticRegression(C=%g, penalty=%s)", lr.C, lr.penalty)
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
