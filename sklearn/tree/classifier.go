package tree

import (
	"fmt"
	"math"
	"sort"

	"github.com/YuminosukeSato/gamabench/core/model"
	"github.com/YuminosukeSato/gamabench/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DecisionTreeClassifier is a CART classification tree.
type DecisionTreeClassifier struct {
	treeParams
	state *model.StateManager

	root        *node
	classes     []int
	importances []float64
	depth       int
	nLeaves     int
}

// NewDecisionTreeClassifier creates a classifier with scikit-learn defaults
// (gini, unlimited depth, min_samples_split=2, min_samples_leaf=1).
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		treeParams: treeParams{
			criterion:       "gini",
			maxDepth:        -1,
			minSamplesSplit: 2,
			minSamplesLeaf:  1,
		},
		state: model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(&dt.treeParams)
	}
	return dt
}

// Fit grows the tree on X and the class codes in y.
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	rows, cols := X.Dims()
	yRows, _ := y.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("DecisionTreeClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if yRows != rows {
		return errors.NewDimensionError("DecisionTreeClassifier.Fit", rows, yRows, 0)
	}
	if err := dt.validate("gini", "entropy"); err != nil {
		return err
	}

	seen := make(map[int]bool)
	for i := 0; i < rows; i++ {
		seen[int(math.Round(y.At(i, 0)))] = true
	}
	dt.classes = dt.classes[:0]
	for c := range seen {
		dt.classes = append(dt.classes, c)
	}
	sort.Ints(dt.classes)
	index := make(map[int]int, len(dt.classes))
	for i, c := range dt.classes {
		index[c] = i
	}
	labels := make([]int, rows)
	for i := range labels {
		labels[i] = index[int(math.Round(y.At(i, 0)))]
	}

	nClasses := len(dt.classes)
	entropy := dt.criterion == "entropy"
	b := &builder{
		params:    dt.treeParams,
		X:         X,
		nFeatures: cols,
		newCriteria: func() impurity {
			return &classCounts{labels: labels, counts: make([]float64, nClasses), entropy: entropy}
		},
		importances: make([]float64, cols),
		nSamples:    rows,
	}
	idx := make([]int, rows)
	for i := range idx {
		idx[i] = i
	}
	dt.root = b.build(idx, 0)
	dt.importances = b.normalizedImportances()
	dt.depth = b.depth
	dt.nLeaves = b.leaves

	dt.state.SetDimensions(cols, rows)
	dt.state.SetFitted()
	return nil
}

// PredictProba returns the class distribution of the leaf each sample lands in.
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if err := dt.state.RequireFeatures("DecisionTreeClassifier.PredictProba", cols); err != nil {
		return nil, err
	}
	out := mat.NewDense(rows, len(dt.classes), nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		out.SetRow(i, dt.root.apply(row).value)
	}
	return out, nil
}

// Predict returns the majority class code of each sample's leaf.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := dt.PredictProba(X)
	if err != nil {
		return nil, err
	}
	p := proba.(*mat.Dense)
	rows, _ := p.Dims()
	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		out.Set(i, 0, float64(dt.classes[floats.MaxIdx(p.RawRowView(i))]))
	}
	return out, nil
}

// Score returns the mean accuracy on the given data.
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) float64 {
	pred, err := dt.Predict(X)
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
func (dt *DecisionTreeClassifier) Classes() []int { return dt.classes }

// GetFeatureImportances returns the normalized impurity decrease per feature.
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 { return dt.importances }

// GetDepth returns the depth of the fitted tree.
func (dt *DecisionTreeClassifier) GetDepth() int { return dt.depth }

// GetNLeaves returns the number of leaves of the fitted tree.
func (dt *DecisionTreeClassifier) GetNLeaves() int { return dt.nLeaves }

// GetParams returns the hyperparameters using scikit-learn names.
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} { return dt.getParams() }

// SetParams updates hyperparameters from a scikit-learn style map.
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	return dt.setParams("DecisionTreeClassifier", params)
}

func (dt *DecisionTreeClassifier) String() string {
	return fmt.Sprintf("DecisionTreeClassifier(criterion=%s, max_depth=%d, min_samples_split=%d, min_samples_leaf=%d)",
		dt.criterion, dt.maxDepth, dt.minSamplesSplit, dt.minSamplesLeaf)
}
