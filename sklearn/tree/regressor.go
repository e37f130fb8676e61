package tree

import (
	"fmt"

	"github.com/YuminosukeSato/gamabench/core/model"
	"github.com/YuminosukeSato/gamabench/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DecisionTreeRegressor is a CART regression tree minimising squared error.
type DecisionTreeRegressor struct {
	treeParams
	state *model.StateManager

	root        *node
	importances []float64
	depth       int
	nLeaves     int
}

// NewDecisionTreeRegressor creates a regressor with scikit-learn defaults.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	dt := &DecisionTreeRegressor{
		treeParams: treeParams{
			criterion:       "squared_error",
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

// Fit grows the tree on X and the targets in y.
func (dt *DecisionTreeRegressor) Fit(X, y mat.Matrix) error {
	rows, cols := X.Dims()
	yRows, _ := y.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if yRows != rows {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", rows, yRows, 0)
	}
	if err := dt.validate("squared_error"); err != nil {
		return err
	}

	target := mat.Col(nil, 0, y)
	b := &builder{
		params:      dt.treeParams,
		X:           X,
		nFeatures:   cols,
		newCriteria: func() impurity { return &moments{y: target} },
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

// Predict returns the mean target of each sample's leaf.
func (dt *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.state.RequireFitted("DecisionTreeRegressor", "Predict"); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if err := dt.state.RequireFeatures("DecisionTreeRegressor.Predict", cols); err != nil {
		return nil, err
	}
	out := mat.NewDense(rows, 1, nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		out.Set(i, 0, dt.root.apply(row).value[0])
	}
	return out, nil
}

// GetFeatureImportances returns the normalized impurity decrease per feature.
func (dt *DecisionTreeRegressor) GetFeatureImportances() []float64 { return dt.importances }

// GetDepth returns the depth of the fitted tree.
func (dt *DecisionTreeRegressor) GetDepth() int { return dt.depth }

// GetNLeaves returns the number of leaves of the fitted tree.
func (dt *DecisionTreeRegressor) GetNLeaves() int { return dt.nLeaves }

// GetParams returns the hyperparameters using scikit-learn names.
func (dt *DecisionTreeRegressor) GetParams() map[string]interface{} { return dt.getParams() }

// SetParams updates hyperparameters from a scikit-learn style map.
func (dt *DecisionTreeRegressor) SetParams(params map[string]interface{}) error {
	return dt.setParams("DecisionTreeRegressor", params)
}

func (dt *DecisionTreeRegressor) String() string {
	return fmt.Sprintf("DecisionTreeRegressor(max_depth=%d, min_samples_split=%d, min_samples_leaf=%d)",
		dt.maxDepth, dt.minSamplesSplit, dt.minSamplesLeaf)
}
