package tree

import (
	"fmt"

	"github.com/YuminosukeSato/gamabench/pkg/errors"
)

// treeParams holds the hyperparameters shared by both tree estimators.
type treeParams struct {
	criterion       string
	maxDepth        int // -1 means unlimited
	minSamplesSplit int
	minSamplesLeaf  int
}

// Option configures a decision tree.
type Option func(*treeParams)

// WithCriterion sets the split quality measure: "gini" or "entropy" for
// classifiers, "squared_error" for regressors.
func WithCriterion(criterion string) Option {
	return func(p *treeParams) {
		p.criterion = criterion
	}
}

// WithMaxDepth limits the depth of the tree. Negative means unlimited.
func WithMaxDepth(depth int) Option {
	return func(p *treeParams) {
		p.maxDepth = depth
	}
}

// WithMinSamplesSplit sets the minimum number of samples needed to split a node.
func WithMinSamplesSplit(n int) Option {
	return func(p *treeParams) {
		p.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the minimum number of samples in each leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(p *treeParams) {
		p.minSamplesLeaf = n
	}
}

func (p *treeParams) validate(criteria ...string) error {
	ok := false
	for _, c := range criteria {
		if p.criterion == c {
			ok = true
		}
	}
	if !ok {
		return errors.NewValidationError("criterion", fmt.Sprintf("must be one of %v", criteria), p.criterion)
	}
	if p.minSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be at least 2", p.minSamplesSplit)
	}
	if p.minSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", p.minSamplesLeaf)
	}
	return nil
}

func (p *treeParams) getParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         p.criterion,
		"max_depth":         p.maxDepth,
		"min_samples_split": p.minSamplesSplit,
		"min_samples_leaf":  p.minSamplesLeaf,
	}
}

func (p *treeParams) setParams(estimator string, params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "criterion":
			p.criterion, ok = value.(string)
		case "max_depth":
			p.maxDepth, ok = value.(int)
		case "min_samples_split":
			p.minSamplesSplit, ok = value.(int)
		case "min_samples_leaf":
			p.minSamplesLeaf, ok = value.(int)
		default:
			return errors.NewUnknownParameterError(estimator, []string{key})
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return nil
}
