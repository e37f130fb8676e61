package automl

import (
	"context"

	"github.com/YuminosukeSato/gamabench/core/model"
	"github.com/YuminosukeSato/gamabench/pkg/errors"
	"github.com/YuminosukeSato/gamabench/preprocessing"
	"gonum.org/v1/gonum/mat"
)

// Pipeline is the fitted form of an Individual. Missing values are imputed
// with the training mean before the searched steps run.
type Pipeline struct {
	imputer   *preprocessing.SimpleImputer
	steps     []model.Transformer
	estimator model.Estimator
}

func newPipeline(ind *Individual) *Pipeline {
	p := &Pipeline{imputer: preprocessing.NewSimpleImputer()}
	for _, s := range ind.Preprocessing {
		p.steps = append(p.steps, s.Primitive.newTransformer(s.Params))
	}
	p.estimator = ind.Estimator.Primitive.newEstimator(ind.Estimator.Params)
	return p
}

// Fit fits every step on the output of the previous one. y is n×1. It
// returns ctx.Err() between steps, and iterative estimators also check ctx
// between iterations.
func (p *Pipeline) Fit(ctx context.Context, X, y mat.Matrix) error {
	Xt, err := p.imputer.FitTransform(X)
	if err != nil {
		return err
	}
	for _, s := range p.steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if Xt, err = s.FitTransform(Xt); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if cf, ok := p.estimator.(model.ContextFitter); ok {
		return cf.FitContext(ctx, Xt, y)
	}
	return p.estimator.Fit(Xt, y)
}

func (p *Pipeline) transform(X mat.Matrix) (mat.Matrix, error) {
	Xt, err := p.imputer.Transform(X)
	if err != nil {
		return nil, err
	}
	for _, s := range p.steps {
		if Xt, err = s.Transform(Xt); err != nil {
			return nil, err
		}
	}
	return Xt, nil
}

// Predict returns class codes or regression values.
func (p *Pipeline) Predict(X mat.Matrix) (*mat.VecDense, error) {
	Xt, err := p.transform(X)
	if err != nil {
		return nil, err
	}
	pred, err := p.estimator.Predict(Xt)
	if err != nil {
		return nil, err
	}
	rows, _ := pred.Dims()
	return mat.NewVecDense(rows, mat.Col(nil, 0, pred)), nil
}

// PredictProba returns an n×nClasses matrix whose column k is the
// probability of class code k. Classes absent from the training data get 0.
func (p *Pipeline) PredictProba(X mat.Matrix, nClasses int) (*mat.Dense, error) {
	clf, ok := p.estimator.(model.Classifier)
	if !ok {
		return nil, errors.NewValueError("Pipeline.PredictProba", "estimator does not predict probabilities")
	}
	Xt, err := p.transform(X)
	if err != nil {
		return nil, err
	}
	proba, err := clf.PredictProba(Xt)
	if err != nil {
		return nil, err
	}
	rows, _ := proba.Dims()
	out := mat.NewDense(rows, nClasses, nil)
	for j, code := range clf.Classes() {
		if code < 0 || code >= nClasses {
			return nil, errors.NewValueError("Pipeline.PredictProba", "class code out of range")
		}
		for i := 0; i < rows; i++ {
			out.Set(i, code, proba.At(i, j))
		}
	}
	return out, nil
}
