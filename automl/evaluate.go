package automl

import (
	"context"
	"math/rand"
	"time"

	"github.com/YuminosukeSato/gamabench/metrics"
	"github.com/YuminosukeSato/gamabench/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// evaluator scores individuals by k-fold cross-validation. Out-of-fold
// predictions of all folds are pooled and scored once.
type evaluator struct {
	X              *mat.Dense
	y              []float64 // class codes or regression targets
	classification bool
	nClasses       int
	scorer         *metrics.Scorer
	folds          [][]int // test indices per fold
	timeout        time.Duration
}

func newEvaluator(X *mat.Dense, y []float64, classification bool, nClasses int,
	scorer *metrics.Scorer, cv int, timeout time.Duration, rng *rand.Rand) *evaluator {
	return &evaluator{
		X:              X,
		y:              y,
		classification: classification,
		nClasses:       nClasses,
		scorer:         scorer,
		folds:          makeFolds(y, classification, cv, rng),
		timeout:        timeout,
	}
}

// makeFolds deals shuffled indices round-robin into k folds. For
// classification each class is dealt in turn so folds are stratified.
func makeFolds(y []float64, stratified bool, k int, rng *rand.Rand) [][]int {
	if k > len(y) {
		k = len(y)
	}
	groups := [][]int{}
	if stratified {
		byClass := map[int][]int{}
		maxCode := 0
		for i, v := range y {
			c := int(v)
			byClass[c] = append(byClass[c], i)
			if c > maxCode {
				maxCode = c
			}
		}
		for c := 0; c <= maxCode; c++ {
			if idx, ok := byClass[c]; ok {
				groups = append(groups, idx)
			}
		}
	} else {
		all := make([]int, len(y))
		for i := range all {
			all[i] = i
		}
		groups = append(groups, all)
	}

	folds := make([][]int, k)
	next := 0
	for _, g := range groups {
		rng.Shuffle(len(g), func(i, j int) { g[i], g[j] = g[j], g[i] })
		for _, i := range g {
			folds[next%k] = append(folds[next%k], i)
			next++
		}
	}
	return folds
}

// evaluate returns the cross-validated fitness of ind. Cross-validation runs
// on the calling goroutine and checks the evaluation deadline between folds,
// pipeline steps and solver iterations, so a worker never has more than one
// evaluation in flight. A panic in any step is returned as an error.
func (e *evaluator) evaluate(ctx context.Context, ind *Individual) (float64, error) {
	evalCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	score, err := errors.SafeCall("evaluate "+ind.ID, func() (float64, error) {
		return e.crossValidate(evalCtx, ind)
	})
	if ctx.Err() == nil && errors.Is(evalCtx.Err(), context.DeadlineExceeded) {
		return 0, errors.Wrapf(errors.ErrEvaluationTimeout, "%s after %s", ind.ID, e.timeout)
	}
	return score, err
}

func (e *evaluator) crossValidate(ctx context.Context, ind *Individual) (float64, error) {
	n := len(e.y)
	_, cols := e.X.Dims()
	pred := mat.NewVecDense(n, nil)
	var proba *mat.Dense
	if e.scorer.NeedsProba {
		proba = mat.NewDense(n, e.nClasses, nil)
	}

	inTest := make([]bool, n)
	for _, test := range e.folds {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		for i := range inTest {
			inTest[i] = false
		}
		for _, i := range test {
			inTest[i] = true
		}
		train := make([]int, 0, n-len(test))
		for i := 0; i < n; i++ {
			if !inTest[i] {
				train = append(train, i)
			}
		}

		Xtr, ytr := e.subset(train, cols)
		Xte, _ := e.subset(test, cols)
		p := newPipeline(ind)
		if err := p.Fit(ctx, Xtr, ytr); err != nil {
			return 0, err
		}
		if e.scorer.NeedsProba {
			pr, err := p.PredictProba(Xte, e.nClasses)
			if err != nil {
				return 0, err
			}
			for r, i := range test {
				proba.SetRow(i, pr.RawRowView(r))
			}
			continue
		}
		pv, err := p.Predict(Xte)
		if err != nil {
			return 0, err
		}
		for r, i := range test {
			pred.SetVec(i, pv.AtVec(r))
		}
	}

	classes := make([]int, e.nClasses)
	for i := range classes {
		classes[i] = i
	}
	return e.scorer.Score(mat.NewVecDense(n, e.y), pred, proba, classes)
}

func (e *evaluator) subset(idx []int, cols int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(len(idx), cols, nil)
	y := mat.NewDense(len(idx), 1, nil)
	for r, i := range idx {
		X.SetRow(r, e.X.RawRowView(i))
		y.Set(r, 0, e.y[i])
	}
	return X, y
}
