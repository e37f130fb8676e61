package automl

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Step is a primitive with concrete hyperparameter values.
type Step struct {
	Primitive *Primitive
	Params    map[string]any
}

func (s Step) clone() Step {
	p := make(map[string]any, len(s.Params))
	for k, v := range s.Params {
		p[k] = v
	}
	return Step{Primitive: s.Primitive, Params: p}
}

func (s Step) paramString() string {
	keys := make([]string, 0, len(s.Params))
	for k := range s.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s.%s=%v", s.Primitive.Name, k, s.Params[k])
	}
	return strings.Join(parts, ", ")
}

// Individual is one candidate pipeline: preprocessing steps applied in order
// followed by an estimator.
type Individual struct {
	ID            string
	Preprocessing []Step
	Estimator     Step
	Parents       []string
	Origin        string // "random", "mutation" or "crossover"

	Fitness  float64 // oriented score, -Inf when the evaluation failed
	Duration time.Duration
	Err      error
	Found    time.Duration // time since search start when evaluated
}

func newIndividual(pre []Step, est Step, origin string, parents ...string) *Individual {
	return &Individual{
		ID:            uuid.NewString(),
		Preprocessing: pre,
		Estimator:     est,
		Parents:       parents,
		Origin:        origin,
		Fitness:       math.Inf(-1),
	}
}

// Failed reports whether the evaluation produced no usable score.
func (ind *Individual) Failed() bool { return math.IsInf(ind.Fitness, -1) || math.IsNaN(ind.Fitness) }

// Length is the number of primitives in the pipeline.
func (ind *Individual) Length() int { return len(ind.Preprocessing) + 1 }

// String renders the pipeline as nested calls, innermost step first,
// e.g. "GaussianNB(StandardScaler(data, ...), GaussianNB.var_smoothing=1e-09)".
func (ind *Individual) String() string {
	expr := "data"
	for _, s := range append(append([]Step(nil), ind.Preprocessing...), ind.Estimator) {
		args := []string{expr}
		if ps := s.paramString(); ps != "" {
			args = append(args, ps)
		}
		expr = fmt.Sprintf("%s(%s)", s.Primitive.Name, strings.Join(args, ", "))
	}
	return expr
}
