package automl

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/YuminosukeSato/gamabench/pkg/errors"
)

const (
	tournamentSize  = 3
	crossoverRate   = 0.2
	maxDuplicateTry = 50
)

// search is the asynchronous evolutionary algorithm: every worker takes the
// next candidate as soon as its previous evaluation finishes, so there are
// no generations to wait on.
type search struct {
	cfg            *config
	classification bool
	eval           *evaluator
	onEvaluated    func(*Individual)

	mu         sync.Mutex
	rng        *rand.Rand
	queue      []*Individual // initial random population still to evaluate
	population []*Individual
	history    []*Individual
	seen       map[string]bool
	start      time.Time
}

func newSearch(cfg *config, classification bool, eval *evaluator, rng *rand.Rand) *search {
	s := &search{
		cfg:            cfg,
		classification: classification,
		eval:           eval,
		rng:            rng,
		seen:           make(map[string]bool),
	}
	for i := 0; i < cfg.populationSize; i++ {
		s.queue = append(s.queue, s.unique(s.randomIndividual))
	}
	return s
}

// run evaluates candidates on cfg.nJobs workers until ctx is done.
func (s *search) run(ctx context.Context) error {
	s.start = time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < s.cfg.nJobs; w++ {
		g.Go(func() error {
			for ctx.Err() == nil {
				ind := s.next()
				t0 := time.Now()
				fitness, err := s.eval.evaluate(ctx, ind)
				if ctx.Err() != nil {
					// cut off by the search deadline, not by its own budget
					return nil
				}
				ind.Duration = time.Since(t0)
				s.record(ind, fitness, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *search) next() *Individual {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) > 0 {
		ind := s.queue[0]
		s.queue = s.queue[1:]
		return ind
	}
	if len(s.population) < 2 {
		return s.unique(s.randomIndividual)
	}
	return s.unique(s.offspring)
}

func (s *search) record(ind *Individual, fitness float64, err error) {
	s.mu.Lock()
	ind.Found = time.Since(s.start)
	if err != nil {
		ind.Err = err
	} else {
		ind.Fitness = fitness
	}
	s.history = append(s.history, ind)
	if len(s.population) < s.cfg.populationSize {
		s.population = append(s.population, ind)
	} else if worst := s.worst(); fitter(ind, s.population[worst]) {
		s.population[worst] = ind
	}
	s.mu.Unlock()

	if s.onEvaluated != nil {
		s.onEvaluated(ind)
	}
}

func fitter(a, b *Individual) bool {
	if a.Failed() {
		return false
	}
	return b.Failed() || a.Fitness > b.Fitness
}

func (s *search) worst() int {
	w := 0
	for i, ind := range s.population {
		if fitter(s.population[w], ind) {
			w = i
		}
	}
	return w
}

// unique draws from gen until it yields a pipeline not seen before. A small
// search space may run out, in which case a duplicate is accepted.
func (s *search) unique(gen func() *Individual) *Individual {
	var ind *Individual
	for i := 0; i < maxDuplicateTry; i++ {
		ind = gen()
		if key := ind.String(); !s.seen[key] {
			s.seen[key] = true
			return ind
		}
	}
	return ind
}

func (s *search) randomStep(p *Primitive) Step {
	params := make(map[string]any, len(p.Params))
	for _, h := range p.Params {
		params[h.Name] = h.Values[s.rng.Intn(len(h.Values))]
	}
	return Step{Primitive: p, Params: params}
}

func (s *search) randomPreprocessing() Step {
	return s.randomStep(preprocessors[s.rng.Intn(len(preprocessors))])
}

func (s *search) randomEstimator() Step {
	ests := estimatorsFor(s.classification)
	return s.randomStep(ests[s.rng.Intn(len(ests))])
}

func (s *search) randomIndividual() *Individual {
	n := s.rng.Intn(s.cfg.maxPipelineLength)
	pre := make([]Step, n)
	for i := range pre {
		pre[i] = s.randomPreprocessing()
	}
	return newIndividual(pre, s.randomEstimator(), "random")
}

func (s *search) tournament() *Individual {
	var best *Individual
	for i := 0; i < tournamentSize; i++ {
		c := s.population[s.rng.Intn(len(s.population))]
		if best == nil || fitter(c, best) {
			best = c
		}
	}
	return best
}

func (s *search) offspring() *Individual {
	a := s.tournament()
	if s.rng.Float64() < crossoverRate {
		if b := s.tournament(); b != a {
			pre := cloneSteps(a.Preprocessing)
			return newIndividual(pre, b.Estimator.clone(), "crossover", a.ID, b.ID)
		}
	}
	return s.mutate(a)
}

func cloneSteps(steps []Step) []Step {
	out := make([]Step, len(steps))
	for i, st := range steps {
		out[i] = st.clone()
	}
	return out
}

// mutate applies one randomly chosen mutation that is valid for parent.
func (s *search) mutate(parent *Individual) *Individual {
	pre := cloneSteps(parent.Preprocessing)
	est := parent.Estimator.clone()

	type mutation func()
	ops := []mutation{
		func() { est = s.randomEstimator() },
	}
	var tunable []*Step
	for i := range pre {
		if len(pre[i].Primitive.Params) > 0 {
			tunable = append(tunable, &pre[i])
		}
	}
	if len(est.Primitive.Params) > 0 {
		tunable = append(tunable, &est)
	}
	if len(tunable) > 0 {
		ops = append(ops, func() {
			st := tunable[s.rng.Intn(len(tunable))]
			h := st.Primitive.Params[s.rng.Intn(len(st.Primitive.Params))]
			st.Params[h.Name] = h.Values[s.rng.Intn(len(h.Values))]
		})
	}
	if len(pre)+1 < s.cfg.maxPipelineLength {
		ops = append(ops, func() {
			at := s.rng.Intn(len(pre) + 1)
			pre = append(pre[:at], append([]Step{s.randomPreprocessing()}, pre[at:]...)...)
		})
	}
	if len(pre) > 0 {
		ops = append(ops,
			func() {
				at := s.rng.Intn(len(pre))
				pre = append(pre[:at], pre[at+1:]...)
			},
			func() { pre[s.rng.Intn(len(pre))] = s.randomPreprocessing() },
		)
	}

	ops[s.rng.Intn(len(ops))]()
	return newIndividual(pre, est, "mutation", parent.ID)
}

// snapshot returns the population sorted best first and the full history.
func (s *search) snapshot() (population, history []*Individual) {
	s.mu.Lock()
	defer s.mu.Unlock()
	population = append([]*Individual(nil), s.population...)
	sort.SliceStable(population, func(i, j int) bool { return fitter(population[i], population[j]) })
	history = append([]*Individual(nil), s.history...)
	return population, history
}

// best returns the fittest evaluated individual or an error if none succeeded.
func (s *search) best() (*Individual, error) {
	population, history := s.snapshot()
	if len(population) == 0 || population[0].Failed() {
		var last error
		if len(history) > 0 {
			last = history[len(history)-1].Err
		}
		if last == nil {
			return nil, errors.New("no pipeline was evaluated within max_total_time")
		}
		return nil, errors.Wrap(last, "no pipeline could be evaluated successfully")
	}
	return population[0], nil
}
