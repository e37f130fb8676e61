package automl

import (
	"context"
	"math"
	"math/rand"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/YuminosukeSato/gamabench/dataset"
	"github.com/YuminosukeSato/gamabench/metrics"
	"github.com/YuminosukeSato/gamabench/pkg/errors"
	"github.com/YuminosukeSato/gamabench/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// searchShare is the part of max_total_time given to the search; the rest
// is kept for refitting the selected pipeline.
const searchShare = 0.9

// Gama is a GamaClassifier or GamaRegressor.
type Gama struct {
	lib            *Library
	classification bool
	cfg            *config
	scorer         *metrics.Scorer

	schema     *dataset.Frame
	classes    []string
	pipeline   *Pipeline
	best       *Individual
	population []*Individual
	history    []*Individual
}

func newGama(l *Library, classification bool, kwargs map[string]any) (*Gama, error) {
	cfg, err := parseConfig(l.surface, classification, kwargs)
	if err != nil {
		return nil, err
	}
	scorer, err := metrics.GetScorer(cfg.scoring)
	if err != nil {
		return nil, err
	}
	if scorer.Classification && !classification {
		return nil, errors.NewValueError("GamaRegressor", "scoring "+strconv.Quote(cfg.scoring)+" requires a classification task")
	}
	return &Gama{lib: l, classification: classification, cfg: cfg, scorer: scorer}, nil
}

func (g *Gama) name() string {
	if g.classification {
		return "GamaClassifier"
	}
	return "GamaRegressor"
}

// Fit searches for the best pipeline on the training frame and refits it on
// all of the data. Rows with a missing target are ignored.
func (g *Gama) Fit(ctx context.Context, frame *dataset.Frame) error {
	X, y, classes, err := g.trainingData(frame)
	if err != nil {
		return err
	}
	if g.cfg.maxMemoryMB > 0 {
		prev := debug.SetMemoryLimit(int64(g.cfg.maxMemoryMB) << 20)
		defer debug.SetMemoryLimit(prev)
	}

	art, err := openArtifacts(g.cfg, g.lib.surface)
	if err != nil {
		return err
	}
	defer art.Close()
	runLog := art.run.With(log.TaskTypeKey, g.task(), log.ScoringKey, g.cfg.scoring)
	restore := log.RouteWarnings(runLog)
	defer restore()

	seed := time.Now().UnixNano()
	if g.cfg.seeded {
		seed = g.cfg.randomState
	}
	rng := rand.New(rand.NewSource(seed))

	rows, cols := X.Dims()
	runLog.Info("Starting search",
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.ClassesKey, len(classes),
		log.NJobsKey, g.cfg.nJobs,
		log.MaxRuntimeSecondsKey, g.cfg.maxTotalTime.Seconds(),
		log.MaxEvalSecondsKey, g.cfg.maxEvalTime.Seconds(),
	)

	eval := newEvaluator(X, y, g.classification, len(classes), g.scorer, g.cfg.cv, g.cfg.maxEvalTime, rng)
	s := newSearch(g.cfg, g.classification, eval, rng)
	s.onEvaluated = func(ind *Individual) { logEvaluation(art.evaluations, ind) }

	searchCtx, cancel := context.WithTimeout(ctx, time.Duration(searchShare*float64(g.cfg.maxTotalTime)))
	err = s.run(searchCtx)
	cancel()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, g.name()+".Fit")
	}

	best, err := s.best()
	if err != nil {
		return err
	}
	population, history := s.snapshot()
	runLog.Info("Search finished",
		log.EvaluationsKey, len(history),
		log.PopulationSizeKey, len(population),
		log.PipelineKey, best.String(),
		log.FitnessKey, best.Fitness,
	)

	pipeline := newPipeline(best)
	yMat := mat.NewDense(len(y), 1, y)
	if err := errors.SafeExecute("refit "+best.ID, func() error { return pipeline.Fit(ctx, X, yMat) }); err != nil {
		return errors.Wrapf(err, "%s.Fit: refit %s", g.name(), best)
	}

	g.schema = frame
	g.classes = classes
	g.pipeline = pipeline
	g.best = best
	g.population = population
	g.history = history

	if art.dir != "" {
		if err := writeSearchHistory(art.dir, g.cfg.scoring, history); err != nil {
			runLog.Warn("Could not write search history plot", log.ErrAttrKey, err)
		}
	}
	return nil
}

func (g *Gama) task() string {
	if g.classification {
		return "classification"
	}
	return "regression"
}

// trainingData extracts the rows with a known target. Class labels are coded
// by their index in classes.
func (g *Gama) trainingData(frame *dataset.Frame) (*mat.Dense, []float64, []string, error) {
	var keep []int
	var y []float64
	var classes []string
	if g.classification {
		classes = frame.Classes()
		code := make(map[string]int, len(classes))
		for i, c := range classes {
			code[c] = i
		}
		for r, l := range frame.Labels {
			if c, ok := code[l]; ok {
				keep = append(keep, r)
				y = append(y, float64(c))
			}
		}
	} else {
		if frame.TargetAttr.Kind != dataset.Numeric {
			return nil, nil, nil, errors.NewValueError(g.name()+".Fit", "target "+strconv.Quote(frame.TargetAttr.Name)+" is not numeric")
		}
		for r, v := range frame.Y {
			if !math.IsNaN(v) {
				keep = append(keep, r)
				y = append(y, v)
			}
		}
	}
	if len(keep) == 0 {
		return nil, nil, nil, errors.Wrap(errors.ErrEmptyData, g.name()+".Fit")
	}
	if g.classification && len(classes) < 2 {
		return nil, nil, nil, errors.NewValueError(g.name()+".Fit", "need at least 2 classes")
	}

	_, cols := frame.X.Dims()
	X := mat.NewDense(len(keep), cols, nil)
	for i, r := range keep {
		X.SetRow(i, frame.X.RawRowView(r))
	}
	return X, y, classes, nil
}

func (g *Gama) aligned(frame *dataset.Frame, method string) (*dataset.Frame, error) {
	if g.pipeline == nil {
		return nil, errors.NewNotFittedError(g.name(), method)
	}
	return frame.Align(g.schema)
}

// Predict returns class labels, or regression values formatted as strings.
func (g *Gama) Predict(frame *dataset.Frame) ([]string, error) {
	f, err := g.aligned(frame, "Predict")
	if err != nil {
		return nil, err
	}
	pred, err := g.pipeline.Predict(f.X)
	if err != nil {
		return nil, err
	}
	out := make([]string, pred.Len())
	for i := range out {
		v := pred.AtVec(i)
		if g.classification {
			out[i] = g.classes[int(v)]
		} else {
			out[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
	}
	return out, nil
}

// PredictProba returns one column per class, ordered as Classes.
func (g *Gama) PredictProba(frame *dataset.Frame) (*mat.Dense, error) {
	if !g.classification {
		return nil, errors.NewValueError("GamaRegressor.PredictProba", "probabilities are only available for classification")
	}
	f, err := g.aligned(frame, "PredictProba")
	if err != nil {
		return nil, err
	}
	return g.pipeline.PredictProba(f.X, len(g.classes))
}

// Classes returns the class labels seen during Fit.
func (g *Gama) Classes() []string { return g.classes }

// FinalPopulation returns the individuals kept by the search, best first.
func (g *Gama) FinalPopulation() []*Individual { return g.population }

// History returns every evaluated individual in evaluation order.
func (g *Gama) History() []*Individual { return g.history }

// Best returns the selected pipeline, nil before Fit.
func (g *Gama) Best() *Individual { return g.best }

func (g *Gama) require(surface Surface, method string) error {
	if g.lib.surface != surface {
		return errors.NewAPIUnavailableError(g.name()+"."+method, g.lib.version)
	}
	return nil
}

func (g *Gama) read(surface Surface, method, path, target, encoding string) (*dataset.Frame, error) {
	if err := g.require(surface, method); err != nil {
		return nil, err
	}
	if surface == SurfaceARFF {
		return dataset.ReadARFF(path, target, encoding)
	}
	return dataset.ReadFile(path, target, encoding)
}

// FitARFF is fit_arff of releases up to LegacyMaxVersion.
func (g *Gama) FitARFF(ctx context.Context, path, target, encoding string) error {
	f, err := g.read(SurfaceARFF, "FitARFF", path, target, encoding)
	if err != nil {
		return err
	}
	return g.Fit(ctx, f)
}

// PredictARFF is predict_arff of releases up to LegacyMaxVersion.
func (g *Gama) PredictARFF(path, target, encoding string) ([]string, error) {
	f, err := g.read(SurfaceARFF, "PredictARFF", path, target, encoding)
	if err != nil {
		return nil, err
	}
	return g.Predict(f)
}

// PredictProbaARFF is predict_proba_arff of releases up to LegacyMaxVersion.
func (g *Gama) PredictProbaARFF(path, target, encoding string) (*mat.Dense, error) {
	f, err := g.read(SurfaceARFF, "PredictProbaARFF", path, target, encoding)
	if err != nil {
		return nil, err
	}
	return g.PredictProba(f)
}

// FitFromFile is fit_from_file of later releases. ARFF and CSV are accepted.
func (g *Gama) FitFromFile(ctx context.Context, path, target, encoding string) error {
	f, err := g.read(SurfaceFile, "FitFromFile", path, target, encoding)
	if err != nil {
		return err
	}
	return g.Fit(ctx, f)
}

// PredictFromFile is predict_from_file of later releases.
func (g *Gama) PredictFromFile(path, target, encoding string) ([]string, error) {
	f, err := g.read(SurfaceFile, "PredictFromFile", path, target, encoding)
	if err != nil {
		return nil, err
	}
	return g.Predict(f)
}

// PredictProbaFromFile is predict_proba_from_file of later releases.
func (g *Gama) PredictProbaFromFile(path, target, encoding string) (*mat.Dense, error) {
	f, err := g.read(SurfaceFile, "PredictProbaFromFile", path, target, encoding)
	if err != nil {
		return nil, err
	}
	return g.PredictProba(f)
}

// GetParams returns the effective keyword arguments.
func (g *Gama) GetParams() map[string]interface{} {
	p := map[string]interface{}{
		"scoring":             g.cfg.scoring,
		"n_jobs":              g.cfg.nJobs,
		"max_total_time":      g.cfg.maxTotalTime.Seconds(),
		"max_eval_time":       g.cfg.maxEvalTime.Seconds(),
		"population_size":     g.cfg.populationSize,
		"max_pipeline_length": g.cfg.maxPipelineLength,
		"cv":                  g.cfg.cv,
		"post_processing":     g.cfg.postProcessing,
		"verbosity":           g.cfg.verbosity,
	}
	if g.cfg.seeded {
		p["random_state"] = g.cfg.randomState
	}
	switch g.lib.surface {
	case SurfaceARFF:
		p["keep_analysis_log"] = g.cfg.keepAnalysisLog
	case SurfaceFile:
		p["max_memory_mb"] = g.cfg.maxMemoryMB
		p["output_directory"] = g.cfg.outputDirectory
	}
	return p
}
