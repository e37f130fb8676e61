// Package gama runs the GAMA AutoML library as a benchmark framework: it maps
// the task configuration to GAMA keyword arguments, calls the entry points of
// the installed release and reports predictions with fit and predict times.
package gama

import (
	"context"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/YuminosukeSato/gamabench/benchmark"
	"github.com/YuminosukeSato/gamabench/pkg/errors"
	"github.com/YuminosukeSato/gamabench/pkg/log"
)

const (
	frameworkName = "GAMA"
	dataEncoding  = "utf-8"
	// nJobsParam overrides the configured cores, e.g. to force a single job.
	nJobsParam = "_n_jobs"
)

// metricsMapping maps benchmark metrics to GAMA scoring names.
var metricsMapping = map[string]string{
	"acc":     "accuracy",
	"auc":     "roc_auc",
	"f1":      "f1",
	"logloss": "neg_log_loss",
	"mae":     "neg_mean_absolute_error",
	"mse":     "neg_mean_squared_error",
	"msle":    "neg_mean_squared_log_error",
	"r2":      "r2",
	"rmse":    "neg_mean_squared_error",
}

// ScoringFor returns the GAMA scoring name of a benchmark metric.
func ScoringFor(metric string) (string, error) {
	scoring, ok := metricsMapping[metric]
	if !ok {
		supported := make([]string, 0, len(metricsMapping))
		for m := range metricsMapping {
			supported = append(supported, m)
		}
		sort.Strings(supported)
		return "", errors.NewUnsupportedMetricError(metric, supported)
	}
	return scoring, nil
}

// Runner runs GAMA through a Library.
type Runner struct {
	lib    Library
	logger log.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the run logger. The default is slog.Default().
func WithLogger(l log.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

func NewRunner(lib Library, opts ...Option) *Runner {
	r := &Runner{lib: lib}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.NewSlogLogger(nil)
	}
	r.logger = r.logger.With(log.FrameworkKey, frameworkName, log.FrameworkVersionKey, lib.Version())
	return r
}

// Run is a benchmark.RunFunc over the in-process engine emulating
// cfg.FrameworkVersion.
func Run(ctx context.Context, ds *benchmark.Dataset, cfg *benchmark.Config) (*benchmark.Result, error) {
	lib, err := OpenEngine(cfg.FrameworkVersion)
	if err != nil {
		return nil, err
	}
	return NewRunner(lib).Run(ctx, ds, cfg)
}

// trainingParams returns the framework params GAMA receives verbatim. Keys
// starting with an underscore are for the adapter only.
func trainingParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		if !strings.HasPrefix(k, "_") {
			out[k] = v
		}
	}
	return out
}

func nJobs(cfg *benchmark.Config) any {
	if v, ok := cfg.FrameworkParams[nJobsParam]; ok {
		return v
	}
	return cfg.Cores
}

// Run fits GAMA on the training file and predicts the test file. Library
// errors are returned as they are.
func (r *Runner) Run(ctx context.Context, ds *benchmark.Dataset, cfg *benchmark.Config) (*benchmark.Result, error) {
	version := r.lib.Version()
	r.logger.Info("Running GAMA", log.DependencyVersionKey, gonumVersion())

	scoring, err := ScoringFor(cfg.Metric)
	if err != nil {
		return nil, err
	}
	strat, err := resolveStrategy(version)
	if err != nil {
		return nil, err
	}
	if _, err := benchmark.SaveMetadata(cfg, version); err != nil {
		return nil, err
	}

	classification := cfg.IsClassification()
	jobs := nJobs(cfg)
	logger := r.logger.With(log.DatasetIDKey, ds.DatasetID(), log.FoldKey, ds.Fold())
	logger.Info("Running GAMA with a time budget",
		log.MaxRuntimeSecondsKey, cfg.MaxRuntimeSeconds,
		log.NJobsKey, jobs,
		log.ScoringKey, scoring,
		log.TaskTypeKey, cfg.Type,
		log.APISurfaceKey, surfaceName(strat),
	)

	var seed any
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	kwargs := map[string]any{
		"n_jobs":         jobs,
		"max_total_time": cfg.MaxRuntimeSeconds,
		"scoring":        scoring,
		"random_state":   seed,
	}
	versionKwargs, err := strat.kwargs(ds, cfg)
	if err != nil {
		return nil, err
	}
	for k, v := range versionKwargs {
		kwargs[k] = v
	}
	for k, v := range trainingParams(cfg.FrameworkParams) {
		kwargs[k] = v
	}

	var est Estimator
	if classification {
		est, err = r.lib.NewClassifier(kwargs)
	} else {
		est, err = r.lib.NewRegressor(kwargs)
	}
	if err != nil {
		return nil, err
	}

	trainingDuration, err := benchmark.Time(func() error {
		return strat.fit(est, ctx, ds.TrainPath, ds.Target, dataEncoding)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Fit done", log.OperationKey, log.OperationFit, log.DurationSecondsKey, trainingDuration.Seconds())

	logger.Info("Predicting on the test set.")
	var predictions []string
	predictDuration, err := benchmark.Time(func() error {
		var err error
		predictions, err = strat.predict(est, ds.TestPath, ds.Target, dataEncoding)
		return err
	})
	if err != nil {
		return nil, err
	}

	res := &benchmark.Result{
		OutputFile:       cfg.OutputPredictionsFile,
		Predictions:      predictions,
		TargetIsEncoded:  false,
		ModelsCount:      est.ModelsCount(),
		TrainingDuration: trainingDuration,
		PredictDuration:  predictDuration,
	}
	if classification {
		if res.Probabilities, err = strat.predictProba(est, ds.TestPath, ds.Target, dataEncoding); err != nil {
			return nil, err
		}
		res.ProbabilityLabels = est.Classes()
	}
	logger.Info("Run done",
		log.ModelsCountKey, res.ModelsCount,
		log.OperationKey, log.OperationPredict,
		log.DurationSecondsKey, predictDuration.Seconds(),
	)
	return res, nil
}

func surfaceName(s *strategy) string {
	if s.legacy {
		return "arff"
	}
	return "file"
}

// gonumModuleVersion is the gonum release pinned in go.mod, reported when
// the binary carries no module information, as under go test.
const gonumModuleVersion = "v0.16.0"

// gonumVersion reports the linked gonum module version.
func gonumVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return gonumModuleVersion
	}
	for _, dep := range info.Deps {
		if dep.Path != "gonum.org/v1/gonum" {
			continue
		}
		if dep.Replace != nil && dep.Replace.Version != "" {
			return dep.Replace.Version
		}
		if dep.Version != "" && dep.Version != "(devel)" {
			return dep.Version
		}
	}
	return gonumModuleVersion
}
