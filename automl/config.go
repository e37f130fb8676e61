package automl

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/YuminosukeSato/gamabench/core/parallel"
	"github.com/YuminosukeSato/gamabench/pkg/errors"
)

// config is the validated form of the constructor keyword arguments.
type config struct {
	scoring           string
	nJobs             int
	maxTotalTime      time.Duration
	maxEvalTime       time.Duration
	randomState       int64
	seeded            bool
	populationSize    int
	maxPipelineLength int
	cv                int
	postProcessing    string
	verbosity         int

	keepAnalysisLog string // arff surface only
	maxMemoryMB     int    // file surface only
	outputDirectory string // file surface only
}

var (
	commonKwargs = []string{
		"scoring", "n_jobs", "max_total_time", "max_eval_time", "random_state",
		"population_size", "max_pipeline_length", "cv", "post_processing", "verbosity",
	}
	surfaceKwargs = map[Surface][]string{
		SurfaceARFF: {"keep_analysis_log"},
		SurfaceFile: {"max_memory_mb", "output_directory"},
	}
)

func parseConfig(surface Surface, classification bool, kwargs map[string]any) (*config, error) {
	estimator := "GamaRegressor"
	if classification {
		estimator = "GamaClassifier"
	}

	allowed := make(map[string]bool)
	for _, k := range commonKwargs {
		allowed[k] = true
	}
	for _, k := range surfaceKwargs[surface] {
		allowed[k] = true
	}
	var unknown []string
	for k := range kwargs {
		if !allowed[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, errors.NewUnknownParameterError(estimator, unknown)
	}

	cfg := &config{
		scoring:           "neg_log_loss",
		nJobs:             1,
		populationSize:    50,
		maxPipelineLength: 3,
		cv:                5,
		postProcessing:    "best",
	}
	if !classification {
		cfg.scoring = "neg_mean_squared_error"
	}

	var err error
	get := func(key string, into func(v any) error) {
		if err != nil {
			return
		}
		if v, ok := kwargs[key]; ok && v != nil {
			if e := into(v); e != nil {
				err = errors.Wrapf(e, "%s: invalid %s", estimator, key)
			}
		}
	}

	get("scoring", func(v any) error { return asString(v, &cfg.scoring) })
	get("n_jobs", func(v any) error { return asInt(v, &cfg.nJobs) })
	get("max_total_time", func(v any) error { return asDuration(v, &cfg.maxTotalTime) })
	get("max_eval_time", func(v any) error { return asDuration(v, &cfg.maxEvalTime) })
	get("random_state", func(v any) error {
		var seed int
		if e := asInt(v, &seed); e != nil {
			return e
		}
		cfg.randomState, cfg.seeded = int64(seed), true
		return nil
	})
	get("population_size", func(v any) error { return asInt(v, &cfg.populationSize) })
	get("max_pipeline_length", func(v any) error { return asInt(v, &cfg.maxPipelineLength) })
	get("cv", func(v any) error { return asInt(v, &cfg.cv) })
	get("post_processing", func(v any) error { return asString(v, &cfg.postProcessing) })
	get("verbosity", func(v any) error { return asInt(v, &cfg.verbosity) })
	get("keep_analysis_log", func(v any) error { return asString(v, &cfg.keepAnalysisLog) })
	get("max_memory_mb", func(v any) error { return asInt(v, &cfg.maxMemoryMB) })
	get("output_directory", func(v any) error { return asString(v, &cfg.outputDirectory) })
	if err != nil {
		return nil, err
	}

	if cfg.maxTotalTime <= 0 {
		return nil, errors.NewValidationError("max_total_time", "must be positive", cfg.maxTotalTime.Seconds())
	}
	if cfg.maxEvalTime == 0 {
		cfg.maxEvalTime = time.Duration(math.Min(0.1*cfg.maxTotalTime.Seconds(), 300) * float64(time.Second))
	}
	if cfg.maxEvalTime < 0 || cfg.maxEvalTime > cfg.maxTotalTime {
		return nil, errors.NewValidationError("max_eval_time", "must be in (0, max_total_time]", cfg.maxEvalTime.Seconds())
	}
	if cfg.populationSize < 2 {
		return nil, errors.NewValidationError("population_size", "must be at least 2", cfg.populationSize)
	}
	if cfg.maxPipelineLength < 1 {
		return nil, errors.NewValidationError("max_pipeline_length", "must be at least 1", cfg.maxPipelineLength)
	}
	if cfg.cv < 2 {
		return nil, errors.NewValidationError("cv", "must be at least 2", cfg.cv)
	}
	if cfg.postProcessing != "best" {
		return nil, errors.NewValidationError("post_processing", "only \"best\" is supported", cfg.postProcessing)
	}
	if cfg.maxMemoryMB < 0 {
		return nil, errors.NewValidationError("max_memory_mb", "must be non-negative", cfg.maxMemoryMB)
	}
	cfg.nJobs = parallel.Workers(cfg.nJobs)
	return cfg, nil
}

// asInt accepts Go integers, integral floats (JSON numbers decode as
// float64) and json.Number.
func asInt(v any, into *int) error {
	switch x := v.(type) {
	case int:
		*into = x
	case int32:
		*into = int(x)
	case int64:
		*into = int(x)
	case float64:
		if x != math.Trunc(x) {
			return errors.Newf("expected an integer, got %v", x)
		}
		*into = int(x)
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return err
		}
		*into = int(n)
	default:
		return errors.Newf("expected an integer, got %T", v)
	}
	return nil
}

func asDuration(v any, into *time.Duration) error {
	var seconds float64
	switch x := v.(type) {
	case int:
		seconds = float64(x)
	case int64:
		seconds = float64(x)
	case float64:
		seconds = x
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return err
		}
		seconds = f
	default:
		return errors.Newf("expected seconds, got %T", v)
	}
	*into = time.Duration(seconds * float64(time.Second))
	return nil
}

func asString(v any, into *string) error {
	s, ok := v.(string)
	if !ok {
		return errors.Newf("expected a string, got %T", v)
	}
	*into = s
	return nil
}
