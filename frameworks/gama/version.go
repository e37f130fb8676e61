package gama

import (
	"context"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gamabench/benchmark"
	"github.com/YuminosukeSato/gamabench/pkg/errors"
	"github.com/YuminosukeSato/gamabench/pkg/version"
)

// legacyMaxVersion is the last release taking keep_analysis_log and
// exposing the *_arff entry points.
const legacyMaxVersion = "20.2.0"

// strategy is the version dependent part of a run, chosen once per run.
type strategy struct {
	legacy bool

	kwargs       func(ds *benchmark.Dataset, cfg *benchmark.Config) (map[string]any, error)
	fit          func(e Estimator, ctx context.Context, path, target, encoding string) error
	predict      func(e Estimator, path, target, encoding string) ([]string, error)
	predictProba func(e Estimator, path, target, encoding string) (*mat.Dense, error)
}

func resolveStrategy(release string) (*strategy, error) {
	v, err := version.Parse(release)
	if err != nil {
		return nil, errors.Wrapf(err, "parse GAMA version %q", release)
	}
	if v.AtMost(legacyMaxVersion) {
		return &strategy{
			legacy:       true,
			kwargs:       legacyKwargs,
			fit:          Estimator.FitARFF,
			predict:      Estimator.PredictARFF,
			predictProba: Estimator.PredictProbaARFF,
		}, nil
	}
	return &strategy{
		kwargs:       currentKwargs,
		fit:          Estimator.FitFromFile,
		predict:      Estimator.PredictFromFile,
		predictProba: Estimator.PredictProbaFromFile,
	}, nil
}

// analysisLogPath is <output_dir>/logs/<dataset id>_<fold>.log.
func analysisLogPath(ds *benchmark.Dataset, cfg *benchmark.Config) string {
	return filepath.Join(cfg.OutputDir, "logs", ds.DatasetID()+"_"+ds.Fold()+".log")
}

// legacyKwargs touches the analysis log, which older releases expect to exist.
func legacyKwargs(ds *benchmark.Dataset, cfg *benchmark.Config) (map[string]any, error) {
	path := analysisLogPath(ds, cfg)
	if err := benchmark.Touch(path); err != nil {
		return nil, err
	}
	return map[string]any{"keep_analysis_log": path}, nil
}

func currentKwargs(_ *benchmark.Dataset, cfg *benchmark.Config) (map[string]any, error) {
	return map[string]any{
		"max_memory_mb":    cfg.MaxMemSizeMB,
		"output_directory": filepath.Join(cfg.OutputDir, "gama"),
	}, nil
}
