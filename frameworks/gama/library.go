package gama

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gamabench/automl"
)

// Library is the part of the GAMA package the adapter calls.
type Library interface {
	Version() string
	NewClassifier(kwargs map[string]any) (Estimator, error)
	NewRegressor(kwargs map[string]any) (Estimator, error)
}

// Estimator is a GamaClassifier or GamaRegressor. Only one of the two entry
// point families exists in a given release.
type Estimator interface {
	FitARFF(ctx context.Context, path, target, encoding string) error
	PredictARFF(path, target, encoding string) ([]string, error)
	PredictProbaARFF(path, target, encoding string) (*mat.Dense, error)

	FitFromFile(ctx context.Context, path, target, encoding string) error
	PredictFromFile(path, target, encoding string) ([]string, error)
	PredictProbaFromFile(path, target, encoding string) (*mat.Dense, error)

	// Classes labels the probability columns.
	Classes() []string
	// ModelsCount is the size of the final population.
	ModelsCount() int
}

type engine struct {
	lib *automl.Library
}

// OpenEngine binds the in-process AutoML engine emulating the given release.
// An empty version selects automl.Version.
func OpenEngine(version string) (Library, error) {
	lib, err := automl.Open(version)
	if err != nil {
		return nil, err
	}
	return engine{lib: lib}, nil
}

func (e engine) Version() string { return e.lib.Version() }

func (e engine) NewClassifier(kwargs map[string]any) (Estimator, error) {
	g, err := e.lib.NewClassifier(kwargs)
	if err != nil {
		return nil, err
	}
	return engineEstimator{g}, nil
}

func (e engine) NewRegressor(kwargs map[string]any) (Estimator, error) {
	g, err := e.lib.NewRegressor(kwargs)
	if err != nil {
		return nil, err
	}
	return engineEstimator{g}, nil
}

type engineEstimator struct {
	*automl.Gama
}

func (e engineEstimator) ModelsCount() int { return len(e.FinalPopulation()) }
