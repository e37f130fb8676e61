// Package automl is a Go-native AutoML engine shaped after GAMA: estimators
// are built from keyword arguments, searched with an asynchronous
// evolutionary algorithm over scikit-learn style pipelines, and exposed
// through the entry points of the emulated GAMA release.
package automl

import (
	"github.com/YuminosukeSato/gamabench/pkg/errors"
	"github.com/YuminosukeSato/gamabench/pkg/version"
)

// Version is the GAMA release whose API surface Open emulates by default.
const Version = "21.0.1"

// LegacyMaxVersion is the last release with the ARFF entry points and the
// keep_analysis_log argument.
const LegacyMaxVersion = "20.2.0"

// Surface names one of the two mutually exclusive API surfaces.
type Surface string

const (
	// SurfaceARFF is fit_arff/predict_arff/predict_proba_arff with keep_analysis_log.
	SurfaceARFF Surface = "arff"
	// SurfaceFile is fit_from_file/predict_from_file/predict_proba_from_file
	// with max_memory_mb and output_directory.
	SurfaceFile Surface = "file"
)

// SurfaceFor returns the API surface of a GAMA release. Releases are
// written the way Python packaging does, e.g. "21.0" or "20.2.1.dev0".
func SurfaceFor(release string) (Surface, error) {
	v, err := version.Parse(release)
	if err != nil {
		return "", errors.Wrapf(err, "parse version %q", release)
	}
	if v.AtMost(LegacyMaxVersion) {
		return SurfaceARFF, nil
	}
	return SurfaceFile, nil
}

// Library is an opened release of the engine.
type Library struct {
	version string
	surface Surface
}

// Open returns the engine emulating the given release. An empty release
// means Version.
func Open(release string) (*Library, error) {
	if release == "" {
		release = Version
	}
	surface, err := SurfaceFor(release)
	if err != nil {
		return nil, err
	}
	return &Library{version: release, surface: surface}, nil
}

// Version returns the emulated release.
func (l *Library) Version() string { return l.version }

// Surface returns the API surface of the emulated release.
func (l *Library) Surface() Surface { return l.surface }

// NewClassifier is GamaClassifier(**kwargs).
func (l *Library) NewClassifier(kwargs map[string]any) (*Gama, error) {
	return newGama(l, true, kwargs)
}

// NewRegressor is GamaRegressor(**kwargs).
func (l *Library) NewRegressor(kwargs map[string]any) (*Gama, error) {
	return newGama(l, false, kwargs)
}
