package automl

import (
	"io"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/gamabench/pkg/errors"
	"github.com/YuminosukeSato/gamabench/pkg/log"
)

const (
	evaluationsLogName = "evaluations.log"
	runLogName         = "gama.log"
	historyPlotName    = "search_history.png"
)

// artifacts are the log sinks of one Fit. Older releases write everything to
// keep_analysis_log; later ones split evaluations and the run log under
// output_directory.
type artifacts struct {
	evaluations log.Logger
	run         log.Logger
	dir         string // output_directory, empty on the arff surface
	files       []io.Closer
}

func openArtifacts(cfg *config, surface Surface) (*artifacts, error) {
	level := log.LevelInfo
	if cfg.verbosity > 0 {
		level = log.LevelDebug
	}
	a := &artifacts{}

	switch {
	case surface == SurfaceARFF && cfg.keepAnalysisLog != "":
		f, err := a.open(cfg.keepAnalysisLog)
		if err != nil {
			return nil, err
		}
		a.evaluations = log.NewZerologLogger(f, level)
		a.run = a.evaluations
	case surface == SurfaceFile && cfg.outputDirectory != "":
		if err := os.MkdirAll(cfg.outputDirectory, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create output_directory %s", cfg.outputDirectory)
		}
		a.dir = cfg.outputDirectory
		ev, err := a.open(filepath.Join(a.dir, evaluationsLogName))
		if err != nil {
			return nil, err
		}
		run, err := a.open(filepath.Join(a.dir, runLogName))
		if err != nil {
			a.Close()
			return nil, err
		}
		a.evaluations = log.NewZerologLogger(ev, level)
		a.run = log.NewZerologLogger(run, level)
	default:
		a.evaluations = log.NewZerologLogger(io.Discard, log.LevelError)
		a.run = a.evaluations
	}
	return a, nil
}

func (a *artifacts) open(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open log %s", path)
	}
	a.files = append(a.files, f)
	return f, nil
}

func (a *artifacts) Close() {
	for _, f := range a.files {
		_ = f.Close()
	}
	a.files = nil
}

// logEvaluation writes one line per evaluated individual.
func logEvaluation(l log.Logger, ind *Individual) {
	fields := []any{
		log.IndividualIDKey, ind.ID,
		log.PipelineKey, ind.String(),
		"search.origin", ind.Origin,
		"search.parents", ind.Parents,
		log.DurationSecondsKey, ind.Duration.Seconds(),
		"search.found_seconds", ind.Found.Seconds(),
	}
	if ind.Err != nil {
		l.Warn("evaluation failed", append(fields, log.ErrAttrKey, ind.Err)...)
		return
	}
	l.Info("evaluation", append(fields, log.FitnessKey, ind.Fitness)...)
}
