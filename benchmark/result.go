package benchmark

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gamabench/pkg/errors"
)

// Result is what a framework run returns to the harness.
type Result struct {
	OutputFile  string
	Predictions []string
	// Probabilities has one column per entry of ProbabilityLabels; nil for
	// regression.
	Probabilities     *mat.Dense
	ProbabilityLabels []string
	// Truth is loaded from the test file by CallRun when left nil.
	Truth            []string
	TargetIsEncoded  bool
	ModelsCount      int
	TrainingDuration time.Duration
	PredictDuration  time.Duration
}

// SaveResult writes the predictions file: one column per class
// probability, then predictions and truth.
func SaveResult(res *Result) error {
	n := len(res.Predictions)
	if res.Truth != nil && len(res.Truth) != n {
		return errors.NewDimensionError("SaveResult", n, len(res.Truth), 0)
	}
	var classes int
	if res.Probabilities != nil {
		rows, cols := res.Probabilities.Dims()
		if rows != n {
			return errors.NewDimensionError("SaveResult", n, rows, 0)
		}
		if cols != len(res.ProbabilityLabels) {
			return errors.NewDimensionError("SaveResult", len(res.ProbabilityLabels), cols, 1)
		}
		classes = cols
	}

	if err := os.MkdirAll(filepath.Dir(res.OutputFile), 0o755); err != nil {
		return errors.Wrapf(err, "save result %s", res.OutputFile)
	}
	f, err := os.Create(res.OutputFile)
	if err != nil {
		return errors.Wrapf(err, "save result %s", res.OutputFile)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string(nil), res.ProbabilityLabels[:classes]...)
	header = append(header, "predictions", "truth")
	if err := w.Write(header); err != nil {
		return errors.WithStack(err)
	}
	record := make([]string, classes+2)
	for i := 0; i < n; i++ {
		for j := 0; j < classes; j++ {
			record[j] = strconv.FormatFloat(res.Probabilities.At(i, j), 'g', -1, 64)
		}
		record[classes] = res.Predictions[i]
		record[classes+1] = ""
		if res.Truth != nil {
			record[classes+1] = res.Truth[i]
		}
		if err := w.Write(record); err != nil {
			return errors.WithStack(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(f.Close())
}
