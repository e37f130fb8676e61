package automl

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/gamabench/metrics"
	"github.com/YuminosukeSato/gamabench/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// blobsARFF returns two well separated classes in two numeric features.
func blobsARFF(n int, seed int64) string {
	rng := rand.New(rand.NewSource(seed))
	var b strings.Builder
	b.WriteString("@relation blobs\n@attribute x1 numeric\n@attribute x2 numeric\n@attribute class {neg,pos}\n@data\n")
	for i := 0; i < n; i++ {
		label, c := "neg", 0.0
		if i%2 == 1 {
			label, c = "pos", 6.0
		}
		fmt.Fprintf(&b, "%.3f,%.3f,%s\n", c+rng.NormFloat64(), c+rng.NormFloat64(), label)
	}
	return b.String()
}

func linearCSV(n int, seed int64) string {
	rng := rand.New(rand.NewSource(seed))
	var b strings.Builder
	b.WriteString("x1,x2,y\n")
	for i := 0; i < n; i++ {
		x1, x2 := rng.Float64()*10, rng.Float64()*10
		fmt.Fprintf(&b, "%.4f,%.4f,%.4f\n", x1, x2, 2*x1-x2+0.1*rng.NormFloat64())
	}
	return b.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func fastKwargs() map[string]any {
	return map[string]any{
		"max_total_time":  2,
		"n_jobs":          2,
		"random_state":    0,
		"population_size": 6,
		"cv":              3,
	}
}

func TestSurfaceFor(t *testing.T) {
	tests := []struct {
		version string
		want    Surface
	}{
		{"19.11.0", SurfaceARFF},
		{"20.2.0", SurfaceARFF},
		{"20.2", SurfaceARFF},
		{"20.2.0rc1", SurfaceARFF},
		{"20.2.1", SurfaceFile},
		{"20.2.1.dev0", SurfaceFile},
		{"21.0", SurfaceFile},
		{"21.0.1", SurfaceFile},
		{"22.0.0rc1", SurfaceFile},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			got, err := SurfaceFor(tt.version)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := SurfaceFor("latest")
	assert.Error(t, err)
}

func TestOpenDefaultVersion(t *testing.T) {
	lib, err := Open("")
	require.NoError(t, err)
	assert.Equal(t, Version, lib.Version())
	assert.Equal(t, SurfaceFile, lib.Surface())
}

func TestParseConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := parseConfig(SurfaceFile, true, map[string]any{"max_total_time": 60})
		require.NoError(t, err)
		assert.Equal(t, "neg_log_loss", cfg.scoring)
		assert.Equal(t, 50, cfg.populationSize)
		assert.Equal(t, 3, cfg.maxPipelineLength)
		assert.Equal(t, 5, cfg.cv)
		assert.Equal(t, 6*time.Second, cfg.maxEvalTime)
		assert.False(t, cfg.seeded)

		cfg, err = parseConfig(SurfaceFile, false, map[string]any{"max_total_time": 3600})
		require.NoError(t, err)
		assert.Equal(t, "neg_mean_squared_error", cfg.scoring)
		assert.Equal(t, 300*time.Second, cfg.maxEvalTime)
	})

	t.Run("json numbers", func(t *testing.T) {
		var kwargs map[string]any
		require.NoError(t, json.Unmarshal([]byte(`{"max_total_time": 30, "n_jobs": 3, "random_state": 7}`), &kwargs))
		cfg, err := parseConfig(SurfaceFile, true, kwargs)
		require.NoError(t, err)
		assert.Equal(t, 30*time.Second, cfg.maxTotalTime)
		assert.Equal(t, 3, cfg.nJobs)
		assert.True(t, cfg.seeded)
		assert.EqualValues(t, 7, cfg.randomState)
	})

	t.Run("surface kwargs", func(t *testing.T) {
		_, err := parseConfig(SurfaceFile, true, map[string]any{"max_total_time": 10, "keep_analysis_log": "x.log"})
		var unknown *errors.UnknownParameterError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "GamaClassifier", unknown.Estimator)
		assert.Equal(t, []string{"keep_analysis_log"}, unknown.Params)

		_, err = parseConfig(SurfaceARFF, false, map[string]any{"max_total_time": 10, "output_directory": "out"})
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "GamaRegressor", unknown.Estimator)
	})

	t.Run("invalid", func(t *testing.T) {
		cases := []map[string]any{
			{},
			{"max_total_time": 0},
			{"max_total_time": 10, "max_eval_time": 20},
			{"max_total_time": 10, "population_size": 1},
			{"max_total_time": 10, "cv": 1},
			{"max_total_time": 10, "post_processing": "ensemble"},
			{"max_total_time": 10, "n_jobs": 1.5},
			{"max_total_time": "ten"},
		}
		for i, kwargs := range cases {
			_, err := parseConfig(SurfaceFile, true, kwargs)
			assert.Error(t, err, "case %d", i)
		}
	})
}

func TestNewGamaScoring(t *testing.T) {
	lib, err := Open("")
	require.NoError(t, err)

	_, err = lib.NewRegressor(map[string]any{"max_total_time": 10, "scoring": "accuracy"})
	var valueErr *errors.ValueError
	assert.True(t, errors.As(err, &valueErr))

	_, err = lib.NewClassifier(map[string]any{"max_total_time": 10, "scoring": "bleu"})
	var metricErr *errors.UnsupportedMetricError
	assert.True(t, errors.As(err, &metricErr))

	g, err := lib.NewClassifier(map[string]any{"max_total_time": 10, "scoring": "roc_auc", "max_memory_mb": 512})
	require.NoError(t, err)
	params := g.GetParams()
	assert.Equal(t, "roc_auc", params["scoring"])
	assert.Equal(t, 512, params["max_memory_mb"])
	assert.NotContains(t, params, "keep_analysis_log")
}

func TestMakeFoldsStratified(t *testing.T) {
	y := []float64{0, 0, 0, 0, 0, 0, 1, 1, 1}
	folds := makeFolds(y, true, 3, rand.New(rand.NewSource(1)))
	require.Len(t, folds, 3)

	seen := map[int]bool{}
	for _, f := range folds {
		ones := 0
		for _, i := range f {
			assert.False(t, seen[i], "index %d in two folds", i)
			seen[i] = true
			if y[i] == 1 {
				ones++
			}
		}
		assert.Equal(t, 3, len(f))
		assert.Equal(t, 1, ones)
	}
	assert.Len(t, seen, len(y))

	assert.Len(t, makeFolds([]float64{1, 2}, false, 5, rand.New(rand.NewSource(1))), 2)
}

func TestMutationRespectsMaxPipelineLength(t *testing.T) {
	cfg := &config{populationSize: 4, maxPipelineLength: 2}
	s := newSearch(cfg, true, nil, rand.New(rand.NewSource(3)))
	require.Len(t, s.queue, 4)

	ind := s.queue[0]
	for i := 0; i < 200; i++ {
		child := s.mutate(ind)
		assert.LessOrEqual(t, child.Length(), 2)
		assert.Equal(t, []string{ind.ID}, child.Parents)
		assert.Equal(t, "mutation", child.Origin)
		ind = child
	}
}

func TestMutationDoesNotShareParams(t *testing.T) {
	cfg := &config{populationSize: 2, maxPipelineLength: 1}
	s := newSearch(cfg, true, nil, rand.New(rand.NewSource(5)))
	parent := newIndividual(nil, s.randomStep(classifiers[0]), "random")
	before := parent.String()
	for i := 0; i < 50; i++ {
		s.mutate(parent)
	}
	assert.Equal(t, before, parent.String())
}

func TestIndividualString(t *testing.T) {
	var scaler, nb *Primitive
	for _, p := range preprocessors {
		if p.Name == "StandardScaler" {
			scaler = p
		}
	}
	for _, p := range classifiers {
		if p.Name == "GaussianNB" {
			nb = p
		}
	}
	require.NotNil(t, scaler)
	require.NotNil(t, nb)

	ind := newIndividual(
		[]Step{{Primitive: scaler, Params: map[string]any{"with_std": true, "with_mean": false}}},
		Step{Primitive: nb, Params: map[string]any{"var_smoothing": 1e-9}},
		"random",
	)
	assert.Equal(t,
		"GaussianNB(StandardScaler(data, StandardScaler.with_mean=false, StandardScaler.with_std=true), GaussianNB.var_smoothing=1e-09)",
		ind.String())
	assert.Equal(t, 2, ind.Length())
	assert.True(t, ind.Failed())
	assert.NotEmpty(t, ind.ID)
}

func TestGamaClassifierFromFile(t *testing.T) {
	dir := t.TempDir()
	train := writeFile(t, dir, "train_0.arff", blobsARFF(60, 1))
	test := writeFile(t, dir, "test_0.arff", blobsARFF(20, 2))
	out := filepath.Join(dir, "gama")

	lib, err := Open("21.0.1")
	require.NoError(t, err)
	kwargs := fastKwargs()
	kwargs["output_directory"] = out
	kwargs["max_memory_mb"] = 1024
	g, err := lib.NewClassifier(kwargs)
	require.NoError(t, err)

	require.NoError(t, g.FitFromFile(context.Background(), train, "class", "utf-8"))
	assert.Equal(t, []string{"neg", "pos"}, g.Classes())
	require.NotNil(t, g.Best())
	assert.False(t, g.Best().Failed())

	pop := g.FinalPopulation()
	require.NotEmpty(t, pop)
	assert.LessOrEqual(t, len(pop), 6)
	assert.Same(t, g.Best(), pop[0])
	assert.GreaterOrEqual(t, len(g.History()), len(pop))

	pred, err := g.PredictFromFile(test, "class", "utf-8")
	require.NoError(t, err)
	require.Len(t, pred, 20)
	correct := 0
	for i, p := range pred {
		want := "neg"
		if i%2 == 1 {
			want = "pos"
		}
		if p == want {
			correct++
		}
	}
	assert.GreaterOrEqual(t, correct, 18)

	proba, err := g.PredictProbaFromFile(test, "class", "utf-8")
	require.NoError(t, err)
	rows, cols := proba.Dims()
	assert.Equal(t, 20, rows)
	assert.Equal(t, 2, cols)
	for i := 0; i < rows; i++ {
		assert.InDelta(t, 1.0, proba.At(i, 0)+proba.At(i, 1), 1e-9)
	}

	for _, name := range []string{evaluationsLogName, runLogName, historyPlotName} {
		info, err := os.Stat(filepath.Join(out, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}
}

func TestGamaRegressorCSV(t *testing.T) {
	dir := t.TempDir()
	train := writeFile(t, dir, "train_0.csv", linearCSV(60, 1))
	test := writeFile(t, dir, "test_0.csv", linearCSV(10, 2))

	lib, err := Open("")
	require.NoError(t, err)
	g, err := lib.NewRegressor(fastKwargs())
	require.NoError(t, err)

	require.NoError(t, g.FitFromFile(context.Background(), train, "y", "utf-8"))
	assert.Nil(t, g.Classes())

	pred, err := g.PredictFromFile(test, "y", "utf-8")
	require.NoError(t, err)
	require.Len(t, pred, 10)
	for _, p := range pred {
		_, err := strconv.ParseFloat(p, 64)
		assert.NoError(t, err)
	}

	_, err = g.PredictProbaFromFile(test, "y", "utf-8")
	var valueErr *errors.ValueError
	assert.True(t, errors.As(err, &valueErr))
}

func TestGamaLegacySurface(t *testing.T) {
	dir := t.TempDir()
	train := writeFile(t, dir, "train_0.arff", blobsARFF(40, 3))
	logPath := filepath.Join(dir, "analysis.log")

	lib, err := Open("20.2.0")
	require.NoError(t, err)
	kwargs := fastKwargs()
	kwargs["keep_analysis_log"] = logPath
	g, err := lib.NewClassifier(kwargs)
	require.NoError(t, err)

	err = g.FitFromFile(context.Background(), train, "class", "utf-8")
	var apiErr *errors.APIUnavailableError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "20.2.0", apiErr.Version)

	require.NoError(t, g.FitARFF(context.Background(), train, "class", "utf-8"))
	pred, err := g.PredictARFF(train, "class", "utf-8")
	require.NoError(t, err)
	assert.Len(t, pred, 40)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.NotEmpty(t, lines)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Contains(t, entry, "message")
}

func TestGamaPredictBeforeFit(t *testing.T) {
	lib, err := Open("")
	require.NoError(t, err)
	g, err := lib.NewClassifier(fastKwargs())
	require.NoError(t, err)

	path := writeFile(t, t.TempDir(), "test_0.arff", blobsARFF(4, 1))
	_, err = g.PredictFromFile(path, "class", "utf-8")
	var notFitted *errors.NotFittedError
	assert.True(t, errors.As(err, &notFitted))
}

func TestGamaFitCancelled(t *testing.T) {
	path := writeFile(t, t.TempDir(), "train_0.arff", blobsARFF(20, 1))
	lib, err := Open("")
	require.NoError(t, err)
	g, err := lib.NewClassifier(fastKwargs())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = g.FitFromFile(ctx, path, "class", "utf-8")
	assert.ErrorIs(t, err, context.Canceled)
}

func slowLogisticIndividual(t *testing.T) *Individual {
	t.Helper()
	for _, p := range classifiers {
		if p.Name == "LogisticRegression" {
			return newIndividual(nil, Step{Primitive: p, Params: map[string]any{"C": 1.0, "penalty": "l2"}}, "random")
		}
	}
	t.Fatal("LogisticRegression not in the search space")
	return nil
}

func TestEvaluateStopsAtDeadline(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const rows, cols = 20000, 20
	X := mat.NewDense(rows, cols, nil)
	y := make([]float64, rows)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			X.Set(i, j, rng.NormFloat64())
		}
		if rng.Intn(2) == 1 {
			y[i] = 1
		}
	}
	scorer, err := metrics.GetScorer("accuracy")
	require.NoError(t, err)
	e := newEvaluator(X, y, true, 2, scorer, 3, 5*time.Millisecond, rng)

	baseline := runtime.NumGoroutine()
	start := time.Now()
	_, err = e.evaluate(context.Background(), slowLogisticIndividual(t))
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, errors.ErrEvaluationTimeout)
	assert.Less(t, elapsed, 500*time.Millisecond, "evaluation ran on past its deadline")
	assert.LessOrEqual(t, runtime.NumGoroutine(), baseline)
}

func TestEvaluateSearchDeadlineIsNotATimeout(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	y := []float64{0, 0, 1, 1}
	scorer, err := metrics.GetScorer("accuracy")
	require.NoError(t, err)
	e := newEvaluator(X, y, true, 2, scorer, 2, time.Minute, rand.New(rand.NewSource(1)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.evaluate(ctx, slowLogisticIndividual(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, errors.ErrEvaluationTimeout))
}

func TestGamaFitTimeoutsLeaveNoWorkers(t *testing.T) {
	path := writeFile(t, t.TempDir(), "train_0.arff", blobsARFF(60, 1))
	lib, err := Open("")
	require.NoError(t, err)
	kwargs := fastKwargs()
	kwargs["max_total_time"] = 1
	kwargs["max_eval_time"] = 1e-9
	g, err := lib.NewClassifier(kwargs)
	require.NoError(t, err)

	baseline := runtime.NumGoroutine()
	err = g.FitFromFile(context.Background(), path, "class", "utf-8")
	assert.ErrorIs(t, err, errors.ErrEvaluationTimeout)
	assert.LessOrEqual(t, runtime.NumGoroutine(), baseline)
	assert.Nil(t, g.Best())
}
