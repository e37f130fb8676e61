// Package gamabench runs the GAMA AutoML framework inside an AutoML
// benchmark harness.
//
// The harness hands over a task configuration and the train/test split of
// one fold. The adapter maps the benchmark metric to a GAMA scoring name,
// builds a GamaClassifier or GamaRegressor with the time, core and memory
// budget, fits it on the training file, predicts the test file and reports
// predictions, class probabilities, the size of the final population and the
// fit and predict times.
//
// # Quick Start
//
//	echo '{"dataset": {...}, "config": {...}}' | gama-exec
//	gama-exec --config run.yaml --log-level debug
//
// or from Go:
//
//	res, err := gama.Run(ctx, &benchmark.Dataset{
//	    TrainPath: "/data/42/train_0.arff",
//	    TestPath:  "/data/42/test_0.arff",
//	    Target:    "class",
//	}, cfg)
//
// # Packages
//
//   - frameworks/gama: the adapter (metric mapping, release dependent entry points, timing)
//   - benchmark: task configuration, dataset reference, result file, harness protocol
//   - automl: Go-native GAMA engine (asynchronous evolutionary pipeline search)
//   - dataset: ARFF and CSV readers
//   - metrics: scoring functions and scikit-learn scorer names
//   - preprocessing, linear, sklearn/*: the searched pipeline components
//   - core/model, core/parallel: estimator interfaces and parallel helpers
//   - pkg/errors, pkg/log: error types and structured logging
//   - pkg/version: GAMA release parsing and ordering
//
// # GAMA Releases
//
// Releases up to 20.2.0 take keep_analysis_log and expose fit_arff,
// predict_arff and predict_proba_arff. Later releases take max_memory_mb and
// output_directory and expose the *_from_file entry points. The release is
// chosen with framework_version in the task configuration.
package gamabench
