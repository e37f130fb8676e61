// Package log defines standard attribute keys for benchmark runs.
//
// The keys follow a hierarchical naming convention (e.g. "framework.version",
// "data.samples") so that the JSON output of a run can be filtered and
// joined with the harness's own records.
package log

// Framework and run context
const (
	// FrameworkKey identifies the AutoML framework being benchmarked.
	FrameworkKey = "framework.name"

	// FrameworkVersionKey is the version of the framework library in use.
	FrameworkVersionKey = "framework.version"

	// DependencyVersionKey records the version of a supporting library (e.g. gonum).
	DependencyVersionKey = "framework.dependency_version"

	// RunIDKey is a unique identifier for one benchmark run.
	RunIDKey = "run.id"

	// TaskTypeKey is "classification" or "regression".
	TaskTypeKey = "task.type"

	// MetricKey is the benchmark metric name (e.g. "auc").
	MetricKey = "task.metric"

	// ScoringKey is the library's native scoring identifier (e.g. "roc_auc").
	ScoringKey = "task.scoring"

	// DatasetIDKey and FoldKey are derived from the training file path.
	DatasetIDKey = "dataset.id"
	FoldKey      = "dataset.fold"

	// APISurfaceKey names the version-dependent entry point set ("arff" or "file").
	APISurfaceKey = "framework.api_surface"
)

// Budget and resources
const (
	MaxRuntimeSecondsKey = "budget.max_runtime_seconds"
	MaxEvalSecondsKey    = "budget.max_eval_seconds"
	MaxMemoryMBKey       = "budget.max_memory_mb"
	NJobsKey             = "budget.n_jobs"
	RandomSeedKey        = "config.random_seed"
)

// Data shape
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ClassesKey is the number of target classes (classification only).
	ClassesKey = "data.classes"

	// PathKey is the data file being read.
	PathKey = "data.path"
)

// Search and performance
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// DurationSecondsKey records the execution time in seconds for longer operations.
	DurationSecondsKey = "perf.duration_seconds"

	PipelineKey       = "search.pipeline"
	IndividualIDKey   = "search.individual_id"
	FitnessKey        = "search.fitness"
	EvaluationsKey    = "search.evaluations"
	PopulationSizeKey = "search.population_size"
	ModelsCountKey    = "search.models_count"
)

// OperationKey specifies the operation being performed.
// Standard values: "fit", "predict", "predict_proba", "evaluate"
const OperationKey = "ml.operation"

// Standard attribute values.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationPredictProba = "predict_proba"
	OperationEvaluate     = "evaluate"
)
