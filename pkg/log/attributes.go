// Standard attribute keys for pipeline logging. Keys are hierarchical
// ("model.name", "data.samples") so log queries can filter by prefix.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type, e.g. "LogisticRegression".
	ModelNameKey = "model.name"

	// OperationKey is one of the Operation* values below.
	OperationKey = "ml.operation"

	// ComponentKey identifies the package emitting the record, e.g. "pipeline", "dashboard".
	ComponentKey = "ml.component"

	// PhaseKey is one of the Phase* values below.
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	SourceKey   = "data.source"
)

// Metrics and training progress.
const (
	DurationMsKey = "perf.duration_ms"
	AccuracyKey   = "metrics.accuracy"
	BrierKey      = "metrics.brier"
	AUCKey        = "metrics.auc"
	LossKey       = "metrics.loss"
	IterationKey  = "training.iteration"
)

// Prediction output.
const (
	DiagnosisKey   = "preds.diagnosis"
	ConfidenceKey  = "preds.confidence"
	ArtifactKey    = "artifact.path"
	RandomSeedKey  = "config.random_seed"
	HyperParamsKey = "model.hyperparams"
)

// Dashboard requests.
const (
	HTTPMethodKey = "http.method"
	HTTPURIKey    = "http.uri"
	HTTPStatusKey = "http.status"
	HTTPAddrKey   = "http.addr"
)

// Error context. ErrAttrKey carries the error value itself; the stack trace
// extracted from it is written under StacktraceAttrKey.
const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
	ErrorTypeKey      = "error.type"
)

const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationScore     = "score"
	OperationLoad      = "load"
	OperationSave      = "save"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"
)
