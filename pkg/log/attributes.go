// Package log defines standard attribute keys for surrogate modeling operations.
//
// Keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples") so logs can be filtered by category.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the surrogate model type.
	// Examples: "LS", "KPLS", "RMTS"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "add_training_pts", "train", "predict"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component is performing the operation.
	// Examples: "surrogate", "dataset", "sampling"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"

	// ProblemKey names the analytic test problem being sampled.
	ProblemKey = "problem.name"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows).
	SamplesKey = "data.samples"

	// FeaturesKey indicates the input dimensionality (columns of X).
	FeaturesKey = "data.features"

	// TargetsKey indicates the output dimensionality (columns of Y).
	TargetsKey = "data.targets"

	// FidelityClassKey names the training data partition ("exact", ...).
	FidelityClassKey = "data.fidelity_class"

	// DatasetKey names a persisted set of training points.
	DatasetKey = "data.dataset"

	// CoefficientsKey records the number of unknowns of a linear solve.
	CoefficientsKey = "data.coefficients"
)

// Domain enforcement
const (
	// DomainDimKey is the 0-based input dimension that violated its bounds.
	DomainDimKey = "domain.dim"

	// DomainKindKey is "above max" or "below min".
	DomainKindKey = "domain.kind"

	// DomainPolicyKey records when a model validates its domain.
	DomainPolicyKey = "domain.policy"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// LossKey records an objective value (e.g. negative reduced likelihood).
	LossKey = "metrics.loss"

	// RMSEKey records root mean squared prediction error.
	RMSEKey = "metrics.rmse"

	// RelativeErrorKey records ||y_pred - y|| / ||y||.
	RelativeErrorKey = "metrics.relative_error"

	// IterationKey records the current iteration number.
	IterationKey = "training.iteration"
)

// Prediction Context
const (
	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"
)

// Error Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"
)

// Hyperparameters and Configuration
const (
	// HyperParamsKey contains option bindings as a structured object.
	HyperParamsKey = "model.hyperparams"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute values.
const (
	OperationAddTrainingPoints = "add_training_pts"
	OperationTrain             = "train"
	OperationPredict           = "predict"

	PhaseTraining   = "training"
	PhaseInference  = "inference"
	PhaseValidation = "validation"

	ErrorNotTrained        = "NOT_TRAINED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorDomainViolation   = "DOMAIN_VIOLATION"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidOption     = "INVALID_OPTION"
	ErrorSingularMatrix    = "SINGULAR_MATRIX"
)
