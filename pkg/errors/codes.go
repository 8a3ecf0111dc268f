package errors

// -----------------------------------------------------------------------------
// Configuration Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = "CONFIG_NOT_FOUND"

	// ErrConfigParseFailed indicates the configuration file is not valid YAML.
	ErrConfigParseFailed = "CONFIG_PARSE_FAILED"

	// ErrConfigInvalid indicates configuration values are invalid.
	ErrConfigInvalid = "CONFIG_INVALID"

	// ErrConfigWriteFailed indicates the config file could not be written.
	ErrConfigWriteFailed = "CONFIG_WRITE_FAILED"

	// ErrConfigMissingDataset indicates no dataset was supplied to the sampler.
	ErrConfigMissingDataset = "CONFIG_MISSING_DATASET"

	// ErrConfigMissingModel indicates no model function was supplied to the sampler.
	ErrConfigMissingModel = "CONFIG_MISSING_MODEL"

	// ErrConfigInvalidLabels indicates the label set does not fit the parameter vector.
	ErrConfigInvalidLabels = "CONFIG_INVALID_LABELS"

	// ErrConfigUnknownModel indicates the named model is not registered.
	ErrConfigUnknownModel = "CONFIG_UNKNOWN_MODEL"
)

// -----------------------------------------------------------------------------
// Data Format Error Codes
// -----------------------------------------------------------------------------
// Raised by dataset validation and passed through the sampler unchanged.

const (
	// ErrDataMissingColumn indicates a required column is absent.
	ErrDataMissingColumn = "DATA_MISSING_COLUMN"

	// ErrDataLengthMismatch indicates columns of different lengths.
	ErrDataLengthMismatch = "DATA_LENGTH_MISMATCH"

	// ErrDataEmpty indicates a table with no rows.
	ErrDataEmpty = "DATA_EMPTY"

	// ErrDataInvalidUnit indicates an unknown unit or wrong physical type.
	ErrDataInvalidUnit = "DATA_INVALID_UNIT"

	// ErrDataInvalidValue indicates a value outside its domain (non-positive energy or error).
	ErrDataInvalidValue = "DATA_INVALID_VALUE"

	// ErrDataNotIncreasing indicates energies that are not strictly increasing.
	ErrDataNotIncreasing = "DATA_NOT_INCREASING"

	// ErrDataInvalidUpperLimit indicates an upper-limit column in the wrong format.
	ErrDataInvalidUpperLimit = "DATA_INVALID_UPPER_LIMIT"

	// ErrDataInvalidCL indicates a confidence level outside (0, 1).
	ErrDataInvalidCL = "DATA_INVALID_CL"

	// ErrDataParseFailed indicates the input file could not be parsed.
	ErrDataParseFailed = "DATA_PARSE_FAILED"
)

// -----------------------------------------------------------------------------
// Model and Sampler Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrModelEvaluationFailed indicates the model returned an error during sampling.
	ErrModelEvaluationFailed = "MODEL_EVALUATION_FAILED"

	// ErrModelShapeMismatch indicates model output that does not align with the energies.
	ErrModelShapeMismatch = "MODEL_SHAPE_MISMATCH"

	// ErrModelTypeMismatch indicates model output of a different physical type than the data.
	ErrModelTypeMismatch = "MODEL_TYPE_MISMATCH"

	// ErrSamplerNotPrepared indicates Run was called before Prepare.
	ErrSamplerNotPrepared = "SAMPLER_NOT_PREPARED"

	// ErrSamplerInvalidPositions indicates walker positions of the wrong shape.
	ErrSamplerInvalidPositions = "SAMPLER_INVALID_POSITIONS"
)

// -----------------------------------------------------------------------------
// IO Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrIOReadFailed indicates a file could not be read.
	ErrIOReadFailed = "IO_READ_FAILED"

	// ErrIOWriteFailed indicates a file could not be written.
	ErrIOWriteFailed = "IO_WRITE_FAILED"

	// ErrExportNoData indicates an export was requested for an empty chain.
	ErrExportNoData = "EXPORT_NO_DATA"
)
