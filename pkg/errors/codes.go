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

	// ErrConfigReadFailed indicates the config file exists but could not be read.
	ErrConfigReadFailed = "CONFIG_READ_FAILED"

	// ErrConfigWriteFailed indicates the config file could not be written.
	ErrConfigWriteFailed = "CONFIG_WRITE_FAILED"
)

// -----------------------------------------------------------------------------
// Validation Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrValidationUnknownQuestion indicates a question id not present in the form.
	ErrValidationUnknownQuestion = "VALIDATION_UNKNOWN_QUESTION"

	// ErrValidationUnknownSection indicates a section id not present in the form.
	ErrValidationUnknownSection = "VALIDATION_UNKNOWN_SECTION"

	// ErrValidationInvalidStatus indicates an unrecognised compliance status.
	ErrValidationInvalidStatus = "VALIDATION_INVALID_STATUS"

	// ErrValidationUnknownField indicates an unknown company information field.
	ErrValidationUnknownField = "VALIDATION_UNKNOWN_FIELD"

	// ErrValidationInvalidForm indicates a structurally invalid form.
	ErrValidationInvalidForm = "VALIDATION_INVALID_FORM"

	// ErrValidationInvalidOption indicates an unknown export option value.
	ErrValidationInvalidOption = "VALIDATION_INVALID_OPTION"
)

// -----------------------------------------------------------------------------
// Storage Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrStorageNotFound indicates no saved form exists yet.
	ErrStorageNotFound = "STORAGE_NOT_FOUND"

	// ErrStorageReadFailed indicates the saved form could not be read.
	ErrStorageReadFailed = "STORAGE_READ_FAILED"

	// ErrStorageWriteFailed indicates the form could not be saved.
	ErrStorageWriteFailed = "STORAGE_WRITE_FAILED"

	// ErrStorageCorrupt indicates the saved form could not be decoded.
	ErrStorageCorrupt = "STORAGE_CORRUPT"

	// ErrStorageDecryptFailed indicates a sealed field could not be opened.
	// Usually the key file changed since the form was saved.
	ErrStorageDecryptFailed = "STORAGE_DECRYPT_FAILED"
)

// -----------------------------------------------------------------------------
// Export Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrExportEmptyDocument indicates there is nothing to render.
	ErrExportEmptyDocument = "EXPORT_EMPTY_DOCUMENT"

	// ErrExportRenderFailure indicates layout or output emission failed.
	ErrExportRenderFailure = "EXPORT_RENDER_FAILURE"
)

// -----------------------------------------------------------------------------
// Photo Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrPhotoInvalidType indicates an unsupported image content type.
	ErrPhotoInvalidType = "PHOTO_INVALID_TYPE"

	// ErrPhotoTooLarge indicates the image exceeds the upload size limit.
	ErrPhotoTooLarge = "PHOTO_TOO_LARGE"

	// ErrPhotoDecodeFailed indicates the image bytes could not be decoded.
	ErrPhotoDecodeFailed = "PHOTO_DECODE_FAILED"

	// ErrPhotoNotFound indicates the photo id is not attached to the question.
	ErrPhotoNotFound = "PHOTO_NOT_FOUND"
)

// -----------------------------------------------------------------------------
// Command Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrCommandNotFound indicates the shell command does not exist.
	ErrCommandNotFound = "COMMAND_NOT_FOUND"

	// ErrCommandMissingArgs indicates required arguments are missing.
	ErrCommandMissingArgs = "COMMAND_MISSING_ARGS"

	// ErrCommandInvalidArg indicates an argument value is invalid.
	ErrCommandInvalidArg = "COMMAND_INVALID_ARG"
)

// -----------------------------------------------------------------------------
// IO and Network Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrIOReadFailed indicates a file could not be read.
	ErrIOReadFailed = "IO_READ_FAILED"

	// ErrIOWriteFailed indicates a file could not be written.
	ErrIOWriteFailed = "IO_WRITE_FAILED"

	// ErrNetworkBindFailed indicates the HTTP server could not bind its address.
	ErrNetworkBindFailed = "NETWORK_BIND_FAILED"
)

// -----------------------------------------------------------------------------
// Internal Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrInternal indicates an unexpected internal state.
	ErrInternal = "INTERNAL_ERROR"
)
