package errors

import "sync"

// registry maps error codes to remediation suggestions.
var (
	registryMu sync.RWMutex
	registry   = map[string][]string{
		ErrConfigNotFound: {
			"Run 'gmpaudit init' to create a default configuration",
			"Set GMPAUDIT_CONFIG to point at an existing config file",
		},
		ErrConfigParseFailed: {
			"Check the YAML syntax of the config file",
			"Delete the file and run 'gmpaudit init' to regenerate it",
		},
		ErrConfigInvalid: {
			"Valid page sizes are a4 and letter; valid orientations are portrait and landscape",
			"Valid storage backends are file and sqlite",
		},
		ErrConfigWriteFailed: {
			"Check that the config directory is writable",
		},
		ErrValidationUnknownQuestion: {
			"Use /sections and /show to list question ids (e.g. 1a, 3f)",
		},
		ErrValidationUnknownSection: {
			"Use /sections to list section ids",
		},
		ErrValidationInvalidStatus: {
			"Valid statuses are compliant (c), not-compliant (nc), not-applicable (na), or clear",
		},
		ErrValidationUnknownField: {
			"Valid fields: auditeeName, auditeeAddress, auditeeContactName, auditeeContactFunction, auditorName, auditorAddress, qualityAuditorNames, auditStartDate, auditEndDate",
		},
		ErrValidationInvalidOption: {
			"Valid page sizes are a4 and letter; valid orientations are portrait and landscape",
		},
		ErrStorageReadFailed: {
			"Check the storage path in the config file",
		},
		ErrStorageWriteFailed: {
			"Check free disk space and permissions on the storage directory",
		},
		ErrStorageCorrupt: {
			"Move the damaged file aside; a fresh form will be created from the question catalog",
		},
		ErrStorageDecryptFailed: {
			"Restore the key file that was used when the form was saved",
			"Disable storage.encrypt to start a new unencrypted form",
		},
		ErrExportEmptyDocument: {
			"Answer at least one question or fill in company information before exporting",
		},
		ErrExportRenderFailure: {
			"Check that the output directory exists and is writable",
			"Retry the export; the form data was not modified",
		},
		ErrPhotoInvalidType: {
			"Supported formats are JPEG, PNG and WebP",
		},
		ErrPhotoTooLarge: {
			"Photos must be 5 MB or smaller",
		},
		ErrCommandNotFound: {
			"Type /help to see available commands",
		},
		ErrCommandMissingArgs: {
			"Type /help <command> for usage",
		},
	}
)

// RegisterSuggestions replaces the suggestions for code.
func RegisterSuggestions(code string, suggestions ...string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[code] = append([]string(nil), suggestions...)
}

// SuggestionsFor returns the registered suggestions for code.
func SuggestionsFor(code string) []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return append([]string(nil), registry[code]...)
}

// AttachSuggestions appends the registered suggestions for e.Code
// unless e already carries suggestions.
func AttachSuggestions(e *AuditError) *AuditError {
	if e == nil || e.HasSuggestions() {
		return e
	}
	return e.WithSuggestions(SuggestionsFor(e.Code)...)
}
