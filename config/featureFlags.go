package config

import (
	"os"
	"strings"
)

// AllowRunReopen gates the administrative reopen of an Imported run.
// Reopen rewinds the run status without deleting generated records, so it is
// off unless operations explicitly turns it on.
//
// Set via env:
// - ALLOW_RUN_REOPEN=true
func AllowRunReopen() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("ALLOW_RUN_REOPEN")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// StrictMappingValidation makes parse refuse mappings that name columns
// beyond the detected width of the source file instead of skipping those rows.
//
// Set via env:
// - STRICT_MAPPING_VALIDATION=true
func StrictMappingValidation() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_MAPPING_VALIDATION")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
