package ingestion

import (
	"errors"
	"fmt"
	"strings"
)

// DuplicatePrefix tags error messages that signal already-ingested content.
const DuplicatePrefix = "DUPLICATE:"

type DuplicateError struct {
	SourceType string
	ExternalID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s content from %s with external id %q already exists", DuplicatePrefix, e.SourceType, e.ExternalID)
}

// IsDuplicate reports whether err is a duplicate-content signal, either
// typed or carrying the conventional prefix.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return true
	}
	return strings.HasPrefix(err.Error(), DuplicatePrefix)
}

type ValidationError struct {
	Prefix     string
	Violations []string
}

func (e *ValidationError) Error() string {
	return e.Prefix + ": " + strings.Join(e.Violations, "; ")
}

// ExtractionError means the origin payload lacked the shape an adapter needs.
type ExtractionError struct {
	Source string
	Msg    string
	Err    error
}

func NewExtractionError(source, msg string, err error) *ExtractionError {
	return &ExtractionError{Source: source, Msg: msg, Err: err}
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s payload: %s: %v", e.Source, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s payload: %s", e.Source, e.Msg)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsInputError reports failures caused by the caller's payload rather than
// by the pipeline or its collaborators.
func IsInputError(err error) bool {
	var verr *ValidationError
	var eerr *ExtractionError
	return errors.As(err, &verr) || errors.As(err, &eerr)
}
