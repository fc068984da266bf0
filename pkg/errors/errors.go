package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Collaborator (version source) errors — always fatal
	ErrRevisionLookup ErrorCode = "REVISION_LOOKUP"
	ErrClone          ErrorCode = "CLONE"
	ErrDiff           ErrorCode = "DIFF"
	ErrShowFile       ErrorCode = "SHOW_FILE"

	// Manifest errors
	ErrManifestParse   ErrorCode = "MANIFEST_PARSE"
	ErrManifestWrite   ErrorCode = "MANIFEST_WRITE"
	ErrManifestMissing ErrorCode = "MANIFEST_MISSING"

	// Merge errors
	ErrMergeConflictMarkup ErrorCode = "MERGE_CONFLICT_MARKUP"

	// Workspace errors
	ErrWorkspaceDiscovery ErrorCode = "WORKSPACE_DISCOVERY"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// FileSystem errors
	ErrFileAccess ErrorCode = "FILE_ACCESS"
	ErrFileWrite  ErrorCode = "FILE_WRITE"
	ErrDirCreate  ErrorCode = "DIR_CREATE"
)

// TetherError represents a structured error with code and details
type TetherError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *TetherError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *TetherError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *TetherError) Is(target error) bool {
	var targetErr *TetherError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new TetherError with the given code and message
func New(code ErrorCode, message string) *TetherError {
	return &TetherError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new TetherError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *TetherError {
	return &TetherError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a TetherError
func Wrap(err error, code ErrorCode, message string) *TetherError {
	if err == nil {
		return nil
	}
	return &TetherError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *TetherError {
	if err == nil {
		return nil
	}
	return &TetherError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *TetherError) WithDetail(key string, value interface{}) *TetherError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var terr *TetherError
	if errors.As(err, &terr) {
		return terr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if
// the error is not a TetherError
func GetErrorCode(err error) ErrorCode {
	var terr *TetherError
	if errors.As(err, &terr) {
		return terr.Code
	}
	return ErrUnknown
}
