package errors

import (
	stderrors "errors"
	"fmt"

	"fraudlens/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context. The code is kept from an
// AppError in the chain, otherwise derived with Classify.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    Classify(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr == err {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// Predefined error codes
const (
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeNotFound         = "NOT_FOUND"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeMissingColumn    = "MISSING_COLUMN"
	CodeNoValidData      = "NO_VALID_DATA"
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeParseError       = "PARSE_ERROR"
	CodeEmptyFile        = "EMPTY_FILE"
)

// sentinel order matters: the more specific codes come first
var sentinelCodes = []struct {
	err  error
	code string
}{
	{core.ErrMissingColumn, CodeMissingColumn},
	{core.ErrEmptyFile, CodeEmptyFile},
	{core.ErrParse, CodeParseError},
	{core.ErrNoValidData, CodeNoValidData},
	{core.ErrInsufficientData, CodeInsufficientData},
	{core.ErrNotFound, CodeNotFound},
	{core.ErrInvalidInput, CodeInvalidInput},
}

// Classify returns the code for err: the code of the outermost AppError in
// its chain, else the code of the first matching domain sentinel, else
// INTERNAL_ERROR. A nil error has no code.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	for _, sc := range sentinelCodes {
		if stderrors.Is(err, sc.err) {
			return sc.code
		}
	}
	return CodeInternalError
}

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
