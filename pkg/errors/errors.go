package errors

import "fmt"

// ErrorCode is the wire-level error discriminator sent back to the
// originating connection. Errors are never broadcast.
type ErrorCode string

const (
	CodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	CodeInvalidData      ErrorCode = "INVALID_DATA"
	CodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// AppError carries an error code plus a human-readable message. The code is
// what clients branch on; the message is advisory.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewPermissionDenied(message string) *AppError {
	return &AppError{Code: CodePermissionDenied, Message: message}
}

func NewInvalidData(message string) *AppError {
	return &AppError{Code: CodeInvalidData, Message: message}
}

func NewInternal(message string, cause error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Cause: cause}
}

// AsAppError extracts an AppError from an error chain, walking Unwrap.
func AsAppError(err error) *AppError {
	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			return appErr
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil
		}
		err = u.Unwrap()
	}
	return nil
}
