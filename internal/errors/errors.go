package errors

import "fmt"

// ErrorCode represents a Glance error code.
type ErrorCode string

const (
	ErrStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"  // 503
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"      // 400
	ErrNotFound           ErrorCode = "NOT_FOUND"            // 404
	ErrBlobFailed         ErrorCode = "BLOB_FAILED"          // 500
	ErrModelRequest       ErrorCode = "MODEL_REQUEST_FAILED" // 502
	ErrModelUnavailable   ErrorCode = "MODEL_UNAVAILABLE"    // 502
	ErrInternal           ErrorCode = "INTERNAL"             // 500
)

// GlanceError represents a structured error with code, status, and details.
type GlanceError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *GlanceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewStorageUnavailable creates a 503 error for a persistence layer that
// could not be opened or written. Callers treat this as a degraded-mode
// signal, not a fatal condition.
func NewStorageUnavailable(err error) *GlanceError {
	msg := "capture storage unavailable"
	if err != nil {
		msg = fmt.Sprintf("capture storage unavailable: %v", err)
	}
	return &GlanceError{
		Code:    ErrStorageUnavailable,
		Status:  503,
		Message: msg,
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *GlanceError {
	return &GlanceError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a capture cannot be found.
func NewNotFound(identifier string) *GlanceError {
	return &GlanceError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("capture not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewBlobFailed creates a 500 error for a failed blob read/write/delete.
// The associated record mutation is not rolled back.
func NewBlobFailed(key string, err error) *GlanceError {
	msg := fmt.Sprintf("blob operation failed for %q", key)
	if err != nil {
		msg = fmt.Sprintf("blob operation failed for %q: %v", key, err)
	}
	return &GlanceError{
		Code:    ErrBlobFailed,
		Status:  500,
		Message: msg,
		Details: map[string]any{"blob_key": key},
	}
}

// NewModelRequest creates a 502 error for a failed model HTTP call.
// The message carries the server's error text when available; a zero status
// means the request never got a response.
func NewModelRequest(status int, serverMsg string) *GlanceError {
	msg := fmt.Sprintf("request failed: %s", serverMsg)
	if status > 0 {
		msg = fmt.Sprintf("HTTP %d: %s", status, serverMsg)
	}
	return &GlanceError{
		Code:    ErrModelRequest,
		Status:  502,
		Message: msg,
		Details: map[string]any{"upstream_status": status},
	}
}

// NewModelUnavailable creates a 502 error after every model/version
// combination was tried and rejected as not found.
func NewModelUnavailable(tried []string, suggestion string) *GlanceError {
	msg := fmt.Sprintf("no model/version combination accepted the request; tried: %v", tried)
	if suggestion != "" {
		msg += "\n" + suggestion
	}
	return &GlanceError{
		Code:    ErrModelUnavailable,
		Status:  502,
		Message: msg,
		Details: map[string]any{"tried": tried},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *GlanceError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &GlanceError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a GlanceError with the given code.
func Is(err error, code ErrorCode) bool {
	if gErr, ok := err.(*GlanceError); ok {
		return gErr.Code == code
	}
	return false
}
