package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error code.
type ErrorCode string

// GenericErrorCode is used for errors that did not originate as an ErrorResponse.
const GenericErrorCode ErrorCode = "0"

// ErrorResponse represents an error response structure.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Details string    `json:"details,omitempty"`
}

// Error implements the error interface for ErrorResponse.
func (e *ErrorResponse) Error() string {
	errorJSON, _ := json.Marshal(e)
	return string(errorJSON)
}

// Is reports whether target is an ErrorResponse with the same code.
// Details are ignored so templated errors match their base value.
func (e *ErrorResponse) Is(target error) bool {
	t, ok := target.(*ErrorResponse)
	if !ok || t == nil {
		return false
	}
	return e.Code == t.Code
}

// WithDetails returns a copy of e with Details formatted from the
// receiver's Details template and args.
func (e *ErrorResponse) WithDetails(args ...interface{}) *ErrorResponse {
	return &ErrorResponse{
		Code:    e.Code,
		Details: fmt.Sprintf(e.Details, args...),
	}
}

// CreateErrorResponseFromError creates an ErrorResponse from a generic error.
func CreateErrorResponseFromError(err error) error {
	if err == nil {
		return nil
	}
	if errResp, ok := err.(*ErrorResponse); ok {
		return errResp
	}
	return &ErrorResponse{
		Code:    GenericErrorCode,
		Details: err.Error(),
	}
}
