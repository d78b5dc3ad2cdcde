// Package services provides the business logic layer between the transports
// (HTTP, gRPC, queue worker) and the change-point detectors.
package services

import "fmt"

// Error codes carried by ServiceError
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeSeriesTooLong   = "SERIES_TOO_LONG"
	CodeInvalidParams   = "INVALID_PARAMS"
	CodeInvalidAlgo     = "INVALID_ALGORITHM"
	CodeProfileNotFound = "PROFILE_NOT_FOUND"
	CodeResultNotFound  = "RESULT_NOT_FOUND"
	CodeQueueDisabled   = "QUEUE_DISABLED"
	CodeArchiveDisabled = "ARCHIVE_DISABLED"
	CodeInternal        = "INTERNAL_ERROR"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorf creates a new ServiceError with a formatted message
func NewServiceErrorf(code, format string, args ...interface{}) *ServiceError {
	return NewServiceError(code, fmt.Sprintf(format, args...))
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}
