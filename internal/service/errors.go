package service

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorType classifies rate source failures
type ErrorType int

const (
	ErrorTypeNoSources ErrorType = iota
	ErrorTypeContextCancelled
	ErrorTypeSourceFailed
	ErrorTypeNetworkError
	ErrorTypeBadStatus
	ErrorTypeInvalidResponse
	ErrorTypeUnknown
)

func (errorType ErrorType) String() string {
	switch errorType {
	case ErrorTypeNoSources:
		return "no_sources"
	case ErrorTypeContextCancelled:
		return "context_cancelled"
	case ErrorTypeSourceFailed:
		return "source_failed"
	case ErrorTypeNetworkError:
		return "network_error"
	case ErrorTypeBadStatus:
		return "bad_status"
	case ErrorTypeInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// ServiceError represents a service-specific error with type information
type ServiceError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

func newServiceError(errorType ErrorType, message string, cause error) *ServiceError {
	return &ServiceError{Type: errorType, Message: message, Cause: cause}
}

// ClassifyError returns the ErrorType carried by err, inferring one for
// plain transport and context errors.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	var serviceError *ServiceError
	if errors.As(err, &serviceError) {
		return serviceError.Type
	}

	var netError net.Error
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeContextCancelled
	case errors.As(err, &netError):
		return ErrorTypeNetworkError
	default:
		return ErrorTypeUnknown
	}
}
