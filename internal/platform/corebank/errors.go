package corebank

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/banquito-core-processor/internal/domain/payment"
)

// Operation names one of the core endpoints
type Operation string

const (
	OperationDebit    Operation = "debit"
	OperationCredit   Operation = "credit"
	OperationReversal Operation = "reversal"
)

// TransportError means the call never produced an HTTP response: timeout, refused connection, reset
type TransportError struct {
	Operation Operation
	URL       string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("core %s transport failure (%s): %v", e.Operation, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the call ran out of time
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// StatusError is a non-2xx answer from the core
type StatusError struct {
	Operation  Operation
	StatusCode int
	Body       string
	Message    string // mensaje field when the body is a core response
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("core %s returned HTTP %d: %s", e.Operation, e.StatusCode, e.Body)
}

// ClientRejection is true for 4xx answers, which repeat identically if retried
func (e *StatusError) ClientRejection() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// CoreProcessingError is a 4xx rejection translated into a domain error code
type CoreProcessingError struct {
	Operation  Operation
	StatusCode int
	Code       string
	Message    string
}

// NewCoreProcessingError derives the domain code ERROR-<status> from a rejected call
func NewCoreProcessingError(statusErr *StatusError) *CoreProcessingError {
	message := statusErr.Message
	if message == "" {
		message = statusErr.Body
	}
	if message == "" {
		message = "core rejected the " + string(statusErr.Operation) + " request"
	}
	return &CoreProcessingError{
		Operation:  statusErr.Operation,
		StatusCode: statusErr.StatusCode,
		Code:       payment.CodeCoreErrorPrefix + strconv.Itoa(statusErr.StatusCode),
		Message:    message,
	}
}

func (e *CoreProcessingError) Error() string {
	return fmt.Sprintf("core %s rejected with %s: %s", e.Operation, e.Code, e.Message)
}
