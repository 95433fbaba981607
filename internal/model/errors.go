package model

import "fmt"

// Code classifies a boundary error.
type Code string

const (
	CodeJobNotFound       Code = "JOB_NOT_FOUND"
	CodeNoStock           Code = "NO_STOCK"
	CodeUnknownAlgorithm  Code = "UNKNOWN_ALGORITHM"
	CodeAlgorithmMismatch Code = "ALGORITHM_MISMATCH"
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeQueueFull         Code = "QUEUE_FULL"
	CodeWorkerCrash       Code = "WORKER_CRASH"
	CodeTimeout           Code = "TIMEOUT"
	CodeCancelled         Code = "CANCELLED"
	CodeShuttingDown      Code = "SHUTTING_DOWN"
	CodeInternal          Code = "INTERNAL_ERROR"
)

// Error is the typed error crossing the core boundary. Every failed
// optimization terminates with exactly one of the codes above.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds a boundary error with a formatted message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Retryable reports whether a caller may retry the same request unchanged.
// Only capacity errors qualify; validation and precondition failures need
// amended input, and cancellations are never retried automatically.
func (e *Error) Retryable() bool {
	return e.Code == CodeQueueFull
}
