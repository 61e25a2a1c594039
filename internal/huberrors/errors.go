// Package huberrors provides sentinel and custom error types for the application.
package huberrors

// ErrNotFound represents a "not found" error.
// Use when a requested resource doesn't exist.
var ErrNotFound = &NotFoundError{}

// NotFoundError is a sentinel error for resources that are not found.
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new NotFoundError with a custom message.
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Resource != "" {
		return e.Resource + " not found"
	}

	return "resource not found"
}

// Is implements the error interface for error comparison.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)

	return ok
}

// ErrValidation represents a validation error.
// Use when client input fails validation.
var ErrValidation = &ValidationError{}

// ValidationError is a sentinel error for validation failures.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new ValidationError with a custom message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Field != "" {
		return "validation failed for field: " + e.Field
	}

	return "validation error"
}

// Is implements the error interface for error comparison.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)

	return ok
}

// ErrTransient is the sentinel for retryable store failures (connection loss, serialization
// failure, deadlock). Workers leave the job unacknowledged so the queue redelivers it.
var ErrTransient = &TransientError{}

// TransientError wraps a store error that is safe to retry.
type TransientError struct {
	Op  string
	Err error
}

// NewTransientError wraps err as a retryable failure of operation op.
func NewTransientError(op string, err error) *TransientError {
	return &TransientError{Op: op, Err: err}
}

// Error implements the error interface.
func (e *TransientError) Error() string {
	if e.Err == nil {
		return "transient store error"
	}

	if e.Op != "" {
		return e.Op + ": " + e.Err.Error()
	}

	return e.Err.Error()
}

// Unwrap returns the underlying store error.
func (e *TransientError) Unwrap() error {
	return e.Err
}

// Is implements the error interface for error comparison.
func (e *TransientError) Is(target error) bool {
	_, ok := target.(*TransientError)

	return ok
}

// ErrPoisonMessage is the sentinel for malformed queue payloads.
// Poison messages are acknowledged and dropped, never redelivered.
var ErrPoisonMessage = &PoisonMessageError{}

// PoisonMessageError describes a job payload that can never be processed.
type PoisonMessageError struct {
	Reason string
}

// NewPoisonMessageError creates a PoisonMessageError with the given reason.
func NewPoisonMessageError(reason string) *PoisonMessageError {
	return &PoisonMessageError{Reason: reason}
}

// Error implements the error interface.
func (e *PoisonMessageError) Error() string {
	if e.Reason != "" {
		return "poison message: " + e.Reason
	}

	return "poison message"
}

// Is implements the error interface for error comparison.
func (e *PoisonMessageError) Is(target error) bool {
	_, ok := target.(*PoisonMessageError)

	return ok
}

// ErrEnqueue is the sentinel for a failed enqueue after the ticket was committed.
var ErrEnqueue = &EnqueueError{}

// EnqueueError wraps a queue insert failure.
type EnqueueError struct {
	TicketID string
	Err      error
}

// NewEnqueueError creates an EnqueueError for the given ticket.
func NewEnqueueError(ticketID string, err error) *EnqueueError {
	return &EnqueueError{TicketID: ticketID, Err: err}
}

// Error implements the error interface.
func (e *EnqueueError) Error() string {
	msg := "failed to enqueue enrichment job"
	if e.TicketID != "" {
		msg += " for ticket " + e.TicketID
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying queue error.
func (e *EnqueueError) Unwrap() error {
	return e.Err
}

// Is implements the error interface for error comparison.
func (e *EnqueueError) Is(target error) bool {
	_, ok := target.(*EnqueueError)

	return ok
}
