package huberrors

import "errors"

// Stable error codes recorded alongside every logged failure.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeTransientStore = "TRANSIENT_STORE_ERROR"
	CodePoisonMessage  = "POISON_MESSAGE"
	CodeEnqueueFailure = "ENQUEUE_FAILURE"
	CodeInternal       = "INTERNAL_ERROR"
)

// Code returns the stable code for err. Unclassified errors map to CodeInternal.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrTransient):
		return CodeTransientStore
	case errors.Is(err, ErrPoisonMessage):
		return CodePoisonMessage
	case errors.Is(err, ErrEnqueue):
		return CodeEnqueueFailure
	default:
		return CodeInternal
	}
}
