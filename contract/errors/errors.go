package errors

import stderrors "errors"

// Error codes for the dispatch contracts. Keep stable; they are recorded in dispatch outcomes.
const (
	ErrCodeInvalidMessage       = "cqrs.invalid_message"
	ErrCodeHandlerNotFound      = "cqrs.handler_not_found"
	ErrCodeInvocationFailed     = "cqrs.invocation_failed"
	ErrCodeHandlerExists        = "cqrs.handler_exists"
	ErrCodeInvalidBinding       = "cqrs.invalid_binding"
	ErrCodeHandlerPanicked      = "cqrs.handler_panicked"
	ErrCodeServiceNotProvided   = "cqrs.service_not_provided"
	ErrCodeServiceExists        = "cqrs.service_exists"
	ErrCodeScopeReleased        = "cqrs.scope_released"
	ErrCodePublishFailed        = "cqrs.publish_failed"
	ErrCodeSerializationFailed  = "cqrs.serialization_failed"
	ErrCodeJournalNotConfigured = "cqrs.journal_not_configured"
)

// Code returns an error value that carries only a code string.
// It implements error by returning the code string in Error().
func Code(code string) error { return codedError(code) }

type codedError string

func (e codedError) Error() string { return string(e) }

var (
	ErrInvalidMessage       = Code(ErrCodeInvalidMessage)
	ErrHandlerNotFound      = Code(ErrCodeHandlerNotFound)
	ErrInvocationFailed     = Code(ErrCodeInvocationFailed)
	ErrHandlerExists        = Code(ErrCodeHandlerExists)
	ErrInvalidBinding       = Code(ErrCodeInvalidBinding)
	ErrHandlerPanicked      = Code(ErrCodeHandlerPanicked)
	ErrServiceNotProvided   = Code(ErrCodeServiceNotProvided)
	ErrServiceExists        = Code(ErrCodeServiceExists)
	ErrScopeReleased        = Code(ErrCodeScopeReleased)
	ErrPublishFailed        = Code(ErrCodePublishFailed)
	ErrSerializationFailed  = Code(ErrCodeSerializationFailed)
	ErrJournalNotConfigured = Code(ErrCodeJournalNotConfigured)
)

// CodeOf returns the first code found in err's chain, or "" if there is none.
func CodeOf(err error) string {
	var ce codedError
	if stderrors.As(err, &ce) {
		return string(ce)
	}

	return ""
}
