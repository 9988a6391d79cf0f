package eventbus

import "errors"

var (
	// Bus state errors
	ErrBusNotInitialized = errors.New("event bus not initialized")
	ErrInvalidArgument   = errors.New("invalid argument")

	// Capacity errors
	ErrTooManyEventTypes       = errors.New("too many distinct event types")
	ErrTooManyHandlers         = errors.New("too many handlers for event type")
	ErrEventTypeRangeExhausted = errors.New("custom event type range exhausted")
	ErrPayloadTooLarge         = errors.New("event payload exceeds maximum size")

	// Handler errors
	ErrHandlerAlreadyRegistered = errors.New("handler already registered for event type")
	ErrHandlerNotFound          = errors.New("handler not found for event type")
)
