// Package errors defines the relay's error taxonomy: a small typed
// AppError that every component converts its failures into before they
// cross a session or storage boundary, so the session layer can decide
// disposition (NOTICE-and-continue, drain, or silent) from the type
// alone.
package errors

import "fmt"

// ErrorType classifies an AppError by the disposition it is given.
type ErrorType string

const (
	TypeMalformedMessage   ErrorType = "malformed_message"
	TypeUnknownMessageType ErrorType = "unknown_message_type"
	TypeInvalidID          ErrorType = "invalid_id"
	TypeInvalidSignature   ErrorType = "invalid_signature"
	TypeDuplicate          ErrorType = "duplicate"
	TypeStoreError         ErrorType = "store_error"
	TypeTransportError     ErrorType = "transport_error"
	TypeShuttingDown       ErrorType = "shutting_down"
)

// Severity is used only for logging emphasis, never for control flow.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError is the typed error every ingest/session/store failure is
// converted into before it crosses a component boundary.
type AppError struct {
	Type     ErrorType
	Code     string
	Message  string
	Severity Severity
	cause    error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.cause }

func New(t ErrorType, code, message string) *AppError {
	return &AppError{Type: t, Code: code, Message: message, Severity: SeverityLow}
}

func Wrap(cause error, t ErrorType, code, message string) *AppError {
	return &AppError{Type: t, Code: code, Message: message, Severity: SeverityMedium, cause: cause}
}

func (e *AppError) WithSeverity(s Severity) *AppError {
	e.Severity = s
	return e
}

// MalformedMessage wraps a wire-codec decode failure.
func MalformedMessage(cause error) *AppError {
	return Wrap(cause, TypeMalformedMessage, "MALFORMED_MESSAGE", "malformed message").
		WithSeverity(SeverityLow)
}

// UnknownMessageType is raised for a well-formed frame with an
// unrecognized discriminator.
func UnknownMessageType(kind string) *AppError {
	return New(TypeUnknownMessageType, "UNKNOWN_MESSAGE_TYPE",
		fmt.Sprintf("unknown command %q", kind)).WithSeverity(SeverityLow)
}

// InvalidID reports a canonical-hash mismatch on an incoming event.
func InvalidID() *AppError {
	return New(TypeInvalidID, "INVALID_ID", "invalid: id does not match canonical hash").
		WithSeverity(SeverityLow)
}

// InvalidSignature reports a Schnorr verification failure.
func InvalidSignature() *AppError {
	return New(TypeInvalidSignature, "INVALID_SIGNATURE", "invalid: signature verification failed").
		WithSeverity(SeverityLow)
}

// Duplicate marks an event the store already holds. Callers should treat
// this as silent to the client, not surface it as a NOTICE.
func Duplicate() *AppError {
	return New(TypeDuplicate, "DUPLICATE", "duplicate event").WithSeverity(SeverityLow)
}

// StoreError wraps a failure from the underlying storage engine.
func StoreError(operation string, cause error) *AppError {
	return Wrap(cause, TypeStoreError, "STORE_ERROR", fmt.Sprintf("error: storage (%s)", operation)).
		WithSeverity(SeverityHigh)
}

// TransportError wraps a socket read/write failure.
func TransportError(operation string, cause error) *AppError {
	return Wrap(cause, TypeTransportError, "TRANSPORT_ERROR", fmt.Sprintf("transport %s failed", operation)).
		WithSeverity(SeverityMedium)
}

// ShuttingDown marks a rejection issued only because the relay is draining.
func ShuttingDown() *AppError {
	return New(TypeShuttingDown, "SHUTTING_DOWN", "relay is shutting down").
		WithSeverity(SeverityMedium)
}
