package application

import "errors"

// Failure taxonomy. Local validation errors never reach the network
// layer; everything else is converted to a user-facing message at the
// handler boundary. Nothing here is fatal to the process.
var (
	// AuthError family: credential or session rejection.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionRequired    = errors.New("active session required")

	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")

	// PersistenceError: the identity was created but the profile row
	// write failed. Surfaced, never silently retried.
	ErrProfilePersist = errors.New("account created but profile could not be saved")

	// ErrDeliveryUnavailable: mail sending is enabled but the queue
	// publisher is down. An alert that cannot reach the emergency
	// contact must never report success.
	ErrDeliveryUnavailable = errors.New("notification delivery unavailable")
)

// FieldError is a field-scoped validation failure, distinct from the
// general form error.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// AsFieldError unwraps a FieldError if err is one.
func AsFieldError(err error) (*FieldError, bool) {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
