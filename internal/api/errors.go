package api

import (
	"errors"
	"fmt"
)

// GenericMessage is shown when the service is unreachable or fails
// without a usable message of its own.
const GenericMessage = "Error connecting to server or analysis failed."

// StaleRecordMessage is shown when a record targeted by a detail fetch
// or delete no longer exists on the server.
const StaleRecordMessage = "This record no longer exists. The list will be refreshed."

// ConflictError is a 409 from the service: a record for the same
// (name, phone) pair already exists. The backend message is surfaced
// verbatim so the operator sees which constraint was hit.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// NotFoundError is a 404: the targeted record has been removed since
// the list was loaded.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("record %s not found", e.ID)
}

// ServerError is a 400 or 500 from the service. Message holds the
// backend-supplied text and may be empty.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return e.Message
}

// TransportError wraps a failure to reach the service at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("request failed: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// UserMessage converts any remote-call error into the single message
// shown to the operator. Backend-supplied messages are preferred; the
// transport and empty-message cases fall back to the generic text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict.Message
	}
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return StaleRecordMessage
	}
	var server *ServerError
	if errors.As(err, &server) && server.Message != "" {
		return server.Message
	}
	return GenericMessage
}

// IsNotFound reports whether err is a stale-record condition.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}
