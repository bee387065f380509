package domain

import "github.com/google/uuid"

// SessionID identifies one verification session. A new one is minted each
// time an attendance transition request is accepted.
type SessionID string

// NewSessionID returns a fresh random session identifier.
func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// IsNil returns true if the session ID is empty.
func (id SessionID) IsNil() bool {
	return id == ""
}

// String returns the string representation of the session ID.
func (id SessionID) String() string {
	return string(id)
}

// EventID identifies a committed clock event across the submission boundary.
type EventID string

// NewEventID returns a fresh random event identifier.
func NewEventID() EventID {
	return EventID(uuid.NewString())
}

// IsNil returns true if the event ID is empty.
func (id EventID) IsNil() bool {
	return id == ""
}

// String returns the string representation of the event ID.
func (id EventID) String() string {
	return string(id)
}
