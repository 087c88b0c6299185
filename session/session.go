// Package session implements the room session protocol: connection
// lifecycle, password-gated admission, presence tracking and message
// broadcast. It owns the only shared mutable state in the system, the
// presence table inside Manager.
package session

import (
	"github.com/google/uuid"

	"room-chat/contract"
)

// Session is the live binding between one connection and a room.
// It is never persisted; presence is reconstructed from nothing but
// live sessions.
//
// The binding fields are written by the session's own connection task,
// always inside the bound room's critical section. Other tasks only read
// them while holding that same lock (broadcast enumeration).
type Session struct {
	ID   string
	sink contract.EventSink

	roomID string // empty until a join succeeds
	name   string
	closed bool // set on disconnect, the session is then unusable
}

func newSession(sink contract.EventSink) *Session {
	return &Session{ID: uuid.NewString(), sink: sink}
}

// Joined reports whether the session is currently bound to a room.
func (s *Session) Joined() bool {
	return s.roomID != ""
}

// Room returns the bound room identifier, empty when not joined.
func (s *Session) Room() string {
	return s.roomID
}

// Name returns the bound display name, empty when not joined.
func (s *Session) Name() string {
	return s.name
}
