// Package event defines the tagged outbound events the session core
// emits towards a transport layer. Each variant carries a fixed payload
// shape; transports only switch on the concrete type.
package event

import (
	"room-chat/domain"
)

// DomainEvent is implemented by every outbound event scoped to a room's
// live sessions.
type DomainEvent interface {
	RoomID() string
}

// RoomJoined confirms a successful admission to the joining session only.
// The snapshot never contains the password hash.
type RoomJoined struct {
	Room domain.RoomSnapshot
}

func (e RoomJoined) RoomID() string { return e.Room.ID }

// Presence carries the deduplicated display names of a room's live
// sessions. Broadcast to the whole room on every membership change.
type Presence struct {
	Room  string
	Count int
	Names []string
}

func (e Presence) RoomID() string { return e.Room }

// MessagePosted carries the persisted form of a message, including the
// store-assigned identifier and timestamp.
type MessagePosted struct {
	Message domain.Message
}

func (e MessagePosted) RoomID() string { return e.Message.RoomID }

// History replays the ordered message backlog to a freshly joined session.
type History struct {
	Room     string
	Messages []domain.Message
}

func (e History) RoomID() string { return e.Room }

// Failure reports a rejected request to the originating session only.
// It is never broadcast and never terminates the connection.
type Failure struct {
	Room    string
	Kind    string
	Message string
}

func (e Failure) RoomID() string { return e.Room }
