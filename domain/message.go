// Package domain contains core concepts of the room chat system.
// This file defines Message events and related rules.
// Messages are immutable once appended to the store.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat event. ID and CreatedAt are
// assigned by the message store on append, never by the client.
type Message struct {
	ID        uuid.UUID `json:"id"`
	RoomID    string    `json:"roomId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
