// Package domain contains core concepts of the room chat system.
// This file defines Room records and their admission-boundary view.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Room is the persisted metadata of a chat channel.
// The record is created once by the HTTP surface and read-only afterwards.
// Invariant: IsPrivate is true iff PasswordHash is non-empty.
type Room struct {
	ID           string
	Name         string
	Description  string
	IsPrivate    bool
	PasswordHash string
	Owner        string
	CreatedAt    time.Time
}

// NewRoom builds a room record with a fresh identifier.
// passwordHash may be empty, in which case the room is public.
func NewRoom(name, description, owner, passwordHash string) Room {
	return Room{
		ID:           uuid.NewString(),
		Name:         name,
		Description:  description,
		IsPrivate:    passwordHash != "",
		PasswordHash: passwordHash,
		Owner:        owner,
		CreatedAt:    time.Now().UTC(),
	}
}

// RoomSnapshot is the only shape a room may take past the admission
// boundary. The password hash never leaves the store layer.
type RoomSnapshot struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsPrivate   bool      `json:"isPrivate"`
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (r Room) Snapshot() RoomSnapshot {
	return RoomSnapshot{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		IsPrivate:   r.IsPrivate,
		Owner:       r.Owner,
		CreatedAt:   r.CreatedAt,
	}
}
