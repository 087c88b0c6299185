package errors

import (
	"errors"
	"fmt"
)

var (
	ErrRoomNotFound     = fmt.Errorf("room not found")
	ErrInvalidPassword  = fmt.Errorf("invalid password")
	ErrInvalidName      = fmt.Errorf("display name is required")
	ErrAlreadyJoined    = fmt.Errorf("session already joined a room")
	ErrNotJoined        = fmt.Errorf("not connected to a room")
	ErrEmptyMessage     = fmt.Errorf("message content cannot be empty")
	ErrStoreUnavailable = fmt.Errorf("store unavailable")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)

// Kind maps an error to the stable identifier carried by outbound
// error events. Unknown errors are reported as internal.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, ErrInvalidPassword):
		return "invalid_password"
	case errors.Is(err, ErrInvalidName):
		return "invalid_name"
	case errors.Is(err, ErrAlreadyJoined):
		return "already_joined"
	case errors.Is(err, ErrNotJoined):
		return "not_joined"
	case errors.Is(err, ErrEmptyMessage):
		return "empty_message"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}
