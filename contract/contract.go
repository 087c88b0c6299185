//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"room-chat/domain"
	"room-chat/domain/event"
)

// EventSink receives outbound events for one live connection.
//
// Consume must not block: the session core invokes it while holding the
// room's critical section. A sink that cannot keep up must fail fast and
// return an error instead of stalling the room.
type EventSink interface {
	Consume(e event.DomainEvent) error
}

// RoomStore persists room metadata and the admission password hash.
// Rooms are created by the HTTP surface and read-only afterwards.
type RoomStore interface {
	Create(room domain.Room) error
	FindByID(id string) (domain.Room, error)
	List() ([]domain.Room, error)
	VerifyPassword(room domain.Room, candidate string) (bool, error)
}

// MessageStore persists messages keyed by room, ordered by creation time.
// Append assigns the identifier and timestamp.
type MessageStore interface {
	Append(roomID, sender, content string) (domain.Message, error)
	ListByRoom(roomID string) ([]domain.Message, error)
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
