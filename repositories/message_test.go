package repositories

import (
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Append_Multiple_Messages_Listed_In_Order(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t))
	roomID := uuid.NewString()

	// Given three messages appended one after another
	first, err := repository.Append(roomID, "alice", "hello")
	req.NoError(err)
	second, err := repository.Append(roomID, "bob", "world")
	req.NoError(err)
	third, err := repository.Append(roomID, "alice", "bye")
	req.NoError(err)

	// When the room backlog is listed
	messages, err := repository.ListByRoom(roomID)
	req.NoError(err)

	// Then they come back in creation order with store-assigned fields
	req.Len(messages, 3)
	req.Equal([]string{"hello", "world", "bye"},
		[]string{messages[0].Content, messages[1].Content, messages[2].Content})
	req.Equal(first.ID, messages[0].ID)
	req.Equal(second.ID, messages[1].ID)
	req.Equal(third.ID, messages[2].ID)
	req.False(messages[0].CreatedAt.IsZero())
}

func Test_Append_Assigns_Identifier_And_Timestamp(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t))
	before := time.Now().UTC()

	message, err := repository.Append(uuid.NewString(), "carol", "hi there")

	req.NoError(err)
	req.NotEqual(uuid.Nil, message.ID)
	req.False(message.CreatedAt.Before(before))
	req.Equal("carol", message.Sender)
}

func Test_ListByRoom_Does_Not_Leak_Across_Rooms(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t))
	roomA := uuid.NewString()
	roomB := uuid.NewString()

	_, err := repository.Append(roomA, "alice", "only for A")
	req.NoError(err)
	_, err = repository.Append(roomB, "bob", "only for B")
	req.NoError(err)

	messages, err := repository.ListByRoom(roomA)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("only for A", messages[0].Content)
}

func Test_ListByRoom_Empty_Room(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t))

	messages, err := repository.ListByRoom(uuid.NewString())

	req.NoError(err)
	req.Empty(messages)
}

func Test_ListByRoom_Is_Restartable(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t))
	roomID := uuid.NewString()

	_, err := repository.Append(roomID, "alice", "one")
	req.NoError(err)
	_, err = repository.Append(roomID, "alice", "two")
	req.NoError(err)

	// Two consecutive scans observe the same ordered sequence
	firstScan, err := repository.ListByRoom(roomID)
	req.NoError(err)
	secondScan, err := repository.ListByRoom(roomID)
	req.NoError(err)
	req.Equal(firstScan, secondScan)
}
