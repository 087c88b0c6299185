package ws

import (
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"room-chat/auth"
	"room-chat/domain"
	"room-chat/repositories"
	"room-chat/session"
)

const readTimeout = 2 * time.Second

func setupServer(t *testing.T) (string, repositories.RoomRepository) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rooms := repositories.NewRoomRepository(db)
	messages := repositories.NewMessageRepository(db)
	manager := session.NewManager(slog.Default(), rooms, messages, nil)

	r := chi.NewRouter()
	NewHandler(slog.Default(), manager, 32).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws", rooms
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, eventType string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(inboundEnvelope{Type: eventType, Data: data}))
}

type rawEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func read(t *testing.T, conn *websocket.Conn) rawEnvelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))
	var env rawEnvelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func Test_Join_And_Message_Round_Trip(t *testing.T) {
	req := require.New(t)
	url, rooms := setupServer(t)
	room := domain.NewRoom("general", "", "alice", "")
	req.NoError(rooms.Create(room))

	// Given alice joins over websocket
	alice := dial(t, url)
	send(t, alice, typeJoin, joinPayload{RoomID: room.ID, Username: "alice"})

	// Then she receives her admission, without the password hash
	env := read(t, alice)
	req.Equal(typeJoined, env.Type)
	req.NotContains(string(env.Data), "passwordHash")
	var joined joinedPayload
	req.NoError(json.Unmarshal(env.Data, &joined))
	req.Equal(room.ID, joined.Room.ID)

	// Followed by a presence update that includes her
	env = read(t, alice)
	req.Equal(typePresence, env.Type)
	var presence presencePayload
	req.NoError(json.Unmarshal(env.Data, &presence))
	req.Equal(1, presence.Count)
	req.Equal([]string{"alice"}, presence.Names)

	// And the (empty) backlog
	env = read(t, alice)
	req.Equal(typeHistory, env.Type)

	// When bob joins, alice sees the new presence
	bob := dial(t, url)
	send(t, bob, typeJoin, joinPayload{RoomID: room.ID, Username: "bob"})
	req.Equal(typeJoined, read(t, bob).Type)

	env = read(t, alice)
	req.Equal(typePresence, env.Type)
	req.NoError(json.Unmarshal(env.Data, &presence))
	req.Equal(2, presence.Count)
	req.ElementsMatch([]string{"alice", "bob"}, presence.Names)

	req.Equal(typePresence, read(t, bob).Type)
	req.Equal(typeHistory, read(t, bob).Type)

	// When alice sends a message, both receive the persisted form
	send(t, alice, typeSend, sendPayload{Content: "hi"})
	for _, conn := range []*websocket.Conn{alice, bob} {
		env = read(t, conn)
		req.Equal(typeMessage, env.Type)
		var posted messagePayload
		req.NoError(json.Unmarshal(env.Data, &posted))
		req.Equal("hi", posted.Message.Content)
		req.Equal("alice", posted.Message.Sender)
		req.NotEmpty(posted.Message.ID)
	}
}

func Test_Private_Room_Rejection_Over_Websocket(t *testing.T) {
	req := require.New(t)
	url, rooms := setupServer(t)
	hash, err := auth.HashPassword("secret")
	req.NoError(err)
	room := domain.NewRoom("ops", "", "carol", hash)
	req.NoError(rooms.Create(room))

	carol := dial(t, url)

	// A wrong password yields an error event, the connection survives
	send(t, carol, typeJoin, joinPayload{RoomID: room.ID, Username: "carol", Password: "wrong"})
	env := read(t, carol)
	req.Equal(typeError, env.Type)
	var failure errorPayload
	req.NoError(json.Unmarshal(env.Data, &failure))
	req.Equal("invalid_password", failure.Kind)
	req.Equal("Invalid password", failure.Message)

	// The same connection retries with the right password
	send(t, carol, typeJoin, joinPayload{RoomID: room.ID, Username: "carol", Password: "secret"})
	req.Equal(typeJoined, read(t, carol).Type)
}

func Test_Send_Before_Join_Is_Rejected(t *testing.T) {
	req := require.New(t)
	url, _ := setupServer(t)
	conn := dial(t, url)

	send(t, conn, typeSend, sendPayload{Content: "hello"})

	env := read(t, conn)
	req.Equal(typeError, env.Type)
	var failure errorPayload
	req.NoError(json.Unmarshal(env.Data, &failure))
	req.Equal("not_joined", failure.Kind)
}

func Test_Leave_Then_Join_Another_Room(t *testing.T) {
	req := require.New(t)
	url, rooms := setupServer(t)
	roomA := domain.NewRoom("A", "", "alice", "")
	roomB := domain.NewRoom("B", "", "alice", "")
	req.NoError(rooms.Create(roomA))
	req.NoError(rooms.Create(roomB))

	conn := dial(t, url)
	send(t, conn, typeJoin, joinPayload{RoomID: roomA.ID, Username: "alice"})
	req.Equal(typeJoined, read(t, conn).Type)
	req.Equal(typePresence, read(t, conn).Type)
	req.Equal(typeHistory, read(t, conn).Type)

	// When the client leaves and joins the other room
	send(t, conn, typeLeave, struct{}{})
	send(t, conn, typeJoin, joinPayload{RoomID: roomB.ID, Username: "alice"})

	env := read(t, conn)
	req.Equal(typeJoined, env.Type)
	var joined joinedPayload
	req.NoError(json.Unmarshal(env.Data, &joined))
	req.Equal(roomB.ID, joined.Room.ID)
}
