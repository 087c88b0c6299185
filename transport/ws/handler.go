// Package ws exposes the session protocol over websocket connections.
// One reader task per connection drives the session state machine; a
// writer task drains the connection's event sink.
package ws

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"room-chat/domain/event"
	"room-chat/errors"
	"room-chat/session"
)

const closeGracePeriod = 1 * time.Second

type Handler struct {
	log        *slog.Logger
	manager    *session.Manager
	upgrader   websocket.Upgrader
	bufferSize int
}

func NewHandler(log *slog.Logger, manager *session.Manager, bufferSize int) *Handler {
	return &Handler{
		log:     log,
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		bufferSize: bufferSize,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleSocket)
}

func (h *Handler) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	sink := newConnSink(h.bufferSize)
	sess := h.manager.Connect(sink)
	h.log.Debug("connection open", "session_id", sess.ID, "remote", conn.RemoteAddr().String())

	go h.writeLoop(conn, sink, sess.ID)
	h.readLoop(conn, sink, sess)

	// Reader gone, for whatever reason: the connection is dead.
	h.manager.Disconnect(sess)
	sink.close()
	_ = conn.Close()
	h.log.Debug("connection closed", "session_id", sess.ID)
}

func (h *Handler) readLoop(conn *websocket.Conn, sink *connSink, sess *session.Session) {
	for {
		var in inboundEnvelope
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("connection read failed", "session_id", sess.ID, "error", err)
			}
			return
		}
		h.dispatch(sink, sess, in)
	}
}

// dispatch drives the session state machine from one inbound event.
// Rejections go back to this connection only; the session stays usable.
func (h *Handler) dispatch(sink *connSink, sess *session.Session, in inboundEnvelope) {
	switch in.Type {
	case typeJoin:
		var payload joinPayload
		if err := json.Unmarshal(in.Data, &payload); err != nil {
			h.fail(sink, sess, "malformed_request", "Malformed join request")
			return
		}
		if err := h.manager.Join(sess, payload.RoomID, payload.Username, payload.Password); err != nil {
			h.reject(sink, sess, err)
		}
	case typeSend:
		var payload sendPayload
		if err := json.Unmarshal(in.Data, &payload); err != nil {
			h.fail(sink, sess, "malformed_request", "Malformed send request")
			return
		}
		if _, err := h.manager.Send(sess, payload.Content); err != nil {
			h.reject(sink, sess, err)
		}
	case typeLeave:
		h.manager.Leave(sess)
	default:
		h.fail(sink, sess, "malformed_request", "Unknown event type")
	}
}

func (h *Handler) writeLoop(conn *websocket.Conn, sink *connSink, sessionID string) {
	for {
		select {
		case <-sink.done:
			// Sink gave up (slow consumer or teardown): nudge the peer
			// and let the read loop observe the closed connection.
			deadline := time.Now().Add(closeGracePeriod)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "too slow"), deadline)
			_ = conn.Close()
			return
		case e := <-sink.events:
			if err := conn.WriteJSON(encodeEvent(e)); err != nil {
				h.log.Debug("connection write failed", "session_id", sessionID, "error", err)
				_ = conn.Close()
				return
			}
		}
	}
}

func (h *Handler) reject(sink *connSink, sess *session.Session, err error) {
	h.fail(sink, sess, errors.Kind(err), humanMessage(err))
}

func (h *Handler) fail(sink *connSink, sess *session.Session, kind, message string) {
	failure := event.Failure{Room: sess.Room(), Kind: kind, Message: message}
	if err := sink.Consume(failure); err != nil {
		h.log.Warn("dropping error event", "session_id", sess.ID, "error", err)
	}
}

// humanMessage translates the error taxonomy into the client-facing
// wording.
func humanMessage(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrRoomNotFound):
		return "Room not found"
	case stderrors.Is(err, errors.ErrInvalidPassword):
		return "Invalid password"
	case stderrors.Is(err, errors.ErrInvalidName):
		return "Username is required"
	case stderrors.Is(err, errors.ErrAlreadyJoined):
		return "Already in a room, leave it first"
	case stderrors.Is(err, errors.ErrNotJoined):
		return "Not connected to a room"
	case stderrors.Is(err, errors.ErrEmptyMessage):
		return "Message content cannot be empty"
	case stderrors.Is(err, errors.ErrStoreUnavailable):
		return "Service temporarily unavailable, please retry"
	default:
		return "Failed to process request"
	}
}
