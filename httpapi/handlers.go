package httpapi

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"room-chat/auth"
	"room-chat/domain"
	"room-chat/errors"
)

type okRoomsResponse struct {
	OK    bool                  `json:"ok"`
	Rooms []domain.RoomSnapshot `json:"rooms"`
}

type okRoomResponse struct {
	OK   bool                `json:"ok"`
	Room domain.RoomSnapshot `json:"room"`
}

type okMessagesResponse struct {
	OK       bool             `json:"ok"`
	Messages []domain.Message `json:"messages"`
}

type errorResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.respond(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// listRooms returns every room, newest first, password hashes stripped.
func (h *Handler) listRooms(w http.ResponseWriter, _ *http.Request) {
	rooms, err := h.rooms.List()
	if err != nil {
		h.log.Error("listing rooms failed", "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	snapshots := lo.Map(rooms, func(room domain.Room, _ int) domain.RoomSnapshot {
		return room.Snapshot()
	})
	h.respond(w, http.StatusOK, okRoomsResponse{OK: true, Rooms: snapshots})
}

func (h *Handler) createRoom(w http.ResponseWriter, r *http.Request) {
	var req auth.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Bad request")
		return
	}
	if req.Name == "" {
		h.respondError(w, http.StatusBadRequest, "Room name is required")
		return
	}
	if req.Owner == "" {
		h.respondError(w, http.StatusBadRequest, "Room owner is required")
		return
	}
	if err := auth.ValidateCreateRoom(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid room payload")
		return
	}

	hash := ""
	if req.Password != "" {
		var err error
		hash, err = auth.HashPassword(req.Password)
		if err != nil {
			h.log.Error("password hashing failed", "error", err)
			h.respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	room := domain.NewRoom(req.Name, req.Description, req.Owner, hash)
	if err := h.rooms.Create(room); err != nil {
		h.log.Error("room creation failed", "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.log.Info("room created", "room_id", room.ID, "name", room.Name, "private", room.IsPrivate)
	h.respond(w, http.StatusOK, okRoomResponse{OK: true, Room: room.Snapshot()})
}

type probeJoinRequest struct {
	Password string `json:"password"`
}

// probeJoin checks admission without binding a session, so clients can
// validate a password before opening the realtime connection.
func (h *Handler) probeJoin(w http.ResponseWriter, r *http.Request) {
	var req probeJoinRequest
	if r.Body != nil {
		// An absent or empty body counts as an empty password
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	room, err := h.rooms.FindByID(chi.URLParam(r, "roomID"))
	if stderrors.Is(err, errors.ErrRoomNotFound) {
		h.respondError(w, http.StatusNotFound, "Room not found")
		return
	}
	if err != nil {
		h.log.Error("room lookup failed", "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if room.IsPrivate {
		ok, err := h.rooms.VerifyPassword(room, req.Password)
		if err != nil {
			h.log.Error("password verification failed", "room_id", room.ID, "error", err)
			h.respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if !ok {
			h.respondError(w, http.StatusUnauthorized, "Invalid password")
			return
		}
	}

	h.respond(w, http.StatusOK, okRoomResponse{OK: true, Room: room.Snapshot()})
}

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messages.ListByRoom(chi.URLParam(r, "roomID"))
	if err != nil {
		h.log.Error("listing messages failed", "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	h.respond(w, http.StatusOK, okMessagesResponse{OK: true, Messages: messages})
}

func (h *Handler) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("response encoding failed", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respond(w, status, errorResponse{OK: false, Message: message})
}
