// Package httpapi serves the REST surface around the session core:
// room listing and creation, admission probes, message history.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"room-chat/contract"
)

type Handler struct {
	log      *slog.Logger
	rooms    contract.RoomStore
	messages contract.MessageStore
}

func NewHandler(log *slog.Logger, rooms contract.RoomStore, messages contract.MessageStore) *Handler {
	return &Handler{log: log, rooms: rooms, messages: messages}
}

// Transport is anything that hooks extra routes onto the router, in
// practice the websocket handler.
type Transport interface {
	RegisterRoutes(r chi.Router)
}

// NewRouter wires the REST surface and the realtime transport.
func NewRouter(h *Handler, transport Transport) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/api", func(api chi.Router) {
		api.Route("/rooms", func(rooms chi.Router) {
			rooms.Get("/", h.listRooms)
			rooms.Post("/", h.createRoom)
			rooms.Post("/{roomID}/join", h.probeJoin)
		})
		api.Get("/messages/{roomID}", h.listMessages)
	})

	if transport != nil {
		transport.RegisterRoutes(r)
	}
	return r
}
