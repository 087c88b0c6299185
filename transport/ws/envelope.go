package ws

import (
	"encoding/json"

	"room-chat/domain"
	"room-chat/domain/event"
)

// Inbound event types accepted from clients.
const (
	typeJoin  = "join"
	typeSend  = "send"
	typeLeave = "leave"
)

// Outbound event types emitted to clients.
const (
	typeJoined   = "joined"
	typePresence = "presence"
	typeMessage  = "message"
	typeHistory  = "history"
	typeError    = "error"
)

type inboundEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type outboundEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type joinPayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type sendPayload struct {
	Content string `json:"content"`
}

type joinedPayload struct {
	Room domain.RoomSnapshot `json:"room"`
}

type presencePayload struct {
	Count int      `json:"count"`
	Names []string `json:"names"`
}

type messagePayload struct {
	Message domain.Message `json:"message"`
}

type historyPayload struct {
	Messages []domain.Message `json:"messages"`
}

type errorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// encodeEvent maps a domain event onto its wire envelope.
func encodeEvent(e event.DomainEvent) outboundEnvelope {
	switch evt := e.(type) {
	case event.RoomJoined:
		return outboundEnvelope{Type: typeJoined, Data: joinedPayload{Room: evt.Room}}
	case event.Presence:
		names := evt.Names
		if names == nil {
			names = []string{}
		}
		return outboundEnvelope{Type: typePresence, Data: presencePayload{Count: evt.Count, Names: names}}
	case event.MessagePosted:
		return outboundEnvelope{Type: typeMessage, Data: messagePayload{Message: evt.Message}}
	case event.History:
		messages := evt.Messages
		if messages == nil {
			messages = []domain.Message{}
		}
		return outboundEnvelope{Type: typeHistory, Data: historyPayload{Messages: messages}}
	case event.Failure:
		return outboundEnvelope{Type: typeError, Data: errorPayload{Kind: evt.Kind, Message: evt.Message}}
	default:
		return outboundEnvelope{Type: typeError, Data: errorPayload{Kind: "internal", Message: "unsupported event"}}
	}
}
