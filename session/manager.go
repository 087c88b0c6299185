package session

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"

	"room-chat/contract"
	"room-chat/domain"
	"room-chat/domain/event"
	"room-chat/errors"
)

// roomState is the live, in-memory side of a room: its connected
// sessions and the lock serializing membership changes, sends and the
// broadcasts they trigger. Different rooms are independent.
type roomState struct {
	id      string
	mu      sync.Mutex
	members map[string]*Session // keyed by session ID
	gone    bool                // set when the emptied state left the manager's table
}

// Manager owns the presence table and drives the join/send/leave state
// machine. It is the sole writer to the message store for live sends.
// The presence table never leaves this package.
type Manager struct {
	log          *slog.Logger
	rooms        contract.RoomStore
	messages     contract.MessageStore
	historyLimit *int // nil replays the full backlog on join

	mu       sync.Mutex
	sessions map[string]*Session
	live     map[string]*roomState
}

func NewManager(log *slog.Logger, rooms contract.RoomStore,
	messages contract.MessageStore, historyLimit *int) *Manager {
	return &Manager{
		log:          log,
		rooms:        rooms,
		messages:     messages,
		historyLimit: historyLimit,
		sessions:     make(map[string]*Session),
		live:         make(map[string]*roomState),
	}
}

// Connect registers a fresh session for an opened connection.
func (m *Manager) Connect(sink contract.EventSink) *Session {
	s := newSession(sink)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.log.Debug("session connected", "session_id", s.ID)
	return s
}

// Join admits the session into a room. Checks run in the same order as
// admission over HTTP: room lookup, then password on private rooms, then
// the display name. An empty password on a private room fails exactly
// like a wrong one.
//
// On success the joiner receives its admission confirmation and then a
// presence update that already includes it, both emitted inside the same
// critical section as the membership change.
func (m *Manager) Join(s *Session, roomID, displayName, password string) error {
	if s.closed {
		return fmt.Errorf("%w: session is closed", errors.ErrNotJoined)
	}
	if s.Joined() {
		return errors.ErrAlreadyJoined
	}

	room, err := m.rooms.FindByID(roomID)
	if err != nil {
		return err
	}

	if room.IsPrivate {
		ok, err := m.rooms.VerifyPassword(room, password)
		if err != nil {
			return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
		}
		if !ok {
			return errors.ErrInvalidPassword
		}
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		return errors.ErrInvalidName
	}

	r := m.lockRoom(room.ID)
	defer r.mu.Unlock()

	s.roomID = room.ID
	s.name = name
	r.members[s.ID] = s

	m.deliver(s, event.RoomJoined{Room: room.Snapshot()})
	m.broadcastLocked(r, presenceOf(r))
	m.replayHistoryLocked(s, room.ID)

	m.log.Info("session joined room", "session_id", s.ID, "room_id", room.ID, "name", name)
	return nil
}

// Send persists the message attributed to the session's binding and
// broadcasts the stored form, server-assigned identifier and timestamp
// included, to the whole room. Persisting inside the room's critical
// section pins broadcast order to persistence order.
func (m *Manager) Send(s *Session, content string) (domain.Message, error) {
	if !s.Joined() {
		return domain.Message{}, errors.ErrNotJoined
	}
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return domain.Message{}, errors.ErrEmptyMessage
	}

	r := m.lockRoom(s.roomID)
	defer r.mu.Unlock()

	message, err := m.messages.Append(s.roomID, s.name, trimmed)
	if err != nil {
		// Presence and the room binding stay untouched, the client may retry.
		return domain.Message{}, err
	}

	m.broadcastLocked(r, event.MessagePosted{Message: message})
	return message, nil
}

// Leave detaches the session from its room and re-broadcasts presence.
// The connection stays usable and may join again.
func (m *Manager) Leave(s *Session) {
	m.detach(s)
}

// Disconnect tears the session down permanently.
func (m *Manager) Disconnect(s *Session) {
	m.detach(s)
	s.closed = true
	m.mu.Lock()
	delete(m.sessions, s.ID)
	m.mu.Unlock()
	m.log.Debug("session disconnected", "session_id", s.ID)
}

// SessionCount reports the number of live sessions, joined or not.
func (m *Manager) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// lockRoom returns the room's live state with its lock held, creating
// it on the fly for the first joiner. The loop guards against racing
// with the removal of an emptied state: one flagged gone is discarded
// and the lookup retried.
func (m *Manager) lockRoom(roomID string) *roomState {
	for {
		m.mu.Lock()
		r, ok := m.live[roomID]
		if !ok {
			r = &roomState{id: roomID, members: make(map[string]*Session)}
			m.live[roomID] = r
		}
		m.mu.Unlock()

		r.mu.Lock()
		if r.gone {
			r.mu.Unlock()
			continue
		}
		return r
	}
}

// detach removes the session from its room's presence, clears the
// binding and re-broadcasts the membership to the remaining sessions.
// No-op when the session is not joined.
func (m *Manager) detach(s *Session) {
	if !s.Joined() {
		return
	}
	roomID, name := s.roomID, s.name

	r := m.lockRoom(roomID)
	delete(r.members, s.ID)
	s.roomID, s.name = "", ""

	if len(r.members) == 0 {
		// Last one out: drop the emptied state from the table so it
		// does not accumulate for every room ever visited.
		r.gone = true
		m.mu.Lock()
		if m.live[roomID] == r {
			delete(m.live, roomID)
		}
		m.mu.Unlock()
		r.mu.Unlock()
		m.log.Info("session left room", "session_id", s.ID, "room_id", roomID, "name", name, "remaining", 0)
		return
	}

	m.broadcastLocked(r, presenceOf(r))
	remaining := len(r.members)
	r.mu.Unlock()
	m.log.Info("session left room", "session_id", s.ID, "room_id", roomID, "name", name, "remaining", remaining)
}

// presenceOf derives the deduplicated display-name set from the live
// sessions. The caller holds the room lock, so the snapshot is atomic
// with the membership change that triggered it.
func presenceOf(r *roomState) event.Presence {
	names := lo.Uniq(lo.Map(lo.Values(r.members), func(s *Session, _ int) string {
		return s.name
	}))
	sort.Strings(names)
	return event.Presence{Room: r.id, Count: len(names), Names: names}
}

// broadcastLocked fans the event out to every member of the room.
// Sinks must not block; a failing sink is logged and skipped, delivery
// is best-effort while the presence table stays authoritative.
func (m *Manager) broadcastLocked(r *roomState, e event.DomainEvent) {
	for _, member := range r.members {
		if err := member.sink.Consume(e); err != nil {
			m.log.Warn("dropping event for session",
				"session_id", member.ID, "room_id", r.id, "error", err)
		}
	}
}

// replayHistoryLocked delivers the room's ordered backlog to a freshly
// joined session. Failures are logged, the join itself stands.
func (m *Manager) replayHistoryLocked(s *Session, roomID string) {
	backlog, err := m.messages.ListByRoom(roomID)
	if err != nil {
		m.log.Warn("history replay failed", "session_id", s.ID, "room_id", roomID, "error", err)
		return
	}
	if m.historyLimit != nil && len(backlog) > *m.historyLimit {
		backlog = backlog[len(backlog)-*m.historyLimit:]
	}
	m.deliver(s, event.History{Room: roomID, Messages: backlog})
}

func (m *Manager) deliver(s *Session, e event.DomainEvent) {
	if err := s.sink.Consume(e); err != nil {
		m.log.Warn("dropping event for session", "session_id", s.ID, "error", err)
	}
}
