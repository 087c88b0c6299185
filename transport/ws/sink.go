package ws

import (
	"errors"
	"sync"

	"room-chat/domain/event"
)

var (
	errSinkClosed   = errors.New("connection sink closed")
	errSlowConsumer = errors.New("outbound buffer full")
)

// connSink bridges the session core to one websocket connection.
//
// Consume never blocks: events land in a bounded channel drained by the
// connection's writer goroutine. A full buffer means the peer cannot
// keep up; the sink then fails fast and the connection is torn down
// instead of stalling the room's critical section.
type connSink struct {
	events chan event.DomainEvent
	once   sync.Once
	done   chan struct{}
}

func newConnSink(size int) *connSink {
	return &connSink{
		events: make(chan event.DomainEvent, size),
		done:   make(chan struct{}),
	}
}

func (s *connSink) Consume(e event.DomainEvent) error {
	select {
	case <-s.done:
		return errSinkClosed
	default:
	}

	select {
	case s.events <- e:
		return nil
	default:
		s.close()
		return errSlowConsumer
	}
}

func (s *connSink) close() {
	s.once.Do(func() { close(s.done) })
}
