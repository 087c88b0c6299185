package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"room-chat/domain/event"
)

func Test_Concurrent_Joins_Yield_Consistent_Final_Presence(t *testing.T) {
	req := require.New(t)
	manager, rooms := newTestManager(t)
	room := createRoom(t, rooms, "R1", "")

	observerSink := &recordSink{}
	observer := manager.Connect(observerSink)
	req.NoError(manager.Join(observer, room.ID, "observer", ""))

	// When many sessions join the same room at once
	const joiners = 16
	joinErrs := make(chan error, joiners)
	var wg sync.WaitGroup
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := manager.Connect(&recordSink{})
			joinErrs <- manager.Join(s, room.ID, fmt.Sprintf("user-%02d", i), "")
		}(i)
	}
	wg.Wait()
	close(joinErrs)
	for err := range joinErrs {
		req.NoError(err)
	}

	// Then the last broadcast is a complete, untorn snapshot
	presence, ok := observerSink.lastPresence()
	req.True(ok)
	req.Equal(joiners+1, presence.Count)
	req.Len(presence.Names, joiners+1)
	req.Contains(presence.Names, "observer")
}

func Test_Concurrent_Join_Leave_Storm_Keeps_Set_Consistent(t *testing.T) {
	req := require.New(t)
	manager, rooms := newTestManager(t)
	room := createRoom(t, rooms, "R1", "")

	observerSink := &recordSink{}
	observer := manager.Connect(observerSink)
	req.NoError(manager.Join(observer, room.ID, "observer", ""))

	// Sessions that join and immediately leave, racing each other
	const churners = 12
	joinErrs := make(chan error, churners)
	var wg sync.WaitGroup
	for i := 0; i < churners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := manager.Connect(&recordSink{})
			joinErrs <- manager.Join(s, room.ID, fmt.Sprintf("churner-%02d", i), "")
			manager.Disconnect(s)
		}(i)
	}
	wg.Wait()
	close(joinErrs)
	for err := range joinErrs {
		req.NoError(err)
	}

	// A name removed by a disconnect never reappears afterwards
	presence, ok := observerSink.lastPresence()
	req.True(ok)
	req.Equal(1, presence.Count)
	req.Equal([]string{"observer"}, presence.Names)

	// Every intermediate snapshot was self-consistent
	for _, e := range observerSink.all() {
		if p, isPresence := e.(event.Presence); isPresence {
			req.Equal(p.Count, len(p.Names))
			req.Contains(p.Names, "observer")
		}
	}
}

func Test_Presence_Names_Are_Sorted_And_Distinct(t *testing.T) {
	req := require.New(t)
	manager, rooms := newTestManager(t)
	room := createRoom(t, rooms, "R1", "")

	sink := &recordSink{}
	first := manager.Connect(sink)
	req.NoError(manager.Join(first, room.ID, "zoe", ""))
	second := manager.Connect(&recordSink{})
	req.NoError(manager.Join(second, room.ID, "adam", ""))
	third := manager.Connect(&recordSink{})
	req.NoError(manager.Join(third, room.ID, "zoe", ""))

	presence, ok := sink.lastPresence()
	req.True(ok)
	req.Equal(2, presence.Count)
	req.Equal([]string{"adam", "zoe"}, presence.Names)
}
