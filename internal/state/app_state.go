package state

import (
	"sort"
	"sync"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/usecase"
)

// Snapshot is a consistent copy of the client state.
type Snapshot struct {
	Rooms         []*entity.ChatRoom
	TotalUnread   int
	CurrentRoomID string
	CurrentRoom   *entity.ChatRoom
	Messages      []*entity.ChatMessage
	Connection    entity.ConnectionState
	Sending       bool
	// Version increases with every change.
	Version uint64
}

// AppState holds what the console shows and notifies subscribers after every
// change. Subscribers run in registration order and never see an older
// snapshot after a newer one. They must not change the state from inside the
// callback.
type AppState struct {
	mu          sync.Mutex
	snap        Snapshot
	subscribers map[int]func(Snapshot)
	nextID      int

	notifyMu  sync.Mutex
	delivered uint64
}

func NewAppState() *AppState {
	return &AppState{
		snap:        Snapshot{Connection: entity.ConnectionConnecting},
		subscribers: map[int]func(Snapshot){},
	}
}

// Subscribe registers fn and returns a function that removes it.
func (s *AppState) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *AppState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// SetRooms replaces the room list and recomputes the unread total from it.
func (s *AppState) SetRooms(rooms []*entity.ChatRoom) {
	s.update(func(snap *Snapshot) {
		sorted := make([]*entity.ChatRoom, len(rooms))
		copy(sorted, rooms)
		usecase.SortRooms(sorted)

		snap.Rooms = sorted
		snap.TotalUnread = usecase.TotalUnread(sorted)
		if snap.CurrentRoomID != "" {
			for _, r := range sorted {
				if r.ID == snap.CurrentRoomID {
					snap.CurrentRoom = r
				}
			}
		}
	})
}

// SelectRoom switches the current room. Messages of the previous room are
// dropped.
func (s *AppState) SelectRoom(roomID string) {
	s.update(func(snap *Snapshot) {
		if snap.CurrentRoomID == roomID {
			return
		}
		snap.CurrentRoomID = roomID
		snap.CurrentRoom = nil
		snap.Messages = nil
		for _, r := range snap.Rooms {
			if r.ID == roomID {
				snap.CurrentRoom = r
			}
		}
	})
}

// SetCurrentRoom stores a live room record. Records of other rooms are
// ignored.
func (s *AppState) SetCurrentRoom(room *entity.ChatRoom) {
	s.update(func(snap *Snapshot) {
		if room == nil || room.ID != snap.CurrentRoomID {
			return
		}
		snap.CurrentRoom = room
	})
}

// SetMessages replaces the current room's messages.
func (s *AppState) SetMessages(roomID string, messages []*entity.ChatMessage) {
	s.update(func(snap *Snapshot) {
		if roomID != snap.CurrentRoomID {
			return
		}
		snap.Messages = messages
	})
}

func (s *AppState) SetConnection(state entity.ConnectionState) {
	s.update(func(snap *Snapshot) {
		snap.Connection = state
	})
}

func (s *AppState) SetSending(sending bool) {
	s.update(func(snap *Snapshot) {
		snap.Sending = sending
	})
}

func (s *AppState) update(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	s.snap.Version++
	snap := s.copyLocked()

	ids := make([]int, 0, len(s.subscribers))
	for id := range s.subscribers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subscribers := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		subscribers = append(subscribers, s.subscribers[id])
	}
	s.mu.Unlock()

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if snap.Version <= s.delivered {
		return
	}
	s.delivered = snap.Version
	for _, fn := range subscribers {
		fn(snap)
	}
}

func (s *AppState) copyLocked() Snapshot {
	snap := s.snap
	snap.Rooms = append([]*entity.ChatRoom(nil), s.snap.Rooms...)
	snap.Messages = append([]*entity.ChatMessage(nil), s.snap.Messages...)
	return snap
}
