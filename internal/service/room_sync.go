package service

import (
	"sync"

	"github.com/zekaiblog/mywebsite/internal/websocket"
)

// RoomSync provides the two per-room ordering primitives the pipeline needs:
//
//   - IngestLock serializes persist+broadcast pairs within a room, so the
//     order observed by room members always matches the persisted order.
//   - Enqueue runs orchestration tasks for a room strictly one at a time in
//     FIFO order, so bot replies come out in the order their triggering
//     messages went in, while ingestion stays free to proceed.
//
// Independent rooms never contend with each other.
type RoomSync struct {
	mu    sync.Mutex
	rooms map[websocket.RoomKey]*roomState
}

type roomState struct {
	ingest  sync.Mutex
	pending []func()
	running bool
}

func NewRoomSync() *RoomSync {
	return &RoomSync{rooms: make(map[websocket.RoomKey]*roomState)}
}

func (s *RoomSync) state(key websocket.RoomKey) *roomState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.rooms[key]
	if !ok {
		st = &roomState{}
		s.rooms[key] = st
	}
	return st
}

// IngestLock returns the room's ingestion lock.
func (s *RoomSync) IngestLock(key websocket.RoomKey) *sync.Mutex {
	return &s.state(key).ingest
}

// Enqueue schedules a task on the room's serial queue. Tasks for one room
// run one at a time in submission order; the call itself never blocks.
func (s *RoomSync) Enqueue(key websocket.RoomKey, task func()) {
	st := s.state(key)

	s.mu.Lock()
	st.pending = append(st.pending, task)
	if st.running {
		s.mu.Unlock()
		return
	}
	st.running = true
	s.mu.Unlock()

	go s.drain(st)
}

func (s *RoomSync) drain(st *roomState) {
	for {
		s.mu.Lock()
		if len(st.pending) == 0 {
			st.running = false
			s.mu.Unlock()
			return
		}
		task := st.pending[0]
		st.pending = st.pending[1:]
		s.mu.Unlock()

		task()
	}
}
