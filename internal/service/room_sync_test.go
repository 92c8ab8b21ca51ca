package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zekaiblog/mywebsite/internal/websocket"
)

func TestEnqueueRunsTasksInOrder(t *testing.T) {
	rs := NewRoomSync()
	key := websocket.SessionRoom(1)

	var mu sync.Mutex
	var order []int
	done := make(chan struct{})

	for i := 0; i < 50; i++ {
		i := i
		rs.Enqueue(key, func() {
			mu.Lock()
			order = append(order, i)
			finished := len(order) == 50
			mu.Unlock()
			if finished {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("queue did not drain")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, got := range order {
		require.Equal(t, i, got)
	}
}

func TestEnqueueNeverRunsRoomTasksConcurrently(t *testing.T) {
	rs := NewRoomSync()
	key := websocket.SessionRoom(1)

	var mu sync.Mutex
	active, maxActive, remaining := 0, 0, 20
	done := make(chan struct{})

	for i := 0; i < 20; i++ {
		rs.Enqueue(key, func() {
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			remaining--
			if remaining == 0 {
				close(done)
			}
			mu.Unlock()
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("queue did not drain")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxActive)
}

func TestRoomsDoNotBlockEachOther(t *testing.T) {
	rs := NewRoomSync()

	blocked := make(chan struct{})
	release := make(chan struct{})
	rs.Enqueue(websocket.SessionRoom(1), func() {
		close(blocked)
		<-release
	})
	<-blocked

	other := make(chan struct{})
	rs.Enqueue(websocket.SessionRoom(2), func() { close(other) })

	select {
	case <-other:
	case <-time.After(time.Second):
		t.Fatal("independent room was blocked")
	}
	close(release)
}

func TestIngestLockIsStablePerRoom(t *testing.T) {
	rs := NewRoomSync()

	a := rs.IngestLock(websocket.SessionRoom(1))
	b := rs.IngestLock(websocket.SessionRoom(1))
	assert.Same(t, a, b)

	c := rs.IngestLock(websocket.SessionRoom(2))
	assert.NotSame(t, a, c)
}
