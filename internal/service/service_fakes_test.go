package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/zekaiblog/mywebsite/internal/entity"
	"github.com/zekaiblog/mywebsite/internal/repository/contract"
	"github.com/zekaiblog/mywebsite/internal/repository/specification"
	"github.com/zekaiblog/mywebsite/internal/repository/unitofwork"
	"github.com/zekaiblog/mywebsite/internal/websocket"
)

// In-memory repositories for service tests. They interpret the same
// specification values the GORM implementations would apply as SQL.

type specQuery struct {
	byID        *uint
	beforeID    *uint
	ownedBy     *uint
	bySessionID *uint
	byUsername  *string
	orderDesc   bool
	limit       int
}

func parseSpecs(specs []specification.Specification) specQuery {
	q := specQuery{}
	for _, s := range specs {
		switch v := s.(type) {
		case specification.ByID:
			id := v.ID
			q.byID = &id
		case specification.BeforeID:
			id := v.ID
			q.beforeID = &id
		case specification.OwnedBy:
			id := v.UserID
			q.ownedBy = &id
		case specification.BySessionID:
			id := v.SessionID
			q.bySessionID = &id
		case specification.ByUsername:
			name := v.Username
			q.byUsername = &name
		case specification.OrderBy:
			if v.Desc {
				q.orderDesc = true
			}
		case specification.Pagination:
			q.limit = v.Limit
		}
	}
	return q
}

type fakeStore struct {
	mu       sync.Mutex
	users    []*entity.User
	sessions []*entity.ChatSession
	messages []*entity.Message
	nextID   uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1}
}

func (s *fakeStore) id() uint {
	id := s.nextID
	s.nextID++
	return id
}

type fakeUserRepo struct{ store *fakeStore }

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user.Id = r.store.id()
	user.CreatedAt = time.Now()
	saved := *user
	r.store.users = append(r.store.users, &saved)
	return nil
}

func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	q := parseSpecs(specs)
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if q.byID != nil && u.Id != *q.byID {
			continue
		}
		if q.byUsername != nil && u.Username != *q.byUsername {
			continue
		}
		found := *u
		return &found, nil
	}
	return nil, nil
}

type fakeSessionRepo struct{ store *fakeStore }

func (r *fakeSessionRepo) Create(ctx context.Context, session *entity.ChatSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	session.Id = r.store.id()
	session.CreatedAt = time.Now()
	saved := *session
	r.store.sessions = append(r.store.sessions, &saved)
	return nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, id uint) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	kept := r.store.sessions[:0]
	for _, s := range r.store.sessions {
		if s.Id != id {
			kept = append(kept, s)
		}
	}
	r.store.sessions = kept

	// Cascade, as the schema does.
	keptMsgs := r.store.messages[:0]
	for _, m := range r.store.messages {
		if m.SessionId != id {
			keptMsgs = append(keptMsgs, m)
		}
	}
	r.store.messages = keptMsgs
	return nil
}

func (r *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	sessions, err := r.FindAll(ctx, specs...)
	if err != nil || len(sessions) == 0 {
		return nil, err
	}
	return sessions[0], nil
}

func (r *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	q := parseSpecs(specs)
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*entity.ChatSession
	for _, s := range r.store.sessions {
		if q.byID != nil && s.Id != *q.byID {
			continue
		}
		if q.ownedBy != nil && s.UserId != *q.ownedBy {
			continue
		}
		found := *s
		out = append(out, &found)
	}
	sort.Slice(out, func(i, j int) bool {
		if q.orderDesc {
			return out[i].Id > out[j].Id
		}
		return out[i].Id < out[j].Id
	})
	if q.limit > 0 && len(out) > q.limit {
		out = out[:q.limit]
	}
	return out, nil
}

type fakeMessageRepo struct{ store *fakeStore }

func (r *fakeMessageRepo) Create(ctx context.Context, message *entity.Message) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	// A real insert would hit the session FK.
	found := false
	for _, s := range r.store.sessions {
		if s.Id == message.SessionId {
			found = true
			break
		}
	}
	if !found {
		return errSessionGone
	}

	message.Id = r.store.id()
	message.CreatedAt = time.Now()
	saved := *message
	r.store.messages = append(r.store.messages, &saved)
	return nil
}

func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	q := parseSpecs(specs)
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*entity.Message
	for _, m := range r.store.messages {
		if q.bySessionID != nil && m.SessionId != *q.bySessionID {
			continue
		}
		if q.beforeID != nil && m.Id >= *q.beforeID {
			continue
		}
		found := *m
		out = append(out, &found)
	}
	sort.Slice(out, func(i, j int) bool {
		if q.orderDesc {
			return out[i].Id > out[j].Id
		}
		return out[i].Id < out[j].Id
	})
	if q.limit > 0 && len(out) > q.limit {
		out = out[:q.limit]
	}
	return out, nil
}

var errSessionGone = contextError("session does not exist")

type contextError string

func (e contextError) Error() string { return string(e) }

// fakeUow hands out the in-memory repositories; transactions are no-ops.
type fakeUow struct{ store *fakeStore }

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) UserRepository() contract.UserRepository {
	return &fakeUserRepo{store: u.store}
}

func (u *fakeUow) ChatSessionRepository() contract.ChatSessionRepository {
	return &fakeSessionRepo{store: u.store}
}

func (u *fakeUow) MessageRepository() contract.MessageRepository {
	return &fakeMessageRepo{store: u.store}
}

type fakeFactory struct{ store *fakeStore }

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

// fakeBroadcaster records every frame, with an optional hook observed at
// broadcast time.
type fakeBroadcaster struct {
	mu          sync.Mutex
	frames      []broadcastFrame
	onBroadcast func(key websocket.RoomKey, payload []byte)
	notify      chan struct{}
}

type broadcastFrame struct {
	key     websocket.RoomKey
	payload []byte
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{notify: make(chan struct{}, 64)}
}

func (b *fakeBroadcaster) Broadcast(key websocket.RoomKey, payload []byte) {
	if b.onBroadcast != nil {
		b.onBroadcast(key, payload)
	}
	b.mu.Lock()
	b.frames = append(b.frames, broadcastFrame{key: key, payload: payload})
	b.mu.Unlock()
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

func (b *fakeBroadcaster) all() []broadcastFrame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]broadcastFrame(nil), b.frames...)
}

// waitForFrames blocks until at least n frames have been broadcast.
func (b *fakeBroadcaster) waitForFrames(n int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		b.mu.Lock()
		count := len(b.frames)
		b.mu.Unlock()
		if count >= n {
			return true
		}
		select {
		case <-b.notify:
		case <-deadline:
			return false
		}
	}
}

// nopLogger satisfies logger.ILogger without output.
type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

// fakeOrchestrator records enqueued triggers.
type fakeOrchestrator struct {
	mu       sync.Mutex
	triggers []*entity.Message
}

func (o *fakeOrchestrator) EnqueueReply(sessionID uint, trigger *entity.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.triggers = append(o.triggers, trigger)
}

func (o *fakeOrchestrator) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.triggers)
}

func (o *fakeOrchestrator) triggerIDs() []uint {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]uint, len(o.triggers))
	for i, m := range o.triggers {
		ids[i] = m.Id
	}
	return ids
}
