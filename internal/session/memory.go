package session

import (
	"context"
	"sync"
	"time"

	"github.com/fairyhunter13/hampers-storefront/internal/obs"
)

type entry struct {
	st       *State
	lastSeen time.Time
}

// MemoryStore keeps sessions in process. Sessions idle for longer than ttl
// are dropped; a zero ttl keeps them forever.
type MemoryStore struct {
	mu  sync.RWMutex
	m   map[string]entry
	ttl time.Duration
	now func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{m: make(map[string]entry), ttl: ttl, now: time.Now}
}

func (s *MemoryStore) expired(e entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastSeen) > s.ttl
}

func (s *MemoryStore) Get(_ context.Context, id string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := s.now()
	if s.expired(e, now) {
		delete(s.m, id)
		return nil, ErrNotFound
	}
	e.lastSeen = now
	s.m[id] = e
	return e.st, nil
}

func (s *MemoryStore) Put(_ context.Context, id string, st *State) error {
	if id == "" || st == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = entry{st: st, lastSeen: s.now()}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
	return nil
}

func (s *MemoryStore) Ping(context.Context) bool { return true }

// Len counts live and not yet swept sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// Sweep drops expired sessions and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, e := range s.m {
		if s.expired(e, now) {
			delete(s.m, id)
			n++
		}
	}
	return n
}

// RunJanitor sweeps every interval until ctx is done.
func (s *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				obs.Logger.WithField("removed", n).Info("sessions_swept")
			}
		}
	}
}
