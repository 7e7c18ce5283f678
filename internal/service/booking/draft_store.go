package booking

import (
	"context"
	"sync"
	"time"

	"github.com/Domenick1991/chauffeur/internal/domain"
)

// DraftStore keeps drafts between form steps. Implementations return copies
// so callers never share a draft.
type DraftStore interface {
	Save(ctx context.Context, d *domain.ReservationDraft) error
	Get(ctx context.Context, id string) (*domain.ReservationDraft, error)
	Delete(ctx context.Context, id string) error
}

type MemoryDraftStore struct {
	mu     sync.RWMutex
	drafts map[string]*domain.ReservationDraft
}

func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{drafts: make(map[string]*domain.ReservationDraft)}
}

func (s *MemoryDraftStore) Save(_ context.Context, d *domain.ReservationDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[d.ID] = d.Clone()
	return nil
}

func (s *MemoryDraftStore) Get(_ context.Context, id string) (*domain.ReservationDraft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[id]
	if !ok {
		return nil, domain.ErrDraftNotFound
	}
	return d.Clone(), nil
}

func (s *MemoryDraftStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, id)
	return nil
}

// ExpireBefore drops drafts last updated before deadline and returns how
// many were dropped.
func (s *MemoryDraftStore) ExpireBefore(deadline time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, d := range s.drafts {
		if d.UpdatedAt.Before(deadline) {
			delete(s.drafts, id)
			n++
		}
	}
	return n
}

// keyedMutex serializes work per key and frees a key's lock once nobody
// holds or waits for it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

var _ DraftStore = (*MemoryDraftStore)(nil)
