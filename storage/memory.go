package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/codebyksp/mafAI/domain"
)

// MemoryRepo is the default game store: one document per code, guarded by a
// single lock so Update mutations are serialized. Documents are deep-copied
// on every boundary crossing; callers never hold a reference into the store.
type MemoryRepo struct {
	mu       sync.RWMutex
	games    map[string]*domain.Game
	watchers map[string]map[chan *domain.Game]struct{}
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		games:    make(map[string]*domain.Game),
		watchers: make(map[string]map[chan *domain.Game]struct{}),
	}
}

func (s *MemoryRepo) Create(ctx context.Context, code string, g *domain.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.games[code]; exists {
		return fmt.Errorf("%w: game code %s already in use", domain.ErrConflict, code)
	}
	s.games[code] = g.Clone()
	s.notifyLocked(code)
	return nil
}

func (s *MemoryRepo) Get(ctx context.Context, code string) (*domain.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, exists := s.games[code]
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, code)
	}
	return g.Clone(), nil
}

// Update applies mutate to a copy of the stored document under the write
// lock. A mutation error aborts the write and is returned untouched, so the
// stored document never reflects a failed transition.
func (s *MemoryRepo) Update(ctx context.Context, code string, mutate func(g *domain.Game) error) (*domain.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.games[code]
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, code)
	}

	next := stored.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	s.games[code] = next
	s.notifyLocked(code)
	return next.Clone(), nil
}

// Watch returns a channel that carries the current snapshot immediately and
// a fresh snapshot after every write. Sends never block: a watcher that has
// fallen behind only misses intermediate states, never the latest one, since
// a buffered slot always holds the newest document.
func (s *MemoryRepo) Watch(ctx context.Context, code string) (<-chan *domain.Game, error) {
	s.mu.Lock()
	g, exists := s.games[code]
	if !exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, code)
	}

	ch := make(chan *domain.Game, 1)
	ch <- g.Clone()
	if s.watchers[code] == nil {
		s.watchers[code] = make(map[chan *domain.Game]struct{})
	}
	s.watchers[code][ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers[code], ch)
		s.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// notifyLocked pushes the latest snapshot to every watcher of a code.
// Callers hold the write lock.
func (s *MemoryRepo) notifyLocked(code string) {
	g := s.games[code]
	for ch := range s.watchers[code] {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- g.Clone():
		default:
		}
	}
}
