package host

import (
	"context"
	"sync"

	"github.com/oldworld-vtt/grimcore/internal/game/character"
)

// MemStore is an in-memory Store, safe for concurrent use. It backs tests
// and the CLI harness.
type MemStore struct {
	mu    sync.Mutex
	chars map[string]*character.Character
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{chars: make(map[string]*character.Character)}
}

// Get implements Store.
func (s *MemStore) Get(ctx context.Context, id string) (*character.Character, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chars[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

// Put implements Store.
//
// Precondition: c must be non-nil with a non-empty ID.
func (s *MemStore) Put(ctx context.Context, c *character.Character) error {
	if c == nil || c.ID == "" {
		panic("host: Put: precondition violated: c must be non-nil with an ID")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chars[c.ID] = c
	return nil
}

// Update implements Store. fn runs under the store lock, so concurrent
// updates to the same character serialize.
func (s *MemStore) Update(ctx context.Context, id string, fn func(c *character.Character) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chars[id]
	if !ok {
		return ErrNotFound
	}
	return fn(c)
}

// Delete implements Store.
func (s *MemStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chars[id]; !ok {
		return ErrNotFound
	}
	delete(s.chars, id)
	return nil
}
