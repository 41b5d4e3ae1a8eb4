package host_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oldworld-vtt/grimcore/internal/game/character"
	"github.com/oldworld-vtt/grimcore/internal/host"
)

func TestMemStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := host.NewMemStore()
	c := character.New("Gunnar")

	require.NoError(t, s.Put(ctx, c))
	got, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Name, got.Name)

	require.NoError(t, s.Delete(ctx, c.ID))
	_, err = s.Get(ctx, c.ID)
	assert.ErrorIs(t, err, host.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, c.ID), host.ErrNotFound)
}

func TestMemStore_Update(t *testing.T) {
	ctx := context.Background()
	s := host.NewMemStore()
	c := character.New("Gunnar")
	require.NoError(t, s.Put(ctx, c))

	err := s.Update(ctx, c.ID, func(c *character.Character) error {
		c.Advantage = 3
		return nil
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Advantage)

	assert.ErrorIs(t, s.Update(ctx, "missing", func(*character.Character) error { return nil }), host.ErrNotFound)
}

func TestMemStore_ConcurrentUpdatesSerialize(t *testing.T) {
	ctx := context.Background()
	s := host.NewMemStore()
	c := character.New("Gunnar")
	require.NoError(t, s.Put(ctx, c))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(ctx, c.ID, func(c *character.Character) error {
				c.Corruption++
				return nil
			})
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Corruption)
}

func TestMemStore_ContextCancellation(t *testing.T) {
	s := host.NewMemStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, "any")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Put(ctx, character.New("X")), context.Canceled)
}
