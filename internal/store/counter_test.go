package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextSequence_StartsAtOne(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	current, err := s.CurrentSequence(ctx)
	require.NoError(t, err)
	assert.Zero(t, current)

	next, err := s.NextSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)

	next, err = s.NextSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), next)

	current, err = s.CurrentSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), current)
}

func TestNextSequence_ConcurrentCallersGetDistinctNumbers(t *testing.T) {
	s, err := New("", nil, Options{InMemory: true, TxnRetries: 100})
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	const workers = 20
	results := make(chan int64, workers)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.NextSequence(ctx)
			if assert.NoError(t, err) {
				results <- n
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool)
	for n := range results {
		assert.False(t, seen[n], "sequence %d handed out twice", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers)
	for i := int64(1); i <= workers; i++ {
		assert.True(t, seen[i], "sequence %d missing", i)
	}

	current, err := s.CurrentSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), current)
}
