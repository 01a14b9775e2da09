package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositoryRoundTrip(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, "s1", "first"))
	require.NoError(t, repo.Append(ctx, "s1", "second"))
	require.NoError(t, repo.Append(ctx, "s2", "other"))

	history, err := repo.History(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, history)

	n, err := repo.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.Count(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryRepositoryHistoryIsACopy(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, "s1", "original"))

	history, err := repo.History(ctx, "s1")
	require.NoError(t, err)
	history[0] = "mutated"

	again, err := repo.History(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"original"}, again)
}

func TestMemoryRepositoryClear(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, "s1", "message"))
	require.NoError(t, repo.Clear(ctx, "s1"))

	history, err := repo.History(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, history)

	n, err := repo.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryRepositoryUnknownSession(t *testing.T) {
	repo := NewMemoryRepository()

	history, err := repo.History(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, history)
}
