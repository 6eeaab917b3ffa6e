package attemptrepo_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tokenforge/tokenforge/flow"
	"github.com/tokenforge/tokenforge/internal/errors"
	"github.com/tokenforge/tokenforge/server/attemptrepo"
)

func TestInMemoryRepo(t *testing.T) {
	t.Run("upsert and get", func(t *testing.T) {
		repo := attemptrepo.NewInMemoryRepo(time.Hour)
		attempt := flow.NewAttempt("a1")
		require.NoError(t, repo.Upsert(attempt))

		got, err := repo.Get("a1")
		require.NoError(t, err)
		require.Same(t, attempt, got)
	})

	t.Run("unknown attempt", func(t *testing.T) {
		repo := attemptrepo.NewInMemoryRepo(time.Hour)
		_, err := repo.Get("missing")
		require.ErrorIs(t, err, errors.ErrAttemptNotFound)
	})

	t.Run("empty ID rejected", func(t *testing.T) {
		repo := attemptrepo.NewInMemoryRepo(time.Hour)
		require.Error(t, repo.Upsert(flow.NewAttempt("")))
		_, err := repo.Get("")
		require.Error(t, err)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		repo := attemptrepo.NewInMemoryRepo(time.Hour)
		require.NoError(t, repo.Upsert(flow.NewAttempt("a1")))
		require.NoError(t, repo.Delete("a1"))
		require.NoError(t, repo.Delete("a1"))
		_, err := repo.Get("a1")
		require.ErrorIs(t, err, errors.ErrAttemptNotFound)
	})

	t.Run("expired attempts are reported and dropped", func(t *testing.T) {
		repo := attemptrepo.NewInMemoryRepo(time.Minute)
		attempt := flow.NewAttempt("a1")
		require.NoError(t, repo.Upsert(attempt))

		repo.SetClock(func() time.Time { return attempt.CreatedAt.Add(2 * time.Minute) })

		_, err := repo.Get("a1")
		require.ErrorIs(t, err, errors.ErrAttemptExpired)

		// Second lookup no longer finds it at all.
		_, err = repo.Get("a1")
		require.ErrorIs(t, err, errors.ErrAttemptNotFound)
	})
}
