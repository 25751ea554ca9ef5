package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/homecase-lists/internal/domain"
	"github.com/mkrupp/homecase-lists/internal/repo"
	"github.com/mkrupp/homecase-lists/internal/repo/repotest"
	"github.com/mkrupp/homecase-lists/internal/repo/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(context.Background(), sqlite.StoreConfig{
		DatabasePath: filepath.Join(t.TempDir(), "db", "lists.db"),
		BusyTimeout:  5 * time.Second,
	})
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })

	return s
}

func TestStore(t *testing.T) {
	t.Parallel()

	repotest.RunStoreContract(t, func(t *testing.T) repo.Store {
		t.Helper()

		return newStore(t)
	})
}

func TestStore_ListWithoutUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newStore(t)
	owner := domain.NewID()

	err := s.Update(ctx, func(tx repo.Tx) error {
		return tx.Lists().CreateEmpty(ctx, owner)
	})
	require.ErrorIs(t, err, domain.ErrInconsistentState)

	require.NoError(t, s.View(ctx, func(tx repo.Tx) error {
		_, ok, err := tx.Lists().Get(ctx, owner)
		require.NoError(t, err)
		assert.False(t, ok)

		return nil
	}))
}

func TestStore_RemoveUserBeforeList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newStore(t)
	u := repotest.RandomUser()
	repotest.Seed(t, s, u)

	err := s.Update(ctx, func(tx repo.Tx) error {
		return tx.Users().Remove(ctx, u.ID)
	})
	require.ErrorIs(t, err, domain.ErrInconsistentState)
}

func TestStore_Reopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := sqlite.StoreConfig{
		DatabasePath: filepath.Join(t.TempDir(), "lists.db"),
		BusyTimeout:  time.Second,
	}

	s, err := sqlite.StoreFactory(cfg)(ctx)
	require.NoError(t, err)

	u := repotest.RandomUser()
	item := repotest.RandomItem(u.ID)
	repotest.Seed(t, s, u)
	require.NoError(t, s.Update(ctx, func(tx repo.Tx) error {
		return tx.Lists().Append(ctx, u.ID, item)
	}))
	require.NoError(t, s.Close())

	s, err = sqlite.StoreFactory(cfg)(ctx)
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.View(ctx, func(tx repo.Tx) error {
		items, ok, err := tx.Lists().Get(ctx, u.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []domain.ListItem{item}, items)

		return nil
	}))
}
