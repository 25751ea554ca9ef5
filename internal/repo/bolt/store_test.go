package bolt_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/homecase-lists/internal/domain"
	"github.com/mkrupp/homecase-lists/internal/repo"
	"github.com/mkrupp/homecase-lists/internal/repo/bolt"
	"github.com/mkrupp/homecase-lists/internal/repo/repotest"
)

func newConfig(t *testing.T) bolt.StoreConfig {
	t.Helper()

	return bolt.StoreConfig{
		DatabasePath: filepath.Join(t.TempDir(), "db", "lists.bolt"),
		OpenTimeout:  time.Second,
	}
}

func TestStore(t *testing.T) {
	t.Parallel()

	repotest.RunStoreContract(t, func(t *testing.T) repo.Store {
		t.Helper()

		s, err := bolt.NewStore(context.Background(), newConfig(t))
		require.NoError(t, err)

		t.Cleanup(func() { s.Close() })

		return s
	})
}

func TestStore_Reopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := newConfig(t)

	s, err := bolt.StoreFactory(cfg)(ctx)
	require.NoError(t, err)

	u := repotest.RandomUser()
	item := repotest.RandomItem(u.ID)
	repotest.Seed(t, s, u)
	require.NoError(t, s.Update(ctx, func(tx repo.Tx) error {
		return tx.Lists().Append(ctx, u.ID, item)
	}))
	require.NoError(t, s.Close())

	s, err = bolt.StoreFactory(cfg)(ctx)
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.View(ctx, func(tx repo.Tx) error {
		got, ok, err := tx.Users().Get(ctx, u.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, u, *got)

		items, ok, err := tx.Lists().Get(ctx, u.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []domain.ListItem{item}, items)

		return nil
	}))
}

func TestStore_Locked(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := newConfig(t)
	cfg.OpenTimeout = 50 * time.Millisecond

	s, err := bolt.NewStore(ctx, cfg)
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })

	_, err = bolt.NewStore(ctx, cfg)
	require.Error(t, err)
}
