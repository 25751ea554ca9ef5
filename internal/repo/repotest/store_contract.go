// Package repotest holds a behavioural test suite shared by every repo.Store
// implementation.
package repotest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Pallinder/go-randomdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/homecase-lists/internal/domain"
	"github.com/mkrupp/homecase-lists/internal/repo"
)

var errAbort = errors.New("abort")

// NewStore returns a fresh, empty store. Implementations register cleanup via t.Cleanup.
type NewStore func(t *testing.T) repo.Store

// RandomUser builds a user with a random id and a random display name.
func RandomUser() domain.User {
	return domain.User{
		ID:        domain.NewID(),
		Name:      randomdata.FullName(randomdata.RandomGender),
		CreatedAt: time.Now().Unix(),
	}
}

// RandomItem builds an item owned by ownerID with random text.
func RandomItem(ownerID domain.ID) domain.ListItem {
	now := time.Now().Unix()

	return domain.ListItem{
		ID:        domain.NewID(),
		OwnerID:   ownerID,
		Text:      randomdata.Noun(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Seed inserts the user together with an empty list.
func Seed(t *testing.T, s repo.Store, u domain.User) {
	t.Helper()

	require.NoError(t, s.Update(context.Background(), func(tx repo.Tx) error {
		if err := tx.Users().Insert(context.Background(), u); err != nil {
			return err
		}

		return tx.Lists().CreateEmpty(context.Background(), u.ID)
	}))
}

// RunStoreContract runs the shared suite against stores produced by newStore.
func RunStoreContract(t *testing.T, newStore NewStore) {
	t.Helper()

	t.Run("user roundtrip", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		s := newStore(t)
		u := RandomUser()

		Seed(t, s, u)

		require.NoError(t, s.View(ctx, func(tx repo.Tx) error {
			got, ok, err := tx.Users().Get(ctx, u.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, u, *got)

			items, ok, err := tx.Lists().Get(ctx, u.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Empty(t, items)
			assert.NotNil(t, items)

			return nil
		}))
	})

	t.Run("absent keys", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		s := newStore(t)

		require.NoError(t, s.View(ctx, func(tx repo.Tx) error {
			got, ok, err := tx.Users().Get(ctx, domain.NewID())
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, got)

			items, ok, err := tx.Lists().Get(ctx, domain.NewID())
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, items)

			return nil
		}))
	})

	t.Run("append keeps order", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		s := newStore(t)
		u := RandomUser()
		Seed(t, s, u)

		want := []domain.ListItem{RandomItem(u.ID), RandomItem(u.ID), RandomItem(u.ID)}

		for _, item := range want {
			require.NoError(t, s.Update(ctx, func(tx repo.Tx) error {
				return tx.Lists().Append(ctx, u.ID, item)
			}))
		}

		require.NoError(t, s.View(ctx, func(tx repo.Tx) error {
			got, ok, err := tx.Lists().Get(ctx, u.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, want, got)

			return nil
		}))
	})

	t.Run("append without list", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		s := newStore(t)
		owner := domain.NewID()

		err := s.Update(ctx, func(tx repo.Tx) error {
			return tx.Lists().Append(ctx, owner, RandomItem(owner))
		})
		require.ErrorIs(t, err, domain.ErrInconsistentState)
	})

	t.Run("replace and remove", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		s := newStore(t)
		u := RandomUser()
		Seed(t, s, u)

		items := []domain.ListItem{RandomItem(u.ID), RandomItem(u.ID)}

		require.NoError(t, s.Update(ctx, func(tx repo.Tx) error {
			return tx.Lists().Replace(ctx, u.ID, items)
		}))

		require.NoError(t, s.Update(ctx, func(tx repo.Tx) error {
			return tx.Lists().Replace(ctx, u.ID, items[1:])
		}))

		require.NoError(t, s.View(ctx, func(tx repo.Tx) error {
			got, _, err := tx.Lists().Get(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, items[1:], got)

			return nil
		}))

		require.NoError(t, s.Update(ctx, func(tx repo.Tx) error {
			if err := tx.Lists().Remove(ctx, u.ID); err != nil {
				return err
			}

			return tx.Users().Remove(ctx, u.ID)
		}))

		require.NoError(t, s.View(ctx, func(tx repo.Tx) error {
			_, ok, err := tx.Users().Get(ctx, u.ID)
			require.NoError(t, err)
			assert.False(t, ok)

			_, ok, err = tx.Lists().Get(ctx, u.ID)
			require.NoError(t, err)
			assert.False(t, ok)

			return nil
		}))
	})

	t.Run("remove absent is noop", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		s := newStore(t)

		require.NoError(t, s.Update(ctx, func(tx repo.Tx) error {
			if err := tx.Lists().Remove(ctx, domain.NewID()); err != nil {
				return err
			}

			return tx.Users().Remove(ctx, domain.NewID())
		}))
	})

	t.Run("failed update is discarded", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		s := newStore(t)
		u := RandomUser()
		Seed(t, s, u)

		other := RandomUser()

		err := s.Update(ctx, func(tx repo.Tx) error {
			if err := tx.Lists().Append(ctx, u.ID, RandomItem(u.ID)); err != nil {
				return err
			}

			if err := tx.Users().Insert(ctx, other); err != nil {
				return err
			}

			return errAbort
		})
		require.ErrorIs(t, err, errAbort)

		require.NoError(t, s.View(ctx, func(tx repo.Tx) error {
			items, _, err := tx.Lists().Get(ctx, u.ID)
			require.NoError(t, err)
			assert.Empty(t, items)

			_, ok, err := tx.Users().Get(ctx, other.ID)
			require.NoError(t, err)
			assert.False(t, ok)

			return nil
		}))
	})

	t.Run("writes visible inside transaction", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		s := newStore(t)
		u := RandomUser()

		require.NoError(t, s.Update(ctx, func(tx repo.Tx) error {
			require.NoError(t, tx.Users().Insert(ctx, u))
			require.NoError(t, tx.Lists().CreateEmpty(ctx, u.ID))
			require.NoError(t, tx.Lists().Append(ctx, u.ID, RandomItem(u.ID)))

			_, ok, err := tx.Users().Get(ctx, u.ID)
			require.NoError(t, err)
			assert.True(t, ok)

			items, _, err := tx.Lists().Get(ctx, u.ID)
			require.NoError(t, err)
			assert.Len(t, items, 1)

			return nil
		}))
	})

	t.Run("returned items are copies", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		s := newStore(t)
		u := RandomUser()
		Seed(t, s, u)

		item := RandomItem(u.ID)
		require.NoError(t, s.Update(ctx, func(tx repo.Tx) error {
			return tx.Lists().Append(ctx, u.ID, item)
		}))

		require.NoError(t, s.View(ctx, func(tx repo.Tx) error {
			items, _, err := tx.Lists().Get(ctx, u.ID)
			require.NoError(t, err)
			items[0].Text = "mutated"

			return nil
		}))

		require.NoError(t, s.View(ctx, func(tx repo.Tx) error {
			items, _, err := tx.Lists().Get(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, item.Text, items[0].Text)

			return nil
		}))
	})

	t.Run("concurrent appends", func(t *testing.T) {
		t.Parallel()

		const writers = 16

		ctx := context.Background()
		s := newStore(t)
		u := RandomUser()
		Seed(t, s, u)

		var wg sync.WaitGroup

		errs := make(chan error, writers)

		for range writers {
			wg.Add(1)

			go func() {
				defer wg.Done()

				errs <- s.Update(ctx, func(tx repo.Tx) error {
					return tx.Lists().Append(ctx, u.ID, RandomItem(u.ID))
				})
			}()
		}

		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		require.NoError(t, s.View(ctx, func(tx repo.Tx) error {
			items, _, err := tx.Lists().Get(ctx, u.ID)
			require.NoError(t, err)
			assert.Len(t, items, writers)

			return nil
		}))
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		s := newStore(t)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := s.Update(ctx, func(repo.Tx) error { return nil })
		require.ErrorIs(t, err, context.Canceled)
	})
}
