// Package memory implements repo.Store on plain maps. Writes are staged per
// transaction and applied on commit, so a failed Update leaves no trace.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/mkrupp/homecase-lists/internal/domain"
	"github.com/mkrupp/homecase-lists/internal/infra/logging"
	"github.com/mkrupp/homecase-lists/internal/repo"
	"github.com/mkrupp/homecase-lists/internal/repo/list"
	"github.com/mkrupp/homecase-lists/internal/repo/user"
)

var (
	// ErrClosed is returned by transactions started after Close.
	ErrClosed = errors.New("store closed")
	// ErrReadOnly is returned when writing inside View.
	ErrReadOnly = errors.New("read-only transaction")
)

// Store is an in-memory repo.Store.
type Store struct {
	m      sync.RWMutex
	users  map[domain.ID]domain.User
	lists  map[domain.ID][]domain.ListItem
	closed bool
	log    logging.Logger
}

var _ repo.Store = (*Store)(nil)

// StoreFactory returns a repo.StoreFactory producing fresh, empty stores.
func StoreFactory() repo.StoreFactory {
	return func(context.Context) (repo.Store, error) {
		return NewStore(), nil
	}
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		users: make(map[domain.ID]domain.User),
		lists: make(map[domain.ID][]domain.ListItem),
		log:   logging.GetLogger("repo.memory.store"),
	}
}

// View implements repo.Store.View.
func (s *Store) View(ctx context.Context, fn func(tx repo.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("view: %w", err)
	}

	s.m.RLock()
	defer s.m.RUnlock()

	if s.closed {
		return ErrClosed
	}

	return fn(newTx(s, false))
}

// Update implements repo.Store.Update.
func (s *Store) Update(ctx context.Context, fn func(tx repo.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("update: %w", err)
	}

	s.m.Lock()
	defer s.m.Unlock()

	if s.closed {
		return ErrClosed
	}

	t := newTx(s, true)

	if err := fn(t); err != nil {
		s.log.DebugContext(ctx, "transaction discarded", "error", err)

		return err
	}

	t.commit()

	return nil
}

// Close implements repo.Store.Close.
func (s *Store) Close() error {
	s.m.Lock()
	defer s.m.Unlock()

	s.closed = true

	return nil
}

type userWrite struct {
	user    domain.User
	removed bool
}

type listWrite struct {
	items   []domain.ListItem
	removed bool
}

type tx struct {
	store    *Store
	writable bool
	users    map[domain.ID]userWrite
	lists    map[domain.ID]listWrite
}

func newTx(s *Store, writable bool) *tx {
	return &tx{
		store:    s,
		writable: writable,
		users:    make(map[domain.ID]userWrite),
		lists:    make(map[domain.ID]listWrite),
	}
}

func (t *tx) Users() user.Repository { return userRepo{t} }
func (t *tx) Lists() list.Repository { return listRepo{t} }

func (t *tx) commit() {
	for id, w := range t.users {
		if w.removed {
			delete(t.store.users, id)
		} else {
			t.store.users[id] = w.user
		}
	}

	for id, w := range t.lists {
		if w.removed {
			delete(t.store.lists, id)
		} else {
			t.store.lists[id] = w.items
		}
	}
}

func (t *tx) checkWrite() error {
	if !t.writable {
		return ErrReadOnly
	}

	return nil
}

func (t *tx) getList(ownerID domain.ID) ([]domain.ListItem, bool) {
	if w, ok := t.lists[ownerID]; ok {
		return w.items, !w.removed
	}

	items, ok := t.store.lists[ownerID]

	return items, ok
}

type userRepo struct{ t *tx }

func (r userRepo) Get(_ context.Context, id domain.ID) (*domain.User, bool, error) {
	if w, ok := r.t.users[id]; ok {
		if w.removed {
			return nil, false, nil
		}

		u := w.user

		return &u, true, nil
	}

	u, ok := r.t.store.users[id]
	if !ok {
		return nil, false, nil
	}

	return &u, true, nil
}

func (r userRepo) Insert(_ context.Context, u domain.User) error {
	if err := r.t.checkWrite(); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	r.t.users[u.ID] = userWrite{user: u}

	return nil
}

func (r userRepo) Remove(_ context.Context, id domain.ID) error {
	if err := r.t.checkWrite(); err != nil {
		return fmt.Errorf("remove user: %w", err)
	}

	r.t.users[id] = userWrite{removed: true}

	return nil
}

type listRepo struct{ t *tx }

func (r listRepo) Get(_ context.Context, ownerID domain.ID) ([]domain.ListItem, bool, error) {
	items, ok := r.t.getList(ownerID)
	if !ok {
		return nil, false, nil
	}

	if items == nil {
		return []domain.ListItem{}, true, nil
	}

	return slices.Clone(items), true, nil
}

func (r listRepo) CreateEmpty(_ context.Context, ownerID domain.ID) error {
	if err := r.t.checkWrite(); err != nil {
		return fmt.Errorf("create list: %w", err)
	}

	r.t.lists[ownerID] = listWrite{items: []domain.ListItem{}}

	return nil
}

func (r listRepo) Append(_ context.Context, ownerID domain.ID, item domain.ListItem) error {
	if err := r.t.checkWrite(); err != nil {
		return fmt.Errorf("append item: %w", err)
	}

	items, ok := r.t.getList(ownerID)
	if !ok {
		return fmt.Errorf("append item: %w: owner %s", domain.ErrInconsistentState, ownerID)
	}

	r.t.lists[ownerID] = listWrite{items: append(slices.Clip(items), item)}

	return nil
}

func (r listRepo) Replace(_ context.Context, ownerID domain.ID, items []domain.ListItem) error {
	if err := r.t.checkWrite(); err != nil {
		return fmt.Errorf("replace list: %w", err)
	}

	if items == nil {
		items = []domain.ListItem{}
	}

	r.t.lists[ownerID] = listWrite{items: slices.Clone(items)}

	return nil
}

func (r listRepo) Remove(_ context.Context, ownerID domain.ID) error {
	if err := r.t.checkWrite(); err != nil {
		return fmt.Errorf("remove list: %w", err)
	}

	r.t.lists[ownerID] = listWrite{removed: true}

	return nil
}
