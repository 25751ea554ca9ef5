// Package repo ties the user and list keyspaces together behind a transactional Store.
package repo

import (
	"context"
	"errors"

	"github.com/mkrupp/homecase-lists/internal/repo/list"
	"github.com/mkrupp/homecase-lists/internal/repo/user"
)

// ErrUnknownBackend is returned by a StoreFactory for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown store backend")

// Tx gives access to both keyspaces within one transaction.
type Tx interface {
	Users() user.Repository
	Lists() list.Repository
}

// Store is the persistence substrate for the list service.
type Store interface {
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(tx Tx) error) error

	// Update runs fn in a read-write transaction. Writes made by fn become
	// visible together when fn returns nil and are discarded when it returns
	// an error. Update calls are serialized.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any resources held by the store.
	// Returns an error if cleanup fails.
	Close() error
}

// StoreFactory is a function that creates a new Store instance.
// Returns an error if initialization fails.
type StoreFactory func(ctx context.Context) (Store, error)
