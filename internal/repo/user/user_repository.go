package user

import (
	"context"

	"github.com/mkrupp/homecase-lists/internal/domain"
)

// Repository defines the user keyspace. Implementations are bound to a single
// store transaction and must not be used after it ends.
type Repository interface {
	// Get retrieves the user with the given id.
	// Returns the user and true if found, or nil and false if not found.
	// Returns an error only if the lookup itself fails.
	Get(ctx context.Context, id domain.ID) (*domain.User, bool, error)

	// Insert stores the user at user.ID, overwriting any existing record.
	Insert(ctx context.Context, user domain.User) error

	// Remove deletes the user with the given id. Removing an absent id is a no-op.
	Remove(ctx context.Context, id domain.ID) error
}
