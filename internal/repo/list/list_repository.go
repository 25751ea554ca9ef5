package list

import (
	"context"

	"github.com/mkrupp/homecase-lists/internal/domain"
)

// Repository defines the per-owner item keyspace. Each owner maps to one ordered
// sequence of items which is always read and written as a whole.
type Repository interface {
	// Get returns a copy of the owner's items.
	// The boolean is false when the owner has no list at all, which is distinct
	// from an empty list.
	Get(ctx context.Context, ownerID domain.ID) ([]domain.ListItem, bool, error)

	// CreateEmpty stores an empty list for the owner, replacing any existing one.
	CreateEmpty(ctx context.Context, ownerID domain.ID) error

	// Append adds the item to the end of the owner's list.
	// Returns an error wrapping domain.ErrInconsistentState if the owner has no list.
	Append(ctx context.Context, ownerID domain.ID, item domain.ListItem) error

	// Replace overwrites the owner's whole list.
	Replace(ctx context.Context, ownerID domain.ID, items []domain.ListItem) error

	// Remove deletes the owner's list. Removing an absent list is a no-op.
	Remove(ctx context.Context, ownerID domain.ID) error
}
