package domain

import "errors"

var (
	// ErrListItemNotFound is returned when an item id is not present in its owner's list.
	ErrListItemNotFound = errors.New("list item not found")

	// ErrInconsistentState is returned when a user exists but its item list does not.
	// Registration and account deletion keep the two in step, so this indicates
	// corrupted storage rather than a caller mistake.
	ErrInconsistentState = errors.New("inconsistent state: user has no list")
)

// ListItem is a single text entry in a user's list.
type ListItem struct {
	ID        ID     `json:"id"`
	OwnerID   ID     `json:"owner_id"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// IndexOf returns the position of the item with the given id, or -1.
func IndexOf(items []ListItem, id ID) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}

	return -1
}

// Without returns a new slice holding every item except those with the given id.
// The input slice is not modified.
func Without(items []ListItem, id ID) []ListItem {
	out := make([]ListItem, 0, len(items))

	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}

	return out
}

// Confirmation acknowledges a completed account deletion.
type Confirmation struct {
	UserID  ID     `json:"user_id"`
	Message string `json:"message"`
}
