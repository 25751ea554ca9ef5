package domain

import "errors"

// ErrUserNotFound is returned when an operation requires an existing user and none exists.
var ErrUserNotFound = errors.New("user not found")

// User is a registered list owner. Neither ID nor Name change after registration.
type User struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"` // Unix timestamp of registration
}
