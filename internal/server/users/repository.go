package users

import (
	"context"
)

type Repository interface {
	// Create inserts a new identity. The store's unique constraint on
	// username is the single source of truth for uniqueness; a conflict
	// is reported as common.ErrUsernameTaken.
	Create(ctx context.Context, user *User) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}
