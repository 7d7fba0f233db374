package reports

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, report *Report) (*Report, error)
	// ListByOwner returns the owner's reports newest first.
	ListByOwner(ctx context.Context, owner string) ([]*Report, error)
	// GetByOwnerAndID scopes the lookup to the owner: a report held by a
	// different identity is common.ErrNotFound, indistinguishable from a
	// report that does not exist.
	GetByOwnerAndID(ctx context.Context, owner, id string) (*Report, error)
}
