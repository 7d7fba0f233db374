package reports

import (
	"context"
	"fmt"
)

// Service is the query surface over stored reports, scoped per identity.
// Writes come from the inference gateway; the archive itself never
// mutates existing records.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, report *Report) (*Report, error) {
	report, err := s.repo.Create(ctx, report)
	if err != nil {
		return nil, fmt.Errorf("error creating report: %w", err)
	}
	return report, nil
}

func (s *Service) List(ctx context.Context, owner string) ([]*Report, error) {
	return s.repo.ListByOwner(ctx, owner)
}

func (s *Service) Get(ctx context.Context, owner, id string) (*Report, error) {
	return s.repo.GetByOwnerAndID(ctx, owner, id)
}
