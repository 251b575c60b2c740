package naming

import (
	"context"
)

type Repository interface {
	FindAlias(ctx context.Context, rawSupplier string) (string, error)
	CreateAlias(ctx context.Context, rawPattern, canonicalName string) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Suggest tries to find a canonical supplier name for the raw name found
// on a delivery sheet. Returns empty string if no alias matches.
func (s *Service) Suggest(ctx context.Context, rawSupplier string) (string, error) {
	return s.repo.FindAlias(ctx, rawSupplier)
}

// Learn remembers a new alias between a raw pattern and a canonical
// supplier name.
func (s *Service) Learn(ctx context.Context, rawPattern, canonicalName string) error {
	return s.repo.CreateAlias(ctx, rawPattern, canonicalName)
}
