package audit

import (
	"context"

	"github.com/aulahq/aula/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	ListRecords(ctx context.Context, filters Filters) ([]Record, shared.Pagination, error)
}

// Service coordinates audit timeline reads.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Timeline lists audit records with page-size clamping.
func (s *Service) Timeline(ctx context.Context, filters Filters) ([]Record, shared.Pagination, error) {
	if filters.PerPage <= 0 {
		filters.PerPage = 20
	}
	if filters.PerPage > 50 {
		filters.PerPage = 50
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	return s.repo.ListRecords(ctx, filters)
}
