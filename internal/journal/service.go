package journal

import (
	"context"
	"fmt"

	"github.com/aulahq/aula/internal/authz"
	"github.com/aulahq/aula/internal/platform/httpx"
	"github.com/aulahq/aula/internal/shared"
)

// Service handles journal business logic against the loaded principal.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// VisibleEntries returns every entry when the principal may view all
// journals, otherwise only the principal's own.
func (s *Service) VisibleEntries(ctx context.Context, principal *authz.Principal) ([]Entry, error) {
	if principal.Profile.Has(shared.PermJournalViewAll) {
		return s.repo.ListAll(ctx)
	}
	return s.repo.ListByAuthor(ctx, principal.UserID)
}

// GetEntry returns one entry if the principal owns it or may view all.
func (s *Service) GetEntry(ctx context.Context, principal *authz.Principal, id int64) (Entry, error) {
	entry, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if entry.AuthorID != principal.UserID && !principal.Profile.Has(shared.PermJournalViewAll) {
		return Entry{}, fmt.Errorf("%w: not the entry owner", httpx.ErrForbidden)
	}
	return entry, nil
}

// Submit creates a new entry authored by the principal.
func (s *Service) Submit(ctx context.Context, principal *authz.Principal, title, body string) (Entry, error) {
	return s.repo.CreateEntry(ctx, Entry{
		AuthorID: principal.UserID,
		GroupID:  principal.GroupID,
		Title:    title,
		Body:     body,
	})
}
