package roles

import (
	"context"
	"fmt"
	"strings"

	"github.com/aulahq/aula/internal/platform/httpx"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, name, description string, privilegeLevel int, permissions []string) (Role, error)
	UpdateRole(ctx context.Context, id int64, name, description string, privilegeLevel int, permissions []string) (Role, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
}

// Service handles role business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole returns one role.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole inserts a new role after normalising its fields.
func (s *Service) CreateRole(ctx context.Context, name, description string, privilegeLevel int, permissions []string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", httpx.ErrValidation)
	}
	if privilegeLevel < 0 {
		return Role{}, fmt.Errorf("%w: privilege level must be non-negative", httpx.ErrValidation)
	}
	return s.repo.CreateRole(ctx, name, strings.TrimSpace(description), privilegeLevel, permissions)
}

// UpdateRole updates an existing role.
func (s *Service) UpdateRole(ctx context.Context, id int64, name, description string, privilegeLevel int, permissions []string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", httpx.ErrValidation)
	}
	if privilegeLevel < 0 {
		return Role{}, fmt.Errorf("%w: privilege level must be non-negative", httpx.ErrValidation)
	}
	return s.repo.UpdateRole(ctx, id, name, strings.TrimSpace(description), privilegeLevel, permissions)
}

// ListPermissions returns all declared permissions.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}
