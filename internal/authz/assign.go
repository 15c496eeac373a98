package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aulahq/aula/internal/shared"
)

// Assigner validates proposed role assignments and applies them atomically.
//
// The two business checks are deliberately independent filters: the
// privileged-role count and the level-mismatch check each reject on their
// own, in that order. One privileged role plus unprivileged roles at a
// different level still fails the mismatch check.
type Assigner struct {
	catalog   Catalog
	threshold int
	logger    *slog.Logger
	audit     *shared.AuditLogger
}

// NewAssigner constructs an Assigner. threshold is the privilege level above
// which a role counts as privileged.
func NewAssigner(catalog Catalog, threshold int, logger *slog.Logger, audit *shared.AuditLogger) *Assigner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assigner{catalog: catalog, threshold: threshold, logger: logger, audit: audit}
}

// Threshold returns the configured unprivileged threshold.
func (a *Assigner) Threshold() int {
	return a.threshold
}

// ValidateAndAssign replaces all of the target user's roles with the proposed
// set after validating the privilege-separation rules. Validation failures
// are returned before any mutation; on success the updated role list is
// returned.
func (a *Assigner) ValidateAndAssign(ctx context.Context, targetUserID int64, roleIDs []int64) ([]Role, error) {
	if targetUserID <= 0 {
		return nil, fmt.Errorf("%w: target user id %d", ErrInvalidInput, targetUserID)
	}
	if len(roleIDs) == 0 {
		return nil, fmt.Errorf("%w: empty role id list", ErrInvalidInput)
	}
	roleIDs = dedupeIDs(roleIDs)

	privileged := 0
	levels := make(map[int]struct{})
	for _, roleID := range roleIDs {
		level, err := a.catalog.PrivilegeLevel(ctx, roleID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown role %d", ErrInvalidInput, roleID)
			}
			a.logger.Error("privilege level lookup", slog.Int64("role_id", roleID), slog.Any("error", err))
			return nil, fmt.Errorf("%w: privilege lookup for role %d", ErrInternal, roleID)
		}
		if level > a.threshold {
			privileged++
		}
		levels[level] = struct{}{}
	}

	if privileged > 1 {
		return nil, ErrSecurityViolation
	}
	if len(levels) > 1 {
		return nil, ErrAssignmentViolation
	}

	if err := a.catalog.ReplaceRolesForUser(ctx, targetUserID, roleIDs); err != nil {
		a.logger.Error("replace roles", slog.Int64("user_id", targetUserID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: replace roles", ErrInternal)
	}

	roles, err := a.catalog.RolesForUser(ctx, targetUserID)
	if err != nil {
		a.logger.Error("reload roles after assign", slog.Int64("user_id", targetUserID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: reload roles", ErrInternal)
	}

	a.logger.Info("roles reassigned",
		slog.Int64("user_id", targetUserID),
		slog.Any("role_ids", roleIDs))
	a.recordAudit(ctx, targetUserID, roleIDs)
	return roles, nil
}

func (a *Assigner) recordAudit(ctx context.Context, targetUserID int64, roleIDs []int64) {
	if a.audit == nil {
		return
	}
	actorID := int64(0)
	if principal := PrincipalFromContext(ctx); principal != nil {
		actorID = principal.UserID
	}
	err := a.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "roles.assign",
		Entity:   "user",
		EntityID: strconv.FormatInt(targetUserID, 10),
		Meta:     map[string]any{"role_ids": roleIDs},
	})
	if err != nil {
		a.logger.Warn("audit role assignment", slog.Any("error", err))
	}
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
