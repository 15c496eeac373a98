package roles

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aulahq/aula/internal/authz"
	"github.com/aulahq/aula/internal/platform/httpx"
	"github.com/aulahq/aula/internal/shared"
)

// Handler manages role catalog and role assignment endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	assigner *authz.Assigner
	gate     authz.Middleware
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, assigner *authz.Assigner, gate authz.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		service:  service,
		assigner: assigner,
		gate:     gate,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(shared.PermRolesView))
		r.Get("/", h.listRoles)
		r.Get("/{id}", h.showRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(shared.PermRolesEdit))
		r.Post("/", h.createRole)
		r.Put("/{id}", h.updateRole)
	})
}

// MountPermissionRoutes registers the permission listing route.
func (h *Handler) MountPermissionRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(shared.PermPermissionsView))
		r.Get("/", h.listPermissions)
	})
}

// MountAssignmentRoutes registers the admin role reassignment route.
func (h *Handler) MountAssignmentRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(shared.PermRolesAssign))
		r.Put("/{id}/roles", h.assignRoles)
	})
}

type roleView struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	PrivilegeLevel int      `json:"privilege_level"`
	Permissions    []string `json:"permissions"`
}

type rolePayload struct {
	Name           string   `json:"name" validate:"required"`
	Description    string   `json:"description"`
	PrivilegeLevel int      `json:"privilege_level" validate:"gte=0"`
	Permissions    []string `json:"permissions"`
}

type assignPayload struct {
	RoleIDs []int64 `json:"role_ids" validate:"required,min=1,dive,gt=0"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	views := make([]roleView, 0, len(roles))
	for _, role := range roles {
		views = append(views, toView(role))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": views})
}

func (h *Handler) showRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, "get role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(role))
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodeRole(w, r)
	if !ok {
		return
	}
	role, err := h.service.CreateRole(r.Context(), payload.Name, payload.Description, payload.PrivilegeLevel, payload.Permissions)
	if err != nil {
		h.respondServiceError(w, "create role", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toView(role))
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	payload, ok := h.decodeRole(w, r)
	if !ok {
		return
	}
	role, err := h.service.UpdateRole(r.Context(), id, payload.Name, payload.Description, payload.PrivilegeLevel, payload.Permissions)
	if err != nil {
		h.respondServiceError(w, "update role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(role))
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

// assignRoles is the admin entry point for replacing a user's role set. The
// authorization core performs the privilege-separation checks and the atomic
// swap; this handler only binds the outcome onto HTTP.
func (h *Handler) assignRoles(w http.ResponseWriter, r *http.Request) {
	targetID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var payload assignPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	updated, err := h.assigner.ValidateAndAssign(r.Context(), targetID, payload.RoleIDs)
	if err != nil {
		switch {
		case errors.Is(err, authz.ErrInvalidInput):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		case errors.Is(err, authz.ErrSecurityViolation):
			httpx.Problem(w, http.StatusConflict, "Security Violation", err.Error())
		case errors.Is(err, authz.ErrAssignmentViolation):
			httpx.Problem(w, http.StatusUnprocessableEntity, "Assignment Violation", err.Error())
		default:
			h.logger.Error("assign roles failed", slog.Int64("user_id", targetID), slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}

	views := make([]roleView, 0, len(updated))
	for _, role := range updated {
		views = append(views, roleView{
			ID:             role.ID,
			Name:           role.Name,
			PrivilegeLevel: role.PrivilegeLevel,
			Permissions:    role.Permissions,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user_id": targetID, "roles": views})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, httpx.ErrValidation)
		return 0, false
	}
	return id, true
}

func (h *Handler) decodeRole(w http.ResponseWriter, r *http.Request) (rolePayload, bool) {
	var payload rolePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return payload, false
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return payload, false
	}
	return payload, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, httpx.ErrValidation), errors.Is(err, httpx.ErrDuplicate):
		httpx.RespondError(w, err)
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func toView(role Role) roleView {
	return roleView{
		ID:             role.ID,
		Name:           role.Name,
		Description:    role.Description,
		PrivilegeLevel: role.PrivilegeLevel,
		Permissions:    role.Permissions,
	}
}
