package journal

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aulahq/aula/internal/authz"
	"github.com/aulahq/aula/internal/platform/httpx"
	"github.com/aulahq/aula/internal/shared"
)

// Handler manages journal endpoints. All routes run behind the principal
// loader so ownership checks can use the resolved profile.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	loader   authz.Loader
	gate     authz.Middleware
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, loader authz.Loader, gate authz.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		service:  service,
		loader:   loader,
		gate:     gate,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// MountRoutes registers journal routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.loader.Attach)
		r.With(h.gate.Require(shared.PermJournalView)).Get("/", h.listEntries)
		r.With(h.gate.Require(shared.PermJournalView)).Get("/{id}", h.showEntry)
		r.With(h.gate.Require(shared.PermJournalSubmit)).Post("/", h.submitEntry)
	})
}

type entryView struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"author_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type submitPayload struct {
	Title string `json:"title" validate:"required,max=200"`
	Body  string `json:"body" validate:"required"`
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	entries, err := h.service.VisibleEntries(r.Context(), principal)
	if err != nil {
		h.logger.Error("list journal entries", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	views := make([]entryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, toView(entry))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": views})
}

func (h *Handler) showEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	principal := authz.PrincipalFromContext(r.Context())
	entry, err := h.service.GetEntry(r.Context(), principal, id)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			httpx.RespondError(w, httpx.ErrNotFound)
		case errors.Is(err, httpx.ErrForbidden):
			httpx.RespondError(w, err)
		default:
			h.logger.Error("get journal entry", slog.Int64("id", id), slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}
	httpx.JSON(w, http.StatusOK, toView(entry))
}

func (h *Handler) submitEntry(w http.ResponseWriter, r *http.Request) {
	var payload submitPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	principal := authz.PrincipalFromContext(r.Context())
	entry, err := h.service.Submit(r.Context(), principal, payload.Title, payload.Body)
	if err != nil {
		h.logger.Error("submit journal entry", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, toView(entry))
}

func toView(entry Entry) entryView {
	return entryView{
		ID:        entry.ID,
		AuthorID:  entry.AuthorID,
		Title:     entry.Title,
		Body:      entry.Body,
		CreatedAt: entry.CreatedAt,
	}
}
