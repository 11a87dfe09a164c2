package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/storykeep/storykeep/internal/platform/httpx"
	"github.com/storykeep/storykeep/internal/policy"
	"github.com/storykeep/storykeep/internal/shared"
)

// Handler exposes the audit timeline to community admins. The timeline is
// always scoped to the requesting admin's own community; there is no
// cross-community audit view, platform operators included.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the audit HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.timeline)
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if actor.Role != policy.RoleAdmin || actor.CommunityID == 0 {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}

	filters := TimelineFilters{
		CommunityID: actor.CommunityID,
		Page:        intQuery(r, "page"),
		PageSize:    intQuery(r, "page_size"),
		ActorID:     int64(intQuery(r, "actor_id")),
		DeniedOnly:  r.URL.Query().Get("denied") == "true",
	}
	if v := r.URL.Query().Get("resource_type"); v != "" {
		filters.ResourceType = policy.ResourceType(v)
	}
	if v := r.URL.Query().Get("reason"); v != "" {
		filters.Reason = policy.ReasonCode(v)
	}
	if v := r.URL.Query().Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.From = t
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.To = t
		}
	}

	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.logger.Error("audit timeline", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func intQuery(r *http.Request, key string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(key))
	return v
}
