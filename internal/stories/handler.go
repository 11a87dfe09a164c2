package stories

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/storykeep/storykeep/internal/platform/httpx"
	"github.com/storykeep/storykeep/internal/policy"
	"github.com/storykeep/storykeep/internal/shared"
)

// Handler wires story endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers authenticated story routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{storyID}", h.get)
	r.Patch("/{storyID}", h.update)
	r.Delete("/{storyID}", h.delete)
}

// MountPublicRoutes registers the unauthenticated read path.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/", h.listPublic)
}

type createRequest struct {
	Title                 string  `json:"title" validate:"required,max=255"`
	Description           string  `json:"description"`
	Language              string  `json:"language" validate:"omitempty,bcp47_language_tag"`
	Topic                 string  `json:"topic" validate:"max=120"`
	PermissionLevel       string  `json:"permission_level" validate:"required,oneof=public community restricted elder_only"`
	CeremonialContent     bool    `json:"ceremonial_content"`
	ElderApprovalRequired bool    `json:"elder_approval_required"`
	PlaceIDs              []int64 `json:"place_ids"`
	SpeakerIDs            []int64 `json:"speaker_ids"`
}

type updateRequest struct {
	Title                 *string `json:"title" validate:"omitempty,max=255"`
	Description           *string `json:"description"`
	Language              *string `json:"language" validate:"omitempty,bcp47_language_tag"`
	Topic                 *string `json:"topic" validate:"omitempty,max=120"`
	PermissionLevel       *string `json:"permission_level" validate:"omitempty,oneof=public community restricted elder_only"`
	CeremonialContent     *bool   `json:"ceremonial_content"`
	ElderApprovalRequired *bool   `json:"elder_approval_required"`
	PlaceIDs              []int64 `json:"place_ids"`
	SpeakerIDs            []int64 `json:"speaker_ids"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	result, err := h.service.List(r.Context(), actor, q.Get("locale"), ListFilter{
		Topic:    q.Get("topic"),
		Language: q.Get("language"),
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		h.logger.Error("list stories", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) listPublic(w http.ResponseWriter, r *http.Request) {
	communityID, err := strconv.ParseInt(chi.URLParam(r, "communityID"), 10, 64)
	if err != nil || communityID <= 0 {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	stories, err := h.service.ListPublic(r.Context(), communityID, r.URL.Query().Get("locale"))
	if err != nil {
		h.logger.Error("public stories", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"stories": stories})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "storyID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	story, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, story)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	story, err := h.service.Create(r.Context(), actor, CreateInput{
		Title:                 req.Title,
		Description:           req.Description,
		Language:              req.Language,
		Topic:                 req.Topic,
		PermissionLevel:       policy.PermissionLevel(req.PermissionLevel),
		CeremonialContent:     req.CeremonialContent,
		ElderApprovalRequired: req.ElderApprovalRequired,
		PlaceIDs:              req.PlaceIDs,
		SpeakerIDs:            req.SpeakerIDs,
		IdempotencyKey:        r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, story)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "storyID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	in := UpdateInput{
		Title:                 req.Title,
		Description:           req.Description,
		Language:              req.Language,
		Topic:                 req.Topic,
		CeremonialContent:     req.CeremonialContent,
		ElderApprovalRequired: req.ElderApprovalRequired,
		PlaceIDs:              req.PlaceIDs,
		SpeakerIDs:            req.SpeakerIDs,
	}
	if req.PermissionLevel != nil {
		level := policy.PermissionLevel(*req.PermissionLevel)
		in.PermissionLevel = &level
	}
	story, err := h.service.Update(r.Context(), actor, id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, story)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "storyID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
