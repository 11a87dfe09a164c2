package speakers

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

// Handler wires speaker endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers authenticated speaker routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{speakerID}", h.get)
	r.Patch("/{speakerID}", h.update)
	r.Delete("/{speakerID}", h.delete)
}

type speakerRequest struct {
	Name                  string `json:"name" validate:"required,max=255"`
	BirthYear             int    `json:"birth_year" validate:"omitempty,gte=1800,lte=2100"`
	BirthplaceID          int64  `json:"birthplace_id"`
	Bio                   string `json:"bio"`
	PermissionLevel       string `json:"permission_level" validate:"required,oneof=public community restricted elder_only"`
	CeremonialContent     bool   `json:"ceremonial_content"`
	ElderApprovalRequired bool   `json:"elder_approval_required"`
}

type speakerPatch struct {
	Name                  *string `json:"name" validate:"omitempty,max=255"`
	BirthYear             *int    `json:"birth_year" validate:"omitempty,gte=1800,lte=2100"`
	BirthplaceID          *int64  `json:"birthplace_id"`
	Bio                   *string `json:"bio"`
	PermissionLevel       *string `json:"permission_level" validate:"omitempty,oneof=public community restricted elder_only"`
	CeremonialContent     *bool   `json:"ceremonial_content"`
	ElderApprovalRequired *bool   `json:"elder_approval_required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	speakers, err := h.service.List(r.Context(), actor)
	if err != nil {
		h.logger.Error("list speakers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"speakers": speakers})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "speakerID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	speaker, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, speaker)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req speakerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	speaker, err := h.service.Create(r.Context(), actor, CreateInput{
		Name:                  req.Name,
		BirthYear:             req.BirthYear,
		BirthplaceID:          req.BirthplaceID,
		Bio:                   req.Bio,
		PermissionLevel:       policy.PermissionLevel(req.PermissionLevel),
		CeremonialContent:     req.CeremonialContent,
		ElderApprovalRequired: req.ElderApprovalRequired,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, speaker)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "speakerID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req speakerPatch
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	in := UpdateInput{
		Name:                  req.Name,
		BirthYear:             req.BirthYear,
		BirthplaceID:          req.BirthplaceID,
		Bio:                   req.Bio,
		CeremonialContent:     req.CeremonialContent,
		ElderApprovalRequired: req.ElderApprovalRequired,
	}
	if req.PermissionLevel != nil {
		level := policy.PermissionLevel(*req.PermissionLevel)
		in.PermissionLevel = &level
	}
	speaker, err := h.service.Update(r.Context(), actor, id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, speaker)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "speakerID"), 10, 64)
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
