package places

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

// Handler wires place endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers authenticated place routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{placeID}", h.get)
	r.Patch("/{placeID}", h.update)
	r.Delete("/{placeID}", h.delete)
}

// MountPublicRoutes registers the unauthenticated map view.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/", h.listPublic)
}

type placeRequest struct {
	Name                  string  `json:"name" validate:"required,max=255"`
	Description           string  `json:"description"`
	Latitude              float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude             float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Region                string  `json:"region" validate:"max=120"`
	TypeOfPlace           string  `json:"type_of_place" validate:"max=120"`
	PermissionLevel       string  `json:"permission_level" validate:"required,oneof=public community restricted elder_only"`
	CeremonialContent     bool    `json:"ceremonial_content"`
	ElderApprovalRequired bool    `json:"elder_approval_required"`
}

type placePatch struct {
	Name                  *string  `json:"name" validate:"omitempty,max=255"`
	Description           *string  `json:"description"`
	Latitude              *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude             *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Region                *string  `json:"region" validate:"omitempty,max=120"`
	TypeOfPlace           *string  `json:"type_of_place" validate:"omitempty,max=120"`
	PermissionLevel       *string  `json:"permission_level" validate:"omitempty,oneof=public community restricted elder_only"`
	CeremonialContent     *bool    `json:"ceremonial_content"`
	ElderApprovalRequired *bool    `json:"elder_approval_required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	places, err := h.service.List(r.Context(), actor)
	if err != nil {
		h.logger.Error("list places", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"places": places})
}

func (h *Handler) listPublic(w http.ResponseWriter, r *http.Request) {
	communityID, err := strconv.ParseInt(chi.URLParam(r, "communityID"), 10, 64)
	if err != nil || communityID <= 0 {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	places, err := h.service.ListPublic(r.Context(), communityID)
	if err != nil {
		h.logger.Error("public places", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"places": places})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "placeID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	place, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, place)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req placeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	place, err := h.service.Create(r.Context(), actor, CreateInput{
		Name:                  req.Name,
		Description:           req.Description,
		Latitude:              req.Latitude,
		Longitude:             req.Longitude,
		Region:                req.Region,
		TypeOfPlace:           req.TypeOfPlace,
		PermissionLevel:       policy.PermissionLevel(req.PermissionLevel),
		CeremonialContent:     req.CeremonialContent,
		ElderApprovalRequired: req.ElderApprovalRequired,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, place)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "placeID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req placePatch
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
		Description:           req.Description,
		Latitude:              req.Latitude,
		Longitude:             req.Longitude,
		Region:                req.Region,
		TypeOfPlace:           req.TypeOfPlace,
		CeremonialContent:     req.CeremonialContent,
		ElderApprovalRequired: req.ElderApprovalRequired,
	}
	if req.PermissionLevel != nil {
		level := policy.PermissionLevel(*req.PermissionLevel)
		in.PermissionLevel = &level
	}
	place, err := h.service.Update(r.Context(), actor, id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, place)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "placeID"), 10, 64)
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
