package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/storykeep/storykeep/internal/audit"
	"github.com/storykeep/storykeep/internal/auth"
	"github.com/storykeep/storykeep/internal/communities"
	"github.com/storykeep/storykeep/internal/media"
	"github.com/storykeep/storykeep/internal/observability"
	"github.com/storykeep/storykeep/internal/places"
	"github.com/storykeep/storykeep/internal/shared"
	"github.com/storykeep/storykeep/internal/speakers"
	"github.com/storykeep/storykeep/internal/stories"
	"github.com/storykeep/storykeep/internal/themes"
	"github.com/storykeep/storykeep/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics

	AuthService *auth.Service

	AuthHandler        *auth.Handler
	CommunitiesHandler *communities.Handler
	UsersHandler       *users.Handler
	StoriesHandler     *stories.Handler
	PlacesHandler      *places.Handler
	SpeakersHandler    *speakers.Handler
	ThemesHandler      *themes.Handler
	MediaHandler       *media.Handler
	AuditHandler       *audit.Handler
}

// NewRouter constructs the chi.Router.
//
// Route layout: /public/* is the unauthenticated surface and serves only
// public-tier unrestricted content. Everything else requires a resolved
// actor; community scoping happens inside the services, not in routing.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(auth.ResolveActor(params.Logger, params.AuthService))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/public", func(r chi.Router) {
		r.Route("/communities", func(r chi.Router) {
			params.CommunitiesHandler.MountPublicRoutes(r)
			r.Route("/{communityID}/stories", params.StoriesHandler.MountPublicRoutes)
			r.Route("/{communityID}/places", params.PlacesHandler.MountPublicRoutes)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireActor)

		r.Route("/communities", params.CommunitiesHandler.MountRoutes)
		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/stories", params.StoriesHandler.MountRoutes)
		r.Route("/places", params.PlacesHandler.MountRoutes)
		r.Route("/speakers", params.SpeakersHandler.MountRoutes)
		r.Route("/themes", params.ThemesHandler.MountRoutes)
		r.Route("/media", params.MediaHandler.MountRoutes)
		r.Route("/audit", params.AuditHandler.MountRoutes)
	})

	return r
}
