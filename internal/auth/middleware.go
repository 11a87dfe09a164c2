package auth

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/storykeep/storykeep/internal/platform/httpx"
	"github.com/storykeep/storykeep/internal/shared"
)

// ResolveActor turns the session's user ID into a policy actor on the
// request context. Requests with no session user pass through untouched;
// handlers that need an actor reject them.
func ResolveActor(logger *slog.Logger, service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil || sess.User() == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := strconv.ParseInt(sess.User(), 10, 64)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			user, err := service.LoadUser(r.Context(), userID)
			if err != nil {
				logger.Debug("resolve actor", slog.Int64("user_id", userID), slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}
			ctx := shared.ContextWithActor(r.Context(), user.Actor())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireActor rejects requests that did not resolve to an authenticated
// actor.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := shared.ActorFromContext(r.Context()); !ok {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
