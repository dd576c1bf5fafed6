package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"chirper/internal/handler"
	"chirper/internal/httputil"
	"chirper/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes.
type RouterConfig struct {
	PostHandler     *handler.PostHandler
	FollowHandler   *handler.FollowHandler
	TimelineHandler *handler.TimelineHandler
	AdminHandler    *handler.AdminHandler
	Users           middleware.UserUpserter
}

// NewRouter wires the full route tree. Everything under /api/v1 except the
// demo endpoints requires a caller identity.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/actuator/health", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		httputil.WriteJSON(w, stdhttp.StatusOK, map[string]string{"status": "UP"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Demo endpoints are public: they drive load scripts and dashboards.
		r.Get("/demo/stats", cfg.AdminHandler.Stats)
		r.Post("/demo/reset", cfg.AdminHandler.Reset)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Identity(cfg.Users))

			r.Post("/posts", cfg.PostHandler.Create)

			r.Route("/users/{userId}", func(r chi.Router) {
				r.Get("/posts", cfg.PostHandler.GetUserPosts)
				r.Get("/following", cfg.FollowHandler.GetFollowing)
				r.Get("/followers", cfg.FollowHandler.GetFollowers)
				r.Get("/timeline", cfg.TimelineHandler.GetTimeline)

				r.Post("/follow/{targetId}", cfg.FollowHandler.Follow)
				r.Delete("/follow/{targetId}", cfg.FollowHandler.Unfollow)
			})
		})
	})

	return r
}
