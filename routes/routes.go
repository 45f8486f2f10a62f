package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/task-tracker/app"
	"github.com/upb/task-tracker/handlers"
	"github.com/upb/task-tracker/internal/policy"
	"github.com/upb/task-tracker/middleware"
	"github.com/upb/task-tracker/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()
	logger := deps.Logger

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "WWW-Authenticate"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var db handlers.HealthChecker
	if deps.DB != nil {
		db = deps.DB
	}
	health := handlers.NewHealthHandler(db, logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	auth := handlers.NewAuthHandler(deps.Resolver, deps.Issuer, deps.Metrics, logger)
	teams := handlers.NewTeamHandler(deps.Teams, logger)
	projects := handlers.NewProjectHandler(deps.Projects, logger)
	tasks := handlers.NewTaskHandler(deps.Tasks, logger)
	comments := handlers.NewCommentHandler(deps.Comments, logger)
	stats := handlers.NewStatsHandler(deps.Stats, logger)
	require := deps.PolicyMiddleware.Require

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", auth.HandleLogin)
			r.Post("/register", auth.HandleRegister)
			r.With(deps.AuthMiddleware.RequireAuth).Get("/me", auth.HandleMe)
		})

		// Everything below needs a bearer token
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)

			r.Route("/teams", func(r chi.Router) {
				r.Get("/", teams.HandleList)
				r.With(require(policy.ResourceTeam, policy.ActionCreate)).Post("/", teams.HandleCreate)
				r.Get("/{id}", teams.HandleGet)
				r.With(require(policy.ResourceTeam, policy.ActionUpdate)).Put("/{id}", teams.HandleUpdate)
				r.With(require(policy.ResourceTeam, policy.ActionDelete)).Delete("/{id}", teams.HandleDelete)
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projects.HandleList)
				r.With(require(policy.ResourceProject, policy.ActionCreate)).Post("/", projects.HandleCreate)
				r.Get("/{id}", projects.HandleGet)
				r.Put("/{id}", projects.HandleUpdate)
				r.With(require(policy.ResourceProject, policy.ActionDelete)).Delete("/{id}", projects.HandleDelete)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", tasks.HandleList)
				r.With(require(policy.ResourceTask, policy.ActionCreate)).Post("/", tasks.HandleCreate)
				r.Get("/{id}", tasks.HandleGet)
				r.Put("/{id}", tasks.HandleUpdate)
				r.With(require(policy.ResourceTask, policy.ActionDelete)).Delete("/{id}", tasks.HandleDelete)
			})

			r.Route("/comments", func(r chi.Router) {
				r.Post("/", comments.HandleCreate)
				r.Get("/{taskID}", comments.HandleList)
			})

			r.Get("/stats/overview", stats.HandleOverview)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}
