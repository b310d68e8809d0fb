package api

import (
	"database/sql"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/starlight-api/starlight-be/internal/api/handlers"
	mw "github.com/starlight-api/starlight-be/internal/api/middleware"
	"github.com/starlight-api/starlight-be/internal/auth"
	"github.com/starlight-api/starlight-be/internal/cache"
	"github.com/starlight-api/starlight-be/internal/config"
	"github.com/starlight-api/starlight-be/internal/oauth"
	"github.com/starlight-api/starlight-be/internal/ratelimit"
	"github.com/starlight-api/starlight-be/internal/services"
	"github.com/starlight-api/starlight-be/internal/storage"
	"github.com/starlight-api/starlight-be/internal/tasks"
)

// Deps bundles everything the router wires together.
type Deps struct {
	Config     *config.Config
	DB         *sql.DB
	Cache      *cache.Cache
	Limiter    *ratelimit.Limiter
	Tokens     *auth.TokenService
	Users      services.UserServiceProvider
	Providers  *oauth.Registry
	Storage    storage.Backend
	Dispatcher tasks.Dispatcher
}

// NewRouter creates and configures a new Chi router with the full
// middleware pipeline: security headers, correlation ids, panic
// recovery, request logging, versioning, rate limiting, CORS and
// trusted-host validation, in that wrapping order.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(mw.SecurityHeaders(d.Config.IsProduction()))
	r.Use(mw.RequestID)
	r.Use(mw.Recover)
	r.Use(mw.Logger)
	r.Use(mw.Versioning)
	r.Use(mw.RateLimit(d.Limiter, "/", "/health"))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Correlation-ID", "X-RateLimit-Remaining", "X-Process-Time"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(mw.TrustedHosts(d.Config.TrustedHosts))

	// Initialize handlers
	systemHandler := handlers.NewSystemHandler(d.Config.AppName, d.Config.AppVersion, d.Config.Environment, d.DB, d.Cache)
	authHandler := handlers.NewAuthHandler(d.Users, d.Tokens)
	oauthHandler := handlers.NewOAuthHandler(d.Providers, d.Users, d.Tokens, d.Config.FrontendURL, d.Config.IsProduction())
	userHandler := handlers.NewUserHandler(d.Users)
	uploadHandler := handlers.NewUploadHandler(d.Storage, &storage.Validator{
		MaxSize:    d.Config.MaxUploadSize,
		Extensions: d.Config.AllowedExtensions,
	}, d.Dispatcher)

	requireUser := mw.RequireUser(d.Tokens, d.Users)
	optionalUser := mw.OptionalUser(d.Tokens, d.Users)

	r.Get("/", systemHandler.Root)
	r.Get("/health", systemHandler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.With(requireUser).Get("/me", authHandler.Me)
		})

		r.Route("/oauth", func(r chi.Router) {
			r.Get("/login/{provider}", oauthHandler.Login)
			r.Get("/callback/{provider}", oauthHandler.Callback)
			r.With(requireUser).Post("/link/{provider}", oauthHandler.Link)
			r.With(requireUser).Delete("/unlink/{provider}", oauthHandler.Unlink)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(requireUser).Get("/me", userHandler.GetMe)
			r.With(requireUser).Patch("/me", userHandler.UpdateMe)
			r.Get("/stats", userHandler.Stats)
			r.With(optionalUser).Get("/{username}", userHandler.GetProfile)
		})

		r.Route("/files", func(r chi.Router) {
			r.Use(requireUser)
			r.Post("/upload", uploadHandler.Upload)
			r.Delete("/{filename}", uploadHandler.Delete)
		})
	})

	return r
}
