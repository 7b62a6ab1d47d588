package api

import (
	"net/http"

	"newsletter_server/api/admin"
	"newsletter_server/api/health"
	"newsletter_server/api/middleware"
	"newsletter_server/api/newsletter"
	"newsletter_server/config"
	"newsletter_server/services"
	"newsletter_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
	chiware "github.com/go-chi/chi/v5/middleware"
)

// Dependencies are the collaborators the HTTP layer needs. HealthService and
// RateCounter may be nil.
type Dependencies struct {
	Config        *structs.Config
	Newsletter    *services.NewsletterService
	HealthService *services.HealthService
	RateCounter   middleware.RateCounter
}

// App builds the router from the running service manager.
func App(cfg *structs.Config, sm *services.ServiceManager) chi.Router {
	return NewRouter(Dependencies{
		Config:        cfg,
		Newsletter:    sm.NewsletterService,
		HealthService: sm.HealthService,
		RateCounter:   sm.CacheService,
	})
}

func NewRouter(deps Dependencies) chi.Router {
	r := chi.NewRouter()

	// create loggers
	logLevel := gecho.ParseLogLevel(config.GetLogLevel())
	mwLogger := gecho.NewLogger(gecho.NewConfig(gecho.WithShowCaller(false), gecho.WithLogLevel(logLevel)))
	standardLogger := gecho.NewLogger(gecho.NewConfig(gecho.WithShowCaller(true), gecho.WithLogLevel(logLevel)))

	cfg := deps.Config

	// Initialize middleware
	mw := middleware.NewMiddleware(cfg, mwLogger, deps.RateCounter)

	// Core infra
	r.Use(chiware.RequestID)
	r.Use(mw.RealIP())
	r.Use(chiware.Recoverer)

	// Limits & security
	r.Use(mw.BodyLimit(1 * 1024 * 1024))
	r.Use(mw.SecurityHeaders())

	// Observability
	r.Use(gecho.Handlers.CreateLoggingMiddleware(mwLogger))
	r.Use(middleware.MetricsMiddleware)

	r.Use(mw.SetupCORS().Handler)

	var healthRoutes *health.HealthRoutesManager
	if deps.HealthService != nil {
		healthRoutes = health.NewHealthRoutesManager(deps.HealthService)
	}

	// Register all routes
	NewRouterManager(
		healthRoutes,
		newsletter.NewNewsletterRoutesManager(standardLogger, deps.Newsletter, mw),
		admin.NewAdminRoutesManager(standardLogger, deps.Newsletter, mw),
	).RegisterRoutes(r)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		gecho.Success(w,
			gecho.WithMessage("Welcome to the "+cfg.Server.AppName+" API"),
			gecho.Send(),
		)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		gecho.NotFound(w,
			gecho.Send(),
		)
	})

	return r
}
