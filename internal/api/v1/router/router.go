package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"plandera/docs"
	"plandera/internal/api/v1/handler"
	"plandera/internal/config"
	"plandera/internal/middleware"
	"plandera/internal/plan"
	"plandera/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/swaggo/swag"
)

// Pinger reports database liveness for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	Webhooks      handler.WebhookProcessor
	Billing       handler.BillingSessions
	Sync          handler.Syncer
	Subscriptions service.SubscriptionService
	Sessions      service.SessionService
	Users         service.UserService
	Catalog       *plan.Catalog
	DB            Pinger
}

// FromContainer adapts a service container to Dependencies.
func FromContainer(c *service.Container) Dependencies {
	return Dependencies{
		Webhooks:      c.Webhooks,
		Billing:       c.Billing,
		Sync:          c.Sync,
		Subscriptions: c.Subscriptions,
		Sessions:      c.Sessions,
		Users:         c.Users,
		Catalog:       c.Catalog,
		DB:            c.Pool,
	}
}

// New builds the HTTP handler tree.
func New(cfg *config.Config, deps Dependencies, logger zerolog.Logger) http.Handler {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initialized")

	validate := validator.New(validator.WithRequiredStructEnabled())

	webhookHandler := handler.NewWebhookHandler(deps.Webhooks, logger)
	billingHandler := handler.NewBillingHandler(deps.Billing, validate, logger)
	subscriptionHandler := handler.NewSubscriptionHandler(deps.Subscriptions, deps.Sync, logger)
	sessionHandler := handler.NewSessionHandler(deps.Sessions, handler.SessionConfig{
		CookieName:     cfg.SessionCookieName,
		AppBaseURL:     cfg.AppBaseURL,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}, logger)
	userHandler := handler.NewUserHandler(deps.Users, deps.Catalog)

	authMiddleware := middleware.AuthMiddleware(deps.Sessions, cfg.SessionCookieName, logger)
	optionalAuthMiddleware := middleware.OptionalAuthMiddleware(deps.Sessions, cfg.SessionCookieName, logger)

	mux := http.NewServeMux()

	apiV1Mux := http.NewServeMux()
	webhookHandler.RegisterRoutes(apiV1Mux)
	billingHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	subscriptionHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	sessionHandler.RegisterRoutes(apiV1Mux, authMiddleware, optionalAuthMiddleware)
	userHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	apiV1Mux.HandleFunc("/healthz", healthz(deps.DB))

	// Mount the API v1 routes under /v1
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	mux.HandleFunc("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			http.Error(w, "swagger document unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	})

	// Redirect /api/* to /v1/* for backward compatibility. 308 keeps the
	// method and body of webhook and checkout POSTs.
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/")
		target := "/v1/" + rest
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusPermanentRedirect)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   corsOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(logger)(c.Handler(mux))
}

// corsOrigins allows every origin in development when none are configured.
func corsOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 && cfg.IsDevelopment() {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
