package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/gdg-garage/event-tickets/internal/auth"
	"github.com/gdg-garage/event-tickets/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

type RouteOptions struct {
	EnableCORS     bool
	AllowedOrigins []string
}

func RegisterRoutes(
	r *chi.Mux,
	log zerolog.Logger,
	opts RouteOptions,
	authHandler *auth.AuthHandler,
	registrationHandler *RegistrationHandler,
	adminHandler *AdminHandler,
	reminderHandler *ReminderHandler,
) huma.API {
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(log))
	r.Use(middleware.Recoverer)
	// Credentialed CORS needs explicit origins.
	if opts.EnableCORS && len(opts.AllowedOrigins) == 0 {
		log.Warn().Msg("ENABLE_CORS is set without a FRONTEND_URL origin, CORS stays off")
	}
	if opts.EnableCORS && len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", "X-API-KEY"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	config := huma.DefaultConfig("Event Tickets API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: auth.TokenCookie,
		},
		"apiKey": {
			Type: "apiKey",
			In:   "header",
			Name: "X-API-KEY",
		},
	}
	api := humachi.New(r, config)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Get("/auth/discord/login", authHandler.HandleLogin)
	r.Get("/auth/discord/callback", authHandler.HandleCallback)

	huma.Get(api, "/tickets", registrationHandler.HandleTickets)
	huma.Post(api, "/registrations", registrationHandler.HandleRegister, func(o *huma.Operation) {
		o.DefaultStatus = http.StatusCreated
	})
	huma.Get(api, "/me", authHandler.HandleMe, func(o *huma.Operation) {
		o.Security = []map[string][]string{{"cookieAuth": {}}}
	})

	// Organiser routes
	protected := func(o *huma.Operation) {
		o.Security = []map[string][]string{{"cookieAuth": {}}, {"apiKey": {}}}
		o.Middlewares = append(o.Middlewares, requireOrganiser(authHandler))
	}
	huma.Get(api, "/admin/registrations", adminHandler.HandleList, protected)
	huma.Delete(api, "/admin/registrations/{id}", adminHandler.HandleDelete, protected)
	huma.Get(api, "/admin/registrations/{id}/preview", adminHandler.HandlePreview, protected)
	huma.Get(api, "/admin/registrations/{id}/sending", adminHandler.HandleSending, protected)
	huma.Post(api, "/admin/registrations/{id}/notify", adminHandler.HandleNotify, protected)
	huma.Post(api, "/send-reminder", reminderHandler.HandleEventReminder, protected)
	huma.Post(api, "/send-payment-reminder", reminderHandler.HandlePaymentReminder, protected)

	return api
}

// requireOrganiser runs the auth middleware in front of a huma operation.
func requireOrganiser(authHandler *auth.AuthHandler) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		req, w := humachi.Unwrap(ctx)
		authHandler.AuthMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			next(huma.WithContext(ctx, r.Context()))
		})).ServeHTTP(w, req)
	}
}
