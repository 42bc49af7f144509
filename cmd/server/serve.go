package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdg-garage/event-tickets/internal/admin"
	"github.com/gdg-garage/event-tickets/internal/auth"
	"github.com/gdg-garage/event-tickets/internal/database"
	"github.com/gdg-garage/event-tickets/internal/events"
	"github.com/gdg-garage/event-tickets/internal/handlers"
	"github.com/gdg-garage/event-tickets/internal/inventory"
	"github.com/gdg-garage/event-tickets/internal/logging"
	"github.com/gdg-garage/event-tickets/internal/notifier"
	"github.com/gdg-garage/event-tickets/internal/registration"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE:  runServe,
}

func caps() inventory.Caps {
	return inventory.Caps{VIP: cfg.VIPCapacity, Regular: cfg.RegularCapacity}
}

func newEmail() *notifier.Email {
	return notifier.NewEmail(notifier.EmailConfig{
		APIKey:     cfg.ResendAPIKey,
		BaseURL:    cfg.EmailAPIURL,
		From:       cfg.EmailFrom,
		EventTitle: cfg.EventTitle,
	})
}

func newAdminService(db *gorm.DB) *admin.Service {
	return admin.NewService(db, caps(), newEmail(), admin.Options{
		EventTitle: cfg.EventTitle,
		EventDate:  cfg.EventDate,
	}, logging.Component(log, "admin"))
}

func newPublisher() events.Publisher {
	if cfg.AMQPURL == "" {
		return events.Nop{}
	}
	pub, err := events.NewRabbit(cfg.AMQPURL, cfg.AMQPExchange, logging.Component(log, "events"))
	if err != nil {
		log.Warn().Err(err).Msg("registration events disabled")
		return events.Nop{}
	}
	return pub
}

func newStaffNotifier() notifier.StaffNotifier {
	if cfg.DiscordBotToken == "" || cfg.DiscordNotificationsChannelID == "" {
		return nil
	}
	session, err := notifier.NewDiscordSession(cfg.DiscordBotToken)
	if err != nil {
		log.Warn().Err(err).Msg("discord notifier not initialized")
		return nil
	}
	return notifier.NewDiscordNotifier(session, cfg.DiscordNotificationsChannelID)
}

func runServe(cmd *cobra.Command, args []string) error {
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}

	if !cfg.EmailConfigured() {
		log.Warn().Msg("RESEND_API_KEY is not set, reminder emails are disabled")
	}
	switch {
	case cfg.JWTSecret == "" && cfg.AdminAPIKey == "":
		log.Warn().Msg("neither JWT_SECRET nor ADMIN_API_KEY is set, admin routes reject every request")
	case cfg.JWTSecret == "":
		log.Warn().Msg("JWT_SECRET is not set, organiser login is disabled and only X-API-KEY is accepted")
	}

	publisher := newPublisher()
	defer publisher.Close()

	opts := []registration.Option{registration.WithPublisher(publisher)}
	if staff := newStaffNotifier(); staff != nil {
		opts = append(opts, registration.WithStaffNotifier(staff))
	}

	regSvc := registration.NewService(db, caps(), logging.Component(log, "registration"), opts...)
	reader := inventory.NewReader(db, caps())

	httpLog := logging.Component(log, "http")
	authHandler := auth.NewAuthHandler(cfg, logging.Component(log, "auth"))
	registrationHandler := handlers.NewRegistrationHandler(regSvc, reader, httpLog)
	adminHandler := handlers.NewAdminHandler(newAdminService(db), httpLog)
	reminderHandler := handlers.NewReminderHandler(newEmail(), httpLog)

	r := chi.NewRouter()
	handlers.RegisterRoutes(r, httpLog, handlers.RouteOptions{
		EnableCORS:     cfg.EnableCORS,
		AllowedOrigins: allowedOrigins(cfg.FrontendURL),
	}, authHandler, registrationHandler, adminHandler, reminderHandler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// allowedOrigins reduces the frontend URL to its origin. It returns nil
// when no absolute URL is configured.
func allowedOrigins(frontendURL string) []string {
	u, err := url.Parse(frontendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	return []string{u.Scheme + "://" + u.Host}
}
