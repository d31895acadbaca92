package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/melosys/skjema-api/internal/arkiv"
	"github.com/melosys/skjema-api/internal/registry"
	"github.com/melosys/skjema-api/internal/skjema/events"
	"github.com/melosys/skjema-api/internal/skjema/handler"
	"github.com/melosys/skjema-api/internal/skjema/repository"
	"github.com/melosys/skjema-api/internal/skjema/service"
	"github.com/melosys/skjema-api/internal/skjema/validation"
	"github.com/melosys/skjema-api/internal/vedlegg"
	"github.com/melosys/skjema-api/pkg/config"
	"github.com/melosys/skjema-api/pkg/database"
	"github.com/melosys/skjema-api/pkg/httputil"
	"github.com/melosys/skjema-api/pkg/i18n"
	"github.com/melosys/skjema-api/pkg/logger"
	"github.com/melosys/skjema-api/pkg/messaging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("skjema-api", cfg.Server.Environment)
	log.Info().Msg("starting skjema-api")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publisher
	publisher, err := events.NewSkjemaEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Initialize repositories
	skjemaRepo := repository.NewSkjemaRepository(db)
	vedleggRepo := repository.NewVedleggRepository(db)

	// Initialize external clients
	eregClient := registry.NewEregClient(cfg.Integrations.EregURL, log)
	pdlClient := registry.NewPdlClient(cfg.Integrations.PdlURL, log)
	arkivClient := arkiv.NewClient(cfg.Integrations.ArkivURL, log)
	skanner := vedlegg.NewClamAVClient(cfg.Integrations.ClamAVURL, log)
	lager := vedlegg.NewMinneLager()

	// Initialize validators
	skjemaValidator := validation.NewSkjemaValidator(eregClient)

	// Initialize services
	innsendingService := service.NewInnsendingService(skjemaRepo, arkivClient, publisher, cfg.Innsending, log)
	skjemaService := service.NewSkjemaService(skjemaRepo, skjemaValidator, innsendingService, log)
	vedleggService := service.NewVedleggService(skjemaRepo, vedleggRepo, skanner, lager, publisher, cfg.Vedlegg, log)

	// Start the retry scheduler for stuck submissions
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := service.NewRetryScheduler(skjemaRepo, innsendingService, cfg.Innsending, log)
	scheduler.Start(ctx)

	// Initialize handlers
	skjemaHandler := handler.NewSkjemaHandler(skjemaService, log)
	vedleggHandler := handler.NewVedleggHandler(vedleggService, cfg.Vedlegg, log)
	oppslagHandler := handler.NewOppslagHandler(pdlClient, eregClient, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*.nav.no", "http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "Accept-Language"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// i18n middleware - extract locale from Accept-Language header
	r.Use(i18n.Middleware)

	// Health check (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "skjema-api",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes (bearer token required)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httputil.Authenticator(&cfg.Auth))

		r.Route("/skjema", func(r chi.Router) {
			r.Get("/", skjemaHandler.List)
			r.Post("/", skjemaHandler.Opprett)
			r.Get("/{id}", skjemaHandler.Hent)
			r.Put("/{id}", skjemaHandler.Oppdater)
			r.Post("/{id}/innsending", skjemaHandler.SendInn)

			r.Route("/{id}/vedlegg", func(r chi.Router) {
				r.Get("/", vedleggHandler.List)
				r.Post("/", vedleggHandler.LastOpp)
				r.Get("/{vedleggId}", vedleggHandler.LastNed)
				r.Delete("/{vedleggId}", vedleggHandler.Slett)
			})
		})

		// Registry lookups
		r.Post("/personer/verifiser", oppslagHandler.VerifiserPerson)
		r.Post("/validering/organisasjonsnummer", oppslagHandler.ValiderOrganisasjonsnummer)

		// Machine-to-machine read access for case processing systems
		r.Route("/m2m", func(r chi.Router) {
			r.Use(httputil.RequireM2MClient(cfg.Auth.M2MClients))
			r.Get("/skjema/{id}", skjemaHandler.HentForSaksbehandling)
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Cancel context to stop the retry scheduler
	cancel()
	scheduler.Stop()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
