package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pastedown/internal/config"
	pasteSvc "pastedown/internal/domain/services/paste"
	"pastedown/internal/handler"
	"pastedown/internal/identity"
	"pastedown/internal/middleware"
	"pastedown/internal/repository"
	"pastedown/internal/service/auth"
	"pastedown/internal/service/converter"
	"pastedown/internal/service/paste"
	"pastedown/internal/service/render"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"storage", cfg.StorageDriver,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer storage.Close()

	if err := storage.Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}

	directory, err := identity.LoadDirectory(cfg.IdentityFile, logger)
	if err != nil {
		log.Fatalf("Failed to load identity directory: %v", err)
	}

	// Tickets: locally signed when a secret is configured, otherwise
	// verified against the identity provider's JWKS
	var verifier pasteSvc.TicketVerifier
	var issuer pasteSvc.TicketIssuer
	switch {
	case cfg.TicketSecret != "":
		tickets, err := identity.NewHMACTickets(cfg.TicketSecret, logger)
		if err != nil {
			log.Fatalf("Failed to create ticket signer: %v", err)
		}
		verifier, issuer = tickets, tickets
	case cfg.IdentityJWKSURL != "":
		jwks, err := identity.NewJWKSVerifier(cfg.IdentityJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWKS verifier: %v", err)
		}
		verifier = jwks
	default:
		logger.Warn("no ticket secret or JWKS URL configured, all requests are anonymous")
	}
	if verifier != nil {
		defer verifier.Close()
	}

	renderer := render.NewMarkdownRenderer()
	converters := converter.NewRegistry()
	pastes := paste.NewService(
		storage.Documents,
		storage.Revisions,
		storage.Transactions,
		renderer,
		logger,
	)

	pasteHandler := handler.NewPasteHandler(pastes, converters, directory, auth.NewOwnerAuthorizer(), logger)

	// Debug handlers (DEBUG=true, the default outside prod)
	var ticketHandler *handler.TicketHandler
	if cfg.Debug && issuer != nil {
		ticketHandler = handler.NewTicketHandler(directory, issuer, cfg.TicketTTL, logger)
		logger.Warn("Debug route registered: POST /debug/api/tickets (issues tickets without a password, NEVER use in production!)")
	}

	logger.Info("services initialized")

	mux := http.NewServeMux()
	handler.Register(mux, pasteHandler, ticketHandler)

	// Order: CORS → Recovery → Auth → Routes
	var h http.Handler = mux
	if verifier != nil {
		h = middleware.Auth(verifier, directory, logger)(h)
	}
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
	logger.Info("server stopped")
}
