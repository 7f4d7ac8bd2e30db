package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/makindu-artifacts/storefront/internal/cart"
	"github.com/makindu-artifacts/storefront/internal/catalog"
	"github.com/makindu-artifacts/storefront/internal/config"
	"github.com/makindu-artifacts/storefront/internal/docstore"
	"github.com/makindu-artifacts/storefront/internal/docstore/postgres"
	"github.com/makindu-artifacts/storefront/internal/handler"
	"github.com/makindu-artifacts/storefront/internal/identity"
	"github.com/makindu-artifacts/storefront/internal/transport"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "storefront").Logger()

	log.Info().Msg("Makindu artifact storefront starting...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	log.Debug().Str("tenant_id", cfg.TenantID).Str("port", cfg.Port).Bool("cart_mirror", cfg.CartMirror).Msg("Configuration loaded")

	ctx := context.Background()

	var store docstore.Store
	if cfg.PostgresDSN != "" {
		pgStore, err := postgres.Connect(ctx, cfg.PostgresDSN, "migrations")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to document store")
		}
		defer pgStore.Close()
		store = pgStore
	} else {
		log.Info().Msg("STORE_DSN not set, running against the in-memory document store")
		store = docstore.NewMemory()
	}

	session := identity.NewSession(identity.NewStaticProvider())
	if err := session.Start(ctx, cfg.Store, cfg.AuthToken); err != nil {
		// Invalid configuration: session stays Failed and the catalog
		// surface reports it persistently. /health and /session still serve.
		log.Error().Err(err).Msg("Identity session failed to start")
	}
	defer session.Stop()

	var view *catalog.View
	if session.Ready() {
		sub, err := catalog.NewMirror(store).Subscribe(ctx, cfg.TenantID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to subscribe to artifact catalog")
		}
		view = catalog.NewView(sub)
		defer view.Stop()
	}

	userCart := cart.New()
	var mirror *cart.RemoteMirror
	if cfg.CartMirror && session.Ready() && session.ID() != identity.UnauthenticatedID {
		mirror = cart.NewRemoteMirror(userCart, store, cfg.TenantID, session.ID())
		log.Info().Str("user_id", session.ID()).Msg("Remote cart mirroring enabled")
	}

	admin := catalog.NewAdmin(store, cfg.TenantID, session)

	var catalogView handler.CatalogView
	if view != nil {
		catalogView = view
	}
	router := transport.NewRouter(
		handler.NewCatalogHandler(catalogView, admin),
		handler.NewCartHandler(userCart, mirror),
		handler.NewSessionHandler(session),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
