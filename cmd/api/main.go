// Package main implements the HTTP API server for docvault.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	apihttp "github.com/dsjohal14/docvault/internal/http"
	"github.com/dsjohal14/docvault/internal/libs/config"
	"github.com/dsjohal14/docvault/internal/libs/obs"
	"github.com/dsjohal14/docvault/internal/scope/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Init logger
	obs.InitLogger(cfg.LogLevel)
	logger := obs.Logger("api")

	// The store binds an engine lazily; force selection now so a
	// misconfigured deployment falls back (and logs why) at startup
	// rather than on the first request.
	st := store.New(store.Config{
		DatabaseURL:    cfg.DatabaseURL,
		DatabaseDriver: cfg.DatabaseDriver,
		MongoURI:       cfg.MongoURI,
		MongoDB:        cfg.MongoDBName,
	}, obs.Logger("store"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	engine, err := st.EngineName(ctx)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to bind a storage engine")
	}
	defer func() { _ = st.Close(context.Background()) }()

	logger.Info().Str("engine", engine).Msg("storage engine bound")

	// Create HTTP handler
	handler := apihttp.NewHandler(st, logger)

	// Setup router
	r := setupRouter(handler)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	logger.Info().Str("addr", addr).Msg("starting API server")

	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func setupRouter(h *apihttp.Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// Routes
	r.Get("/health", h.HandleHealth)
	r.Route("/api/db", func(r chi.Router) {
		r.Get("/collections", h.HandleCollections)
		r.Post("/documents", h.HandleCreateDocument)
		r.Get("/documents/{collection}", h.HandleListDocuments)
		r.Get("/documents/{collection}/count", h.HandleCountDocuments)
		r.Get("/documents/{collection}/{id}", h.HandleGetDocument)
		r.Patch("/documents/{collection}/{id}", h.HandleUpdateDocument)
		r.Delete("/documents/{collection}/{id}", h.HandleDeleteDocument)
	})

	return r
}
