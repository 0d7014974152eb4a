package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Config holds the connection descriptors the selector probes. An empty
// descriptor means "not configured" and the engine is skipped without a
// probe.
type Config struct {
	// DatabaseURL is the relational connection string. DatabaseDriver
	// selects the dialect ("pgx" when empty, "sqlite" for embedded files).
	DatabaseURL    string
	DatabaseDriver string

	// MongoURI and MongoDB describe the document-oriented backend.
	MongoURI string
	MongoDB  string
}

// Selector chooses exactly one engine per process, lazily, in priority
// order: relational, then document-oriented, then in-memory. A probe
// failure is logged and treated as "not available". Once bound, the same
// engine instance is reused until Close, which clears it so the next
// access re-probes.
type Selector struct {
	cfg    Config
	logger zerolog.Logger

	mu     sync.Mutex
	engine Engine
}

// NewSelector creates a selector over the given descriptors. No
// connection is attempted until the first Engine call.
func NewSelector(cfg Config, logger zerolog.Logger) *Selector {
	if cfg.DatabaseDriver == "" {
		cfg.DatabaseDriver = "pgx"
	}
	if cfg.MongoDB == "" {
		cfg.MongoDB = "docvault"
	}
	return &Selector{cfg: cfg, logger: logger}
}

// Engine returns the bound engine, probing on first use.
func (s *Selector) Engine(ctx context.Context) (Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine != nil {
		return s.engine, nil
	}

	if s.cfg.DatabaseURL != "" {
		eng, err := NewRelationalEngine(ctx, s.cfg.DatabaseDriver, s.cfg.DatabaseURL, s.logger)
		if err == nil {
			s.logger.Info().Str("engine", eng.Name()).Msg("using relational store")
			s.engine = eng
			return s.engine, nil
		}
		s.logger.Warn().Err(err).Msg("relational store unavailable, falling through")
	}

	if s.cfg.MongoURI != "" {
		eng, err := NewMongoEngine(ctx, s.cfg.MongoURI, s.cfg.MongoDB, s.logger)
		if err == nil {
			s.logger.Info().Str("engine", eng.Name()).Str("db", s.cfg.MongoDB).Msg("using document store")
			s.engine = eng
			return s.engine, nil
		}
		s.logger.Warn().Err(err).Msg("document store unavailable, falling through")
	}

	s.logger.Warn().Msg("using in-memory store: data will not survive a restart")
	s.engine = NewMemoryEngine(s.logger)
	return s.engine, nil
}

// Close releases the bound engine and resets the selector so the next
// Engine call probes again from scratch.
func (s *Selector) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return nil
	}
	err := s.engine.Close(ctx)
	s.engine = nil
	return err
}
