// Package server assembles the HTTP surface: the gin run API mounted inside
// the chi report viewer, backed by the optional run store.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"wiastat/adapters/store"
	"wiastat/app"
	"wiastat/internal/api"
	"wiastat/internal/config"
	"wiastat/internal/errors"
	"wiastat/ports"
	"wiastat/ui"
)

const shutdownTimeout = 10 * time.Second

// Server owns the listening HTTP server and the database it reads from.
type Server struct {
	http   *http.Server
	db     *sqlx.DB
	logger *zap.Logger
}

// New opens the run store when DATABASE_URL is configured and builds the
// handler tree. Without a database, runs are computed but not kept.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		db   *sqlx.DB
		runs ports.RunRepository
	)
	if cfg.Database.URL != "" {
		var err error
		db, err = store.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open run store")
		}
		runs = store.NewRunRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set, runs will not be persisted")
	}

	analysis := cfg.Analysis
	// A server never prompts, so every missing diameter falls back to velocity.
	analysis.SkipDiameters = true
	factory := func() (*app.AnalysisService, error) {
		return app.NewAnalysisService(app.Options{Config: analysis, Logger: logger})
	}

	handler := api.NewRunsHandler(factory, runs, logger)
	viewer, err := ui.NewApp(ui.Config{
		Runs:   runs,
		Alpha:  analysis.Alpha,
		API:    api.NewRouter(handler, cfg.Server.GinMode),
		Logger: logger,
	})
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, errors.Wrap(err, "failed to build report viewer")
	}

	return &Server{
		http: &http.Server{
			Addr:              ":" + cfg.Server.Port,
			Handler:           viewer,
			ReadHeaderTimeout: 10 * time.Second,
		},
		db:     db,
		logger: logger.Named("server"),
	}, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Run serves until ctx is cancelled, then shuts down gracefully and closes
// the database.
func (s *Server) Run(ctx context.Context) error {
	defer s.close()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "server failed")
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "graceful shutdown failed")
	}
	return nil
}

func (s *Server) close() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Warn("failed to close database", zap.Error(err))
		}
	}
}
