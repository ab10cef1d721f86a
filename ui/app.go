// Package ui serves a read-only HTML viewer for persisted analysis runs.
package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"wiastat/domain/core"
	"wiastat/ports"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// App represents the UI application
type App struct {
	router    *chi.Mux
	runs      ports.RunRepository
	alpha     float64
	templates *template.Template
	logger    *zap.Logger
}

// Config holds UI application configuration
type Config struct {
	Runs  ports.RunRepository
	Alpha float64
	// API, when set, is mounted under /api.
	API    http.Handler
	Logger *zap.Logger
}

// NewApp creates a new UI application
func NewApp(config Config) (*App, error) {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	funcMap := template.FuncMap{
		"formatTime": func(t core.Timestamp) string {
			return t.Time().Format(time.RFC1123)
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	app := &App{
		router:    chi.NewRouter(),
		runs:      config.Runs,
		alpha:     config.Alpha,
		templates: templates,
		logger:    logger.Named("ui"),
	}

	app.setupMiddleware()
	app.setupRoutes(config.API)

	return app, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(a.requestLogger)
	a.router.Use(middleware.Recoverer)
}

// setupRoutes configures the application routes
func (a *App) setupRoutes(api http.Handler) {
	a.router.Get("/", a.handleRuns)
	a.router.Get("/runs/{id}", a.handleRun)
	a.router.Get("/runs/{id}/report.xlsx", a.handleWorkbook)

	if api != nil {
		a.router.Mount("/api", api)
	}
}

func (a *App) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// ServeHTTP implements http.Handler
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}
