package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/liftmap/internal/analytics"
	"github.com/claude/liftmap/internal/ingest"
	"github.com/claude/liftmap/internal/storage"
	"github.com/claude/liftmap/internal/trend"
	"github.com/claude/liftmap/internal/volume"
)

// Store is the persistence the HTTP API reads. Implemented by *storage.DB.
type Store interface {
	analytics.SetSource
	UserStore
	ListExercises(ctx context.Context, userID int) ([]storage.ExerciseSummary, error)
	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	QueryImportLogs(ctx context.Context, userID, limit int) ([]storage.ImportLog, error)
}

var _ Store = (*storage.DB)(nil)

// Ingester stores one CSV export. Implemented by *alpha.Provider.
type Ingester interface {
	Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store     Store
	engine    *analytics.Engine
	alpha     Ingester
	whois     WhoIsClient
	log       *slog.Logger
	apiKey    string
	mode      volume.Mode
	trendMode trend.Mode
	now       func() time.Time
	router    chi.Router
}

// New creates a new Server with all routes configured.
func New(store Store, engine *analytics.Engine, alphaProvider Ingester, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		store:     store,
		engine:    engine,
		alpha:     alphaProvider,
		log:       log,
		apiKey:    apiKey,
		mode:      volume.ModeMuscle,
		trendMode: trend.ModeStable,
		now:       time.Now,
		router:    chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale switches request identity from the local dev user to the
// tailnet user behind each connection.
// clock returns the current time settled to the engine's resolution, so
// windows ending now are stable within a minute.
func (s *Server) clock() time.Time {
	return s.engine.Settle(s.now())
}

func (s *Server) SetTailscale(lc WhoIsClient) {
	s.whois = lc
}

// SetDefaults sets the view and trend modes used when a request names none.
func (s *Server) SetDefaults(mode volume.Mode, trendMode trend.Mode) {
	s.mode = mode
	s.trendMode = trendMode
}

// MountMCP serves an MCP transport under /mcp behind the identity middleware.
func (s *Server) MountMCP(h http.Handler) {
	s.router.With(s.identity).Handle("/mcp", h)
	s.router.With(s.identity).Handle("/mcp/*", h)
}

func (s *Server) identity(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.whois == nil {
			dev.ServeHTTP(w, r)
			return
		}
		TailscaleIdentity(s.whois, s.store, s.log)(next).ServeHTTP(w, r)
	})
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identity)

		// Ingest and cache control (API key required)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/ingest/alpha", s.handleAlphaIngest)
			r.Post("/cache/clear", s.handleClearCache)
		})

		// Dashboard API endpoints (no API key, tsnet handles access)
		r.Get("/me", s.handleMe)
		r.Get("/stats", s.handleStats)
		r.Get("/imports", s.handleImportLogs)
		r.Get("/cache", s.handleCacheStats)
		r.Get("/muscles", s.handleMuscleGroups)

		r.Get("/heatmap", s.handleHeatmap)
		r.Get("/heatmap/rows", s.handleHeatmapRows)
		r.Get("/heatmap/exercise", s.handleExerciseHeatmap)

		r.Get("/rates/weekly", s.handleWeeklyRate)
		r.Get("/rates/delta", s.handleDelta)
		r.Get("/rates/series", s.handleSeries)

		r.Get("/exercises", s.handleExercises)
		r.Get("/exercises/{name}/history", s.handleHistory)
		r.Get("/exercises/{name}/trend", s.handleTrend)
		r.Get("/trends", s.handleTrends)
	})
}
