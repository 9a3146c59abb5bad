package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/liftmap/internal/trend"
	"github.com/claude/liftmap/internal/volume"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered. mode and
// trendMode apply when a tool call names none.
func New(ds DataSource, version string, mode volume.Mode, trendMode trend.Mode, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("liftmap", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("liftmap strength training analytics. Query per-muscle working-set volume, weekly set rates, period comparisons and per-exercise progression trends. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log, mode: mode, trendMode: trendMode}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetMuscleHeatmap, Handler: h.getMuscleHeatmap},
		server.ServerTool{Tool: toolGetWeeklyRate, Handler: h.getWeeklyRate},
		server.ServerTool{Tool: toolComparePeriods, Handler: h.comparePeriods},
		server.ServerTool{Tool: toolGetExerciseTrend, Handler: h.getExerciseTrend},
		server.ServerTool{Tool: toolListExerciseTrends, Handler: h.listExerciseTrends},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resMuscleGroups, Handler: h.muscleGroups},
		server.ServerResource{Resource: resWeeklyVolume, Handler: h.weeklyVolume},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds        DataSource
	log       *slog.Logger
	mode      volume.Mode
	trendMode trend.Mode
}

// --- Resource definitions ---

var resMuscleGroups = mcp.NewResource(
	"liftmap://muscle_groups",
	"Muscle Groups",
	mcp.WithResourceDescription("Every muscle group with its body parts; standalone parts are listed under the empty group name"),
	mcp.WithMIMEType("application/json"),
)

var resWeeklyVolume = mcp.NewResource(
	"liftmap://weekly_volume",
	"Weekly Volume",
	mcp.WithResourceDescription("Working-set volume per muscle group over the last 7 days"),
	mcp.WithMIMEType("application/json"),
)
