package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("AcePerf", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("AcePerf training tracker. Read today's plan, the monthly schedule, the routine library, the workout log and progress series (lifts, throwing velocity, bodyweight)."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetToday, Handler: h.getToday},
		server.ServerTool{Tool: toolListRoutines, Handler: h.listRoutines},
		server.ServerTool{Tool: toolGetRoutine, Handler: h.getRoutine},
		server.ServerTool{Tool: toolGetSchedule, Handler: h.getSchedule},
		server.ServerTool{Tool: toolGetWorkoutLog, Handler: h.getWorkoutLog},
		server.ServerTool{Tool: toolGetProgressSeries, Handler: h.getProgressSeries},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resToday, Handler: h.today},
		server.ServerResource{Resource: resRoutineLibrary, Handler: h.routineLibrary},
		server.ServerResource{Resource: resProgressSummary, Handler: h.progressSummary},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resToday = mcp.NewResource(
	"aceperf://today",
	"Today",
	mcp.WithResourceDescription("Today's throwing and lifting routines with their exercises"),
	mcp.WithMIMEType("application/json"),
)

var resRoutineLibrary = mcp.NewResource(
	"aceperf://routine_library",
	"Routine Library",
	mcp.WithResourceDescription("Every saved routine with its category and ordered exercises"),
	mcp.WithMIMEType("application/json"),
)

var resProgressSummary = mcp.NewResource(
	"aceperf://progress_summary",
	"Progress Summary",
	mcp.WithResourceDescription("Top throwing velocity, current bodyweight and number of lift sets logged"),
	mcp.WithMIMEType("application/json"),
)
