package mcp

import (
	"database/sql"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/zlormann/giveaway-linux/internal/config"
	"github.com/zlormann/giveaway-linux/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"giveaway_today": {
		def:     todayToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleToday },
	},
	"giveaway_catalog": {
		def:     catalogToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCatalog },
	},
	"giveaway_validate": {
		def:     validateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleValidate },
	},
	"giveaway_archive": {
		def:     archiveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleArchive },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with the giveaway tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
// db may be nil, in which case giveaway_archive reports the archive as disabled.
func NewServer(layout ops.Layout, db *sql.DB, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"giveaway",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(layout, db, cfg)

	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(layout ops.Layout, db *sql.DB, cfg *config.Config, version string) error {
	s := NewServer(layout, db, cfg, version)
	return server.ServeStdio(s)
}
