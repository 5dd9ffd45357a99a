package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zlormann/giveaway-linux/internal/config"
	"github.com/zlormann/giveaway-linux/internal/errors"
	"github.com/zlormann/giveaway-linux/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	layout ops.Layout
	db     *sql.DB
	cfg    *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(layout ops.Layout, db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{layout: layout, db: db, cfg: cfg}
}

// CatalogRequest represents the arguments for giveaway_catalog.
type CatalogRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// ArchiveRequest represents the arguments for giveaway_archive.
type ArchiveRequest struct {
	Date   string `json:"date,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// HandleToday handles the giveaway_today tool call.
func (h *Handlers) HandleToday(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Latest(h.layout, h.cfg)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCatalog handles the giveaway_catalog tool call.
func (h *Handlers) HandleCatalog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CatalogRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Catalog(h.layout, h.cfg, ops.CatalogInput{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleValidate handles the giveaway_validate tool call.
func (h *Handlers) HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Validate(h.layout, h.cfg)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleArchive handles the giveaway_archive tool call.
func (h *Handlers) HandleArchive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ArchiveRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if h.db == nil {
		return errorResult(errors.NewInvalidRequest("the archive is disabled")), nil
	}

	if input.Date != "" {
		record, err := ops.Fetch(ctx, h.db, ops.FetchInput{Date: input.Date})
		if err != nil {
			return errorResult(err), nil
		}
		return successResult(record)
	}

	result, err := ops.List(ctx, h.db, ops.ListInput{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if gErr, ok := errors.As(err); ok {
		errorObj := map[string]any{
			"code":    gErr.Code,
			"message": gErr.Message,
			"status":  gErr.Status,
		}
		if gErr.Code == errors.ErrInternal {
			errorObj["message"] = "an internal error occurred"
		} else if gErr.Details != nil {
			errorObj["details"] = gErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
