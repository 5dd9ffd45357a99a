package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zlormann/giveaway-linux/internal/config"
	"github.com/zlormann/giveaway-linux/internal/db"
	"github.com/zlormann/giveaway-linux/internal/errors"
	"github.com/zlormann/giveaway-linux/internal/giveaway"
	"github.com/zlormann/giveaway-linux/internal/ops"
)

const testSoftware = `[
  {"id": "gimp", "name": "GIMP", "url": "https://www.gimp.org/"},
  {"id": "krita", "name": "Krita", "url": "https://krita.org/"}
]`

const testGames = `[
  {"id": "0ad", "name": "0 A.D.", "url": "https://play0ad.com/"}
]`

// testSetup creates a project with reference lists, a pick, a catalog and an archive.
func testSetup(t *testing.T) (*Handlers, ops.Layout, *config.Config) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.SiteURL = "https://example.org/"
	layout := ops.NewLayout(t.TempDir(), cfg)

	writeFile(t, layout.SoftwarePath(), testSoftware)
	writeFile(t, layout.GamesPath(), testGames)
	writeFile(t, layout.PicksPath(), `{"date": "2024-01-02", "software_id": "krita", "game_id": "0ad", "generated_at": "2024-01-02T12:30:00Z"}`)
	writeFile(t, layout.CatalogPath(), `[
  {"date": "2024-01-02", "software_id": "krita", "game_id": "0ad", "generated_at": "2024-01-02T12:30:00Z"},
  {"date": "2024-01-01", "software_id": "gimp", "game_id": "missing", "generated_at": "2024-01-01T12:30:00Z"}
]`)

	database, err := db.Init(layout.ArchiveDB)
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	entries := []giveaway.CatalogEntry{
		{Date: "2024-01-01", SoftwareID: "gimp", GameID: "missing"},
		{Date: "2024-01-02", SoftwareID: "krita", GameID: "0ad"},
	}
	if _, err := ops.Record(context.Background(), database, entries, time.Unix(1700000000, 0)); err != nil {
		t.Fatalf("failed to seed archive: %v", err)
	}

	return NewHandlers(layout, database, cfg), layout, cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestHandleToday(t *testing.T) {
	h, _, _ := testSetup(t)

	result, err := h.HandleToday(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("HandleToday returned error: %v", err)
	}

	var output ops.LatestOutput
	decodeOutput(t, result, &output)
	if output.Pick.Date != "2024-01-02" {
		t.Errorf("date = %q", output.Pick.Date)
	}
	if output.Pick.Software.Name != "Krita" || output.Pick.Game.Name != "0 A.D." {
		t.Errorf("pick = %+v", output.Pick)
	}
	if output.Pick.Link != "https://example.org/#2024-01-02" {
		t.Errorf("link = %q", output.Pick.Link)
	}
}

func TestHandleToday_NoPick(t *testing.T) {
	h, layout, _ := testSetup(t)
	if err := os.Remove(layout.PicksPath()); err != nil {
		t.Fatal(err)
	}

	result, _ := h.HandleToday(context.Background(), makeRequest(nil))
	assertErrorCode(t, result, "FILE_NOT_FOUND")
}

func TestHandleCatalog(t *testing.T) {
	h, _, cfg := testSetup(t)

	tests := []struct {
		name      string
		args      map[string]any
		wantDates []string
		wantMore  bool
	}{
		{"defaults", nil, []string{"2024-01-02", "2024-01-01"}, false},
		{"first page", map[string]any{"limit": 1}, []string{"2024-01-02"}, true},
		{"second page", map[string]any{"limit": 1, "offset": 1}, []string{"2024-01-01"}, false},
		{"past the end", map[string]any{"offset": 5}, []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleCatalog(context.Background(), makeRequest(tt.args))
			if err != nil {
				t.Fatalf("HandleCatalog returned error: %v", err)
			}

			var output ops.CatalogOutput
			decodeOutput(t, result, &output)
			if len(output.Items) != len(tt.wantDates) {
				t.Fatalf("got %d items, want %d", len(output.Items), len(tt.wantDates))
			}
			for i, date := range tt.wantDates {
				if output.Items[i].Date != date {
					t.Errorf("items[%d].date = %q, want %q", i, output.Items[i].Date, date)
				}
			}
			if output.Pagination.HasMore != tt.wantMore {
				t.Errorf("has_more = %v, want %v", output.Pagination.HasMore, tt.wantMore)
			}
		})
	}

	// The unknown game id falls back to the placeholder
	result, _ := h.HandleCatalog(context.Background(), makeRequest(map[string]any{"offset": 1}))
	var output ops.CatalogOutput
	decodeOutput(t, result, &output)
	if output.Items[0].Game.Name != cfg.GamePlaceholder || output.Items[0].Game.Found {
		t.Errorf("game = %+v, want placeholder", output.Items[0].Game)
	}
}

func TestHandleCatalog_BadArguments(t *testing.T) {
	h, _, _ := testSetup(t)

	result, _ := h.HandleCatalog(context.Background(), makeRequest(map[string]any{"limit": "ten"}))
	assertErrorCode(t, result, "INVALID_REQUEST")

	result, _ = h.HandleCatalog(context.Background(), makeRequest(map[string]any{"page": 2}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleValidate(t *testing.T) {
	h, layout, _ := testSetup(t)

	result, err := h.HandleValidate(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("HandleValidate returned error: %v", err)
	}
	var output ops.ValidateOutput
	decodeOutput(t, result, &output)
	if !output.OK || len(output.Files) != 4 {
		t.Errorf("output = %+v", output)
	}

	// A software entry without url is reported with its index and field
	writeFile(t, layout.SoftwarePath(), `[{"id": "gimp", "name": "GIMP", "url": "https://www.gimp.org/"}, {"id": "krita", "name": "Krita"}]`)
	result, _ = h.HandleValidate(context.Background(), makeRequest(nil))
	assertErrorCode(t, result, "SCHEMA_VIOLATION")

	payload := errorPayload(t, result)
	details, ok := payload["details"].(map[string]any)
	if !ok {
		t.Fatalf("expected details, got %v", payload)
	}
	if details["file"] != "software.json" || details["index"] != float64(1) || details["field"] != "url" {
		t.Errorf("details = %v", details)
	}
}

func TestHandleArchive(t *testing.T) {
	h, _, _ := testSetup(t)
	ctx := context.Background()

	result, err := h.HandleArchive(ctx, makeRequest(map[string]any{"date": "2024-01-01"}))
	if err != nil {
		t.Fatalf("HandleArchive returned error: %v", err)
	}
	var record db.Record
	decodeOutput(t, result, &record)
	if record.SoftwareID != "gimp" || record.ID == "" {
		t.Errorf("record = %+v", record)
	}

	result, _ = h.HandleArchive(ctx, makeRequest(nil))
	var list ops.ListOutput
	decodeOutput(t, result, &list)
	if len(list.Items) != 2 || list.Items[0].Date != "2024-01-02" {
		t.Errorf("list = %+v", list.Items)
	}
	if list.Pagination.Total != 2 {
		t.Errorf("total = %d", list.Pagination.Total)
	}

	result, _ = h.HandleArchive(ctx, makeRequest(map[string]any{"date": "2023-12-31"}))
	assertErrorCode(t, result, "NOT_FOUND")

	result, _ = h.HandleArchive(ctx, makeRequest(map[string]any{"date": "yesterday"}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleArchive_Disabled(t *testing.T) {
	_, layout, cfg := testSetup(t)
	h := NewHandlers(layout, nil, cfg)

	result, _ := h.HandleArchive(context.Background(), makeRequest(nil))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestServerRegistration(t *testing.T) {
	h, layout, cfg := testSetup(t)

	s := NewServer(layout, h.db, cfg, "test")
	tools := s.ListTools()

	expectedTools := []string{"giveaway_today", "giveaway_catalog", "giveaway_validate", "giveaway_archive"}
	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}
	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	_, layout, cfg := testSetup(t)

	cfg.DisabledTools = []string{"giveaway_archive", "giveaway_archive"}
	s := NewServer(layout, nil, cfg, "test")
	tools := s.ListTools()

	if len(tools) != 3 {
		t.Errorf("registered tool count = %d, want 3", len(tools))
	}
	if _, ok := tools["giveaway_archive"]; ok {
		t.Error("disabled tool giveaway_archive should not be registered")
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	_, layout, cfg := testSetup(t)

	cfg.DisabledTools = AllToolNames()
	s := NewServer(layout, nil, cfg, "test")

	if tools := s.ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{"all valid", []string{"giveaway_archive", "giveaway_validate"}, 0},
		{"one unknown", []string{"giveaway_archive", "giveaway_delete"}, 1},
		{"all unknown", []string{"foo", "bar"}, 2},
		{"empty list", []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if unknown := ValidateDisabledTools(tt.input); len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 4 {
		t.Errorf("AllToolNames() returned %d names, want 4", len(names))
	}
	if unknown := ValidateDisabledTools(names); len(unknown) != 0 {
		t.Errorf("AllToolNames() returned invalid names: %v", unknown)
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied")))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}

	errObj := errorPayload(t, r)
	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
	if errObj["message"] != "an internal error occurred" {
		t.Errorf("message = %v", errObj["message"])
	}
}

func TestErrorResult_WrappedErrorKeepsCode(t *testing.T) {
	r := errorResult(fmt.Errorf("loading: %w", errors.NewFileNotFound("data/games.json")))

	errObj := errorPayload(t, r)
	if errObj["code"] != string(errors.ErrFileNotFound) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrFileNotFound)
	}
}

func TestErrorResult_PlainError(t *testing.T) {
	r := errorResult(fmt.Errorf("boom"))

	errObj := errorPayload(t, r)
	if errObj["code"] != "INTERNAL" || errObj["status"] != float64(500) {
		t.Errorf("error = %v", errObj)
	}
}

// Helper functions

// decodeOutput unmarshals the JSON output of a successful MCP result into v.
func decodeOutput(t *testing.T, result *mcp.CallToolResult, v any) {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), v); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
}

// errorPayload returns the "error" object of an MCP error result.
func errorPayload(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	errObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error object in payload: %v", payload)
	}
	return errObj
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if !result.IsError {
		t.Errorf("expected error result, got success: %v", extractErrorMessage(result))
		return
	}
	if code := errorPayload(t, result)["code"]; code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}
