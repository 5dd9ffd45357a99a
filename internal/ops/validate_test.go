package ops

import (
	"strings"
	"testing"
	"time"

	"github.com/zlormann/giveaway-linux/internal/errors"
	"github.com/zlormann/giveaway-linux/internal/giveaway"
)

func TestValidate_OK(t *testing.T) {
	layout, cfg := newTestProject(t)
	writeTestJSON(t, layout.PicksPath(), entry("2024-01-02", "gimp", "0ad"))
	writeTestJSON(t, layout.CatalogPath(), []giveaway.CatalogEntry{
		entry("2024-01-02", "gimp", "0ad"),
		entry("2024-01-01", "krita", "supertux"),
	})

	out, err := Validate(layout, cfg)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !out.OK {
		t.Error("OK = false")
	}
	want := map[string]int{"catalog.json": 2, "games.json": 2, "picks.json": 1, "software.json": 3}
	if len(out.Files) != len(want) {
		t.Fatalf("Files = %+v", out.Files)
	}
	for i, f := range out.Files {
		if want[f.File] != f.Entries {
			t.Errorf("Files[%d] = %+v, want %d entries", i, f, want[f.File])
		}
		if i > 0 && out.Files[i-1].File > f.File {
			t.Error("Files should be sorted by name")
		}
	}
}

func TestValidate_MissingURL(t *testing.T) {
	layout, cfg := newTestProject(t)
	writeTestFile(t, layout.SoftwarePath(), `[
		{"id": "gimp", "name": "GIMP", "url": "https://www.gimp.org/"},
		{"id": "krita", "name": "Krita"}
	]`)
	writeTestJSON(t, layout.PicksPath(), entry("2024-01-02", "gimp", "0ad"))

	_, err := Validate(layout, cfg)
	gErr, ok := errors.As(err)
	if !ok {
		t.Fatalf("Validate() = %v, want coded error", err)
	}
	if gErr.Code != errors.ErrSchemaViolation {
		t.Errorf("Code = %s, want SCHEMA_VIOLATION", gErr.Code)
	}
	if gErr.Details["index"] != 1 || gErr.Details["field"] != "url" {
		t.Errorf("Details = %v, want index 1 field url", gErr.Details)
	}
	if !strings.Contains(err.Error(), "software.json[1]") || !strings.Contains(err.Error(), "url") {
		t.Errorf("message %q should name the file, index and field", err.Error())
	}
}

func TestValidate_DanglingPickFailsButFeedRenders(t *testing.T) {
	layout, cfg := newTestProject(t)
	writeTestJSON(t, layout.PicksPath(), entry("2024-01-02", "ghost", "0ad"))

	_, err := Validate(layout, cfg)
	if !errors.Is(err, errors.ErrDanglingReference) {
		t.Fatalf("Validate() = %v, want DANGLING_REFERENCE", err)
	}
	if !strings.Contains(err.Error(), `software_id "ghost"`) {
		t.Errorf("message = %q", err.Error())
	}

	out, err := WriteFeed(layout, cfg, FeedInput{Now: time.Now()})
	if err != nil {
		t.Fatalf("WriteFeed failed: %v", err)
	}
	if out.Items != 1 {
		t.Errorf("Items = %d, want 1", out.Items)
	}
}

func TestValidate_StrayMalformedJSON(t *testing.T) {
	layout, cfg := newTestProject(t)
	writeTestJSON(t, layout.PicksPath(), entry("2024-01-02", "gimp", "0ad"))
	writeTestFile(t, layout.Data("extra.json"), `{"oops": `)

	_, err := Validate(layout, cfg)
	if !errors.Is(err, errors.ErrInvalidJSON) {
		t.Fatalf("Validate() = %v, want INVALID_JSON", err)
	}
	if !strings.Contains(err.Error(), "extra.json") {
		t.Errorf("message %q should name extra.json", err.Error())
	}
}

func TestValidate_StoreViolations(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		code    errors.ErrorCode
	}{
		{
			name:    "duplicate date in catalog",
			file:    giveaway.CatalogFile,
			content: `[{"date": "2024-01-02"}, {"date": "2024-01-02"}]`,
			code:    errors.ErrSchemaViolation,
		},
		{
			name:    "history not a list",
			file:    giveaway.HistoryFile,
			content: `{"history": []}`,
			code:    errors.ErrSchemaViolation,
		},
		{
			name:    "undated history entry",
			file:    giveaway.HistoryFile,
			content: `[{"software_id": "gimp"}]`,
			code:    errors.ErrSchemaViolation,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			layout, cfg := newTestProject(t)
			writeTestJSON(t, layout.PicksPath(), entry("2024-01-02", "gimp", "0ad"))
			writeTestFile(t, layout.Data(tc.file), tc.content)

			_, err := Validate(layout, cfg)
			if !errors.Is(err, tc.code) {
				t.Errorf("Validate() = %v, want %s", err, tc.code)
			}
		})
	}
}

func TestValidate_RetentionExceeded(t *testing.T) {
	layout, cfg := newTestProject(t)
	cfg.RetentionDays = 1
	writeTestJSON(t, layout.PicksPath(), entry("2024-01-02", "gimp", "0ad"))
	writeTestJSON(t, layout.CatalogPath(), []giveaway.CatalogEntry{
		entry("2024-01-02", "gimp", "0ad"),
		entry("2024-01-01", "krita", "supertux"),
	})

	_, err := Validate(layout, cfg)
	if !errors.Is(err, errors.ErrSchemaViolation) {
		t.Errorf("Validate() = %v, want SCHEMA_VIOLATION", err)
	}
}

func TestValidate_MissingPicks(t *testing.T) {
	layout, cfg := newTestProject(t)
	_, err := Validate(layout, cfg)
	if !errors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("Validate() = %v, want FILE_NOT_FOUND", err)
	}
}
