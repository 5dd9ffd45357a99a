package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zlormann/giveaway-linux/internal/config"
	"github.com/zlormann/giveaway-linux/internal/db"
	"github.com/zlormann/giveaway-linux/internal/errors"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path string    // optional, default: <data>/exports/<project>-<timestamp>.jsonl
	Now  time.Time // optional, default: time.Now()
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportHeader represents the header line in a JSONL export file.
type ExportHeader struct {
	GiveawayExport bool   `json:"_giveaway_export"`
	SchemaVersion  string `json:"schema_version"`
	ExportedAt     int64  `json:"exported_at"`
}

// ExportSchemaVersion is written to every export header.
const ExportSchemaVersion = "1.0"

// Export writes every archived pick to a JSONL file, oldest first:
// a header line, then one record per line.
func Export(ctx context.Context, database *sql.DB, layout Layout, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}
	exportedAt := now.Unix()

	exportPath := input.Path
	if exportPath == "" {
		exportPath = defaultExportPath(layout, cfg, now)
	}

	// Validate ALL paths (both user-provided and default)
	if err := ValidatePath(exportPath, PathCheckWrite, layout, cfg); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0755); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	// Write to temp file first, then atomic rename to preserve existing file on failure
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	// Clean up temp file on failure (original file is preserved)
	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	enc := json.NewEncoder(file)
	enc.SetEscapeHTML(false)

	header := ExportHeader{
		GiveawayExport: true,
		SchemaVersion:  ExportSchemaVersion,
		ExportedAt:     exportedAt,
	}
	if err := enc.Encode(header); err != nil {
		return nil, errors.NewInternal(err)
	}

	rows, err := db.StreamAll(ctx, database)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, errors.NewInternal(ctx.Err())
		default:
		}

		r, err := db.ScanRecordFromRows(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		if err := enc.Encode(r); err != nil {
			return nil, errors.NewInternal(err)
		}
		count++
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}

	// Close before atomic replace (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInvalidRequest("export path is a symlink")
	}

	if err := os.Rename(tempPath, exportPath); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:       exportPath,
		Count:      count,
		ExportedAt: exportedAt,
	}, nil
}

// defaultExportPath generates the default export path.
// Format: <data>/exports/<project>-<timestamp>.jsonl
func defaultExportPath(layout Layout, cfg *config.Config, now time.Time) string {
	name := SanitizeForFilename(strings.ToLower(strings.Join(strings.Fields(cfg.ProjectName), "-")))
	filename := fmt.Sprintf("%s-%s.jsonl", name, now.UTC().Format("2006-01-02T150405"))
	return filepath.Join(layout.ExportsPath(), filename)
}
