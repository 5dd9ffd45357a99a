package ops

import (
	"bufio"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/zlormann/giveaway-linux/internal/config"
	"github.com/zlormann/giveaway-linux/internal/db"
	"github.com/zlormann/giveaway-linux/internal/errors"
	"github.com/zlormann/giveaway-linux/internal/giveaway"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeReplace ImportMode = "replace" // default: imported picks replace archived ones
	ImportModeSkip    ImportMode = "skip"    // keep archived picks, skip colliding dates
	ImportModeError   ImportMode = "error"   // import nothing if any record is invalid or collides
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required: .jsonl export, or history.json / catalog.json
	Mode ImportMode // default: replace
	Now  time.Time  // optional, default: time.Now()
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError represents a record that could not be imported.
type ImportError struct {
	Line    int    `json:"line,omitempty"`
	Date    string `json:"date,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// importRecord is a parsed record with the line (or list index + 1) it came from.
type importRecord struct {
	line   int
	record db.Record
}

// Import backfills the archive from an export file or a catalog-shaped JSON file.
func Import(ctx context.Context, database *sql.DB, layout Layout, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Mode == "" {
		input.Mode = ImportModeReplace
	}
	if input.Mode != ImportModeReplace && input.Mode != ImportModeSkip && input.Mode != ImportModeError {
		return nil, errors.NewInvalidRequest("mode must be one of: replace, skip, error")
	}
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}

	if err := ValidatePath(input.Path, PathCheckRead, layout, cfg); err != nil {
		return nil, err
	}

	var (
		records     []importRecord
		parseErrors []ImportError
	)
	if filepath.Ext(input.Path) == ".json" {
		raw, err := readFile(input.Path)
		if err != nil {
			return nil, err
		}
		records, parseErrors, err = parseCatalogFile(filepath.Base(input.Path), raw)
		if err != nil {
			return nil, err
		}
	} else {
		file, err := openFileNoFollowRead(input.Path)
		if err != nil {
			if _, ok := errors.As(err); !ok {
				err = errors.NewInternal(err)
			}
			return nil, err
		}
		defer file.Close()
		records, parseErrors = parseExportFile(file)
	}

	if input.Mode == ImportModeError && len(parseErrors) > 0 {
		return &ImportOutput{Errors: parseErrors}, nil
	}

	output := &ImportOutput{
		Skipped: len(parseErrors),
		Errors:  append([]ImportError{}, parseErrors...),
	}

	// Collisions are resolved up front so mode:error writes nothing on failure
	pending := make([]importRecord, 0, len(records))
	for _, rec := range records {
		if input.Mode == ImportModeReplace {
			pending = append(pending, rec)
			continue
		}
		_, err := db.GetByDate(ctx, database, rec.record.Date)
		if errors.Is(err, errors.ErrNotFound) {
			pending = append(pending, rec)
			continue
		}
		if err != nil {
			return nil, err
		}
		collision := ImportError{
			Line:    rec.line,
			Date:    rec.record.Date,
			Code:    "DATE_COLLISION",
			Message: fmt.Sprintf("a pick for %s is already archived", rec.record.Date),
		}
		if input.Mode == ImportModeError {
			return &ImportOutput{Errors: []ImportError{collision}}, nil
		}
		output.Errors = append(output.Errors, collision)
		output.Skipped++
	}

	for _, rec := range pending {
		r := rec.record
		if r.ID == "" {
			r.ID = newRecordID(now)
		}
		if r.RecordedAt == 0 {
			r.RecordedAt = now.Unix()
		}
		if _, err := db.Upsert(ctx, database, &r); err != nil {
			return nil, err
		}
		output.Imported++
	}

	return output, nil
}

// parseExportFile parses a JSONL export into records.
func parseExportFile(r io.Reader) ([]importRecord, []ImportError) {
	var records []importRecord
	var parseErrors []ImportError

	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var header ExportHeader
		if err := json.Unmarshal(line, &header); err == nil && header.GiveawayExport {
			continue
		}

		var record db.Record
		if err := json.Unmarshal(line, &record); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}

		if msg := checkImportRecord(record.Pick()); msg != "" {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Date:    record.Date,
				Code:    "INVALID_RECORD",
				Message: msg,
			})
			continue
		}

		records = append(records, importRecord{line: lineNum, record: record})
	}

	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, ImportError{
			Line:    lineNum,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return records, parseErrors
}

// parseCatalogFile turns a history.json / catalog.json document into records.
// A document that is not a list of objects is rejected as a whole.
func parseCatalogFile(name string, raw []byte) ([]importRecord, []ImportError, error) {
	entries, err := giveaway.DecodeCatalog(name, raw)
	if err != nil {
		return nil, nil, err
	}

	var records []importRecord
	var parseErrors []ImportError
	for i, e := range entries {
		if msg := checkImportRecord(e); msg != "" {
			parseErrors = append(parseErrors, ImportError{
				Line:    i + 1,
				Date:    e.Date,
				Code:    "INVALID_RECORD",
				Message: msg,
			})
			continue
		}
		records = append(records, importRecord{line: i + 1, record: recordFromPick(e, "", 0)})
	}
	return records, parseErrors, nil
}

// checkImportRecord returns a message describing what is wrong with p, or "".
func checkImportRecord(p giveaway.Pick) string {
	if _, err := time.Parse(giveaway.DateLayout, p.Date); err != nil {
		return fmt.Sprintf("date %q must be YYYY-MM-DD", p.Date)
	}
	if strings.TrimSpace(p.SoftwareID) == "" {
		return "missing software_id"
	}
	if strings.TrimSpace(p.GameID) == "" {
		return "missing game_id"
	}
	return ""
}

// recordFromPick builds an archive record for p.
func recordFromPick(p giveaway.Pick, id string, recordedAt int64) db.Record {
	return db.Record{
		ID:          id,
		Date:        p.Date,
		SoftwareID:  p.SoftwareID,
		GameID:      p.GameID,
		GeneratedAt: p.GeneratedAt,
		Site:        p.Site,
		RecordedAt:  recordedAt,
	}
}

// newRecordID generates a new ULID for an archive row.
func newRecordID(now time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}
