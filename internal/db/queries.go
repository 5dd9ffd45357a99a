package db

import (
	"context"
	"database/sql"

	"github.com/zlormann/giveaway-linux/internal/errors"
	"github.com/zlormann/giveaway-linux/internal/giveaway"
)

// Record is one archived pick. The archive keeps one row per date.
type Record struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	SoftwareID  string `json:"software_id"`
	GameID      string `json:"game_id"`
	GeneratedAt string `json:"generated_at,omitempty"`
	Site        string `json:"site,omitempty"`
	RecordedAt  int64  `json:"recorded_at"`
}

// Pick returns the record as a catalog entry.
func (r *Record) Pick() giveaway.Pick {
	return giveaway.Pick{
		Date:        r.Date,
		SoftwareID:  r.SoftwareID,
		GameID:      r.GameID,
		GeneratedAt: r.GeneratedAt,
		Site:        r.Site,
	}
}

const recordColumns = `id, date, software_id, game_id, generated_at, site, recorded_at`

// Upsert inserts r, or replaces the pick stored for r.Date.
// An existing row keeps its id; r.ID is updated to the stored id.
// recorded_at only moves when the stored pick changes.
// created reports whether a new row was inserted.
func Upsert(ctx context.Context, db *sql.DB, r *Record) (created bool, err error) {
	if r.ID == "" || r.Date == "" {
		return false, errors.NewInvalidRequest("id and date are required")
	}

	query := `
		INSERT INTO picks (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			software_id = excluded.software_id,
			game_id = excluded.game_id,
			generated_at = excluded.generated_at,
			site = excluded.site,
			recorded_at = CASE
				WHEN picks.software_id = excluded.software_id
					AND picks.game_id = excluded.game_id
					AND picks.generated_at IS excluded.generated_at
					AND picks.site IS excluded.site
				THEN picks.recorded_at
				ELSE excluded.recorded_at
			END
		RETURNING id
	`

	var id string
	err = db.QueryRowContext(ctx, query,
		r.ID, r.Date, r.SoftwareID, r.GameID,
		nullIfEmpty(r.GeneratedAt), nullIfEmpty(r.Site), r.RecordedAt,
	).Scan(&id)
	if err != nil {
		return false, errors.NewInternal(err)
	}

	created = id == r.ID
	r.ID = id
	return created, nil
}

// GetByDate retrieves the archived pick for a date.
func GetByDate(ctx context.Context, db *sql.DB, date string) (*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM picks WHERE date = ?`

	r, err := scanRecord(db.QueryRowContext(ctx, query, date))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(date)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// List returns archived picks newest date first.
func List(ctx context.Context, db *sql.DB, limit, offset int) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM picks ORDER BY date DESC LIMIT ? OFFSET ?`

	rows, err := db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return records, nil
}

// Count returns the number of archived picks.
func Count(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM picks`).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// StreamAll returns every archived pick, oldest date first.
// The caller must close the rows and read them with ScanRecordFromRows.
func StreamAll(ctx context.Context, db *sql.DB) (*sql.Rows, error) {
	query := `SELECT ` + recordColumns + ` FROM picks ORDER BY date ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return rows, nil
}

// ScanRecordFromRows scans the current row of a StreamAll result.
func ScanRecordFromRows(rows *sql.Rows) (*Record, error) {
	return scanRecord(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRecord scans a single row into a Record struct.
func scanRecord(row scanner) (*Record, error) {
	var (
		r           Record
		generatedAt sql.NullString
		site        sql.NullString
	)
	err := row.Scan(&r.ID, &r.Date, &r.SoftwareID, &r.GameID, &generatedAt, &site, &r.RecordedAt)
	if err != nil {
		return nil, err
	}
	r.GeneratedAt = generatedAt.String
	r.Site = site.String
	return &r, nil
}

// nullIfEmpty stores empty optional strings as NULL.
func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
