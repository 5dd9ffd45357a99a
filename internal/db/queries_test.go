package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/zlormann/giveaway-linux/internal/errors"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestRecord(id, date string) *Record {
	return &Record{
		ID:          id,
		Date:        date,
		SoftwareID:  "gimp",
		GameID:      "0ad",
		GeneratedAt: date + "T11:30:00Z",
		Site:        "https://example.org/",
		RecordedAt:  1000,
	}
}

func TestUpsert_InsertThenReplace(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := newTestRecord("01ARCH001", "2024-01-02")
	created, err := Upsert(ctx, db, r)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if !created {
		t.Error("first Upsert should create a row")
	}

	// Same date, new id: the stored row keeps its id and takes the new content
	again := newTestRecord("01ARCH002", "2024-01-02")
	again.SoftwareID = "krita"
	created, err = Upsert(ctx, db, again)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if created {
		t.Error("second Upsert for the same date should not create a row")
	}
	if again.ID != "01ARCH001" {
		t.Errorf("ID = %q, want stored id 01ARCH001", again.ID)
	}

	got, err := GetByDate(ctx, db, "2024-01-02")
	if err != nil {
		t.Fatalf("GetByDate() error = %v", err)
	}
	if got.SoftwareID != "krita" {
		t.Errorf("SoftwareID = %q, want krita", got.SoftwareID)
	}

	n, err := Count(ctx, db)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestUpsert_RequiresIDAndDate(t *testing.T) {
	db := setupTestDB(t)
	_, err := Upsert(context.Background(), db, &Record{Date: "2024-01-02"})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Upsert() = %v, want INVALID_REQUEST", err)
	}
}

func TestUpsert_RecordedAtMovesOnlyOnChange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	recordedAt := func(date string) int64 {
		t.Helper()
		got, err := GetByDate(ctx, db, date)
		if err != nil {
			t.Fatalf("GetByDate() error = %v", err)
		}
		return got.RecordedAt
	}
	upsert := func(r *Record) {
		t.Helper()
		if _, err := Upsert(ctx, db, r); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	upsert(newTestRecord("01KEEP001", "2024-01-02"))

	same := newTestRecord("01KEEP002", "2024-01-02")
	same.RecordedAt = 2000
	upsert(same)
	if got := recordedAt("2024-01-02"); got != 1000 {
		t.Errorf("unchanged pick: RecordedAt = %d, want 1000", got)
	}

	changed := newTestRecord("01KEEP003", "2024-01-02")
	changed.GameID = "supertux"
	changed.RecordedAt = 3000
	upsert(changed)
	if got := recordedAt("2024-01-02"); got != 3000 {
		t.Errorf("changed pick: RecordedAt = %d, want 3000", got)
	}

	// NULL optional fields compare equal to NULL
	bare := &Record{ID: "01KEEP004", Date: "2024-01-03", SoftwareID: "gimp", GameID: "0ad", RecordedAt: 1000}
	upsert(bare)
	bareAgain := *bare
	bareAgain.ID = "01KEEP005"
	bareAgain.RecordedAt = 5000
	upsert(&bareAgain)
	if got := recordedAt("2024-01-03"); got != 1000 {
		t.Errorf("unchanged bare pick: RecordedAt = %d, want 1000", got)
	}
}

func TestUpsert_OptionalFieldsStoredAsNull(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := &Record{ID: "01ARCH003", Date: "2024-01-03", SoftwareID: "gimp", GameID: "0ad", RecordedAt: 1}
	if _, err := Upsert(ctx, db, r); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	var generatedAt sql.NullString
	if err := db.QueryRow("SELECT generated_at FROM picks WHERE date = ?", "2024-01-03").Scan(&generatedAt); err != nil {
		t.Fatalf("query error = %v", err)
	}
	if generatedAt.Valid {
		t.Errorf("generated_at = %q, want NULL", generatedAt.String)
	}

	got, err := GetByDate(ctx, db, "2024-01-03")
	if err != nil {
		t.Fatalf("GetByDate() error = %v", err)
	}
	if got.GeneratedAt != "" || got.Site != "" {
		t.Errorf("got %+v, want empty optional fields", got)
	}
}

func TestGetByDate_NotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := GetByDate(context.Background(), db, "1999-12-31")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetByDate() = %v, want NOT_FOUND", err)
	}
}

func TestList_NewestFirstWithPaging(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for i, date := range []string{"2024-01-01", "2024-01-03", "2024-01-02"} {
		r := newTestRecord("01LIST00"+string(rune('1'+i)), date)
		if _, err := Upsert(ctx, db, r); err != nil {
			t.Fatalf("Upsert(%s) error = %v", date, err)
		}
	}

	records, err := List(ctx, db, 2, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].Date != "2024-01-03" || records[1].Date != "2024-01-02" {
		t.Errorf("dates = %s, %s", records[0].Date, records[1].Date)
	}

	records, err = List(ctx, db, 2, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 || records[0].Date != "2024-01-01" {
		t.Errorf("page 2 = %+v", records)
	}
}

func TestList_Empty(t *testing.T) {
	db := setupTestDB(t)
	records, err := List(context.Background(), db, 10, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("List() = %v, want empty non-nil slice", records)
	}
}

func TestStreamAll_OldestFirst(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for i, date := range []string{"2024-01-02", "2024-01-01"} {
		r := newTestRecord("01STRM00"+string(rune('1'+i)), date)
		if _, err := Upsert(ctx, db, r); err != nil {
			t.Fatalf("Upsert(%s) error = %v", date, err)
		}
	}

	rows, err := StreamAll(ctx, db)
	if err != nil {
		t.Fatalf("StreamAll() error = %v", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		r, err := ScanRecordFromRows(rows)
		if err != nil {
			t.Fatalf("ScanRecordFromRows() error = %v", err)
		}
		dates = append(dates, r.Date)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows.Err() = %v", err)
	}
	if len(dates) != 2 || dates[0] != "2024-01-01" || dates[1] != "2024-01-02" {
		t.Errorf("dates = %v, want [2024-01-01 2024-01-02]", dates)
	}
}

func TestRecord_Pick(t *testing.T) {
	p := newTestRecord("01PICK001", "2024-01-02").Pick()
	if p.Date != "2024-01-02" || p.SoftwareID != "gimp" || p.GameID != "0ad" || p.GeneratedAt != "2024-01-02T11:30:00Z" {
		t.Errorf("Pick() = %+v", p)
	}
}
