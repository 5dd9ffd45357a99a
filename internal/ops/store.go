package ops

import (
	"context"
	"database/sql"
	"time"

	"github.com/zlormann/giveaway-linux/internal/db"
	"github.com/zlormann/giveaway-linux/internal/giveaway"
)

// RecordOutput contains the result of the Record operation.
type RecordOutput struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Record upserts entries into the archive, one row per date.
// Unlike the JSON stores the archive is never truncated.
func Record(ctx context.Context, database *sql.DB, entries []giveaway.CatalogEntry, now time.Time) (*RecordOutput, error) {
	output := &RecordOutput{}
	for _, e := range entries {
		r := recordFromPick(e, newRecordID(now), now.Unix())
		created, err := db.Upsert(ctx, database, &r)
		if err != nil {
			return nil, err
		}
		if created {
			output.Created++
		} else {
			output.Updated++
		}
	}
	return output, nil
}
