package ops

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/zlormann/giveaway-linux/internal/db"
	"github.com/zlormann/giveaway-linux/internal/errors"
	"github.com/zlormann/giveaway-linux/internal/giveaway"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	Date string // required, YYYY-MM-DD
}

// Fetch retrieves the archived pick for a date.
func Fetch(ctx context.Context, database *sql.DB, input FetchInput) (*db.Record, error) {
	date := strings.TrimSpace(input.Date)
	if date == "" {
		return nil, errors.NewInvalidRequest("date is required")
	}
	if _, err := time.Parse(giveaway.DateLayout, date); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("date %q must be YYYY-MM-DD", date))
	}
	return db.GetByDate(ctx, database, date)
}
