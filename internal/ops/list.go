package ops

import (
	"context"
	"database/sql"

	"github.com/zlormann/giveaway-linux/internal/db"
)

// Paging bounds shared by archive and catalog listings.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination describes one page of a listing.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// ListInput contains parameters for the List operation.
type ListInput struct {
	Limit  int // default: 20, max: 100
	Offset int // default: 0
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []db.Record `json:"items"`
	Pagination Pagination  `json:"pagination"`
	Sort       string      `json:"sort"`
}

// List retrieves archived picks, newest date first, with pagination.
func List(ctx context.Context, database *sql.DB, input ListInput) (*ListOutput, error) {
	limit, offset := pageBounds(input.Limit, input.Offset)

	records, err := db.List(ctx, database, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := db.Count(ctx, database)
	if err != nil {
		return nil, err
	}

	return &ListOutput{
		Items: records,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(records) < total,
			Total:   total,
		},
		Sort: "date_desc",
	}, nil
}

// pageBounds applies limit defaults and bounds and clamps offset at zero.
func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return limit, max(offset, 0)
}
