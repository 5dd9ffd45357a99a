package ops

import (
	"github.com/zlormann/giveaway-linux/internal/config"
	"github.com/zlormann/giveaway-linux/internal/giveaway"
)

// CatalogInput contains parameters for the Catalog operation.
type CatalogInput struct {
	Limit  int // default: 20, max: 100
	Offset int // default: 0
}

// CatalogOutput contains the result of the Catalog operation.
type CatalogOutput struct {
	Items      []PickView `json:"items"`
	Pagination Pagination `json:"pagination"`
	Source     string     `json:"source"`
}

// Catalog lists the retained picks, newest first, resolved against the
// reference lists. Without catalog.json the current pick is the only entry.
func Catalog(layout Layout, cfg *config.Config, input CatalogInput) (*CatalogOutput, error) {
	limit, offset := pageBounds(input.Limit, input.Offset)

	refs, err := LoadRenderReferences(layout)
	if err != nil {
		return nil, err
	}
	entries, source, err := LoadFeedEntries(layout)
	if err != nil {
		return nil, err
	}
	giveaway.SortNewestFirst(entries)

	total := len(entries)
	start := min(offset, total)
	end := min(start+limit, total)

	items := make([]PickView, 0, end-start)
	for _, r := range Resolve(entries[start:end], refs, cfg) {
		items = append(items, r.View(cfg.SiteURL))
	}

	return &CatalogOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: end < total,
			Total:   total,
		},
		Source: source,
	}, nil
}
