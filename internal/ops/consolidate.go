package ops

import (
	"log"

	"github.com/zlormann/giveaway-linux/internal/config"
	"github.com/zlormann/giveaway-linux/internal/giveaway"
)

// DefaultRetention is the number of entries kept when no positive limit is given.
const DefaultRetention = 30

// Consolidate merges entry into store: any entry with the same date is dropped,
// entry is prepended, the result is stably sorted newest first and truncated
// to limit entries. store is not modified.
func Consolidate(store []giveaway.CatalogEntry, entry giveaway.CatalogEntry, limit int) []giveaway.CatalogEntry {
	if limit <= 0 {
		limit = DefaultRetention
	}

	merged := make([]giveaway.CatalogEntry, 0, len(store)+1)
	merged = append(merged, entry)
	for _, e := range store {
		if e.Date != entry.Date {
			merged = append(merged, e)
		}
	}

	giveaway.SortNewestFirst(merged)

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// ConsolidateInput contains parameters for the ConsolidateFiles operation.
type ConsolidateInput struct {
	Pick *giveaway.Pick // optional, default: read from picks.json
}

// StoreResult describes one rewritten store file.
type StoreResult struct {
	File    string `json:"file"`
	Path    string `json:"path"`
	Entries int    `json:"entries"`
	Created bool   `json:"created,omitempty"`
}

// ConsolidateOutput contains the result of the ConsolidateFiles operation.
type ConsolidateOutput struct {
	Date    string                  `json:"date"`
	Stores  []StoreResult           `json:"stores"`
	Catalog []giveaway.CatalogEntry `json:"-"`
}

// pendingStore is a store file read and merged but not yet written.
type pendingStore struct {
	file    string
	path    string
	entries []giveaway.CatalogEntry
	exists  bool
}

// prepareStores reads catalog.json and history.json and merges pick into each.
// Nothing is written.
func prepareStores(layout Layout, cfg *config.Config, pick giveaway.Pick) ([]*pendingStore, error) {
	stores := []*pendingStore{
		{file: giveaway.CatalogFile, path: layout.CatalogPath()},
		{file: giveaway.HistoryFile, path: layout.HistoryPath()},
	}
	for _, s := range stores {
		entries, exists, err := loadStore(s.path, s.file)
		if err != nil {
			return nil, err
		}
		s.entries = Consolidate(entries, pick, cfg.RetentionDays)
		s.exists = exists
	}
	return stores, nil
}

// commitStores writes prepared stores back in order.
func commitStores(date string, stores []*pendingStore) (*ConsolidateOutput, error) {
	output := &ConsolidateOutput{Date: date}
	for _, s := range stores {
		if err := writeJSON(s.path, s.entries); err != nil {
			return nil, err
		}
		log.Printf("updated %s (%d entries)", s.file, len(s.entries))
		output.Stores = append(output.Stores, StoreResult{
			File:    s.file,
			Path:    s.path,
			Entries: len(s.entries),
			Created: !s.exists,
		})
	}
	output.Catalog = stores[0].entries
	return output, nil
}

// ConsolidateFiles merges the current pick into catalog.json and history.json.
// Both stores are read and checked before either is written.
func ConsolidateFiles(layout Layout, cfg *config.Config, input ConsolidateInput) (*ConsolidateOutput, error) {
	var pick giveaway.Pick
	if input.Pick != nil {
		pick = *input.Pick
	} else {
		p, err := LoadPick(layout)
		if err != nil {
			return nil, err
		}
		pick = p
	}

	stores, err := prepareStores(layout, cfg, pick)
	if err != nil {
		return nil, err
	}
	return commitStores(pick.Date, stores)
}
