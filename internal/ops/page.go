package ops

import (
	"bytes"
	"log"

	"github.com/zlormann/giveaway-linux/internal/config"
	"github.com/zlormann/giveaway-linux/internal/errors"
	"github.com/zlormann/giveaway-linux/internal/giveaway"
)

// PageRenderer renders the static archive page from resolved catalog entries.
type PageRenderer interface {
	RenderArchive(buf *bytes.Buffer, cfg *config.Config, entries []ResolvedEntry) error
}

// PageOutput contains the result of the WritePage operation.
type PageOutput struct {
	Path    string `json:"path"`
	Entries int    `json:"entries"`
}

// ArchiveEntries loads the catalog (or the current pick) and resolves it,
// newest first.
func ArchiveEntries(layout Layout, cfg *config.Config) ([]ResolvedEntry, error) {
	refs, err := LoadRenderReferences(layout)
	if err != nil {
		return nil, err
	}
	entries, _, err := LoadFeedEntries(layout)
	if err != nil {
		return nil, err
	}
	giveaway.SortNewestFirst(entries)
	return Resolve(entries, refs, cfg), nil
}

// WritePage renders archive.html from the catalog.
func WritePage(layout Layout, cfg *config.Config, renderer PageRenderer) (*PageOutput, error) {
	if renderer == nil {
		return nil, errors.NewInvalidRequest("page renderer is required")
	}

	entries, err := ArchiveEntries(layout, cfg)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := renderer.RenderArchive(&buf, cfg, entries); err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewInternal(err)
	}

	path := layout.ArchivePagePath()
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return nil, err
	}
	log.Printf("updated %s (%d entries)", ArchivePageFile, len(entries))

	return &PageOutput{Path: path, Entries: len(entries)}, nil
}
