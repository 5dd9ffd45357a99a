package ops

import (
	"context"
	"database/sql"
	"time"

	"github.com/zlormann/giveaway-linux/internal/config"
	"github.com/zlormann/giveaway-linux/internal/giveaway"
)

// BuildInput contains parameters for the Build operation.
type BuildInput struct {
	Date      string    // optional, default: today in the configured time zone
	Now       time.Time // optional, default: time.Now()
	Scheduled bool      // only run at cfg.ScheduleTime
}

// BuildOutput contains the result of the Build operation.
type BuildOutput struct {
	Pick        *PickOutput        `json:"pick"`
	Consolidate *ConsolidateOutput `json:"consolidate,omitempty"`
	Archive     *RecordOutput      `json:"archive,omitempty"`
	Feed        *FeedOutput        `json:"feed,omitempty"`
	Page        *PageOutput        `json:"page,omitempty"`
	Logo        *LogoOutput        `json:"logo,omitempty"`
}

// Build runs the daily pipeline: pick, consolidate, archive, feed, page, logo.
// Every input is read and checked before the first file is written, and the
// pipeline stops at the first error. database may be nil to skip the archive;
// renderer may be nil to skip the archive page.
func Build(ctx context.Context, layout Layout, cfg *config.Config, database *sql.DB, renderer PageRenderer, input BuildInput) (*BuildOutput, error) {
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}

	picked, err := planPick(layout, cfg, PickInput{Date: input.Date, Now: now, Scheduled: input.Scheduled})
	if err != nil {
		return nil, err
	}
	output := &BuildOutput{Pick: picked}
	if picked.Skipped {
		return output, nil
	}

	stores, err := prepareStores(layout, cfg, *picked.Pick)
	if err != nil {
		return nil, err
	}
	logo, err := RenderLogo(cfg.ProjectName, cfg.Tagline)
	if err != nil {
		return nil, err
	}

	if err := writePick(picked); err != nil {
		return nil, err
	}
	output.Consolidate, err = commitStores(picked.Pick.Date, stores)
	if err != nil {
		return nil, err
	}

	if database != nil {
		output.Archive, err = Record(ctx, database, []giveaway.CatalogEntry{*picked.Pick}, now)
		if err != nil {
			return nil, err
		}
	}

	output.Feed, err = WriteFeed(layout, cfg, FeedInput{Now: now})
	if err != nil {
		return nil, err
	}

	if renderer != nil {
		output.Page, err = WritePage(layout, cfg, renderer)
		if err != nil {
			return nil, err
		}
	}

	output.Logo, err = writeLogo(layout, logo)
	if err != nil {
		return nil, err
	}

	return output, nil
}
