package ops

import (
	"github.com/zlormann/giveaway-linux/internal/config"
	"github.com/zlormann/giveaway-linux/internal/giveaway"
)

// ItemView is a reference item as shown to readers.
type ItemView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Page     string `json:"page"`
	Download string `json:"download"`
	Category string `json:"category,omitempty"`
	Found    bool   `json:"found"`
}

// PickView is a resolved pick: names and links instead of bare ids.
type PickView struct {
	Date        string   `json:"date"`
	GeneratedAt string   `json:"generated_at,omitempty"`
	Link        string   `json:"link"`
	Software    ItemView `json:"software"`
	Game        ItemView `json:"game"`
}

// View renders a resolved entry for output.
func (r ResolvedEntry) View(site string) PickView {
	return PickView{
		Date:        r.Entry.Date,
		GeneratedAt: r.Entry.GeneratedAt,
		Link:        site + "#" + r.Entry.Date,
		Software:    itemView(r.Entry.SoftwareID, r.SoftwareName, r.Software, site),
		Game:        itemView(r.Entry.GameID, r.GameName, r.Game, site),
	}
}

func itemView(id, name string, item *giveaway.ReferenceItem, site string) ItemView {
	v := ItemView{
		ID:       id,
		Name:     name,
		Page:     item.PageLink(site),
		Download: item.DownloadLink(site),
		Found:    item != nil,
	}
	if item != nil {
		v.Category = item.Category
	}
	return v
}

// LatestOutput contains the result of the Latest operation.
type LatestOutput struct {
	Pick PickView `json:"pick"`
}

// Latest resolves the current pick from picks.json.
// Unknown ids resolve to placeholders rather than failing.
func Latest(layout Layout, cfg *config.Config) (*LatestOutput, error) {
	refs, err := LoadRenderReferences(layout)
	if err != nil {
		return nil, err
	}
	pick, err := LoadPick(layout)
	if err != nil {
		return nil, err
	}

	resolved := Resolve([]giveaway.CatalogEntry{pick}, refs, cfg)
	return &LatestOutput{Pick: resolved[0].View(cfg.SiteURL)}, nil
}
