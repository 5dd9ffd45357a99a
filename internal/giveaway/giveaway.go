package giveaway

import (
	"encoding/json"
	"time"
)

// File names inside the data directory.
const (
	SoftwareFile = "software.json"
	GamesFile    = "games.json"
	PicksFile    = "picks.json"
	CatalogFile  = "catalog.json"
	HistoryFile  = "history.json"
)

// DateLayout is the calendar date key format used by picks and the catalog.
const DateLayout = "2006-01-02"

// ReferenceItem is a curated software or game entry available for selection.
// software.json and games.json are lists of these; they are maintained by hand.
type ReferenceItem struct {
	// ID is unique within its list and is what picks point at
	ID string `json:"id"`

	Name string `json:"name"`

	// URL is the official page; it must start with http
	URL string `json:"url"`

	// DownloadURL and HomeURL are optional, more specific links
	DownloadURL string `json:"download_url,omitempty"`
	HomeURL     string `json:"home_url,omitempty"`

	Category string `json:"category,omitempty"`

	// Description is optional markdown, rendered into the feed and archive page
	Description string `json:"description,omitempty"`
}

// PageLink returns the official page of the item, or site when the item has none.
func (r *ReferenceItem) PageLink(site string) string {
	if r == nil || r.URL == "" {
		return site
	}
	return r.URL
}

// DownloadLink returns the best download link: download_url, home_url, url, then site.
func (r *ReferenceItem) DownloadLink(site string) string {
	if r == nil {
		return site
	}
	for _, u := range []string{r.DownloadURL, r.HomeURL, r.URL} {
		if u != "" {
			return u
		}
	}
	return site
}

// Pick is the day's selected software + game pair.
// picks.json holds exactly one Pick as a flat object.
type Pick struct {
	Date       string `json:"date"`
	SoftwareID string `json:"software_id"`
	GameID     string `json:"game_id"`

	// GeneratedAt is an RFC 3339 UTC timestamp with second precision
	GeneratedAt string `json:"generated_at,omitempty"`

	Site string `json:"site,omitempty"`
}

// CatalogEntry is a consolidated Pick. catalog.json and history.json are lists of these.
type CatalogEntry = Pick

// UnmarshalJSON accepts the legacy generated_utc key as an alias of generated_at.
func (p *Pick) UnmarshalJSON(data []byte) error {
	type plain Pick
	var aux struct {
		plain
		GeneratedUTC string `json:"generated_utc"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Pick(aux.plain)
	if p.GeneratedAt == "" {
		p.GeneratedAt = aux.GeneratedUTC
	}
	return nil
}

// FormatTimestamp renders t the way generated_at is stored.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// DateKey returns the calendar date of t in loc, as used for pick dates.
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// Index maps item ids to items.
func Index(items []ReferenceItem) map[string]*ReferenceItem {
	idx := make(map[string]*ReferenceItem, len(items))
	for i := range items {
		idx[items[i].ID] = &items[i]
	}
	return idx
}
