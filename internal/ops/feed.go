package ops

import (
	"bytes"
	"encoding/xml"
	"html/template"
	"log"
	"strings"
	"time"

	"github.com/zlormann/giveaway-linux/internal/config"
	"github.com/zlormann/giveaway-linux/internal/errors"
	"github.com/zlormann/giveaway-linux/internal/giveaway"
)

const atomNamespace = "http://www.w3.org/2005/Atom"

// ResolvedEntry is a catalog entry joined with its reference items.
// Software or Game is nil when the id does not resolve.
type ResolvedEntry struct {
	Entry        giveaway.CatalogEntry
	Software     *giveaway.ReferenceItem
	Game         *giveaway.ReferenceItem
	SoftwareName string
	GameName     string
	Published    time.Time
}

// Resolve joins entries with the reference lists. Unknown ids and blank
// names fall back to the configured placeholders; unknown ids are logged.
func Resolve(entries []giveaway.CatalogEntry, refs *References, cfg *config.Config) []ResolvedEntry {
	software := giveaway.Index(refs.Software)
	games := giveaway.Index(refs.Games)

	resolved := make([]ResolvedEntry, 0, len(entries))
	for _, e := range entries {
		r := ResolvedEntry{
			Entry:        e,
			Software:     software[e.SoftwareID],
			Game:         games[e.GameID],
			SoftwareName: cfg.SoftwarePlaceholder,
			GameName:     cfg.GamePlaceholder,
			Published:    giveaway.EffectiveTime(e),
		}
		if r.Software == nil {
			log.Printf("warning: %s: software_id %q not found, using %q", e.Date, e.SoftwareID, cfg.SoftwarePlaceholder)
		} else if name := giveaway.CleanName(r.Software.Name); name != "" {
			r.SoftwareName = name
		}
		if r.Game == nil {
			log.Printf("warning: %s: game_id %q not found, using %q", e.Date, e.GameID, cfg.GamePlaceholder)
		} else if name := giveaway.CleanName(r.Game.Name); name != "" {
			r.GameName = name
		}
		resolved = append(resolved, r)
	}
	return resolved
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Atom    string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	AtomLink      atomLink  `xml:"atom:link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        rssGUID  `xml:"guid"`
	PubDate     string   `xml:"pubDate"`
	Description rssCDATA `xml:"description"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssCDATA struct {
	Value string `xml:",cdata"`
}

var itemDescription = template.Must(template.New("item").Parse(
	`<b>Logiciel :</b> {{.SoftwareName}}<br/>` +
		`Page officielle : <a href="{{.SoftwarePage}}">{{.SoftwarePage}}</a><br/>` +
		`Télécharger : <a href="{{.SoftwareDownload}}">{{.SoftwareDownload}}</a>` +
		`{{with .SoftwareAbout}}<br/>{{.}}{{end}}<br/><br/>` +
		`<b>Jeu :</b> {{.GameName}}<br/>` +
		`Page officielle : <a href="{{.GamePage}}">{{.GamePage}}</a><br/>` +
		`Télécharger : <a href="{{.GameDownload}}">{{.GameDownload}}</a>` +
		`{{with .GameAbout}}<br/>{{.}}{{end}}`))

type itemDescriptionData struct {
	SoftwareName     string
	SoftwarePage     string
	SoftwareDownload string
	SoftwareAbout    template.HTML
	GameName         string
	GamePage         string
	GameDownload     string
	GameAbout        template.HTML
}

// RenderFeed renders entries as an RSS 2.0 document. Entries are sorted newest
// first and capped at cfg.MaxFeedItems. The output depends only on its inputs;
// now is used for lastBuildDate only when there are no entries.
func RenderFeed(entries []giveaway.CatalogEntry, refs *References, cfg *config.Config, now time.Time) ([]byte, error) {
	sorted := make([]giveaway.CatalogEntry, len(entries))
	copy(sorted, entries)
	giveaway.SortNewestFirst(sorted)
	if cfg.MaxFeedItems > 0 && len(sorted) > cfg.MaxFeedItems {
		sorted = sorted[:cfg.MaxFeedItems]
	}

	site := cfg.SiteURL
	lastBuild := time.Time{}
	items := make([]rssItem, 0, len(sorted))

	for _, r := range Resolve(sorted, refs, cfg) {
		if r.Published.After(lastBuild) {
			lastBuild = r.Published
		}

		var desc strings.Builder
		data := itemDescriptionData{
			SoftwareName:     r.SoftwareName,
			SoftwarePage:     r.Software.PageLink(site),
			SoftwareDownload: r.Software.DownloadLink(site),
			GameName:         r.GameName,
			GamePage:         r.Game.PageLink(site),
			GameDownload:     r.Game.DownloadLink(site),
		}
		if r.Software != nil {
			data.SoftwareAbout = giveaway.RenderMarkdown(r.Software.Description)
		}
		if r.Game != nil {
			data.GameAbout = giveaway.RenderMarkdown(r.Game.Description)
		}
		if err := itemDescription.Execute(&desc, data); err != nil {
			return nil, errors.NewInternal(err)
		}

		link := site + "#" + r.Entry.Date
		items = append(items, rssItem{
			Title:       r.SoftwareName + " + " + r.GameName + " (" + r.Entry.Date + ")",
			Link:        link,
			GUID:        rssGUID{IsPermaLink: "false", Value: link},
			PubDate:     formatPubDate(r.Published),
			Description: rssCDATA{Value: desc.String()},
		})
	}

	if len(items) == 0 {
		lastBuild = now
	}

	doc := rssDocument{
		Version: "2.0",
		Atom:    atomNamespace,
		Channel: rssChannel{
			Title:         cfg.FeedTitle,
			Link:          site,
			AtomLink:      atomLink{Href: cfg.FeedURL(), Rel: "self", Type: "application/rss+xml"},
			Description:   cfg.FeedDescription,
			Language:      cfg.LanguageTag(),
			LastBuildDate: formatPubDate(lastBuild),
			Items:         items,
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, errors.NewInternal(err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func formatPubDate(t time.Time) string {
	return t.UTC().Format(time.RFC1123Z)
}

// FeedInput contains parameters for the WriteFeed operation.
type FeedInput struct {
	Now time.Time // optional, default: time.Now()
}

// FeedOutput contains the result of the WriteFeed operation.
type FeedOutput struct {
	Path   string `json:"path"`
	Items  int    `json:"items"`
	Source string `json:"source"`
}

// LoadFeedEntries reads catalog.json, or the single pick from picks.json
// when there is no catalog yet. source names the file used.
func LoadFeedEntries(layout Layout) (entries []giveaway.CatalogEntry, source string, err error) {
	entries, exists, err := loadStore(layout.CatalogPath(), giveaway.CatalogFile)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return entries, giveaway.CatalogFile, nil
	}
	pick, err := LoadPick(layout)
	if err != nil {
		return nil, "", err
	}
	return []giveaway.CatalogEntry{pick}, giveaway.PicksFile, nil
}

// WriteFeed renders rss.xml from the catalog. Every input is read and
// checked before the file is replaced.
func WriteFeed(layout Layout, cfg *config.Config, input FeedInput) (*FeedOutput, error) {
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}

	refs, err := LoadRenderReferences(layout)
	if err != nil {
		return nil, err
	}
	entries, source, err := LoadFeedEntries(layout)
	if err != nil {
		return nil, err
	}

	data, err := RenderFeed(entries, refs, cfg, now)
	if err != nil {
		return nil, err
	}

	path := layout.RSSPath()
	if err := writeFileAtomic(path, data); err != nil {
		return nil, err
	}

	items := len(entries)
	if cfg.MaxFeedItems > 0 && items > cfg.MaxFeedItems {
		items = cfg.MaxFeedItems
	}
	log.Printf("updated %s (%d items from %s)", RSSFile, items, source)

	return &FeedOutput{Path: path, Items: items, Source: source}, nil
}
