package site

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/zlormann/giveaway-linux/internal/config"
	"github.com/zlormann/giveaway-linux/internal/errors"
	"github.com/zlormann/giveaway-linux/internal/giveaway"
	"github.com/zlormann/giveaway-linux/internal/ops"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Lang    string
	SiteURL string
	FeedURL string
	Version string
}

// ItemData is one side of a pick as shown on the archive page.
type ItemData struct {
	Name     string
	Page     string
	Download string
	Category string
	About    template.HTML
}

// ArchiveItem is one day on the archive page.
type ArchiveItem struct {
	Date     string
	Link     string
	Software ItemData
	Game     ItemData
}

// ArchivePageData is the template data for the archive page.
type ArchivePageData struct {
	PageData
	Description string
	Items       []ArchiveItem
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string) *Renderer {
	funcMap := template.FuncMap{
		"dict":       dict,
		"formatDate": formatDate,
	}

	// Parse layout as the base template
	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"archive": "archive.html",
		"error":   "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
	}
}

// DefaultRenderer creates a Renderer from the embedded templates.
func DefaultRenderer(version string) *Renderer {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		log.Fatalf("failed to create template sub-FS: %v", err)
	}
	return NewRenderer(templateSub, version)
}

// RenderArchive writes the archive page for entries to buf. The output
// depends only on cfg and entries.
func (r *Renderer) RenderArchive(buf *bytes.Buffer, cfg *config.Config, entries []ops.ResolvedEntry) error {
	return r.execute(buf, "archive", r.archiveData(cfg, entries))
}

func (r *Renderer) archiveData(cfg *config.Config, entries []ops.ResolvedEntry) ArchivePageData {
	items := make([]ArchiveItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, ArchiveItem{
			Date:     e.Entry.Date,
			Link:     cfg.SiteURL + "#" + e.Entry.Date,
			Software: itemData(e.SoftwareName, e.Software, cfg.SiteURL),
			Game:     itemData(e.GameName, e.Game, cfg.SiteURL),
		})
	}
	return ArchivePageData{
		PageData:    r.pageData(cfg, "Archives · "+cfg.FeedTitle),
		Description: cfg.FeedDescription,
		Items:       items,
	}
}

func itemData(name string, item *giveaway.ReferenceItem, site string) ItemData {
	d := ItemData{
		Name:     name,
		Page:     item.PageLink(site),
		Download: item.DownloadLink(site),
	}
	if item != nil {
		d.Category = item.Category
		d.About = giveaway.RenderMarkdown(item.Description)
	}
	return d
}

func (r *Renderer) pageData(cfg *config.Config, title string) PageData {
	return PageData{
		Title:   title,
		Lang:    cfg.LanguageTag(),
		SiteURL: cfg.SiteURL,
		FeedURL: cfg.FeedURL(),
		Version: r.version,
	}
}

// execute renders the layout of a named page into buf.
func (r *Renderer) execute(buf *bytes.Buffer, name string, data any) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(buf, "layout", data)
}

// renderPageStatus renders a named page template with the given data and HTTP status code.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := r.execute(&buf, name, data); err != nil {
		log.Printf("template execution error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation.
// API routes and clients asking for JSON get a JSON error body.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, cfg *config.Config, err error) {
	var gErr *errors.GiveawayError
	if !stderrors.As(err, &gErr) {
		gErr = errors.NewInternal(err)
	}

	status := gErr.Status
	message := gErr.Message

	if strings.HasPrefix(req.URL.Path, "/api/") || strings.Contains(req.Header.Get("Accept"), "application/json") {
		renderJSON(w, status, map[string]any{
			"error": map[string]any{
				"code":    string(gErr.Code),
				"message": message,
				"status":  status,
				"details": gErr.Details,
			},
		})
		return
	}

	r.renderPageStatus(w, status, "error", ErrorPageData{
		PageData:   r.pageData(cfg, fmt.Sprintf("Erreur %d", status)),
		StatusCode: status,
		Message:    message,
	})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// dict builds a map from alternating keys and values, for passing several
// values to a sub-template.
func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("dict needs an even number of arguments")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", kv[i])
		}
		m[key] = kv[i+1]
	}
	return m, nil
}

// formatDate turns a YYYY-MM-DD key into "2 janvier 2024".
func formatDate(date string) string {
	t, err := time.Parse(giveaway.DateLayout, date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%d %s %d", t.Day(), frenchMonths[t.Month()-1], t.Year())
}

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}
