package ops

import (
	"log"
	"path/filepath"

	"github.com/zlormann/giveaway-linux/internal/config"
	"github.com/zlormann/giveaway-linux/internal/giveaway"
)

// Output file locations relative to the output directory.
const (
	RSSFile         = "rss.xml"
	ArchivePageFile = "archive.html"
	LogoFile        = "assets/logo-giveaway-linux.svg"
	ExportsDir      = "exports"
)

// Layout resolves every file the pipeline reads or writes for one project root.
type Layout struct {
	Root      string
	DataDir   string
	OutputDir string
	ArchiveDB string
}

// NewLayout resolves the configured directories against root.
func NewLayout(root string, cfg *config.Config) Layout {
	dataDir := resolve(root, cfg.DataDir)
	archive := cfg.ArchiveDB
	if !filepath.IsAbs(archive) {
		archive = filepath.Join(dataDir, archive)
	}
	return Layout{
		Root:      root,
		DataDir:   dataDir,
		OutputDir: resolve(root, cfg.OutputDir),
		ArchiveDB: archive,
	}
}

// Data returns the path of a file in the data directory.
func (l Layout) Data(name string) string {
	return filepath.Join(l.DataDir, name)
}

// SoftwarePath is data/software.json.
func (l Layout) SoftwarePath() string { return l.Data(giveaway.SoftwareFile) }

// GamesPath is data/games.json.
func (l Layout) GamesPath() string { return l.Data(giveaway.GamesFile) }

// PicksPath is data/picks.json.
func (l Layout) PicksPath() string { return l.Data(giveaway.PicksFile) }

// CatalogPath is data/catalog.json.
func (l Layout) CatalogPath() string { return l.Data(giveaway.CatalogFile) }

// HistoryPath is data/history.json.
func (l Layout) HistoryPath() string { return l.Data(giveaway.HistoryFile) }

// RSSPath is the generated feed.
func (l Layout) RSSPath() string { return filepath.Join(l.OutputDir, RSSFile) }

// ArchivePagePath is the generated archive page.
func (l Layout) ArchivePagePath() string { return filepath.Join(l.OutputDir, ArchivePageFile) }

// LogoPath is the generated logo.
func (l Layout) LogoPath() string { return filepath.Join(l.OutputDir, filepath.FromSlash(LogoFile)) }

// ExportsPath is the default directory for archive exports.
func (l Layout) ExportsPath() string { return filepath.Join(l.DataDir, ExportsDir) }

func resolve(root, p string) string {
	if p == "" {
		return root
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

// References holds both validated reference lists.
type References struct {
	Software []giveaway.ReferenceItem
	Games    []giveaway.ReferenceItem
}

// LoadReferences reads and validates software.json and games.json.
func LoadReferences(layout Layout) (*References, error) {
	software, err := loadReferenceFile(layout.SoftwarePath(), giveaway.SoftwareFile)
	if err != nil {
		return nil, err
	}
	games, err := loadReferenceFile(layout.GamesPath(), giveaway.GamesFile)
	if err != nil {
		return nil, err
	}
	return &References{Software: software, Games: games}, nil
}

// LoadRenderReferences reads software.json and games.json for rendering.
// Unparseable or non-list files are errors; incomplete items are logged and
// skipped or rendered with placeholders.
func LoadRenderReferences(layout Layout) (*References, error) {
	refs := &References{}
	for _, f := range []struct {
		path, name string
		dst        *[]giveaway.ReferenceItem
	}{
		{layout.SoftwarePath(), giveaway.SoftwareFile, &refs.Software},
		{layout.GamesPath(), giveaway.GamesFile, &refs.Games},
	} {
		raw, err := readFile(f.path)
		if err != nil {
			return nil, err
		}
		items, warnings, err := giveaway.DecodeReferences(f.name, raw)
		if err != nil {
			return nil, err
		}
		for _, w := range warnings {
			log.Printf("warning: %s", w)
		}
		*f.dst = items
	}
	return refs, nil
}

func loadReferenceFile(path, name string) ([]giveaway.ReferenceItem, error) {
	raw, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return giveaway.ValidateReferences(name, raw)
}

// LoadPick reads and decodes picks.json.
func LoadPick(layout Layout) (giveaway.Pick, error) {
	raw, err := readFile(layout.PicksPath())
	if err != nil {
		return giveaway.Pick{}, err
	}
	return giveaway.DecodePick(giveaway.PicksFile, raw)
}

// loadStore reads a catalog-shaped file. A missing file is an empty store.
func loadStore(path, name string) ([]giveaway.CatalogEntry, bool, error) {
	raw, exists, err := readFileIfExists(path)
	if err != nil || !exists {
		return nil, exists, err
	}
	entries, err := giveaway.DecodeCatalog(name, raw)
	if err != nil {
		return nil, true, err
	}
	return entries, true, nil
}
