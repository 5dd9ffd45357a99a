package ops

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zlormann/giveaway-linux/internal/config"
	"github.com/zlormann/giveaway-linux/internal/errors"
	"github.com/zlormann/giveaway-linux/internal/giveaway"
)

const testSoftware = `[
  {"id": "gimp", "name": "GIMP", "url": "https://www.gimp.org/", "download_url": "https://www.gimp.org/downloads/"},
  {"id": "krita", "name": "Krita", "url": "https://krita.org/", "description": "Digital **painting**"},
  {"id": "inkscape", "name": "Inkscape", "url": "https://inkscape.org/", "home_url": "https://inkscape.org/release/"}
]`

const testGames = `[
  {"id": "0ad", "name": "0 A.D.", "url": "https://play0ad.com/"},
  {"id": "supertux", "name": "SuperTux", "url": "https://www.supertux.org/"}
]`

// newTestProject creates a project root with reference lists in data/.
func newTestProject(t *testing.T) (Layout, *config.Config) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.SiteURL = "https://example.org/"
	layout := NewLayout(t.TempDir(), cfg)
	writeTestFile(t, layout.SoftwarePath(), testSoftware)
	writeTestFile(t, layout.GamesPath(), testGames)
	return layout, cfg
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func writeTestJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	writeTestFile(t, path, string(data))
}

func readTestStore(t *testing.T, path string) []giveaway.CatalogEntry {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var entries []giveaway.CatalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("Unmarshal %s failed: %v", path, err)
	}
	return entries
}

func entry(date, software, game string) giveaway.CatalogEntry {
	return giveaway.CatalogEntry{
		Date:        date,
		SoftwareID:  software,
		GameID:      game,
		GeneratedAt: date + "T11:30:00Z",
		Site:        "https://example.org/",
	}
}

// noon returns 12:30 UTC on date, i.e. 13:30 in Paris during winter time.
func noon(t *testing.T, date string) time.Time {
	t.Helper()
	d, err := time.Parse(giveaway.DateLayout, date)
	if err != nil {
		t.Fatalf("bad test date %q", date)
	}
	return d.Add(12*time.Hour + 30*time.Minute)
}

func TestNewLayout(t *testing.T) {
	cfg := config.DefaultConfig()
	layout := NewLayout("/srv/site", cfg)

	if layout.DataDir != filepath.Join("/srv/site", "data") {
		t.Errorf("DataDir = %q", layout.DataDir)
	}
	if layout.OutputDir != "/srv/site" {
		t.Errorf("OutputDir = %q", layout.OutputDir)
	}
	if layout.ArchiveDB != filepath.Join("/srv/site", "data", "archive.db") {
		t.Errorf("ArchiveDB = %q", layout.ArchiveDB)
	}
	if layout.LogoPath() != filepath.Join("/srv/site", "assets", "logo-giveaway-linux.svg") {
		t.Errorf("LogoPath() = %q", layout.LogoPath())
	}

	cfg.DataDir = "/var/lib/giveaway"
	cfg.ArchiveDB = "/var/cache/archive.db"
	layout = NewLayout("/srv/site", cfg)
	if layout.DataDir != "/var/lib/giveaway" || layout.ArchiveDB != "/var/cache/archive.db" {
		t.Errorf("absolute paths not kept: %+v", layout)
	}
}

func TestLoadReferences(t *testing.T) {
	layout, _ := newTestProject(t)

	refs, err := LoadReferences(layout)
	if err != nil {
		t.Fatalf("LoadReferences failed: %v", err)
	}
	if len(refs.Software) != 3 || len(refs.Games) != 2 {
		t.Errorf("got %d software, %d games", len(refs.Software), len(refs.Games))
	}
}

func TestLoadReferences_MissingFile(t *testing.T) {
	layout, _ := newTestProject(t)
	if err := os.Remove(layout.GamesPath()); err != nil {
		t.Fatal(err)
	}

	_, err := LoadReferences(layout)
	if !errors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("LoadReferences() = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadPick_LegacyTimestamp(t *testing.T) {
	layout, _ := newTestProject(t)
	writeTestFile(t, layout.PicksPath(), `{"date": "2024-01-02", "software_id": "gimp", "game_id": "0ad", "generated_utc": "2024-01-02T12:30:00Z"}`)

	pick, err := LoadPick(layout)
	if err != nil {
		t.Fatalf("LoadPick failed: %v", err)
	}
	if pick.GeneratedAt != "2024-01-02T12:30:00Z" {
		t.Errorf("GeneratedAt = %q", pick.GeneratedAt)
	}
}

func TestWriteJSON_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	if err := writeJSON(path, map[string]string{"name": "Télécharger <b>"}); err != nil {
		t.Fatalf("writeJSON failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"name\": \"Télécharger <b>\"\n}\n"
	if string(data) != want {
		t.Errorf("file = %q, want %q", data, want)
	}

	// No temp files left behind
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1", len(entries))
	}
}

func TestWriteFileAtomic_RefusesSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.xml")
	writeTestFile(t, target, "original")
	link := filepath.Join(dir, "rss.xml")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	err := writeFileAtomic(link, []byte("new"))
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("writeFileAtomic() = %v, want INVALID_REQUEST", err)
	}
	data, _ := os.ReadFile(target)
	if string(data) != "original" {
		t.Errorf("target = %q, want untouched", data)
	}
}

func TestReadFile_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.json")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Truncate(maxInputBytes + 1); err != nil {
		t.Fatal(err)
	}
	f.Close()

	_, err = readFile(path)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("readFile() = %v, want INVALID_REQUEST", err)
	}
}
