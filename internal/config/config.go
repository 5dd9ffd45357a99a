package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

// FileName is the project-level config file, looked up in the project root.
const FileName = "giveaway.json"

// Config holds application configuration.
type Config struct {
	// DataDir holds software.json, games.json, picks.json, catalog.json and history.json.
	// Relative paths are resolved against the project root.
	DataDir string `json:"data_dir,omitempty"`

	// OutputDir is the site root where rss.xml, archive.html and assets/ are written.
	OutputDir string `json:"output_dir,omitempty"`

	// SiteURL is the public URL of the site. Must end with a slash.
	SiteURL string `json:"site_url,omitempty"`

	FeedTitle       string `json:"feed_title,omitempty"`
	FeedDescription string `json:"feed_description,omitempty"`

	// Language is the BCP 47 tag written to the feed's <language>.
	Language string `json:"language,omitempty"`

	// TimeZone decides which calendar day "today" is.
	TimeZone string `json:"time_zone,omitempty"`

	// ScheduleTime is the HH:MM local time at which a scheduled pick runs.
	ScheduleTime string `json:"schedule_time,omitempty"`

	// RetentionDays caps catalog.json and history.json.
	RetentionDays int `json:"retention_days,omitempty"`

	// MaxFeedItems caps the number of <item> elements in rss.xml.
	MaxFeedItems int `json:"max_feed_items,omitempty"`

	// ArchiveDB is the SQLite archive path, relative to DataDir unless absolute.
	ArchiveDB string `json:"archive_db,omitempty"`

	// DisableArchive skips the SQLite archive during builds.
	DisableArchive bool `json:"disable_archive,omitempty"`

	// Placeholder names used when a catalog entry points at an unknown id.
	SoftwarePlaceholder string `json:"software_placeholder,omitempty"`
	GamePlaceholder     string `json:"game_placeholder,omitempty"`

	// ProjectName and Tagline are drawn on the logo.
	ProjectName string `json:"project_name,omitempty"`
	Tagline     string `json:"tagline,omitempty"`

	// AllowedPaths lists extra directories archive export/import may use,
	// besides the data and exports directories. Absolute paths only.
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// envOverrides mirrors the Config fields that can be set from the environment.
type envOverrides struct {
	DataDir         string   `env:"GIVEAWAY_DATA_DIR"`
	OutputDir       string   `env:"GIVEAWAY_OUTPUT_DIR"`
	SiteURL         string   `env:"GIVEAWAY_SITE_URL"`
	FeedTitle       string   `env:"GIVEAWAY_FEED_TITLE"`
	FeedDescription string   `env:"GIVEAWAY_FEED_DESCRIPTION"`
	Language        string   `env:"GIVEAWAY_LANGUAGE"`
	TimeZone        string   `env:"GIVEAWAY_TIME_ZONE"`
	ScheduleTime    string   `env:"GIVEAWAY_SCHEDULE_TIME"`
	RetentionDays   int      `env:"GIVEAWAY_RETENTION_DAYS"`
	MaxFeedItems    int      `env:"GIVEAWAY_MAX_FEED_ITEMS"`
	ArchiveDB       string   `env:"GIVEAWAY_ARCHIVE_DB"`
	DisableArchive  bool     `env:"GIVEAWAY_DISABLE_ARCHIVE"`
	AllowedPaths    []string `env:"GIVEAWAY_ALLOWED_PATHS" envSeparator:","`
	DisabledTools   []string `env:"GIVEAWAY_DISABLED_TOOLS" envSeparator:","`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir:             "data",
		OutputDir:           ".",
		SiteURL:             "https://zlormann.github.io/Giveaway-Linux/",
		FeedTitle:           "Giveaway Linux",
		FeedDescription:     "Daily free Linux software & games",
		Language:            "fr",
		TimeZone:            "Europe/Paris",
		ScheduleTime:        "13:30",
		RetentionDays:       30,
		MaxFeedItems:        30,
		ArchiveDB:           "archive.db",
		SoftwarePlaceholder: "Logiciel",
		GamePlaceholder:     "Jeu",
		ProjectName:         "Giveaway Linux",
		Tagline:             "Daily free picks • 1 app + 1 game • Open-source & community-driven",
	}
}

// LoadDotEnv loads .env.local and .env from rootDir into the process environment.
// Variables already set are never overridden, and missing files are ignored.
func LoadDotEnv(rootDir string) {
	_ = godotenv.Load(filepath.Join(rootDir, ".env.local"))
	_ = godotenv.Load(filepath.Join(rootDir, ".env"))
}

// Load builds the configuration for the project at rootDir:
// defaults, then rootDir/giveaway.json, then GIVEAWAY_* environment variables.
// The result is validated.
func Load(rootDir string) (*Config, error) {
	fileCfg, err := loadFileRaw(filepath.Join(rootDir, FileName))
	if err != nil {
		return nil, err
	}

	envCfg, err := loadEnv()
	if err != nil {
		return nil, err
	}

	cfg := Merge(Merge(DefaultConfig(), fileCfg), envCfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(configPath), err)
	}

	return cfg, nil
}

// loadEnv reads GIVEAWAY_* overrides into a zero-valued Config.
func loadEnv() (*Config, error) {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &Config{
		DataDir:         o.DataDir,
		OutputDir:       o.OutputDir,
		SiteURL:         o.SiteURL,
		FeedTitle:       o.FeedTitle,
		FeedDescription: o.FeedDescription,
		Language:        o.Language,
		TimeZone:        o.TimeZone,
		ScheduleTime:    o.ScheduleTime,
		RetentionDays:   o.RetentionDays,
		MaxFeedItems:    o.MaxFeedItems,
		ArchiveDB:       o.ArchiveDB,
		DisableArchive:  o.DisableArchive,
		AllowedPaths:    o.AllowedPaths,
		DisabledTools:   o.DisabledTools,
	}, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		DataDir:             pickString(overlay.DataDir, base.DataDir),
		OutputDir:           pickString(overlay.OutputDir, base.OutputDir),
		SiteURL:             pickString(overlay.SiteURL, base.SiteURL),
		FeedTitle:           pickString(overlay.FeedTitle, base.FeedTitle),
		FeedDescription:     pickString(overlay.FeedDescription, base.FeedDescription),
		Language:            pickString(overlay.Language, base.Language),
		TimeZone:            pickString(overlay.TimeZone, base.TimeZone),
		ScheduleTime:        pickString(overlay.ScheduleTime, base.ScheduleTime),
		ArchiveDB:           pickString(overlay.ArchiveDB, base.ArchiveDB),
		SoftwarePlaceholder: pickString(overlay.SoftwarePlaceholder, base.SoftwarePlaceholder),
		GamePlaceholder:     pickString(overlay.GamePlaceholder, base.GamePlaceholder),
		ProjectName:         pickString(overlay.ProjectName, base.ProjectName),
		Tagline:             pickString(overlay.Tagline, base.Tagline),
	}

	result.RetentionDays = overlay.RetentionDays
	if result.RetentionDays == 0 {
		result.RetentionDays = base.RetentionDays
	}

	result.MaxFeedItems = overlay.MaxFeedItems
	if result.MaxFeedItems == 0 {
		result.MaxFeedItems = base.MaxFeedItems
	}

	// Booleans: overlay wins if true, else base
	result.DisableArchive = base.DisableArchive || overlay.DisableArchive

	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// Validate checks values that would otherwise fail late, in the middle of a build.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.SiteURL, "http://") && !strings.HasPrefix(c.SiteURL, "https://") {
		return fmt.Errorf("site_url must start with http:// or https://, got %q", c.SiteURL)
	}
	if !strings.HasSuffix(c.SiteURL, "/") {
		return fmt.Errorf("site_url must end with a slash, got %q", c.SiteURL)
	}
	if _, err := language.Parse(c.Language); err != nil {
		return fmt.Errorf("language %q is not a valid BCP 47 tag: %w", c.Language, err)
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("time_zone %q: %w", c.TimeZone, err)
	}
	if _, err := time.Parse("15:04", c.ScheduleTime); err != nil {
		return fmt.Errorf("schedule_time must be HH:MM, got %q", c.ScheduleTime)
	}
	if c.RetentionDays < 1 {
		return fmt.Errorf("retention_days must be positive, got %d", c.RetentionDays)
	}
	if c.MaxFeedItems < 1 {
		return fmt.Errorf("max_feed_items must be positive, got %d", c.MaxFeedItems)
	}
	return nil
}

// Location returns the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LanguageTag returns the canonical form of the configured language (e.g. "fr-FR").
func (c *Config) LanguageTag() string {
	tag, err := language.Parse(c.Language)
	if err != nil {
		return c.Language
	}
	return tag.String()
}

// FeedURL is the self link of the feed.
func (c *Config) FeedURL() string {
	return c.SiteURL + "rss.xml"
}

func pickString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
