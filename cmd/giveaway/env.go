package main

import (
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/zlormann/giveaway-linux/internal/config"
	"github.com/zlormann/giveaway-linux/internal/db"
	"github.com/zlormann/giveaway-linux/internal/errors"
	"github.com/zlormann/giveaway-linux/internal/mcp"
	"github.com/zlormann/giveaway-linux/internal/ops"
)

// env is what every command works against: one project root and its config.
type env struct {
	root   string
	cfg    *config.Config
	layout ops.Layout
	now    time.Time
}

// loadEnv resolves --root, loads .env files and giveaway.json, and parses --now.
func loadEnv(c *cli.Context) (*env, error) {
	root, err := filepath.Abs(c.String("root"))
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid --root: %v", err))
	}

	now := time.Now()
	if s := c.String("now"); s != "" {
		now, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("--now must be RFC 3339, got %q", s))
		}
	}

	config.LoadDotEnv(root)
	cfg, err := config.Load(root)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("failed to load config: %v", err))
	}
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		log.Printf("warning: unknown tools in disabled_tools: %v", unknown)
	}

	return &env{
		root:   root,
		cfg:    cfg,
		layout: ops.NewLayout(root, cfg),
		now:    now,
	}, nil
}

// openArchive opens the SQLite archive, or returns nil when it is disabled.
func (e *env) openArchive() (*sql.DB, error) {
	if e.cfg.DisableArchive {
		return nil, nil
	}
	database, err := db.Init(e.layout.ArchiveDB)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to initialize archive: %w", err))
	}
	return database, nil
}

// requireArchive opens the archive for commands that cannot run without it.
func (e *env) requireArchive() (*sql.DB, error) {
	if e.cfg.DisableArchive {
		return nil, errors.NewInvalidRequest("the archive is disabled (disable_archive)")
	}
	return e.openArchive()
}
