package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/zlormann/giveaway-linux/internal/errors"
	"github.com/zlormann/giveaway-linux/internal/mcp"
	"github.com/zlormann/giveaway-linux/internal/ops"
	"github.com/zlormann/giveaway-linux/internal/site"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	app := &cli.App{
		Name:    "giveaway",
		Usage:   "Daily free Linux software + game picks, published as a static site",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Value: ".", Usage: "Project root (holds giveaway.json and data/)", EnvVars: []string{"GIVEAWAY_ROOT"}},
			&cli.StringFlag{Name: "now", Usage: "Pretend the current time is this RFC 3339 timestamp"},
		},
		Commands: []*cli.Command{
			runCmd(),
			pickCmd(),
			consolidateCmd(),
			rssCmd(),
			logoCmd(),
			siteCmd(),
			validateCmd(),
			todayCmd(),
			archiveCmd(),
			serveCmd(),
			mcpCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// runCmd creates the run command: the whole daily pipeline.
func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Pick, consolidate, archive and render everything",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Pick for this day (YYYY-MM-DD) instead of today"},
			&cli.BoolFlag{Name: "scheduled", Usage: "Do nothing unless the local time is the configured schedule_time"},
		},
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return outputError(err)
			}

			database, err := e.openArchive()
			if err != nil {
				return outputError(err)
			}
			if database != nil {
				defer database.Close()
			}

			output, err := ops.Build(c.Context, e.layout, e.cfg, database, site.DefaultRenderer(Version), ops.BuildInput{
				Date:      c.String("date"),
				Now:       e.now,
				Scheduled: c.Bool("scheduled"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// pickCmd creates the pick command.
func pickCmd() *cli.Command {
	return &cli.Command{
		Name:  "pick",
		Usage: "Select the day's software and game and write picks.json",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Pick for this day (YYYY-MM-DD) instead of today"},
			&cli.BoolFlag{Name: "scheduled", Usage: "Do nothing unless the local time is the configured schedule_time"},
		},
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.PickDay(e.layout, e.cfg, ops.PickInput{
				Date:      c.String("date"),
				Now:       e.now,
				Scheduled: c.Bool("scheduled"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// consolidateCmd creates the consolidate command.
func consolidateCmd() *cli.Command {
	return &cli.Command{
		Name:  "consolidate",
		Usage: "Merge picks.json into catalog.json and history.json",
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.ConsolidateFiles(e.layout, e.cfg, ops.ConsolidateInput{})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// rssCmd creates the rss command.
func rssCmd() *cli.Command {
	return &cli.Command{
		Name:  "rss",
		Usage: "Render rss.xml from the catalog",
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.WriteFeed(e.layout, e.cfg, ops.FeedInput{Now: e.now})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// logoCmd creates the logo command.
func logoCmd() *cli.Command {
	return &cli.Command{
		Name:  "logo",
		Usage: "Render the SVG logo",
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.WriteLogo(e.layout, e.cfg)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// siteCmd creates the site command.
func siteCmd() *cli.Command {
	return &cli.Command{
		Name:  "site",
		Usage: "Render archive.html from the catalog",
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.WritePage(e.layout, e.cfg, site.DefaultRenderer(Version))
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// validateCmd creates the validate command.
func validateCmd() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Check every data file and exit non-zero on the first problem",
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Validate(e.layout, e.cfg)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// todayCmd creates the today command.
func todayCmd() *cli.Command {
	return &cli.Command{
		Name:  "today",
		Usage: "Show the current pick with names and links",
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Latest(e.layout, e.cfg)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// archiveCmd creates the archive command and its subcommands.
func archiveCmd() *cli.Command {
	return &cli.Command{
		Name:  "archive",
		Usage: "Query and back up the long-term pick archive",
		Subcommands: []*cli.Command{
			archiveListCmd(),
			archiveShowCmd(),
			archiveExportCmd(),
			archiveImportCmd(),
		},
	}
}

// withArchive loads the environment, opens the archive and runs fn.
func withArchive(c *cli.Context, fn func(e *env, database *sql.DB) (any, error)) error {
	e, err := loadEnv(c)
	if err != nil {
		return outputError(err)
	}
	database, err := e.requireArchive()
	if err != nil {
		return outputError(err)
	}
	defer database.Close()

	output, err := fn(e, database)
	if err != nil {
		return outputError(err)
	}
	return outputJSON(output)
}

// archiveListCmd creates the archive list command.
func archiveListCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List archived picks, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum results"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Skip first N results"},
		},
		Action: func(c *cli.Context) error {
			return withArchive(c, func(_ *env, database *sql.DB) (any, error) {
				return ops.List(c.Context, database, ops.ListInput{
					Limit:  c.Int("limit"),
					Offset: c.Int("offset"),
				})
			})
		},
	}
}

// archiveShowCmd creates the archive show command.
func archiveShowCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show the archived pick for a day",
		ArgsUsage: "<YYYY-MM-DD>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("exactly one date argument is required"))
			}
			return withArchive(c, func(_ *env, database *sql.DB) (any, error) {
				return ops.Fetch(c.Context, database, ops.FetchInput{Date: c.Args().First()})
			})
		},
	}
}

// archiveExportCmd creates the archive export command.
func archiveExportCmd() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the archive to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: data/exports/<project>-<timestamp>.jsonl)"},
		},
		Action: func(c *cli.Context) error {
			return withArchive(c, func(e *env, database *sql.DB) (any, error) {
				return ops.Export(c.Context, database, e.layout, e.cfg, ops.ExportInput{
					Path: c.String("path"),
					Now:  e.now,
				})
			})
		},
	}
}

// archiveImportCmd creates the archive import command.
func archiveImportCmd() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Backfill the archive from a JSONL export, history.json or catalog.json",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: string(ops.ImportModeReplace), Usage: "Collision mode: replace|skip|error"},
		},
		Action: func(c *cli.Context) error {
			return withArchive(c, func(e *env, database *sql.DB) (any, error) {
				return ops.Import(c.Context, database, e.layout, e.cfg, ops.ImportInput{
					Path: c.String("path"),
					Mode: ops.ImportMode(c.String("mode")),
					Now:  e.now,
				})
			})
		},
	}
}

// serveCmd creates the serve command.
func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Preview the generated site over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind to"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8080, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return outputError(err)
			}
			port := c.Int("port")
			if port < 1 || port > 65535 {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("port must be between 1 and 65535, got %d", port)))
			}

			srv := site.NewServer(e.layout, e.cfg, Version, c.String("bind"), port)
			if err := site.Run(srv); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve read-only giveaway tools over MCP (stdio)",
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return outputError(err)
			}

			database, err := e.openArchive()
			if err != nil {
				return outputError(err)
			}
			if database != nil {
				defer database.Close()
			}

			if err := mcp.Run(e.layout, database, e.cfg, Version); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if gErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", gErr.Code, gErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
