// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/poiesic/bookscan"
	"github.com/poiesic/bookscan/config"
	"github.com/poiesic/bookscan/ingestion"
	"github.com/poiesic/bookscan/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "bookscan",
		Usage: "Hyphen-aware literal search over scanned books",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Load JSON or YAML book documents into the library",
				ArgsUsage: "FILE...",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of files loaded concurrently (0 selects the default)",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Ingest files even if they are unchanged since the last run",
					},
					&cli.BoolFlag{
						Name:  "no-sort",
						Usage: "Reject unsorted content instead of sorting it",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Report loading progress on stderr",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the library for a literal term",
				ArgsUsage: "TERM",
				Action:    searchCommand,
				Flags: []cli.Flag{
					dbFlag(),
					policyFlag(),
					formatFlag(),
					&cli.BoolFlag{
						Name:  "metrics",
						Usage: "Print search metrics on stderr",
					},
				},
			},
			{
				Name:      "find",
				Usage:     "Search book documents directly, without a library",
				ArgsUsage: "FILE...",
				Action:    findCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "term",
						Aliases:  []string{"t"},
						Usage:    "Literal search term",
						Required: true,
					},
					policyFlag(),
					formatFlag(),
				},
			},
			{
				Name:   "list",
				Usage:  "List the books in the library",
				Action: listCommand,
				Flags: []cli.Flag{
					dbFlag(),
					formatFlag(),
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove books from the library",
				ArgsUsage: "ISBN...",
				Action:    removeCommand,
				Flags: []cli.Flag{
					dbFlag(),
				},
			},
		},
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "db",
		Aliases: []string{"d"},
		Usage:   "Path to BadgerDB database directory (overrides config)",
	}
}

func policyFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "policy",
		Usage: "Hyphen join policy (carry-forward, clear-on-match)",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (json, yaml, text)",
		Value:   "json",
	}
}

// resolveConfig layers the config file, BOOKSCAN_* environment variables and
// command flags, in that order. Flags a command does not define are ignored.
func resolveConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if err := cfg.LoadEnv(); err != nil {
		return nil, err
	}

	if c.IsSet("db") {
		cfg.DatabasePath = c.String("db")
	}
	if c.IsSet("policy") {
		cfg.JoinPolicy = c.String("policy")
	}
	if c.IsSet("pool-size") {
		cfg.PoolSize = c.Int("pool-size")
	}
	if c.Bool("no-sort") {
		cfg.SortContent = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openLibrary(c *cli.Context, opts ...bookscan.LibraryOption) (*bookscan.Library, error) {
	cfg, err := resolveConfig(c)
	if err != nil {
		return nil, err
	}

	lib, err := bookscan.OpenFromConfig(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	return lib, nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	opts := []ingestion.Option{ingestion.WithForce(c.Bool("force"))}
	if c.Bool("progress") {
		opts = append(opts, ingestion.WithProgress(os.Stderr, 1))
	}

	pipeline, err := lib.NewIngestionPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	start := time.Now()
	report, err := pipeline.IngestFiles(c.Context, c.Args().Slice()...)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Ingested %s books from %s files (%s unchanged) in %s\n",
		color.GreenString(humanize.Comma(int64(report.Books))),
		humanize.Comma(int64(report.Files)),
		humanize.Comma(int64(report.Skipped)),
		time.Since(start).Round(time.Millisecond))
	return nil
}

func searchCommand(c *cli.Context) error {
	format, err := parseFormat(c.String("format"))
	if err != nil {
		return err
	}

	var reg *prometheus.Registry
	var opts []bookscan.LibraryOption
	if c.Bool("metrics") {
		reg = prometheus.NewRegistry()
		opts = append(opts, bookscan.WithRegisterer(reg))
	}

	lib, err := openLibrary(c, opts...)
	if err != nil {
		return err
	}
	defer lib.Close()

	term := strings.Join(c.Args().Slice(), " ")
	response, err := lib.Search(c.Context, term)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if err := writeResponse(c.App.Writer, format, response); err != nil {
		return err
	}

	if reg != nil {
		return writeMetrics(c.App.ErrWriter, reg)
	}
	return nil
}

func findCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	format, err := parseFormat(c.String("format"))
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(c)
	if err != nil {
		return err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}

	books := []any{}
	for _, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		doc, err := ingestion.ParseDocument(path, data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		items, ok := doc.([]any)
		if !ok {
			return fmt.Errorf("%s: document must be a list of books", path)
		}
		books = append(books, items...)
	}

	matcher, err := search.NewMatcher(search.WithJoinPolicy(policy))
	if err != nil {
		return err
	}

	response, err := matcher.SearchDocument(c.String("term"), books)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return writeResponse(c.App.Writer, format, response)
}

func listCommand(c *cli.Context) error {
	format, err := parseFormat(c.String("format"))
	if err != nil {
		return err
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	books, err := lib.Books().ListBooks(c.Context)
	if err != nil {
		return fmt.Errorf("failed to list books: %w", err)
	}
	return writeBookList(c.App.Writer, format, books)
}

func removeCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one ISBN is required")
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	if err := lib.Books().DeleteBooks(c.Context, c.Args().Slice()...); err != nil {
		return fmt.Errorf("failed to remove books: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Removed %s books\n", humanize.Comma(int64(c.NArg())))
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
