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
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/docingest"
	"github.com/poiesic/docingest/cache"
	"github.com/poiesic/docingest/config"
	"github.com/poiesic/docingest/core"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docingest",
		Usage: "Deduplicating, cached, quality-gated document ingestion",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				EnvVars: []string{"DOCINGEST_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Override the data directory holding the cache and history",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest every file under a directory",
				ArgsUsage: "<dir>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Reprocess files already in the history",
					},
					&cli.BoolFlag{
						Name:  "parallel",
						Usage: "Race all candidate engines instead of trying them in order",
					},
					&cli.Float64Flag{
						Name:  "min-quality",
						Usage: "Minimum quality score (0-100) to accept an extraction",
					},
					&cli.BoolFlag{
						Name:  "embed",
						Usage: "Generate embeddings for ingested documents",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Report progress on stderr",
					},
				},
			},
			{
				Name:  "cache",
				Usage: "Inspect and maintain the caches",
				Subcommands: []*cli.Command{
					{
						Name:   "stats",
						Usage:  "Show stored entries and sizes",
						Action: cacheStatsCommand,
					},
					{
						Name:   "cleanup",
						Usage:  "Remove expired entries",
						Action: cacheCleanupCommand,
					},
					{
						Name:      "clear",
						Usage:     "Remove every entry from one cache, or all of them",
						ArgsUsage: "[extraction|embedding|query|all]",
						Action:    cacheClearCommand,
					},
				},
			},
			{
				Name:      "forget",
				Usage:     "Remove content from the history so it is processed again",
				ArgsUsage: "<file|hash>...",
				Action:    forgetCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Embed every known document missing a vector for the configured model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Recompute vectors that are already cached",
					},
				},
			},
			{
				Name:   "engines",
				Usage:  "List registered extraction engines",
				Action: enginesCommand,
			},
		},
	}
}

// openPipeline loads the configuration, applies overrides and builds the
// pipeline.
func openPipeline(c *cli.Context, override func(*config.Config), opts ...docingest.Option) (*docingest.Pipeline, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if dir := c.String("data-dir"); dir != "" {
		cfg.DataDir = dir
	}
	if override != nil {
		override(cfg)
	}
	opts = append([]docingest.Option{docingest.WithLogger(slog.Default())}, opts...)
	p, err := docingest.New(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open pipeline: %w", err)
	}
	return p, nil
}

func ingestCommand(c *cli.Context) error {
	dir := c.Args().First()
	if dir == "" {
		return errors.New("source directory is required")
	}

	var opts []docingest.Option
	if c.Bool("progress") {
		opts = append(opts, docingest.WithProgress(c.App.ErrWriter))
	}
	p, err := openPipeline(c, func(cfg *config.Config) {
		if c.IsSet("parallel") {
			cfg.Fallback.Parallel = c.Bool("parallel")
		}
		if c.IsSet("min-quality") {
			cfg.Fallback.MinQuality = c.Float64("min-quality")
		}
		if c.Bool("embed") {
			cfg.Embedding.Enabled = true
		}
	}, opts...)
	if err != nil {
		return err
	}
	defer p.Close()

	result, err := p.Ingest(c.Context, dir, c.Bool("force"))
	if result != nil {
		printBatch(c, result)
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	if n := result.FailedCount(); n > 0 {
		return fmt.Errorf("%d file(s) failed", n)
	}
	return nil
}

func printBatch(c *cli.Context, r *core.IngestBatchResult) {
	w := c.App.Writer
	fmt.Fprintf(w, "Batch: %s\n", r.BatchID)
	fmt.Fprintf(w, "Processed: %d\n", r.ProcessedCount)
	fmt.Fprintf(w, "Skipped duplicates: %d\n", r.SkippedDuplicateCount)
	fmt.Fprintf(w, "Failed: %d\n", r.FailedCount())
	fmt.Fprintf(w, "Extraction cache hits: %d\n", r.ExtractionCacheHits)
	fmt.Fprintf(w, "Embedding cache hits: %d\n", r.EmbeddingCacheHits)
	fmt.Fprintf(w, "Records: %d\n", r.TotalRecordsProduced)
	fmt.Fprintf(w, "Elapsed: %.2fs\n", r.ElapsedSeconds)
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s: %s\n", e.ItemName, e.Message)
	}
}

func cacheStatsCommand(c *cli.Context) error {
	p, err := openPipeline(c, nil)
	if err != nil {
		return err
	}
	defer p.Close()

	// Hit, miss and eviction counters start at zero in every process, so
	// only the persisted state is shown here.
	w := c.App.Writer
	fmt.Fprintf(w, "%-12s %8s %12s\n", "CACHE", "ENTRIES", "BYTES")
	for _, m := range p.Caches() {
		s := m.Stats()
		fmt.Fprintf(w, "%-12s %8d %12d\n", s.Name, s.TotalEntries, s.SizeBytes)
	}
	fmt.Fprintf(w, "History entries: %d\n", len(p.History()))
	return nil
}

func cacheCleanupCommand(c *cli.Context) error {
	p, err := openPipeline(c, nil)
	if err != nil {
		return err
	}
	defer p.Close()

	for _, m := range p.Caches() {
		fmt.Fprintf(c.App.Writer, "%s: removed %d expired entries\n", m.Name(), m.CleanupExpired())
	}
	return nil
}

func cacheClearCommand(c *cli.Context) error {
	name := strings.ToLower(c.Args().First())
	if name == "" {
		name = "all"
	}

	p, err := openPipeline(c, nil)
	if err != nil {
		return err
	}
	defer p.Close()

	var targets []cache.Maintainer
	if name == "all" {
		targets = p.Caches()
	} else {
		m, ok := p.Cache(name)
		if !ok {
			return fmt.Errorf("unknown cache %q: must be one of extraction, embedding, query, all", name)
		}
		targets = []cache.Maintainer{m}
	}
	for _, m := range targets {
		fmt.Fprintf(c.App.Writer, "%s: cleared %d entries\n", m.Name(), m.Clear())
	}
	return nil
}

func forgetCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("at least one file or content hash is required")
	}

	p, err := openPipeline(c, nil)
	if err != nil {
		return err
	}
	defer p.Close()

	for _, arg := range c.Args().Slice() {
		var removed bool
		if _, statErr := os.Stat(arg); statErr != nil && core.ValidateContentHash(arg) == nil {
			removed, err = p.ForgetHash(c.Context, arg)
		} else {
			removed, err = p.Forget(c.Context, arg)
		}
		if err != nil {
			return fmt.Errorf("failed to forget %s: %w", arg, err)
		}
		if removed {
			fmt.Fprintf(c.App.Writer, "Forgot %s\n", arg)
		} else {
			fmt.Fprintf(c.App.Writer, "Not in history: %s\n", arg)
		}
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	p, err := openPipeline(c, nil)
	if err != nil {
		return err
	}
	defer p.Close()

	summary, err := p.Reembed(c.Context, c.Bool("force"), c.App.ErrWriter)
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Documents: %d, embedded: %d, already cached: %d, without extraction: %d, empty: %d\n",
		summary.Total, summary.Embedded, summary.AlreadyCached, summary.MissingExtraction, summary.Empty)
	return nil
}

func enginesCommand(c *cli.Context) error {
	p, err := openPipeline(c, nil)
	if err != nil {
		return err
	}
	defer p.Close()

	w := c.App.Writer
	fmt.Fprintf(w, "%-8s %-8s %-10s %s\n", "PRIORITY", "NAME", "AVAILABLE", "VERSION")
	for _, d := range p.Engines() {
		fmt.Fprintf(w, "%-8d %-8s %-10t %s\n", d.Priority, d.Name, d.Available, d.Version)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
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

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
