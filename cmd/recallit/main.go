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
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/recallit"
	"github.com/poiesic/recallit/ai"
	"github.com/poiesic/recallit/core"
	"github.com/poiesic/recallit/refdata"
	"github.com/poiesic/recallit/search"
	"github.com/poiesic/recallit/similarity"
)

const keywordHint = "query embedding unavailable; try keyword-search"

func main() {
	if err := loadDotEnv(".env"); err != nil {
		log.Fatal(err)
	}
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadDotEnv loads environment defaults from path. A missing file is not an
// error; variables already set in the environment win.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func newApp() *cli.App {
	ownerFlag := &cli.StringFlag{
		Name:     "owner",
		Aliases:  []string{"u"},
		Usage:    "Owner (user) ID",
		Required: true,
	}
	kindFlag := &cli.StringFlag{
		Name:    "kind",
		Aliases: []string{"k"},
		Usage:   "Record kind (posts, memory)",
		Value:   string(core.KindPost),
	}
	noCacheFlag := &cli.BoolFlag{
		Name:  "no-cache",
		Usage: "Bypass the cache and read from the source",
	}

	return &cli.App{
		Name:  "recallit",
		Usage: "Semantic retrieval over saved content, with cached reference data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   "recallit-data",
				EnvVars: []string{"RECALLIT_DB"},
			},
			&cli.StringFlag{
				Name:    "sqlite",
				Usage:   "Keep candidate records in this SQLite database instead of BadgerDB",
				EnvVars: []string{"RECALLIT_SQLITE"},
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL",
				Value:   ai.DefaultConfig().EmbeddingHost,
				EnvVars: []string{"EMBEDDING_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				Value:   ai.DefaultConfig().EmbeddingModel,
				EnvVars: []string{"EMBEDDING_MODEL"},
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Embedding service API key",
				EnvVars: []string{"OPENROUTER_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "airtable-api-key",
				Usage:   "Airtable API key",
				EnvVars: []string{"AIRTABLE_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "airtable-base-id",
				Usage:   "Airtable base ID",
				EnvVars: []string{"AIRTABLE_BASE_ID"},
			},
			&cli.StringFlag{
				Name:    "airtable-profiles-table",
				Usage:   "Airtable user profiles table",
				Value:   refdata.DefaultConfig().ProfilesTable,
				EnvVars: []string{"AIRTABLE_PROFILES_TABLE"},
			},
			&cli.StringFlag{
				Name:    "airtable-websites-table",
				Usage:   "Airtable websites table",
				Value:   refdata.DefaultConfig().WebsitesTable,
				EnvVars: []string{"AIRTABLE_WEBSITES_TABLE"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "save",
				Usage:  "Save a piece of content for later retrieval",
				Action: saveCommand,
				Flags: []cli.Flag{
					ownerFlag,
					kindFlag,
					&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "Content text", Required: true},
					&cli.StringFlag{Name: "type", Usage: "Content subtype, e.g. tweet or video"},
					&cli.StringFlag{Name: "output", Usage: "Generated output for the content"},
					&cli.StringSliceFlag{Name: "tag", Usage: "Tag (repeatable)"},
					&cli.StringSliceFlag{Name: "meta", Usage: "Metadata as key=value (repeatable)"},
				},
			},
			{
				Name:   "search",
				Usage:  "Find saved content semantically similar to a query",
				Action: searchCommand,
				Flags: []cli.Flag{
					ownerFlag,
					kindFlag,
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Query text", Required: true},
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of results", Value: similarity.DefaultLimit},
					&cli.Float64Flag{Name: "min-similarity", Usage: "Minimum cosine similarity", Value: similarity.DefaultMinSimilarity},
					&cli.BoolFlag{Name: "trace", Usage: "Log each scoring step"},
				},
			},
			{
				Name:   "keyword-search",
				Usage:  "Find saved content by keyword match",
				Action: keywordSearchCommand,
				Flags: []cli.Flag{
					ownerFlag,
					kindFlag,
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Query text", Required: true},
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of results", Value: similarity.DefaultLimit},
				},
			},
			{
				Name:   "backfill",
				Usage:  "Embed saved content that has no embedding for the current model",
				Action: backfillCommand,
				Flags: []cli.Flag{
					ownerFlag,
					kindFlag,
					&cli.IntFlag{Name: "limit", Usage: "Examine at most this many of the newest records (0 = all)"},
					&cli.IntFlag{Name: "pool-size", Usage: "Number of concurrent embedding workers", Value: 4},
					&cli.IntFlag{Name: "max-retries", Usage: "Maximum attempts per record", Value: 3},
					&cli.BoolFlag{Name: "progress", Usage: "Report progress on stderr"},
				},
			},
			{
				Name:   "sync",
				Usage:  "Refresh cached reference data from Airtable",
				Action: syncCommand,
			},
			{
				Name:   "sync-status",
				Usage:  "Show the result of the last sync",
				Action: syncStatusCommand,
			},
			{
				Name:   "profiles",
				Usage:  "List user profiles, or show one",
				Action: profilesCommand,
				Flags: []cli.Flag{
					noCacheFlag,
					&cli.StringFlag{Name: "id", Usage: "Profile record ID"},
					&cli.StringFlag{Name: "user", Usage: "User ID"},
				},
			},
			{
				Name:   "websites",
				Usage:  "List websites, or show one",
				Action: websitesCommand,
				Flags: []cli.Flag{
					noCacheFlag,
					&cli.StringFlag{Name: "id", Usage: "Website ID"},
				},
			},
			{
				Name:   "health",
				Usage:  "Check that Airtable is configured and reachable",
				Action: healthCommand,
			},
		},
	}
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

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// openEngine builds an engine from the global flags.
func openEngine(c *cli.Context) (*recallit.Engine, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithAPIKey(c.String("api-key")),
	)
	refConfig := refdata.NewConfig(
		refdata.WithBaseID(c.String("airtable-base-id")),
		refdata.WithAPIKey(c.String("airtable-api-key")),
		refdata.WithProfilesTable(c.String("airtable-profiles-table")),
		refdata.WithWebsitesTable(c.String("airtable-websites-table")),
	)

	opts := []recallit.Option{
		recallit.WithAIConfig(aiConfig),
		recallit.WithRefDataConfig(refConfig),
	}
	if dsn := c.String("sqlite"); dsn != "" {
		opts = append(opts, recallit.WithSQLite(dsn))
	}

	engine, err := recallit.NewEngine(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return engine, nil
}

func parseKind(c *cli.Context) (core.Kind, error) {
	kind := core.Kind(c.String("kind"))
	if err := core.ValidateKind(kind); err != nil {
		return "", err
	}
	return kind, nil
}

func parseMetadata(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata %q: expected key=value", pair)
		}
		meta[key] = value
	}
	return meta, nil
}

func writeJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func saveCommand(c *cli.Context) error {
	kind, err := parseKind(c)
	if err != nil {
		return err
	}
	meta, err := parseMetadata(c.StringSlice("meta"))
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	pipeline, err := engine.NewPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	record, err := pipeline.Save(c.Context, &core.CandidateRecord{
		OwnerID:  c.String("owner"),
		Kind:     kind,
		Type:     c.String("type"),
		Text:     c.String("text"),
		Output:   c.String("output"),
		Tags:     c.StringSlice("tag"),
		Metadata: meta,
	})
	if err != nil {
		return err
	}
	return writeJSON(c, newCandidateJSON(record, nil))
}

func searchCommand(c *cli.Context) error {
	kind, err := parseKind(c)
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	searcher, err := engine.NewSearcher()
	if err != nil {
		return err
	}

	var monitor search.SearchMonitor
	if c.Bool("trace") {
		monitor = search.NewLogMonitor(slog.Default())
	}
	result, err := searcher.SearchWithMonitor(c.Context, c.String("owner"), c.String("query"), kind,
		c.Int("limit"), c.Float64("min-similarity"), monitor)
	if err != nil {
		return err
	}

	out := searchOutput{
		Query:   c.String("query"),
		Results: make([]candidateJSON, 0, len(result.Candidates)),
		Scanned: result.Scanned,
		Skipped: result.Skipped,
	}
	for _, candidate := range result.Candidates {
		score := candidate.Score
		out.Results = append(out.Results, newCandidateJSON(candidate.Record, &score))
	}
	if result.EmbeddingUnavailable() {
		out.EmbeddingError = result.EmbeddingErr.Error()
		out.Hint = keywordHint
	}
	return writeJSON(c, out)
}

func keywordSearchCommand(c *cli.Context) error {
	kind, err := parseKind(c)
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	searcher, err := engine.NewKeywordSearcher()
	if err != nil {
		return err
	}
	result, err := searcher.Search(c.Context, c.String("owner"), c.String("query"), kind, c.Int("limit"))
	if err != nil {
		return err
	}

	out := keywordOutput{
		Query:    c.String("query"),
		Keywords: result.Keywords,
		Results:  make([]candidateJSON, 0, len(result.Records)),
	}
	for _, record := range result.Records {
		out.Results = append(out.Results, newCandidateJSON(record, nil))
	}
	return writeJSON(c, out)
}
