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

	"github.com/poiesic/docgraph"
	"github.com/poiesic/docgraph/ai"
	"github.com/poiesic/docgraph/ai/openai"
	"github.com/poiesic/docgraph/core"
	badgerstore "github.com/poiesic/docgraph/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:   "docgraph",
		Usage:  "Graph-based semantic search over text documents",
		Before: setupLogger,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Build (or refresh) the document graph index",
				Action: buildCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Embedding worker pool size (default: half the CPU count)",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Query a built index",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(engineFlags(),
					&cli.BoolFlag{
						Name:  "rebuild",
						Usage: "Rebuild the index before querying if the source changed",
					},
				),
			},
			{
				Name:   "inspect",
				Usage:  "Print the persisted index header",
				Action: inspectCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "index",
						Aliases:  []string{"i"},
						Usage:    "Path to the index directory",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "source",
			Aliases:  []string{"s"},
			Usage:    "Source directory of text documents",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "index",
			Aliases:  []string{"i"},
			Usage:    "Path to the index directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.IntFlag{
			Name:  "max-results",
			Usage: "Maximum number of results per query",
			Value: 10,
		},
	}
}

func setupLogger(c *cli.Context) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.String("log-level"))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.String("log-level"), err)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return nil
}

func newEngine(c *cli.Context, opts ...docgraph.EngineOption) (*docgraph.Engine, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
	)
	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	engine, err := docgraph.New(embedder, opts...)
	if err != nil {
		return nil, err
	}
	if err := engine.Initialize(c.String("source"), c.String("index"), c.Int("max-results")); err != nil {
		return nil, err
	}
	return engine, nil
}

func buildCommand(c *cli.Context) error {
	ctx := context.Background()

	opts := []docgraph.EngineOption{docgraph.WithProgressWriter(os.Stderr)}
	if c.Int("pool-size") > 0 {
		cfg := docgraph.DefaultConfig()
		cfg.PoolSize = c.Int("pool-size")
		opts = append(opts, docgraph.WithConfig(cfg))
	}

	engine, err := newEngine(c, opts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	err = engine.BuildIndex(ctx)
	if errors.Is(err, core.ErrPartialBuild) {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		err = nil
	}
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	meta := engine.Meta()
	fmt.Fprintf(os.Stderr, "Index ready: %d nodes, %d edges from %d chunks\n",
		meta.NodeCount, meta.EdgeCount, meta.ChunkCount)
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := c.Args().First()
	if query == "" {
		return fmt.Errorf("query argument is required")
	}

	engine, err := newEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if c.Bool("rebuild") {
		if err := engine.BuildIndex(ctx); err != nil && !errors.Is(err, core.ErrPartialBuild) {
			return fmt.Errorf("build failed: %w", err)
		}
	} else {
		if err := engine.Load(ctx); err != nil {
			return fmt.Errorf("loading index failed (try --rebuild): %w", err)
		}
	}

	answer, err := engine.Ask(ctx, query)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}

func inspectCommand(c *cli.Context) error {
	ctx := context.Background()

	store, err := badgerstore.OpenStore(c.String("index"), false)
	if err != nil {
		return fmt.Errorf("opening index store: %w", err)
	}
	defer store.Close()

	meta, err := store.Meta(ctx)
	if err != nil {
		return fmt.Errorf("reading index header: %w", err)
	}

	fmt.Printf("Format version:  %d\n", meta.FormatVersion)
	fmt.Printf("Nodes:           %d\n", meta.NodeCount)
	fmt.Printf("Edges:           %d\n", meta.EdgeCount)
	fmt.Printf("Chunks:          %d\n", meta.ChunkCount)
	fmt.Printf("Dimension:       %d\n", meta.Dimension)
	fmt.Printf("Source dir:      %s\n", meta.SourceDir)
	fmt.Printf("Max results:     %d\n", meta.MaxResults)
	fmt.Printf("Built at:        %s\n", meta.BuiltAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Fingerprint:     %016x\n", meta.SourceFingerprint)
	return nil
}
