package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"docfind/internal/chunker"
	"docfind/internal/config"
	"docfind/internal/embedding"
	"docfind/internal/embedding/hashing"
	"docfind/internal/embedding/openai"
	"docfind/internal/parser"
	"docfind/internal/service"
	"docfind/internal/summarizer"
	"docfind/internal/token"
	"docfind/internal/tui"
	"docfind/internal/vectorstore"
	"docfind/internal/vectorstore/memory"
	"docfind/internal/vectorstore/sqlite"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfgPath := flag.String("config", "", "Path to config YAML (default: ./config.yaml, then ~/.config/docfind/config.yaml)")
	flag.Parse()
	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Println("Usage: docfind [--config=config.yaml] file1.txt [file2.pdf ...]")
		os.Exit(1)
	}

	// .env is optional; env vars already set win over it.
	_ = godotenv.Load()

	var (
		cfg *config.AppConfig
		err error
	)
	if *cfgPath != "" {
		cfg, err = config.Load(*cfgPath)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	ctx := context.Background()

	counter, err := token.NewCounter(cfg.Chunker.Encoding)
	if err != nil {
		return fmt.Errorf("token counter: %w", err)
	}
	splitter, err := chunker.NewRecursive(counter, cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("chunker: %w", err)
	}

	var embedder embedding.Provider
	var dimension int
	switch cfg.Embedder.Type {
	case "hashing", "":
		h := hashing.NewEmbedder(cfg.Embedder.Dimension)
		embedder, dimension = h, h.Dimension()
	case "openai":
		oa := cfg.Embedder.OpenAI
		if oa == nil {
			oa = &config.OpenAIEmbedderConfig{}
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:        oa.BaseURL,
			APIKeyEnv:      oa.APIKeyEnv,
			Model:          oa.Model,
			Timeout:        time.Duration(oa.TimeoutSecs) * time.Second,
			BatchSize:      oa.BatchSize,
			QueryPrefix:    oa.QueryPrefix,
			DocumentPrefix: oa.DocumentPrefix,
		})
		if err != nil {
			return fmt.Errorf("openai embedder: %w", err)
		}
		dimension, err = client.EnsureDimension(ctx)
		if err != nil {
			return fmt.Errorf("probe embedding dimension: %w", err)
		}
		embedder = client
	default:
		return fmt.Errorf("unknown embedder type %q", cfg.Embedder.Type)
	}

	var store vectorstore.Storage
	switch cfg.Store.Type {
	case "sqlite", "":
		store = sqlite.New(cfg.Store.Path, logger)
	case "memory":
		store = memory.New()
	default:
		return fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}
	if err := store.Init(ctx, dimension); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()

	pipeline := service.NewPipeline(splitter, embedder, store, logger)
	var corpus []string
	for _, path := range inputs {
		parsed, err := parser.Parse(path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		res, err := pipeline.Ingest(ctx, parsed.Text, parsed.Pages, parsed.Filename)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}
		logger.Info("ingested", "file", parsed.Filename, "document_id", res.DocumentID, "chunks", res.Chunks, "status", res.Status)
		corpus = append(corpus, parsed.Text)
	}

	summary, err := summarizer.NewFrequency().Summarize(strings.Join(corpus, "\n\n"), 3)
	if err != nil {
		return fmt.Errorf("summarize corpus: %w", err)
	}

	query := service.NewQuery(embedder, store)
	m := tui.New(query, summary, cfg.Query.TopK)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

func newLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}
