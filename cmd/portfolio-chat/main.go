// Package main is the portfolio-chat CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/analytics"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/chat"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/config"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/embedding"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/generator"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/ingest"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/retriever"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/server"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/watcher"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/portfolio-chat/config.yaml"

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory takes precedence, so running from the project dir
// picks up the project's config. Returns the config and the path actually used.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// .env is optional; it carries OPENAI_API_KEY in development.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("portfolio-chat version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedPath),
		zap.Bool("debug", debugMode))

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := components.Cache.Warmup(ctx, cfg.Chat.Languages); err != nil {
		logger.Warn("index warmup incomplete; run 'portfolio-chat ingest' to build missing indices",
			zap.Error(err))
	}

	if cfg.Documents.Watch {
		ingester := components.Ingester
		cache := components.Cache
		watch := watcher.New(cfg.Documents.Root, cfg.Chat.Languages, cfg.Documents.Extensions,
			func(lng string) {
				logger.Info("documents changed, rebuilding index", zap.String("lang", lng))
				if _, err := ingester.BuildIndex(context.Background(), lng); err != nil {
					logger.Error("rebuild failed", zap.String("lang", lng), zap.Error(err))
					return
				}
				cache.Evict(lng)
			}, logger)
		if err := watch.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watch.Stop()
	}

	// Idle conversations are dropped periodically instead of per request.
	ttl := time.Duration(cfg.Chat.HistoryTTLMinutes) * time.Minute
	go func() {
		ticker := time.NewTicker(ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := components.History.SweepIdle(ttl); n > 0 {
					logger.Debug("swept idle conversations", zap.Int("removed", n))
				}
			}
		}
	}()

	srv := server.NewServer(components.Chat, components.Feedback, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	langFlag := fs.String("lang", "", "ingest a single language (default: all configured)")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		fmt.Printf("Failed to create embedder: %v\n", err)
		os.Exit(1)
	}
	defer embedder.Close()

	ingester := ingest.New(ingest.Options{
		DocumentsRoot: cfg.Documents.Root,
		IndexRoot:     cfg.Documents.IndexRoot,
		Extensions:    cfg.Documents.Extensions,
		ChunkSize:     cfg.Documents.ChunkSize,
		ChunkOverlap:  cfg.Documents.ChunkOverlap,
	}, embedder, logger)

	languages := cfg.Chat.Languages
	if *langFlag != "" {
		languages = []string{*langFlag}
	}
	for _, lng := range languages {
		manifest, err := ingester.BuildIndex(context.Background(), lng)
		if err != nil {
			fmt.Printf("Ingestion failed for %s: %v\n", lng, err)
			os.Exit(1)
		}
		fmt.Printf("Built %s index: %d chunks from %s\n",
			lng, manifest.Count, filepath.Join(cfg.Documents.Root, lng))
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}

	var status struct {
		Indices map[string]struct {
			Available bool   `json:"available"`
			Chunks    int    `json:"chunks"`
			Model     string `json:"model"`
		} `json:"indices"`
		Config map[string]interface{} `json:"config"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Println("# indices")
		for lng, idx := range status.Indices {
			if idx.Available {
				fmt.Printf("%s:  %d chunks (model %s)\n", lng, idx.Chunks, idx.Model)
			} else {
				fmt.Printf("%s:  not built\n", lng)
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

// Components holds the initialized services behind the server.
type Components struct {
	Cache    *retriever.Cache
	Ingester *ingest.Ingester
	History  *chat.History
	Chat     *chat.Service
	Feedback server.FeedbackRecorder
	embedder embedding.Embedder
	store    *analytics.Store
}

func (c *Components) Close() {
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.embedder != nil {
		_ = c.embedder.Close()
	}
	if c.store != nil {
		_ = c.store.Close()
	}
}

func newEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	return embedding.New(embeddingOptions(cfg))
}

func embeddingOptions(cfg *config.Config) embedding.Options {
	return embedding.Options{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		CacheSize:  cfg.Embedding.CacheSize,
		APIKey:     os.Getenv("OPENAI_API_KEY"),
		ModelPath:  cfg.Embedding.ModelPath,
		MaxTokens:  cfg.Embedding.MaxTokens,
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	cache := retriever.NewCache(cfg.Documents.IndexRoot, embeddingOptions(cfg), logger)

	gen, err := generator.New(generator.Options{
		Provider:    cfg.AI.Provider,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		APIKey:      os.Getenv("OPENAI_API_KEY"),
	})
	if err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}

	// Dedicated embedder for watcher-triggered re-ingestion; query embedding
	// goes through the cache's shared embedders.
	embedder, err := newEmbedder(cfg)
	if err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	ingester := ingest.New(ingest.Options{
		DocumentsRoot: cfg.Documents.Root,
		IndexRoot:     cfg.Documents.IndexRoot,
		Extensions:    cfg.Documents.Extensions,
		ChunkSize:     cfg.Documents.ChunkSize,
		ChunkOverlap:  cfg.Documents.ChunkOverlap,
	}, embedder, logger)

	history := chat.NewHistory(cfg.Chat.HistoryTurns)

	var recorder chat.UsageRecorder
	var feedback server.FeedbackRecorder
	var store *analytics.Store
	if cfg.Analytics.Enabled {
		store, err = analytics.Open(cfg.Analytics.DatabasePath)
		if err != nil {
			_ = cache.Close()
			_ = embedder.Close()
			return nil, fmt.Errorf("failed to open analytics store: %w", err)
		}
		recorder = store
		feedback = store
	}

	settings := chat.Settings{
		DefaultK:         cfg.Retrieval.DefaultK,
		MaxK:             cfg.Retrieval.MaxK,
		UseMMR:           cfg.Retrieval.UseMMROrDefault(),
		FetchK:           cfg.Retrieval.FetchK,
		MMRLambda:        cfg.Retrieval.MMRLambda,
		MinScore:         cfg.Retrieval.MinScore,
		MaxCharsPerChunk: cfg.Retrieval.MaxCharsPerChunk,
		IncludeCitations: cfg.Chat.IncludeCitationsOrDefault(),
		Languages:        cfg.Chat.Languages,
		DefaultLanguage:  cfg.Chat.DefaultLanguage,
	}
	chatSvc := chat.NewService(settings, retriever.New(cache, logger), gen, history, recorder, logger)

	return &Components{
		Cache:    cache,
		Ingester: ingester,
		History:  history,
		Chat:     chatSvc,
		Feedback: feedback,
		embedder: embedder,
		store:    store,
	}, nil
}

func printUsage() {
	fmt.Println(`portfolio-chat - retrieval-augmented portfolio chat backend

Usage:
  portfolio-chat server [flags]   Start the HTTP server
  portfolio-chat ingest [flags]   Build the vector indices from documents
  portfolio-chat status [flags]   Show index status of a running server
  portfolio-chat version          Show version
  portfolio-chat help             Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/portfolio-chat/config.yaml)
  --debug            Enable debug logging

Ingest Flags:
  --config string    Config file path
  --lang string      Ingest a single language (default: all configured)

Status Flags:
  --server string    Server URL (default: http://localhost:8080)
  --output string    Output format: text or json (default: text)

Examples:
  portfolio-chat ingest
  portfolio-chat ingest --lang de
  portfolio-chat server --debug
  portfolio-chat status --output json`)
}
