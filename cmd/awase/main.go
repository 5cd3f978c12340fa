// Package main is the Awase CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/awase/internal/config"
	"github.com/hyperjump/awase/internal/index"
	"github.com/hyperjump/awase/internal/retrieval"
	"github.com/hyperjump/awase/internal/server"
	"github.com/hyperjump/awase/internal/storage"
	"github.com/hyperjump/awase/internal/vector"
	"github.com/hyperjump/awase/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/awase/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used instead.
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
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "server":
		runServer()
	case "reconcile":
		runReconcile()
	case "version", "--version", "-v":
		fmt.Printf("awase version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

type components struct {
	vectorStore  vector.Store
	keywordStore storage.Store
	manager      *index.Manager
	retriever    *retrieval.Retriever
}

func (c *components) Close() {
	if c.keywordStore != nil {
		_ = c.keywordStore.Close()
	}
	if c.vectorStore != nil {
		_ = c.vectorStore.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*components, error) {
	keywordStore, err := storage.NewStore(&cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("create keyword store: %w", err)
	}
	vectorStore, err := vector.NewStore(ctx, &cfg.Vector)
	if err != nil {
		_ = keywordStore.Close()
		return nil, fmt.Errorf("create vector store: %w", err)
	}
	retriever, err := retrieval.NewRetriever(vectorStore, keywordStore, retrieval.Config{
		VectorWeight: cfg.Retrieval.VectorWeight,
		BM25Weight:   cfg.Retrieval.BM25Weight,
		RRFK:         cfg.Retrieval.RRFK,
	}, logger)
	if err != nil {
		_ = keywordStore.Close()
		_ = vectorStore.Close()
		return nil, fmt.Errorf("create retriever: %w", err)
	}
	return &components{
		vectorStore:  vectorStore,
		keywordStore: keywordStore,
		manager:      index.NewManager(vectorStore, keywordStore, logger),
		retriever:    retriever,
	}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
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
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	comps, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	srv := server.NewServer(comps.manager, comps.retriever, comps.keywordStore, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

func runReconcile() {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	vectorIDs := fs.String("vector-ids", "", "comma-separated document ids known to the vector store (omit to enumerate from the store)")
	removeOrphans := fs.Bool("remove-orphans", false, "remove keyword-store records with no vector-store counterpart")
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

	ctx := context.Background()
	comps, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	var report *index.ReconcileReport
	if *vectorIDs != "" {
		ids := strings.Split(*vectorIDs, ",")
		for i := range ids {
			ids[i] = strings.TrimSpace(ids[i])
		}
		report, err = comps.manager.Reconcile(ctx, ids, *removeOrphans)
	} else {
		report, err = comps.manager.ReconcileFromStore(ctx, *removeOrphans)
	}
	if err != nil {
		logger.Fatal("Reconciliation failed", zap.Error(err))
	}

	fmt.Printf("In both stores:   %d\n", len(report.InBoth))
	fmt.Printf("Vector-only:      %d %v\n", len(report.VectorOnly), report.VectorOnly)
	fmt.Printf("Keyword-only:     %d %v\n", len(report.KeywordOnly), report.KeywordOnly)
	if *removeOrphans {
		fmt.Printf("Removed keyword:  %d %v\n", len(report.RemovedKeyword), report.RemovedKeyword)
	}
}

func printUsage() {
	fmt.Println(`Usage: awase <command> [flags]

Commands:
  server      Run the HTTP API server
  reconcile   Compare vector and keyword store contents, optionally removing keyword orphans
  version     Print version
  help        Show this help`)
}
