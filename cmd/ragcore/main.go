package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gops/agent"

	"github.com/agentic-platform/ragcore/config"
	"github.com/agentic-platform/ragcore/embeddings"
	"github.com/agentic-platform/ragcore/generation"
	"github.com/agentic-platform/ragcore/logger"
	"github.com/agentic-platform/ragcore/pipeline"
	"github.com/agentic-platform/ragcore/vectordb"
	"github.com/agentic-platform/ragcore/vectordb/mem"
	"github.com/agentic-platform/ragcore/vectordb/sqlite"
)

func main() {
	startGops()
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "ingest":
		ingestCmd(os.Args[2:])
	case "query":
		queryCmd(os.Args[2:])
	case "collections":
		collectionsCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: ragcore <command> [options]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  ingest       Load, chunk, embed and index a file or directory")
	fmt.Fprintln(os.Stderr, "  query        Retrieve context and generate an answer")
	fmt.Fprintln(os.Stderr, "  collections  List indexed collections")
}

func ingestCmd(args []string) {
	flags := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := flags.String("config", "ragcore.yaml", "config yaml path")
	source := flags.String("source", "", "file, directory or URL to ingest (required)")
	collection := flags.String("collection", "default", "target collection")
	debug := flags.Bool("debug", false, "debug logging")
	flags.Parse(args)

	if *source == "" {
		log.Fatal("ingest: --source is required")
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	logger.Init(*debug)

	pipe, store := buildPipeline(ctx, *configPath, false)
	defer func() { _ = store.Close() }()

	count, err := pipe.Ingest(ctx, *source, *collection)
	if err != nil {
		log.Fatalf("ingest: %v", err)
	}
	if persister, ok := store.(vectordb.Persister); ok {
		if err := persister.Persist(ctx); err != nil {
			log.Fatalf("ingest: persist: %v", err)
		}
	}
	logger.Info("ingested", "collection", *collection, "chunks", count)
	fmt.Printf("indexed %d chunks into %q\n", count, *collection)
}

func queryCmd(args []string) {
	flags := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := flags.String("config", "ragcore.yaml", "config yaml path")
	collection := flags.String("collection", "default", "collection to query")
	question := flags.String("question", "", "question to answer (required)")
	k := flags.Int("k", 0, "number of context chunks (0 = config default)")
	retrieveOnly := flags.Bool("retrieve-only", false, "skip generation, print matches")
	debug := flags.Bool("debug", false, "debug logging")
	flags.Parse(args)

	if *question == "" {
		log.Fatal("query: --question is required")
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	logger.Init(*debug)

	pipe, store := buildPipeline(ctx, *configPath, !*retrieveOnly)
	defer func() { _ = store.Close() }()

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if *retrieveOnly {
		docs, err := pipe.Retrieve(ctx, *collection, *question, *k)
		if err != nil {
			log.Fatalf("query: %v", err)
		}
		if err := encoder.Encode(docs); err != nil {
			log.Fatalf("query: encode: %v", err)
		}
		return
	}
	result, err := pipe.Query(ctx, *collection, *question, *k)
	if err != nil {
		log.Fatalf("query: %v", err)
	}
	if err := encoder.Encode(result); err != nil {
		log.Fatalf("query: encode: %v", err)
	}
}

func collectionsCmd(args []string) {
	flags := flag.NewFlagSet("collections", flag.ExitOnError)
	configPath := flags.String("config", "ragcore.yaml", "config yaml path")
	debug := flags.Bool("debug", false, "debug logging")
	flags.Parse(args)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	logger.Init(*debug)

	cfg := loadConfig(ctx, *configPath)
	store := openStore(ctx, cfg)
	defer func() { _ = store.Close() }()

	names, err := store.Collections(ctx)
	if err != nil {
		log.Fatalf("collections: %v", err)
	}
	for _, name := range names {
		fmt.Println(name)
	}
}

func loadConfig(ctx context.Context, path string) *config.Config {
	cfg, err := config.Load(ctx, path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// openStore opens the durable sqlite store at persistPath; the
// "memory" sentinel opts into the volatile in-memory store.
func openStore(ctx context.Context, cfg *config.Config) vectordb.Store {
	if cfg.PersistPath == config.PersistMemory {
		store, err := mem.New(ctx, mem.WithEmbeddingModel(cfg.Embedding.Model))
		if err != nil {
			log.Fatalf("store: %v", err)
		}
		return store
	}
	store, err := sqlite.New(
		sqlite.WithDSN(cfg.PersistPath),
		sqlite.WithEmbeddingModel(cfg.Embedding.Model),
	)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	return store
}

func buildPipeline(ctx context.Context, configPath string, needGenerator bool) (*pipeline.Service, vectordb.Store) {
	cfg := loadConfig(ctx, configPath)
	store := openStore(ctx, cfg)
	embedder, err := embeddings.New(cfg.Embedding)
	if err != nil {
		log.Fatalf("embedder: %v", err)
	}
	var generator generation.Generator
	if needGenerator && cfg.Generation.Provider != "" {
		generator, err = generation.New(&cfg.Generation)
		if err != nil {
			log.Fatalf("generator: %v", err)
		}
	}
	pipe, err := pipeline.New(cfg, store, embedder, generator)
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}
	return pipe, store
}

func startGops() {
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		log.Printf("gops: %v", err)
	}
}
