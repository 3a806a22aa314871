// Package main is the ruiji CLI entry point.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/ruiji/internal/cli"
	"github.com/hyperjump/ruiji/internal/config"
	"github.com/hyperjump/ruiji/internal/models"
	"github.com/hyperjump/ruiji/internal/pipeline"
	"github.com/hyperjump/ruiji/internal/server"
	"github.com/hyperjump/ruiji/internal/storage"
	"github.com/hyperjump/ruiji/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/ruiji/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
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
	command := os.Args[1]
	switch command {
	case "run":
		runBatch()
	case "load":
		runLoad()
	case "serve":
		runServe()
	case "neighbors":
		runNeighbors()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("ruiji version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// runBatch executes the similarity pipeline over the corpus and writes the
// neighbor table. Preconditions (readable corpus, overwritable output) are
// checked before any computation; on success the terminal status is "OK".
func runBatch() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	overwrite := fs.Bool("overwrite", false, "replace an existing neighbor table")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		fatalf("Invalid configuration: %v", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	count, err := store.CountFragments(ctx)
	if err != nil {
		fatalf("Corpus not readable: %v", err)
	}
	if count == 0 {
		fatalf("Corpus is empty or missing: %s", cfg.Storage.DatabasePath)
	}
	if !cfg.Storage.Overwrite && !*overwrite {
		has, err := store.HasNeighbors(ctx)
		if err != nil {
			fatalf("Failed to check existing output: %v", err)
		}
		if has {
			fatalf("Neighbor table already exists; run with -overwrite to replace it")
		}
	}

	fragments, err := store.LoadFragments(ctx)
	if err != nil {
		fatalf("Failed to load corpus: %v", err)
	}

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		fatalf("Failed to build pipeline: %v", err)
	}

	started := time.Now()
	result, err := p.Run(ctx, fragments)
	if err != nil {
		fatalf("Pipeline failed: %v", err)
	}

	if err := store.WriteNeighbors(ctx, result.Records); err != nil {
		fatalf("Failed to write neighbor table: %v", err)
	}
	run := &models.RunInfo{
		ID:               uuid.New().String(),
		StartedAt:        started,
		FinishedAt:       time.Now(),
		SimilarDistance:  cfg.Similarity.SimilarDistanceOrDefault(),
		VocabSize:        cfg.Similarity.VocabSize,
		NgramSize:        cfg.Similarity.NgramSize,
		MinDocFreq:       cfg.Similarity.MinDocFreq,
		NumHashFunctions: cfg.Similarity.NumHashFunctions,
		Documents:        result.Documents,
		Records:          len(result.Records),
	}
	if err := store.RecordRun(ctx, run); err != nil {
		logger.Warn("failed to record run", zap.Error(err))
	}

	fmt.Printf("Processed %d documents (%d comparable), vocabulary %d, %d candidate pairs, %d records in %s\n",
		result.Documents, result.Vectorized, result.VocabSize, result.Candidates, len(result.Records),
		time.Since(started).Round(time.Millisecond))
	fmt.Println("OK")
}

// runLoad imports corpus fragments from a JSON Lines file, one Fragment per line.
func runLoad() {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	file := fs.String("file", "", "JSON Lines file of fragments (required)")
	_ = fs.Parse(os.Args[2:])

	if *file == "" {
		fmt.Fprintln(fs.Output(), "Usage: ruiji load -file fragments.jsonl")
		os.Exit(1)
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	f, err := os.Open(*file)
	if err != nil {
		fatalf("Failed to open fragments file: %v", err)
	}
	defer f.Close()

	ctx := context.Background()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	loaded := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var frag models.Fragment
		if err := json.Unmarshal(raw, &frag); err != nil {
			fatalf("Invalid fragment on line %d: %v", line, err)
		}
		if err := store.AddFragment(ctx, &frag); err != nil {
			fatalf("Failed to insert fragment on line %d: %v", line, err)
		}
		loaded++
	}
	if err := scanner.Err(); err != nil {
		fatalf("Failed to read fragments file: %v", err)
	}
	fmt.Printf("Loaded %d fragments\n", loaded)
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer store.Close()

	srv := server.NewServer(store, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// runNeighbors prints the neighbor record for one document, or all records.
func runNeighbors() {
	fs := flag.NewFlagSet("neighbors", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	jsonOut := fs.Bool("json", false, "output JSON instead of text")
	limit := fs.Int("limit", 20, "max records to print when no document id is given")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	format := cli.OutputText
	if *jsonOut {
		format = cli.OutputJSON
	}

	ctx := context.Background()
	var records []*models.NeighborRecord
	if args := fs.Args(); len(args) > 0 {
		rec, err := store.GetNeighbors(ctx, args[0])
		if err != nil {
			fatalf("%v", err)
		}
		records = []*models.NeighborRecord{rec}
	} else {
		records, err = store.ListNeighbors(ctx, 0, *limit)
		if err != nil {
			fatalf("Failed to list neighbors: %v", err)
		}
	}
	if err := cli.WriteNeighborRecords(os.Stdout, records, format); err != nil {
		fatalf("Failed to write output: %v", err)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	fragments, err := store.CountFragments(ctx)
	if err != nil {
		fatalf("Failed to count fragments: %v", err)
	}
	records, err := store.CountRecords(ctx)
	if err != nil {
		fatalf("Failed to count records: %v", err)
	}
	fmt.Printf("Database: %s\n", cfg.Storage.DatabasePath)
	fmt.Printf("Fragments: %d\n", fragments)
	fmt.Printf("Neighbor records: %d\n", records)
	run, err := store.LastRun(ctx)
	if err != nil {
		fatalf("Failed to read last run: %v", err)
	}
	if run == nil {
		fmt.Println("No completed runs.")
		return
	}
	fmt.Printf("Last run: %s finished %s (%d documents, %d records)\n",
		run.ID, run.FinishedAt.Format(time.RFC3339), run.Documents, run.Records)
	fmt.Printf("Parameters: distance<=%.3f vocab=%d ngram=%d min_df=%d hashes=%d\n",
		run.SimilarDistance, run.VocabSize, run.NgramSize, run.MinDocFreq, run.NumHashFunctions)
}

func fatalf(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`ruiji - near-duplicate document detection

Usage:
  ruiji run [-config path] [-overwrite] [-debug]     compute the neighbor table for the corpus
  ruiji load -file fragments.jsonl [-config path]    import corpus fragments (JSON Lines)
  ruiji serve [-config path] [-debug]                serve the neighbor table over HTTP
  ruiji neighbors [document-id] [-json] [-limit n]   print neighbor records
  ruiji status [-config path]                        show corpus and result counts
  ruiji version                                      print version
  ruiji help                                         show this help`)
}
