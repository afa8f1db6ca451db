package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nzbtriage/internal/config"
	"nzbtriage/internal/domain"
	"nzbtriage/internal/httpclient"
	"nzbtriage/internal/logger"
	"nzbtriage/internal/nntp"
	"nzbtriage/internal/runner"
	"nzbtriage/internal/triage"
)

var (
	configPath string
	batchPath  string
)

var rootCmd = &cobra.Command{
	Use:   "nzbtriage",
	Short: "nzbtriage triages competing NZB candidates against an NNTP provider",
	Long:  `A bounded, cancellable triage engine that ranks NZB candidates and confirms they are stored and reachable before anything downloads them.`,
	Run: func(cmd *cobra.Command, args []string) {
		if batchPath == "" {
			fmt.Println("Error: --batch is required")
			cmd.Help()
			return
		}
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "nzbtriage: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the config file")
	rootCmd.Flags().StringVarP(&batchPath, "batch", "b", "", "Path to a JSON file listing candidate NZBs (required)")
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	log, err := logger.New(cfg.Log.Path, logger.ParseLevel(cfg.Log.Level), cfg.Log.IncludeStdout)
	if err != nil {
		return fmt.Errorf("logger error: %w", err)
	}

	candidates, err := loadCandidates(batchPath)
	if err != nil {
		return fmt.Errorf("batch error: %w", err)
	}

	serverCfg := domain.ServerConfig{
		Host:        cfg.NNTP.Host,
		Port:        cfg.NNTP.Port,
		Username:    cfg.NNTP.User,
		Password:    cfg.NNTP.Pass,
		TLS:         cfg.NNTP.UseTLS,
		Connections: cfg.NNTPMaxConnections,
		ConnTimeout: cfg.NNTP.ConnTimeout,
	}

	registry := nntp.NewRegistry(log.With("component", "pool"))
	defer registry.Close()

	pool, poolErr := registry.Acquire(ctx, serverCfg, cfg.NNTPMaxConnections, cfg.NNTPKeepAliveMs, cfg.ReuseNNTPPool)
	if poolErr != nil {
		log.Warn("nntp pool unavailable, continuing with local-only checks: %v", poolErr)
	}

	var analyzerPool triage.Pool
	if pool != nil {
		analyzerPool = pool
	}

	analyzer := triage.New(triage.Config{
		ArchiveDirs:          cfg.ArchiveDirs,
		HealthCheckTimeoutMs: cfg.HealthCheckTimeoutMs,
		MaxDecodedBytes:      cfg.MaxDecodedBytes,
		MaxParallelNZBs:      cfg.MaxParallelNZBs,
		StatSampleCount:      cfg.StatSampleCount,
		ArchiveSampleCount:   cfg.ArchiveSampleCount,
	}, analyzerPool, poolErr, log.With("component", "analyzer"))

	r := runner.New(runner.Config{
		TimeBudgetMs:        cfg.TimeBudgetMs,
		MaxCandidates:       cfg.MaxCandidates,
		DownloadConcurrency: cfg.DownloadConcurrency,
		DownloadTimeoutMs:   cfg.DownloadTimeoutMs,
		PreferredSizeBytes:  cfg.PreferredSizeBytes,
		PreferredIndexerIDs: cfg.PreferredIndexerIDs,
	}, httpclient.New(), analyzer, log.With("component", "runner"))

	result := r.Run(ctx, candidates)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

type candidateFile struct {
	DownloadURL string `json:"downloadUrl"`
	Title       string `json:"title"`
	IndexerID   string `json:"indexerId"`
	IndexerName string `json:"indexerName"`
	Size        int64  `json:"size"`
}

func loadCandidates(path string) ([]domain.Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var raw []candidateFile
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, err
	}

	out := make([]domain.Candidate, 0, len(raw))
	for _, c := range raw {
		out = append(out, domain.Candidate{
			DownloadURL: c.DownloadURL,
			Title:       c.Title,
			IndexerID:   c.IndexerID,
			IndexerName: c.IndexerName,
			Size:        c.Size,
		})
	}
	return out, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
