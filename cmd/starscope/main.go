package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/starscope/pkg/analyzer"
	"github.com/umputun/starscope/pkg/cache"
	"github.com/umputun/starscope/pkg/config"
	"github.com/umputun/starscope/pkg/gh"
	"github.com/umputun/starscope/pkg/llm"
	"github.com/umputun/starscope/pkg/repository"
	"github.com/umputun/starscope/pkg/stars"
	"github.com/umputun/starscope/pkg/sync"
)

// Opts with all CLI options
type Opts struct {
	Config     string `short:"f" long:"config" env:"CONFIG" default:"starscope.yml" description:"config file"`
	Limit      int    `short:"l" long:"limit" description:"max starred repos to analyze, overrides config (0 for all)"`
	SkipCache  bool   `long:"skip-cache" description:"reclassify everything, ignore cached analyses"`
	Refresh    bool   `long:"refresh" description:"refetch the star list even if the stored one is fresh"`
	Sync       bool   `short:"s" long:"sync" description:"push the categorization onto GitHub lists"`
	DryRun     bool   `long:"dry-run" description:"log planned list mutations without applying them"`
	History    int    `long:"history" optional:"true" optional-value:"10" description:"show last N analysis runs and exit"`
	PurgeCache bool   `long:"purge-cache" description:"remove all cached analyses and exit"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	if opts.NoColor {
		color.NoColor = true
	}
	setupLog(opts.Debug)

	lgr.Printf("[INFO] starting starscope version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()

	if err != nil {
		lgr.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.VerifyAgainstEmbeddedSchema(cfg); err != nil {
		return fmt.Errorf("verify config: %w", err)
	}

	resultCache := cache.New(cfg.Analysis.CacheDir)
	if opts.PurgeCache {
		if err := resultCache.Purge(); err != nil {
			return err
		}
		lgr.Printf("[INFO] analysis cache purged")
		return nil
	}

	store, err := repository.NewStore(ctx, repository.Config{DSN: cfg.Database.DSN})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			lgr.Printf("[WARN] failed to close store: %v", err)
		}
	}()

	if opts.History > 0 {
		return printHistory(ctx, store.Runs, opts.History)
	}

	limit := cfg.Stars.Limit
	if opts.Limit > 0 {
		limit = opts.Limit
	}

	ghCLI := gh.New(cfg.Stars.GHBinary)
	fetcher := stars.New(ghCLI, store.StarList, cfg.Stars.ListTTL, limit)

	repos, err := fetcher.Starred(ctx, opts.Refresh)
	if err != nil {
		return fmt.Errorf("fetch starred repos: %w", err)
	}
	if len(repos) == 0 {
		lgr.Printf("[INFO] no starred repos found, nothing to do")
		return nil
	}

	var classifier llm.Classifier = llm.NewClient(cfg.LLM)
	if cfg.Telemetry.Enabled() {
		classifier = llm.WithTelemetry(classifier, cfg.LLM.Model, cfg.Telemetry)
		lgr.Printf("[INFO] classifier telemetry enabled")
	}

	svc := analyzer.New(classifier, resultCache, analyzer.Config{
		Concurrency: cfg.Analysis.Concurrency,
		MaxAttempts: cfg.Analysis.MaxAttempts,
		BaseDelay:   cfg.Analysis.BaseDelay,
		MaxDelay:    cfg.Analysis.MaxDelay,
	})
	defer func() {
		if err := svc.Close(); err != nil {
			lgr.Printf("[WARN] failed to close analyzer: %v", err)
		}
	}()

	startedAt := time.Now()
	records := svc.AnalyzeAll(ctx, repos, opts.SkipCache, printProgress)
	stats := svc.Stats()

	// completion order is non-deterministic, sort for stable output
	sort.Slice(records, func(i, j int) bool { return records[i].Repo.FullName < records[j].Repo.FullName })

	printReport(records, stats, time.Since(startedAt))

	if err := store.Runs.SaveRun(ctx, stats, startedAt, time.Since(startedAt)); err != nil {
		lgr.Printf("[WARN] failed to save run stats: %v", err)
	}

	if opts.Sync || opts.DryRun {
		syncer := sync.New(ghCLI, cfg.Sync.ListPrefix, cfg.Sync.BatchSize)
		if err := syncer.Sync(ctx, records, opts.DryRun); err != nil {
			return fmt.Errorf("sync lists: %w", err)
		}
	}

	return nil
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
