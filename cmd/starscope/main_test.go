package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/starscope/pkg/cache"
	"github.com/umputun/starscope/pkg/domain"
	"github.com/umputun/starscope/pkg/repository"
)

func writeTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()
	content := `
analysis:
  cache_dir: ` + filepath.Join(tmpDir, "cache") + `

llm:
  api_key: test-key
  model: gpt-4o-mini

database:
  dsn: "file:` + filepath.Join(tmpDir, "test.db") + `"
`
	path := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_MissingConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := run(ctx, Opts{Config: "non-existent-config.yml"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "load config")
}

func TestRun_InvalidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("invalid: yaml: content: ["), 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := run(ctx, Opts{Config: path})
	require.Error(t, err)
	require.Contains(t, err.Error(), "load config")
}

func TestRun_ConfigFailsVerification(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  model: gpt-4o-mini\n"), 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := run(ctx, Opts{Config: path})
	require.Error(t, err)
	require.Contains(t, err.Error(), "verify config")
}

func TestRun_PurgeCache(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeTestConfig(t, tmpDir)

	// seed the cache with one record
	c := cache.New(filepath.Join(tmpDir, "cache"))
	require.NoError(t, c.Put(&domain.AnalysisRecord{
		Repo:           domain.Repo{FullName: "a/b"},
		Categorization: domain.Classification{Category: "Other Tools"},
	}))
	require.Equal(t, 1, c.Size())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, run(ctx, Opts{Config: configPath, PurgeCache: true}))
	assert.Zero(t, c.Size())
}

func TestRun_History(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeTestConfig(t, tmpDir)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// seed one run so history has something to show
	store, err := repository.NewStore(ctx, repository.Config{DSN: "file:" + filepath.Join(tmpDir, "test.db")})
	require.NoError(t, err)
	require.NoError(t, store.Runs.SaveRun(ctx, domain.Stats{Total: 3, Analyzed: 3}, time.Now(), time.Second))
	require.NoError(t, store.Close())

	require.NoError(t, run(ctx, Opts{Config: configPath, History: 5}))
}

func TestSetupLog(t *testing.T) {
	t.Run("debug mode enabled", func(t *testing.T) {
		setupLog(true)
	})

	t.Run("debug mode disabled", func(t *testing.T) {
		setupLog(false)
	})

	t.Run("with secrets", func(t *testing.T) {
		setupLog(true, "secret1", "secret2")
	})
}

func TestPrintProgress(t *testing.T) {
	// render all three variants, must not panic
	printProgress(domain.Progress{Current: 1, Total: 3, Repo: "a/b", Category: "Other Tools", Confidence: 80,
		Elapsed: 1200 * time.Millisecond, Tokens: 150})
	printProgress(domain.Progress{Current: 2, Total: 3, Repo: "c/d", Category: "Other Tools", Confidence: 90, FromCache: true})
	printProgress(domain.Progress{Current: 3, Total: 3, Repo: "e/f", Err: errors.New("boom")})
}

func TestPrintReport(t *testing.T) {
	records := []domain.AnalysisRecord{
		{
			Repo:           domain.Repo{FullName: "a/b"},
			Categorization: domain.Classification{Category: "CLI & Terminal Tools", Confidence: 92},
		},
		{
			Repo:   domain.Repo{FullName: "c/d"},
			Failed: true,
			Error:  "llm request failed",
		},
	}
	stats := domain.Stats{Total: 2, Analyzed: 1, Failed: 1, TotalTokens: 150}
	printReport(records, stats, 3*time.Second)
}
