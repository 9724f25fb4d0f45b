// Package analyzer runs the classification pipeline: for each starred
// repo it either serves a cached analysis or calls the classifier under
// a bounded worker pool with retries, aggregates run statistics and
// streams one progress event per repo. Individual failures never abort
// the batch; they surface as degraded records and the failed counter.
package analyzer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/starscope/pkg/cache"
	"github.com/umputun/starscope/pkg/domain"
	"github.com/umputun/starscope/pkg/llm"
	"github.com/umputun/starscope/pkg/taxonomy"
)

//go:generate moq -out mocks/classifier.go -pkg mocks -skip-ensure -fmt goimports . Classifier
//go:generate moq -out mocks/cache.go -pkg mocks -skip-ensure -fmt goimports . Cache

// Classifier performs a single classification attempt for one repo,
// returning the classification, auxiliary web-search count and token usage
type Classifier interface {
	Classify(ctx context.Context, repo domain.Repo) (*domain.Classification, int, int, error)
	Close() error
}

// Cache persists analysis records between runs
type Cache interface {
	Get(fullName string) (*domain.AnalysisRecord, cache.Status)
	Put(rec *domain.AnalysisRecord) error
}

// ProgressFunc receives exactly one event per repo as it completes
type ProgressFunc func(p domain.Progress)

// Config holds pipeline tuning, validated upstream
type Config struct {
	Concurrency int           // worker pool size
	MaxAttempts int           // classification attempts per repo, including the first
	BaseDelay   time.Duration // initial retry backoff
	MaxDelay    time.Duration // retry backoff cap
}

// Service is the analysis pipeline. Safe for reuse across runs; call
// ResetStats between independent runs and Close once when done.
type Service struct {
	classifier Classifier
	cache      Cache
	cfg        Config

	mu    sync.Mutex
	stats domain.Stats

	closed atomic.Bool
}

// New creates an analysis pipeline with the given collaborators
func New(classifier Classifier, resultCache Cache, cfg Config) *Service {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 4
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}

	return &Service{classifier: classifier, cache: resultCache, cfg: cfg}
}

// AnalyzeAll classifies all repos under the bounded worker pool. Results
// come back in completion order, not input order; callers needing stable
// ordering sort by repo full name. Per-repo failures are recorded in the
// returned records, never propagated as errors.
func (s *Service) AnalyzeAll(ctx context.Context, repos []domain.Repo, skipCache bool, onProgress ProgressFunc) []domain.AnalysisRecord {
	total := len(repos)
	if total == 0 {
		return []domain.AnalysisRecord{}
	}

	s.mu.Lock()
	s.stats.Total += total
	s.mu.Unlock()

	records := make([]domain.AnalysisRecord, 0, total)
	var recordsMu sync.Mutex
	var completed int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for _, repo := range repos {
		g.Go(func() error {
			rec, prog := s.analyzeOne(ctx, repo, skipCache)
			prog.Current = int(atomic.AddInt64(&completed, 1))
			prog.Total = total

			recordsMu.Lock()
			records = append(records, rec)
			recordsMu.Unlock()

			if onProgress != nil {
				onProgress(prog)
			}
			return nil
		})
	}

	_ = g.Wait() // workers never return errors, failures live in records

	return records
}

// analyzeOne takes a single repo to one of the three terminal outcomes:
// cached, analyzed or failed.
func (s *Service) analyzeOne(ctx context.Context, repo domain.Repo, skipCache bool) (domain.AnalysisRecord, domain.Progress) {
	prog := domain.Progress{Repo: repo.FullName}

	if !skipCache {
		if rec, status := s.cache.Get(repo.FullName); status == cache.Hit {
			s.mu.Lock()
			s.stats.Cached++
			s.mu.Unlock()

			prog.FromCache = true
			prog.Category = rec.Categorization.Category
			prog.Confidence = rec.Categorization.Confidence
			return *rec, prog
		}
	}

	st := time.Now()
	classification, webSearches, tokens, err := s.classify(ctx, repo)
	if err != nil {
		lgr.Printf("[WARN] analysis failed for %s: %v", repo.FullName, err)
		s.mu.Lock()
		s.stats.Failed++
		s.mu.Unlock()

		prog.Err = err
		return degradedRecord(repo, err), prog
	}

	rec := domain.AnalysisRecord{
		Repo:           repo,
		Categorization: *classification,
		WebSearches:    webSearches,
		FromCache:      false,
		AnalyzedAt:     time.Now(),
	}

	// a failed write degrades to "not cached", it never fails the repo
	if putErr := s.cache.Put(&rec); putErr != nil {
		lgr.Printf("[WARN] failed to cache analysis for %s: %v", repo.FullName, putErr)
	}

	s.mu.Lock()
	s.stats.Analyzed++
	s.stats.TotalTokens += tokens
	s.stats.TotalWebSearches += webSearches
	s.mu.Unlock()

	prog.Category = classification.Category
	prog.Confidence = classification.Confidence
	prog.Elapsed = time.Since(st)
	prog.Tokens = tokens
	return rec, prog
}

// classify wraps the single-attempt classifier with the retry policy.
// Permanent errors abort immediately without consuming attempts.
func (s *Service) classify(ctx context.Context, repo domain.Repo) (res *domain.Classification, webSearches, tokens int, err error) {
	retrier := repeater.NewBackoff(s.cfg.MaxAttempts, s.cfg.BaseDelay,
		repeater.WithMaxDelay(s.cfg.MaxDelay), repeater.WithJitter(0.3))

	doErr := retrier.Do(ctx, func() error {
		var cerr error
		res, webSearches, tokens, cerr = s.classifier.Classify(ctx, repo)
		if cerr != nil && !llm.IsRetryable(cerr) {
			// anything not explicitly retryable is permanent
			return &permanentError{err: cerr}
		}
		return cerr
	}, llm.ErrPermanent)

	if doErr != nil {
		return nil, 0, 0, doErr
	}
	return res, webSearches, tokens, nil
}

// permanentError marks a classifier failure as non-retryable so the
// retry loop terminates on it without consuming remaining attempts
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

func (e *permanentError) Is(target error) bool { return target == llm.ErrPermanent }

// degradedRecord synthesizes the failure record: fallback category, zero
// confidence, error captured verbatim. Never persisted so a future run
// retries the repo.
func degradedRecord(repo domain.Repo, err error) domain.AnalysisRecord {
	return domain.AnalysisRecord{
		Repo: repo,
		Categorization: domain.Classification{
			Category:   taxonomy.FallbackName,
			Confidence: 0,
			Reasoning:  fmt.Sprintf("analysis failed: %v", err),
		},
		AnalyzedAt: time.Now(),
		Failed:     true,
		Error:      err.Error(),
	}
}

// Stats returns a snapshot of the running counters
func (s *Service) Stats() domain.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// ResetStats zeroes the counters, intended between independent runs
func (s *Service) ResetStats() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = domain.Stats{}
}

// Close tears down the classifier (flushes telemetry if configured).
// Idempotent.
func (s *Service) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.classifier.Close()
}
