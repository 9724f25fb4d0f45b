package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/starscope/pkg/config"
	"github.com/umputun/starscope/pkg/domain"
)

// Classifier is the single-attempt classification contract shared by the
// plain client and the telemetry decorator.
type Classifier interface {
	Classify(ctx context.Context, repo domain.Repo) (*domain.Classification, int, int, error)
	Close() error
}

// Telemetry decorates a Classifier with call analytics. Events are
// buffered in memory and posted to the collector on Close. Transparent to
// the retry wrapper and pipeline above it.
type Telemetry struct {
	next     Classifier
	model    string
	endpoint string
	apiKey   string
	client   *http.Client

	mu     sync.Mutex
	events []callEvent
	closed bool
}

type callEvent struct {
	Repo        string `json:"repo"`
	Model       string `json:"model"`
	DurationMs  int64  `json:"duration_ms"`
	Tokens      int    `json:"tokens"`
	WebSearches int    `json:"web_searches"`
	Failed      bool   `json:"failed"`
	Timestamp   string `json:"timestamp"`
}

// WithTelemetry wraps a classifier with the analytics decorator
func WithTelemetry(next Classifier, model string, cfg config.TelemetryConfig) *Telemetry {
	return &Telemetry{
		next:     next,
		model:    model,
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Classify delegates to the wrapped classifier and records the call
func (t *Telemetry) Classify(ctx context.Context, repo domain.Repo) (*domain.Classification, int, int, error) {
	st := time.Now()
	res, webSearches, tokens, err := t.next.Classify(ctx, repo)

	t.mu.Lock()
	t.events = append(t.events, callEvent{
		Repo:        repo.FullName,
		Model:       t.model,
		DurationMs:  time.Since(st).Milliseconds(),
		Tokens:      tokens,
		WebSearches: webSearches,
		Failed:      err != nil,
		Timestamp:   st.UTC().Format(time.RFC3339),
	})
	t.mu.Unlock()

	return res, webSearches, tokens, err
}

// Close flushes buffered events to the collector and closes the wrapped
// classifier. Safe to call more than once; only the first call posts.
func (t *Telemetry) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	events := t.events
	t.events = nil
	t.mu.Unlock()

	if len(events) > 0 {
		if err := t.post(events); err != nil {
			lgr.Printf("[WARN] failed to flush %d telemetry events: %v", len(events), err)
		}
	}

	return t.next.Close()
}

func (t *Telemetry) post(events []callEvent) error {
	body, err := json.Marshal(map[string]interface{}{"events": events})
	if err != nil {
		return fmt.Errorf("marshal telemetry events: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telemetry request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("post telemetry events: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // nothing to do on close failure

	if resp.StatusCode >= 300 {
		return fmt.Errorf("telemetry collector returned %s", resp.Status)
	}
	return nil
}
