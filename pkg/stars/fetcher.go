// Package stars fetches the user's starred repositories through the gh
// CLI and keeps a TTL'd copy in the store so repeated runs don't hammer
// the GitHub API. This is thin glue in front of the analysis pipeline.
package stars

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/starscope/pkg/domain"
)

//go:generate moq -out mocks/runner.go -pkg mocks -skip-ensure -fmt goimports . Runner
//go:generate moq -out mocks/store.go -pkg mocks -skip-ensure -fmt goimports . Store

// Runner executes gh commands
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// Store caches the fetched star list between runs
type Store interface {
	GetAll(ctx context.Context) ([]domain.Repo, error)
	ReplaceAll(ctx context.Context, repos []domain.Repo) error
	FetchedAt(ctx context.Context) (time.Time, error)
}

// Fetcher retrieves starred repos, serving from the store while fresh
type Fetcher struct {
	gh    Runner
	store Store
	ttl   time.Duration
	limit int
}

// New creates a fetcher. Limit of 0 means all starred repos.
func New(gh Runner, store Store, ttl time.Duration, limit int) *Fetcher {
	return &Fetcher{gh: gh, store: store, ttl: ttl, limit: limit}
}

// ghRepo is the GitHub API shape of a starred repository
type ghRepo struct {
	FullName    string    `json:"full_name"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	Topics      []string  `json:"topics"`
	Stars       int       `json:"stargazers_count"`
	URL         string    `json:"html_url"`
	PushedAt    time.Time `json:"pushed_at"`
}

// Starred returns the user's starred repos. The stored list is served
// while within TTL unless refresh forces a new fetch; a fresh fetch
// replaces the stored list.
func (f *Fetcher) Starred(ctx context.Context, refresh bool) ([]domain.Repo, error) {
	if !refresh {
		if repos, ok := f.fromStore(ctx); ok {
			return repos, nil
		}
	}

	repos, err := f.fetch(ctx)
	if err != nil {
		return nil, err
	}

	// the store keeps the full list; the limit only applies to what this
	// run analyzes, so later runs within TTL still see everything
	if err := f.store.ReplaceAll(ctx, repos); err != nil {
		// stale store is not fatal, the fetched list is still good
		lgr.Printf("[WARN] failed to store star list: %v", err)
	}

	return f.truncate(repos), nil
}

// fromStore serves the cached list when present and fresh
func (f *Fetcher) fromStore(ctx context.Context) ([]domain.Repo, bool) {
	fetchedAt, err := f.store.FetchedAt(ctx)
	if err != nil || fetchedAt.IsZero() {
		return nil, false
	}
	if time.Since(fetchedAt) > f.ttl {
		lgr.Printf("[DEBUG] stored star list from %s is stale", fetchedAt.Format(time.RFC3339))
		return nil, false
	}

	repos, err := f.store.GetAll(ctx)
	if err != nil || len(repos) == 0 {
		return nil, false
	}

	lgr.Printf("[INFO] serving %d starred repos from store, fetched %s", len(repos), fetchedAt.Format(time.RFC3339))
	return f.truncate(repos), true
}

// fetch pulls all pages of starred repos via gh
func (f *Fetcher) fetch(ctx context.Context) ([]domain.Repo, error) {
	out, err := f.gh.Run(ctx, "api", "user/starred?per_page=100", "--paginate")
	if err != nil {
		return nil, fmt.Errorf("fetch starred repos: %w", err)
	}

	// --paginate concatenates one JSON array per page, decode them all
	var raw []ghRepo
	dec := json.NewDecoder(bytes.NewReader(out))
	for {
		var page []ghRepo
		if err := dec.Decode(&page); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("parse starred repos: %w", err)
		}
		raw = append(raw, page...)
	}

	repos := make([]domain.Repo, len(raw))
	for i, r := range raw {
		repos[i] = domain.Repo{
			FullName:    r.FullName,
			Name:        r.Name,
			Description: r.Description,
			Language:    r.Language,
			Topics:      r.Topics,
			Stars:       r.Stars,
			URL:         r.URL,
			PushedAt:    r.PushedAt,
		}
	}

	lgr.Printf("[INFO] fetched %d starred repos", len(repos))
	return repos, nil
}

func (f *Fetcher) truncate(repos []domain.Repo) []domain.Repo {
	if f.limit > 0 && len(repos) > f.limit {
		return repos[:f.limit]
	}
	return repos
}
