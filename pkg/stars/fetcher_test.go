package stars

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/starscope/pkg/domain"
	"github.com/umputun/starscope/pkg/stars/mocks"
)

// two pages the way gh --paginate emits them: concatenated JSON arrays
const pagedOutput = `[
  {"full_name": "a/alpha", "name": "alpha", "description": "first", "language": "Go",
   "topics": ["cli"], "stargazers_count": 10, "html_url": "https://github.com/a/alpha",
   "pushed_at": "2026-07-01T12:00:00Z"},
  {"full_name": "b/beta", "name": "beta", "language": "Rust", "stargazers_count": 20,
   "html_url": "https://github.com/b/beta"}
][
  {"full_name": "c/gamma", "name": "gamma", "description": "third", "stargazers_count": 30,
   "html_url": "https://github.com/c/gamma"}
]`

func emptyStore() *mocks.StoreMock {
	return &mocks.StoreMock{
		FetchedAtFunc:  func(ctx context.Context) (time.Time, error) { return time.Time{}, nil },
		GetAllFunc:     func(ctx context.Context) ([]domain.Repo, error) { return nil, nil },
		ReplaceAllFunc: func(ctx context.Context, repos []domain.Repo) error { return nil },
	}
}

func TestFetcher_StarredFetchesAndStores(t *testing.T) {
	runner := &mocks.RunnerMock{
		RunFunc: func(ctx context.Context, args ...string) ([]byte, error) {
			return []byte(pagedOutput), nil
		},
	}
	store := emptyStore()

	f := New(runner, store, time.Hour, 0)
	repos, err := f.Starred(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, repos, 3, "all pages decoded")

	assert.Equal(t, "a/alpha", repos[0].FullName)
	assert.Equal(t, "first", repos[0].Description)
	assert.Equal(t, "Go", repos[0].Language)
	assert.Equal(t, []string{"cli"}, repos[0].Topics)
	assert.Equal(t, 10, repos[0].Stars)
	assert.Equal(t, "https://github.com/a/alpha", repos[0].URL)
	assert.Equal(t, time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC), repos[0].PushedAt)
	assert.Equal(t, "c/gamma", repos[2].FullName)

	require.Len(t, runner.RunCalls(), 1)
	assert.Equal(t, []string{"api", "user/starred?per_page=100", "--paginate"}, runner.RunCalls()[0].Args)

	require.Len(t, store.ReplaceAllCalls(), 1)
	assert.Len(t, store.ReplaceAllCalls()[0].Repos, 3)
}

func TestFetcher_StarredServesFromStoreWithinTTL(t *testing.T) {
	cached := []domain.Repo{{FullName: "a/alpha", Name: "alpha"}, {FullName: "b/beta", Name: "beta"}}
	store := &mocks.StoreMock{
		FetchedAtFunc: func(ctx context.Context) (time.Time, error) { return time.Now().Add(-time.Minute), nil },
		GetAllFunc:    func(ctx context.Context) ([]domain.Repo, error) { return cached, nil },
	}
	runner := &mocks.RunnerMock{
		RunFunc: func(ctx context.Context, args ...string) ([]byte, error) {
			return nil, errors.New("should not be called")
		},
	}

	f := New(runner, store, time.Hour, 0)
	repos, err := f.Starred(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, cached, repos)
	assert.Empty(t, runner.RunCalls(), "fresh store skips the fetch")
}

func TestFetcher_StarredStaleStoreRefetches(t *testing.T) {
	store := emptyStore()
	store.FetchedAtFunc = func(ctx context.Context) (time.Time, error) { return time.Now().Add(-2 * time.Hour), nil }

	runner := &mocks.RunnerMock{
		RunFunc: func(ctx context.Context, args ...string) ([]byte, error) {
			return []byte(`[{"full_name": "a/alpha", "name": "alpha"}]`), nil
		},
	}

	f := New(runner, store, time.Hour, 0)
	repos, err := f.Starred(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Len(t, runner.RunCalls(), 1)
	assert.Len(t, store.ReplaceAllCalls(), 1)
}

func TestFetcher_StarredRefreshBypassesStore(t *testing.T) {
	store := emptyStore()
	store.FetchedAtFunc = func(ctx context.Context) (time.Time, error) { return time.Now(), nil }
	store.GetAllFunc = func(ctx context.Context) ([]domain.Repo, error) {
		return []domain.Repo{{FullName: "stale/entry"}}, nil
	}

	runner := &mocks.RunnerMock{
		RunFunc: func(ctx context.Context, args ...string) ([]byte, error) {
			return []byte(`[{"full_name": "fresh/entry", "name": "entry"}]`), nil
		},
	}

	f := New(runner, store, time.Hour, 0)
	repos, err := f.Starred(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "fresh/entry", repos[0].FullName)
	assert.Empty(t, store.FetchedAtCalls(), "refresh never consults the store age")
}

func TestFetcher_StarredLimit(t *testing.T) {
	runner := &mocks.RunnerMock{
		RunFunc: func(ctx context.Context, args ...string) ([]byte, error) {
			return []byte(pagedOutput), nil
		},
	}

	store := emptyStore()
	f := New(runner, store, time.Hour, 2)
	repos, err := f.Starred(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "a/alpha", repos[0].FullName)
	assert.Equal(t, "b/beta", repos[1].FullName)

	// the limit trims only the returned slice, the store keeps everything
	require.Len(t, store.ReplaceAllCalls(), 1)
	assert.Len(t, store.ReplaceAllCalls()[0].Repos, 3)
}

func TestFetcher_StarredLimitedRunDoesNotShrinkStore(t *testing.T) {
	runner := &mocks.RunnerMock{
		RunFunc: func(ctx context.Context, args ...string) ([]byte, error) {
			return []byte(pagedOutput), nil
		},
	}

	// stateful store, shared between the two runs
	var stored []domain.Repo
	var storedAt time.Time
	store := &mocks.StoreMock{
		FetchedAtFunc: func(ctx context.Context) (time.Time, error) { return storedAt, nil },
		GetAllFunc:    func(ctx context.Context) ([]domain.Repo, error) { return stored, nil },
		ReplaceAllFunc: func(ctx context.Context, repos []domain.Repo) error {
			stored = repos
			storedAt = time.Now()
			return nil
		},
	}

	// limited run fetches and stores
	limited := New(runner, store, time.Hour, 1)
	repos, err := limited.Starred(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, repos, 1)

	// unlimited run within TTL is served from the store and sees everything
	unlimited := New(runner, store, time.Hour, 0)
	repos, err = unlimited.Starred(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, repos, 3)
	assert.Len(t, runner.RunCalls(), 1, "second run served from the store")
}

func TestFetcher_StarredGHFailure(t *testing.T) {
	runner := &mocks.RunnerMock{
		RunFunc: func(ctx context.Context, args ...string) ([]byte, error) {
			return nil, errors.New("gh: not logged in")
		},
	}

	f := New(runner, emptyStore(), time.Hour, 0)
	_, err := f.Starred(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch starred repos")
}

func TestFetcher_StarredBadJSON(t *testing.T) {
	runner := &mocks.RunnerMock{
		RunFunc: func(ctx context.Context, args ...string) ([]byte, error) {
			return []byte(`[{"full_name": "a/alpha"}] this is not json`), nil
		},
	}

	f := New(runner, emptyStore(), time.Hour, 0)
	_, err := f.Starred(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse starred repos")
}

func TestFetcher_StarredStoreWriteFailureNotFatal(t *testing.T) {
	store := emptyStore()
	store.ReplaceAllFunc = func(ctx context.Context, repos []domain.Repo) error {
		return errors.New("disk full")
	}
	runner := &mocks.RunnerMock{
		RunFunc: func(ctx context.Context, args ...string) ([]byte, error) {
			return []byte(`[{"full_name": "a/alpha", "name": "alpha"}]`), nil
		},
	}

	f := New(runner, store, time.Hour, 0)
	repos, err := f.Starred(context.Background(), false)
	require.NoError(t, err, "store failure degrades to uncached")
	assert.Len(t, repos, 1)
}

func TestFetcher_StarredEmptyStoreFallsThrough(t *testing.T) {
	store := emptyStore()
	store.FetchedAtFunc = func(ctx context.Context) (time.Time, error) { return time.Now(), nil }
	store.GetAllFunc = func(ctx context.Context) ([]domain.Repo, error) { return []domain.Repo{}, nil }

	runner := &mocks.RunnerMock{
		RunFunc: func(ctx context.Context, args ...string) ([]byte, error) {
			return []byte(`[{"full_name": "a/alpha", "name": "alpha"}]`), nil
		},
	}

	f := New(runner, store, time.Hour, 0)
	repos, err := f.Starred(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, repos, 1)
	assert.Len(t, runner.RunCalls(), 1, "empty stored list forces a fetch")
}
