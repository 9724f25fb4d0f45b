package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/starscope/pkg/domain"
	"github.com/umputun/starscope/pkg/sync/mocks"
)

func record(fullName, category string) domain.AnalysisRecord {
	return domain.AnalysisRecord{
		Repo:           domain.Repo{FullName: fullName, Name: strings.Split(fullName, "/")[1]},
		Categorization: domain.Classification{Category: category, Confidence: 90},
	}
}

// scriptedRunner dispatches graphql calls on the query payload
func scriptedRunner(t *testing.T, lists string) *mocks.RunnerMock {
	t.Helper()
	return &mocks.RunnerMock{
		RunFunc: func(ctx context.Context, args ...string) ([]byte, error) {
			require.GreaterOrEqual(t, len(args), 4)
			assert.Equal(t, "api", args[0])
			assert.Equal(t, "graphql", args[1])
			query := args[3]

			switch {
			case strings.Contains(query, "viewer { lists"):
				return []byte(lists), nil
			case strings.Contains(query, "createUserList"):
				return []byte(`{"data": {"createUserList": {"list": {"id": "LIST_NEW"}}}}`), nil
			case strings.Contains(query, "repository(owner:"):
				// one fake node id per alias in the query
				data := map[string]string{}
				for i := 0; strings.Contains(query, fmt.Sprintf("r%d:", i)); i++ {
					data[fmt.Sprintf("r%d", i)] = fmt.Sprintf(`{"id": "NODE_%d"}`, i)
				}
				parts := make([]string, 0, len(data))
				for k, v := range data {
					parts = append(parts, fmt.Sprintf("%q: %s", k, v))
				}
				return []byte(`{"data": {` + strings.Join(parts, ",") + `}}`), nil
			case strings.Contains(query, "updateUserListsForItem"):
				return []byte(`{"data": {}}`), nil
			case strings.Contains(query, "deleteUserList"):
				return []byte(`{"data": {"deleteUserList": {"user": {"login": "tester"}}}}`), nil
			}
			return nil, fmt.Errorf("unexpected query: %s", query)
		},
	}
}

// queriesOf extracts the graphql payloads from the recorded calls
func queriesOf(runner *mocks.RunnerMock) []string {
	calls := runner.RunCalls()
	queries := make([]string, 0, len(calls))
	for _, c := range calls {
		queries = append(queries, strings.Join(c.Args, " "))
	}
	return queries
}

func countMatching(queries []string, substr string) int {
	n := 0
	for _, q := range queries {
		if strings.Contains(q, substr) {
			n++
		}
	}
	return n
}

func TestSyncer_SyncCreatesMissingList(t *testing.T) {
	runner := scriptedRunner(t, `{"data": {"viewer": {"lists": {"nodes": []}}}}`)

	s := New(runner, "★", 10)
	records := []domain.AnalysisRecord{
		record("a/alpha", "CLI & Terminal Tools"),
		record("b/beta", "CLI & Terminal Tools"),
	}
	require.NoError(t, s.Sync(context.Background(), records, false))

	queries := queriesOf(runner)
	assert.Equal(t, 1, countMatching(queries, "createUserList"))
	assert.Equal(t, 1, countMatching(queries, "repository(owner:"))
	assert.Equal(t, 1, countMatching(queries, "updateUserListsForItem"))

	// managed list name carries the prefix and the category emoji
	assert.Equal(t, 1, countMatching(queries, "name=★ 💻 CLI & Terminal Tools"))
	// both repos resolved and assigned to the created list
	assert.Equal(t, 1, countMatching(queries, `repository(owner: "a", name: "alpha")`))
	assert.Equal(t, 1, countMatching(queries, `repository(owner: "b", name: "beta")`))
	assert.Equal(t, 1, countMatching(queries, `itemId: "NODE_0", listIds: ["LIST_NEW"]`))
	assert.Equal(t, 1, countMatching(queries, `itemId: "NODE_1", listIds: ["LIST_NEW"]`))
}

func TestSyncer_SyncReusesExistingList(t *testing.T) {
	runner := scriptedRunner(t,
		`{"data": {"viewer": {"lists": {"nodes": [{"id": "LIST_OLD", "name": "★ 💻 CLI & Terminal Tools"}]}}}}`)

	s := New(runner, "★", 10)
	require.NoError(t, s.Sync(context.Background(), []domain.AnalysisRecord{record("a/alpha", "CLI & Terminal Tools")}, false))

	queries := queriesOf(runner)
	assert.Zero(t, countMatching(queries, "createUserList"))
	assert.Equal(t, 1, countMatching(queries, `listIds: ["LIST_OLD"]`))
}

func TestSyncer_SyncDeletesStaleManagedLists(t *testing.T) {
	runner := scriptedRunner(t, `{"data": {"viewer": {"lists": {"nodes": [
		{"id": "LIST_STALE", "name": "★ 🎮 Game Development"},
		{"id": "LIST_USER", "name": "my reading list"}
	]}}}}`)

	s := New(runner, "★", 10)
	require.NoError(t, s.Sync(context.Background(), []domain.AnalysisRecord{record("a/alpha", "CLI & Terminal Tools")}, false))

	queries := queriesOf(runner)
	assert.Equal(t, 1, countMatching(queries, "deleteUserList"))
	assert.Equal(t, 1, countMatching(queries, "id=LIST_STALE"), "only the prefixed stale list is deleted")
	assert.Zero(t, countMatching(queries, "id=LIST_USER"), "user's own lists are never touched")
}

func TestSyncer_SyncSkipsFailedRecords(t *testing.T) {
	runner := scriptedRunner(t, `{"data": {"viewer": {"lists": {"nodes": []}}}}`)

	failed := record("bad/repo", "Other Tools")
	failed.Failed = true

	s := New(runner, "★", 10)
	require.NoError(t, s.Sync(context.Background(), []domain.AnalysisRecord{record("a/alpha", "Other Tools"), failed}, false))

	queries := queriesOf(runner)
	assert.Zero(t, countMatching(queries, `repository(owner: "bad"`))
	assert.Equal(t, 1, countMatching(queries, `repository(owner: "a"`))
}

func TestSyncer_SyncNothingToDo(t *testing.T) {
	runner := scriptedRunner(t, `{"data": {"viewer": {"lists": {"nodes": []}}}}`)

	failed := record("bad/repo", "Other Tools")
	failed.Failed = true

	s := New(runner, "★", 10)
	require.NoError(t, s.Sync(context.Background(), []domain.AnalysisRecord{failed}, false))
	require.NoError(t, s.Sync(context.Background(), nil, false))

	assert.Empty(t, runner.RunCalls(), "no groups means no api calls at all")
}

func TestSyncer_SyncBatchesLargeGroups(t *testing.T) {
	runner := scriptedRunner(t, `{"data": {"viewer": {"lists": {"nodes": []}}}}`)

	var records []domain.AnalysisRecord
	for i := 0; i < 25; i++ {
		records = append(records, record(fmt.Sprintf("o/repo%02d", i), "Backend & APIs"))
	}

	s := New(runner, "★", 10)
	require.NoError(t, s.Sync(context.Background(), records, false))

	queries := queriesOf(runner)
	assert.Equal(t, 3, countMatching(queries, "repository(owner:"), "25 repos split into 3 resolve batches")
	assert.Equal(t, 3, countMatching(queries, "updateUserListsForItem"), "3 assignment mutations")
}

func TestSyncer_SyncUnresolvableBatchSkipped(t *testing.T) {
	runner := &mocks.RunnerMock{
		RunFunc: func(ctx context.Context, args ...string) ([]byte, error) {
			query := args[3]
			switch {
			case strings.Contains(query, "viewer { lists"):
				return []byte(`{"data": {"viewer": {"lists": {"nodes": []}}}}`), nil
			case strings.Contains(query, "createUserList"):
				return []byte(`{"data": {"createUserList": {"list": {"id": "LIST_NEW"}}}}`), nil
			case strings.Contains(query, "repository(owner:"):
				// no node resolves, gone repos
				return []byte(`{"data": {}}`), nil
			}
			return nil, fmt.Errorf("unexpected query: %s", query)
		},
	}

	s := New(runner, "★", 10)
	err := s.Sync(context.Background(), []domain.AnalysisRecord{record("gone/repo", "Other Tools")}, false)
	require.NoError(t, err, "fully unresolvable batch is skipped, not mutated")
	assert.Zero(t, countMatching(queriesOf(runner), "updateUserListsForItem"))
}

func TestSyncer_SyncDryRun(t *testing.T) {
	runner := scriptedRunner(t, `{"data": {"viewer": {"lists": {"nodes": [
		{"id": "LIST_STALE", "name": "★ 🎮 Game Development"}
	]}}}}`)

	s := New(runner, "★", 10)
	require.NoError(t, s.Sync(context.Background(), []domain.AnalysisRecord{record("a/alpha", "CLI & Terminal Tools")}, true))

	require.Len(t, runner.RunCalls(), 1, "dry-run only reads the existing lists")
	assert.Contains(t, runner.RunCalls()[0].Args[3], "viewer { lists")
}

func TestSyncer_SyncListsQueryFailure(t *testing.T) {
	runner := &mocks.RunnerMock{
		RunFunc: func(ctx context.Context, args ...string) ([]byte, error) {
			return nil, errors.New("gh: network error")
		},
	}

	s := New(runner, "★", 10)
	err := s.Sync(context.Background(), []domain.AnalysisRecord{record("a/alpha", "Other Tools")}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get existing lists")
}

func TestSyncer_SyncMalformedRepoName(t *testing.T) {
	runner := scriptedRunner(t, `{"data": {"viewer": {"lists": {"nodes": []}}}}`)

	s := New(runner, "★", 10)
	err := s.Sync(context.Background(), []domain.AnalysisRecord{record("a/alpha", "Other Tools"), {
		Repo:           domain.Repo{FullName: "noslash"},
		Categorization: domain.Classification{Category: "Other Tools"},
	}}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed repo name")
}

func TestSyncer_ListNameUnknownCategory(t *testing.T) {
	s := New(&mocks.RunnerMock{}, "★", 10)
	assert.Equal(t, "★ 🔧 Other Tools", s.listName("Other Tools"))
	assert.Equal(t, "★ Custom Bucket", s.listName("Custom Bucket"))
}

func TestNew_BatchSizeDefault(t *testing.T) {
	s := New(&mocks.RunnerMock{}, "★", 0)
	assert.Equal(t, 10, s.batchSize)
	s = New(&mocks.RunnerMock{}, "★", -1)
	assert.Equal(t, 10, s.batchSize)
}
