// Package sync pushes analysis results onto GitHub Lists through the gh
// CLI GraphQL API: one managed list per non-empty category, repos added
// in small batches, stale managed lists removed. Failed analyses are
// skipped so they get retried and re-synced on a future run.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/starscope/pkg/domain"
	"github.com/umputun/starscope/pkg/taxonomy"
)

//go:generate moq -out mocks/runner.go -pkg mocks -skip-ensure -fmt goimports . Runner

// Runner executes gh commands
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// Syncer reconciles GitHub Lists with the analysis output
type Syncer struct {
	gh         Runner
	listPrefix string // marks lists managed by starscope
	batchSize  int    // repos per mutation call
}

// New creates a syncer. The prefix distinguishes managed lists from the
// user's own; only prefixed lists are ever created or deleted.
func New(gh Runner, listPrefix string, batchSize int) *Syncer {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Syncer{gh: gh, listPrefix: listPrefix, batchSize: batchSize}
}

// Sync groups successful records by category and reconciles the lists.
// Dry-run only logs the planned mutations.
func (s *Syncer) Sync(ctx context.Context, records []domain.AnalysisRecord, dryRun bool) error {
	groups := groupByCategory(records)
	if len(groups) == 0 {
		lgr.Printf("[INFO] nothing to sync")
		return nil
	}

	existing, err := s.existingLists(ctx)
	if err != nil {
		return fmt.Errorf("get existing lists: %w", err)
	}

	// stable category order for deterministic sync runs
	categories := make([]string, 0, len(groups))
	for cat := range groups {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	wanted := make(map[string]bool, len(categories))
	for _, cat := range categories {
		name := s.listName(cat)
		wanted[name] = true

		listID, ok := existing[name]
		if !ok {
			if dryRun {
				lgr.Printf("[INFO] dry-run: would create list %q with %d repos", name, len(groups[cat]))
				continue
			}
			listID, err = s.createList(ctx, name, cat)
			if err != nil {
				return fmt.Errorf("create list %q: %w", name, err)
			}
			lgr.Printf("[INFO] created list %q", name)
		}

		if dryRun {
			lgr.Printf("[INFO] dry-run: would assign %d repos to list %q", len(groups[cat]), name)
			continue
		}
		if err := s.assignRepos(ctx, listID, groups[cat]); err != nil {
			return fmt.Errorf("assign repos to %q: %w", name, err)
		}
		lgr.Printf("[INFO] assigned %d repos to list %q", len(groups[cat]), name)
	}

	// drop managed lists that no longer have members
	for name, id := range existing {
		if !strings.HasPrefix(name, s.listPrefix) || wanted[name] {
			continue
		}
		if dryRun {
			lgr.Printf("[INFO] dry-run: would delete stale list %q", name)
			continue
		}
		if err := s.deleteList(ctx, id); err != nil {
			return fmt.Errorf("delete stale list %q: %w", name, err)
		}
		lgr.Printf("[INFO] deleted stale list %q", name)
	}

	return nil
}

// groupByCategory buckets non-failed records by their category name
func groupByCategory(records []domain.AnalysisRecord) map[string][]domain.Repo {
	groups := map[string][]domain.Repo{}
	for _, rec := range records {
		if rec.Failed {
			continue
		}
		cat := rec.Categorization.Category
		groups[cat] = append(groups[cat], rec.Repo)
	}
	return groups
}

// listName builds the managed list name for a category
func (s *Syncer) listName(category string) string {
	if cat, ok := taxonomy.ByName(category); ok && cat.Emoji != "" {
		return fmt.Sprintf("%s %s %s", s.listPrefix, cat.Emoji, cat.Name)
	}
	return fmt.Sprintf("%s %s", s.listPrefix, category)
}

// existingLists returns the viewer's lists as name -> node id
func (s *Syncer) existingLists(ctx context.Context) (map[string]string, error) {
	query := `query { viewer { lists(first: 100) { nodes { id name } } } }`
	out, err := s.gh.Run(ctx, "api", "graphql", "-f", "query="+query)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data struct {
			Viewer struct {
				Lists struct {
					Nodes []struct {
						ID   string `json:"id"`
						Name string `json:"name"`
					} `json:"nodes"`
				} `json:"lists"`
			} `json:"viewer"`
		} `json:"data"`
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, fmt.Errorf("parse lists response: %w", err)
	}

	lists := make(map[string]string)
	for _, n := range resp.Data.Viewer.Lists.Nodes {
		lists[n.Name] = n.ID
	}
	return lists, nil
}

// createList creates a managed list and returns its node id
func (s *Syncer) createList(ctx context.Context, name, category string) (string, error) {
	desc := fmt.Sprintf("Starred repos: %s (managed by starscope)", category)
	query := `mutation($name: String!, $desc: String) {
		createUserList(input: {name: $name, description: $desc}) { list { id } }
	}`
	out, err := s.gh.Run(ctx, "api", "graphql",
		"-f", "query="+query, "-f", "name="+name, "-f", "desc="+desc)
	if err != nil {
		return "", err
	}

	var resp struct {
		Data struct {
			CreateUserList struct {
				List struct {
					ID string `json:"id"`
				} `json:"list"`
			} `json:"createUserList"`
		} `json:"data"`
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		return "", fmt.Errorf("parse create list response: %w", err)
	}
	if resp.Data.CreateUserList.List.ID == "" {
		return "", fmt.Errorf("create list returned no id")
	}
	return resp.Data.CreateUserList.List.ID, nil
}

// assignRepos adds repos to the list in batches to stay under the API
// payload limits
func (s *Syncer) assignRepos(ctx context.Context, listID string, repos []domain.Repo) error {
	for start := 0; start < len(repos); start += s.batchSize {
		end := start + s.batchSize
		if end > len(repos) {
			end = len(repos)
		}

		batch := repos[start:end]
		ids, err := s.resolveRepoIDs(ctx, batch)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			continue // nothing in this batch resolved, an empty mutation is invalid
		}

		var sb strings.Builder
		sb.WriteString("mutation {\n")
		for i, id := range ids {
			sb.WriteString(fmt.Sprintf(
				"m%d: updateUserListsForItem(input: {itemId: %q, listIds: [%q], suggestedListIds: []}) { item { __typename } }\n",
				i, id, listID))
		}
		sb.WriteString("}")

		if _, err := s.gh.Run(ctx, "api", "graphql", "-f", "query="+sb.String()); err != nil {
			return fmt.Errorf("add batch to list: %w", err)
		}
	}
	return nil
}

// resolveRepoIDs looks up GraphQL node ids for a batch in one aliased query
func (s *Syncer) resolveRepoIDs(ctx context.Context, repos []domain.Repo) ([]string, error) {
	var sb strings.Builder
	sb.WriteString("query {\n")
	for i, repo := range repos {
		owner, name, ok := strings.Cut(repo.FullName, "/")
		if !ok {
			return nil, fmt.Errorf("malformed repo name %q", repo.FullName)
		}
		sb.WriteString(fmt.Sprintf("r%d: repository(owner: %q, name: %q) { id }\n", i, owner, name))
	}
	sb.WriteString("}")

	out, err := s.gh.Run(ctx, "api", "graphql", "-f", "query="+sb.String())
	if err != nil {
		return nil, fmt.Errorf("resolve repo ids: %w", err)
	}

	var resp struct {
		Data map[string]struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, fmt.Errorf("parse repo ids: %w", err)
	}

	ids := make([]string, 0, len(repos))
	for i, repo := range repos {
		node, ok := resp.Data[fmt.Sprintf("r%d", i)]
		if !ok || node.ID == "" {
			lgr.Printf("[WARN] no node id for %s, skipping", repo.FullName)
			continue
		}
		ids = append(ids, node.ID)
	}
	return ids, nil
}

// deleteList removes a managed list
func (s *Syncer) deleteList(ctx context.Context, listID string) error {
	query := `mutation($id: ID!) { deleteUserList(input: {listId: $id}) { user { login } } }`
	if _, err := s.gh.Run(ctx, "api", "graphql", "-f", "query="+query, "-f", "id="+listID); err != nil {
		return err
	}
	return nil
}
