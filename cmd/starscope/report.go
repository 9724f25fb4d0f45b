package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/umputun/starscope/pkg/domain"
	"github.com/umputun/starscope/pkg/repository"
	"github.com/umputun/starscope/pkg/taxonomy"
)

// printProgress renders one line per completed repo
func printProgress(p domain.Progress) {
	prefix := fmt.Sprintf("[%d/%d]", p.Current, p.Total)

	switch {
	case p.Err != nil:
		color.New(color.FgRed).Printf("%s %s failed: %v\n", prefix, p.Repo, p.Err)
	case p.FromCache:
		fmt.Printf("%s %s → %s (%d%%) %s\n", prefix, p.Repo, p.Category, p.Confidence,
			color.New(color.FgCyan).Sprint("cached"))
	default:
		fmt.Printf("%s %s → %s (%d%%) %s\n", prefix, p.Repo, p.Category, p.Confidence,
			color.New(color.Faint).Sprintf("%.1fs, %d tokens", p.Elapsed.Seconds(), p.Tokens))
	}
}

// printReport renders records grouped by category in taxonomy order,
// followed by the failures and the run summary
func printReport(records []domain.AnalysisRecord, stats domain.Stats, elapsed time.Duration) {
	groups := map[string][]domain.AnalysisRecord{}
	var failed []domain.AnalysisRecord
	for _, rec := range records {
		if rec.Failed {
			failed = append(failed, rec)
			continue
		}
		groups[rec.Categorization.Category] = append(groups[rec.Categorization.Category], rec)
	}

	fmt.Println()
	for _, cat := range taxonomy.All() {
		recs := groups[cat.Name]
		if len(recs) == 0 {
			continue
		}
		color.New(color.Bold).Printf("%s %s (%d)\n", cat.Emoji, cat.Name, len(recs))
		for _, rec := range recs {
			fmt.Printf("  %s (%d%%)\n", rec.Repo.FullName, rec.Categorization.Confidence)
		}
	}

	if len(failed) > 0 {
		color.New(color.Bold, color.FgRed).Printf("\nfailed (%d), will retry next run\n", len(failed))
		for _, rec := range failed {
			fmt.Printf("  %s: %s\n", rec.Repo.FullName, rec.Error)
		}
	}

	fmt.Println()
	color.New(color.Bold).Println("summary")
	fmt.Printf("  total: %d, analyzed: %d, cached: %d, failed: %d\n",
		stats.Total, stats.Analyzed, stats.Cached, stats.Failed)
	fmt.Printf("  tokens: %d, web searches: %d, took %s\n",
		stats.TotalTokens, stats.TotalWebSearches, elapsed.Round(time.Second))
}

// printHistory shows the last runs from the store
func printHistory(ctx context.Context, runs *repository.RunRepository, limit int) error {
	list, err := runs.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(list) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}

	for _, r := range list {
		fmt.Printf("%s  total %d (analyzed %d, cached %d, failed %d), tokens %d, %s\n",
			r.StartedAt.Format("2006-01-02 15:04"), r.Total, r.Analyzed, r.Cached, r.Failed,
			r.TotalTokens, (time.Duration(r.DurationMs) * time.Millisecond).Round(time.Second))
	}
	return nil
}
