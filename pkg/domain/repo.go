package domain

import "time"

// Repo represents a starred repository descriptor as fetched from GitHub.
// Immutable once fetched, passed by value into the analyzer.
type Repo struct {
	FullName    string    `json:"full_name"` // stable identity, "owner/name"
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Language    string    `json:"language,omitempty"`
	Topics      []string  `json:"topics,omitempty"`
	Stars       int       `json:"stars"`
	URL         string    `json:"url"`
	PushedAt    time.Time `json:"pushed_at"`
}

// Category defines one bucket of the classification taxonomy
type Category struct {
	Name        string `json:"name"`
	Emoji       string `json:"emoji"` // cosmetic prefix used in list names
	Description string `json:"description"`
}

// Classification is the normalized classifier output for a single repo.
// Category is always a taxonomy name, never the raw model string.
type Classification struct {
	Category   string `json:"category"`
	Confidence int    `json:"confidence"` // 0-100 as emitted by the model, not clamped
	Reasoning  string `json:"reasoning"`
}

// AnalysisRecord is the unit persisted to the result cache and returned
// to callers: repo descriptor plus classification and bookkeeping.
type AnalysisRecord struct {
	Repo           Repo           `json:"repo"`
	Categorization Classification `json:"categorization"`
	WebSearches    int            `json:"web_searches"`
	FromCache      bool           `json:"from_cache"`
	AnalyzedAt     time.Time      `json:"analyzed_at"`
	Failed         bool           `json:"failed,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// Stats holds aggregate counters for one analysis run.
// After a completed run Total == Analyzed + Cached + Failed.
type Stats struct {
	Total            int `json:"total"`
	Analyzed         int `json:"analyzed"`
	Cached           int `json:"cached"`
	Failed           int `json:"failed"`
	TotalTokens      int `json:"total_tokens"`
	TotalWebSearches int `json:"total_web_searches"`
}

// Progress is emitted once per repo as it reaches a terminal outcome
type Progress struct {
	Current    int           // completed so far, monotonically increasing
	Total      int
	Repo       string        // full name
	FromCache  bool
	Category   string        // empty on failure
	Confidence int
	Elapsed    time.Duration // zero for cache hits
	Tokens     int
	Err        error // set only for failed repos
}
