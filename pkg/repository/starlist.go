package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"

	"github.com/umputun/starscope/pkg/domain"
)

// StarListRepository caches the fetched starred-repo list between runs
type StarListRepository struct {
	db *sqlx.DB
}

// NewStarListRepository creates a new star list repository
func NewStarListRepository(db *sqlx.DB) *StarListRepository {
	return &StarListRepository{db: db}
}

// starRow is the database shape of a starred repo
type starRow struct {
	FullName    string       `db:"full_name"`
	Name        string       `db:"name"`
	Description string       `db:"description"`
	Language    string       `db:"language"`
	Topics      topicsSQL    `db:"topics"`
	Stars       int          `db:"stars"`
	URL         string       `db:"url"`
	PushedAt    sql.NullTime `db:"pushed_at"`
	FetchedAt   time.Time    `db:"fetched_at"`
}

// topicsSQL stores topic tags as a JSON array in a text column
type topicsSQL []string

// Value implements driver.Valuer for database storage
func (t topicsSQL) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner for database retrieval
func (t *topicsSQL) Scan(value interface{}) error {
	if value == nil {
		*t = topicsSQL{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return json.Unmarshal([]byte("[]"), t)
	}

	return json.Unmarshal(data, t)
}

// ReplaceAll swaps the stored list for the given repos in one transaction.
// Retried on SQLite lock errors.
func (r *StarListRepository) ReplaceAll(ctx context.Context, repos []domain.Repo) error {
	fetchedAt := time.Now()
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))

	return retrier.Do(ctx, func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			if isLockError(err) {
				return err // retrier will retry this
			}
			return &criticalError{err: fmt.Errorf("begin star list tx: %w", err)}
		}
		defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

		if _, err := tx.ExecContext(ctx, "DELETE FROM star_list"); err != nil {
			if isLockError(err) {
				return err
			}
			return &criticalError{err: fmt.Errorf("clear star list: %w", err)}
		}

		query := `
			INSERT INTO star_list (
				full_name, name, description, language, topics,
				stars, url, pushed_at, fetched_at
			) VALUES (
				:full_name, :name, :description, :language, :topics,
				:stars, :url, :pushed_at, :fetched_at
			)
		`
		for _, repo := range repos {
			row := starRow{
				FullName:    repo.FullName,
				Name:        repo.Name,
				Description: repo.Description,
				Language:    repo.Language,
				Topics:      topicsSQL(repo.Topics),
				Stars:       repo.Stars,
				URL:         repo.URL,
				PushedAt:    sql.NullTime{Time: repo.PushedAt, Valid: !repo.PushedAt.IsZero()},
				FetchedAt:   fetchedAt,
			}
			if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
				if isLockError(err) {
					return err
				}
				return &criticalError{err: fmt.Errorf("insert star %s: %w", repo.FullName, err)}
			}
		}

		if err := tx.Commit(); err != nil {
			if isLockError(err) {
				return err
			}
			return &criticalError{err: fmt.Errorf("commit star list: %w", err)}
		}
		return nil
	})
}

// GetAll returns the stored star list ordered by full name
func (r *StarListRepository) GetAll(ctx context.Context) ([]domain.Repo, error) {
	var rows []starRow
	err := r.db.SelectContext(ctx, &rows, "SELECT * FROM star_list ORDER BY full_name")
	if err != nil {
		return nil, fmt.Errorf("select star list: %w", err)
	}

	repos := make([]domain.Repo, len(rows))
	for i, row := range rows {
		repos[i] = domain.Repo{
			FullName:    row.FullName,
			Name:        row.Name,
			Description: row.Description,
			Language:    row.Language,
			Topics:      row.Topics,
			Stars:       row.Stars,
			URL:         row.URL,
		}
		if row.PushedAt.Valid {
			repos[i].PushedAt = row.PushedAt.Time
		}
	}
	return repos, nil
}

// FetchedAt returns when the stored list was fetched, zero time if empty
func (r *StarListRepository) FetchedAt(ctx context.Context) (time.Time, error) {
	var fetched sql.NullTime
	err := r.db.GetContext(ctx, &fetched, "SELECT MAX(fetched_at) FROM star_list")
	if err != nil {
		return time.Time{}, fmt.Errorf("get star list fetch time: %w", err)
	}
	if !fetched.Valid {
		return time.Time{}, nil
	}
	return fetched.Time, nil
}

// Count returns the number of stored repos
func (r *StarListRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM star_list"); err != nil {
		return 0, fmt.Errorf("count star list: %w", err)
	}
	return count, nil
}
