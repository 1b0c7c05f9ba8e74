// Package storage persists articles in PostgreSQL. The unique constraint on
// external_id is the pipeline's only deduplication and synchronization
// mechanism.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"citynews/internal/news"
)

const uniqueViolation = pq.ErrorCode("23505")

type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL and verifies the connection.
func Open(connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing connection. Used by tests.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// InitSchema creates the news table if it does not exist.
func (s *Store) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS news (
		id BIGSERIAL PRIMARY KEY,
		external_id BIGINT UNIQUE NOT NULL,
		title TEXT NOT NULL,
		link TEXT NOT NULL,
		content TEXT,
		category VARCHAR(32) NOT NULL,
		date DATE NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_news_date ON news(date);
	CREATE INDEX IF NOT EXISTS idx_news_category ON news(category);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Exists reports whether an article with the given external id is already
// ingested.
func (s *Store) Exists(ctx context.Context, externalID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM news WHERE external_id = $1)`
	if err := s.db.QueryRowContext(ctx, query, externalID).Scan(&exists); err != nil {
		return false, fmt.Errorf("existence check: %w", err)
	}
	return exists, nil
}

// Insert persists one article and fills in its store-assigned id and creation
// timestamp. A unique-violation on external_id means the article was already
// ingested (for example by an overlapping tick): it is reported as
// created=false with no error.
func (s *Store) Insert(ctx context.Context, a *news.Article) (bool, error) {
	query := `
		INSERT INTO news (external_id, title, link, content, category, date)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		a.ExternalID, a.Title, a.Link, a.Content, string(a.Category), a.Date,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return false, nil
		}
		return false, fmt.Errorf("insert article: %w", err)
	}
	return true, nil
}

// Recent returns the latest ingested articles, newest first. Backs the
// monitoring endpoint.
func (s *Store) Recent(ctx context.Context, limit int) ([]news.Article, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, external_id, title, link, COALESCE(content, ''), category, date, created_at
		FROM news
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent articles: %w", err)
	}
	defer rows.Close()

	var articles []news.Article
	for rows.Next() {
		var a news.Article
		var category string
		if err := rows.Scan(&a.ID, &a.ExternalID, &a.Title, &a.Link, &a.Content, &category, &a.Date, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.Category = news.Category(category)
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
