// Package store persists terminal operation records to Postgres when a
// database is configured.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"hublabs.dev/tagger/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS operations (
	id             BIGINT PRIMARY KEY,
	created_at     TIMESTAMPTZ NOT NULL,
	repo_name      TEXT NOT NULL,
	discussion_num BIGINT NOT NULL,
	author_id      TEXT NOT NULL,
	status         TEXT NOT NULL,
	error          TEXT,
	extracted_tags JSONB NOT NULL DEFAULT '[]',
	tag_results    JSONB NOT NULL DEFAULT '[]',
	comment_preview TEXT NOT NULL DEFAULT ''
)`

type OperationStore struct {
	pool *pgxpool.Pool
}

func NewOperationStore(pool *pgxpool.Pool) *OperationStore {
	return &OperationStore{pool: pool}
}

// EnsureSchema creates the operations table if it does not exist yet.
func (s *OperationStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure operations schema: %w", err)
	}
	return nil
}

func (s *OperationStore) Name() string {
	return "postgres"
}

// Record inserts one terminal operation record. Inserts are idempotent on
// the snowflake ID, so a retried sink write cannot duplicate a row.
func (s *OperationStore) Record(ctx context.Context, rec domain.OperationRecord) error {
	extractedTags, err := json.Marshal(tagsOrEmpty(rec.ExtractedTags))
	if err != nil {
		return fmt.Errorf("encode extracted tags: %w", err)
	}
	tagResults, err := json.Marshal(resultsOrEmpty(rec.TagResults))
	if err != nil {
		return fmt.Errorf("encode tag results: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO operations
			(id, created_at, repo_name, discussion_num, author_id, status, error, extracted_tags, tag_results, comment_preview)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.Timestamp, rec.RepoName, rec.DiscussionNum, rec.AuthorID,
		string(rec.Status), rec.Error, extractedTags, tagResults, rec.CommentPreview,
	)
	if err != nil {
		return fmt.Errorf("insert operation %d: %w", rec.ID, err)
	}
	return nil
}

// ListRecent returns the most recent records, newest first.
func (s *OperationStore) ListRecent(ctx context.Context, limit int32) ([]domain.OperationRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, created_at, repo_name, discussion_num, author_id, status,
		       COALESCE(error, ''), extracted_tags, tag_results, comment_preview
		FROM operations
		ORDER BY id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	var result []domain.OperationRecord
	for rows.Next() {
		var (
			rec           domain.OperationRecord
			status        string
			extractedTags []byte
			tagResults    []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.RepoName, &rec.DiscussionNum,
			&rec.AuthorID, &status, &rec.Error, &extractedTags, &tagResults, &rec.CommentPreview); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		rec.Status = domain.OperationStatus(status)
		if err := json.Unmarshal(extractedTags, &rec.ExtractedTags); err != nil {
			return nil, fmt.Errorf("decode extracted tags: %w", err)
		}
		if err := json.Unmarshal(tagResults, &rec.TagResults); err != nil {
			return nil, fmt.Errorf("decode tag results: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func resultsOrEmpty(results []domain.ToolCallResult) []domain.ToolCallResult {
	if results == nil {
		return []domain.ToolCallResult{}
	}
	return results
}
