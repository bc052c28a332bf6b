// Package audit mirrors terminal operation records to a Redis stream so the
// audit trail survives process restarts. The in-memory ledger stays
// authoritative; this sink is best effort.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"hublabs.dev/tagger/internal/domain"
)

type Stream struct {
	client *redis.Client
	stream string
}

func NewStream(client *redis.Client, stream string) *Stream {
	return &Stream{
		client: client,
		stream: stream,
	}
}

func (s *Stream) Name() string {
	return "redis_stream"
}

// Record appends one terminal operation record to the stream.
func (s *Stream) Record(ctx context.Context, rec domain.OperationRecord) error {
	results, err := json.Marshal(rec.TagResults)
	if err != nil {
		return fmt.Errorf("encode tag results: %w", err)
	}

	fields := map[string]any{
		"operation_id":   rec.ID,
		"timestamp":      rec.Timestamp.UnixMilli(),
		"repo_name":      rec.RepoName,
		"discussion_num": rec.DiscussionNum,
		"author_id":      rec.AuthorID,
		"status":         string(rec.Status),
		"extracted_tags": joinTags(rec.ExtractedTags),
		"tag_results":    string(results),
	}
	if rec.Error != "" {
		fields["error"] = rec.Error
	}

	if err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("xadd operation record: %w", err)
	}

	slog.DebugContext(ctx, "operation record mirrored to stream",
		"stream", s.stream,
		"operation_id", rec.ID)
	return nil
}

func (s *Stream) Close() error {
	return s.client.Close()
}

func joinTags(tags []string) string {
	data, _ := json.Marshal(tags)
	return string(data)
}
