package worker

import (
	"context"

	"hublabs.dev/tagger/internal/domain"
)

// TagAgent mirrors agent.Adapter - defined here so the processor can be
// tested without an LLM client.
type TagAgent interface {
	ProcessTag(ctx context.Context, repoName, tag string) (string, error)
}

// Sink receives a terminal operation record for durable mirroring (Redis
// audit stream, Postgres store). Sink failures never change the record's
// status; they are logged and dropped.
type Sink interface {
	Record(ctx context.Context, rec domain.OperationRecord) error
	Name() string
}
