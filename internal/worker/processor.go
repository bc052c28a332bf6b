// Package worker runs the per-event processing state machine.
package worker

import (
	"context"
	"log/slog"
	"time"

	"hublabs.dev/tagger/common/id"
	"hublabs.dev/tagger/common/logger"
	"hublabs.dev/tagger/internal/domain"
	"hublabs.dev/tagger/internal/ledger"
	"hublabs.dev/tagger/internal/tags"
)

// Processor owns one operation record from creation to terminal status.
//
// Status transitions: processing -> no_tags when extraction finds nothing,
// processing -> error when the agent is unusable, processing -> completed
// once every candidate tag has been attempted. A per-tag failure lands in
// that tag's result and never aborts the remaining tags, so "completed"
// means attempted, not succeeded.
type Processor struct {
	ledger *ledger.Ledger
	agent  TagAgent // nil = adapter unconfigured, operations terminate in error
	sinks  []Sink
}

func NewProcessor(l *ledger.Ledger, agent TagAgent, sinks ...Sink) *Processor {
	return &Processor{
		ledger: l,
		agent:  agent,
		sinks:  sinks,
	}
}

// Process drives one accepted event through the state machine. Errors after
// this point are never surfaced to the webhook caller; the ledger is the
// only witness.
func (p *Processor) Process(ctx context.Context, event domain.InboundEvent) {
	rec := domain.NewOperationRecord(id.New(), event)

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		OperationID:   logger.Ptr(rec.ID),
		Repo:          logger.Ptr(event.Repo.Name),
		DiscussionNum: logger.Ptr(event.Discussion.Num),
	})

	// Visible to introspection before any work happens.
	p.ledger.Append(rec)

	extracted := tags.ExtractAll(event.Comment.Content, event.Discussion.Title)
	p.ledger.Update(rec.ID, func(r *domain.OperationRecord) {
		r.ExtractedTags = extracted
	})

	slog.InfoContext(ctx, "operation started", "tag_count", len(extracted))

	if len(extracted) == 0 {
		p.finish(ctx, rec.ID, func(r *domain.OperationRecord) {
			r.Status = domain.StatusNoTags
		})
		return
	}

	if p.agent == nil {
		p.finish(ctx, rec.ID, func(r *domain.OperationRecord) {
			r.Status = domain.StatusError
			r.Error = "agent adapter not configured: missing LLM or hub credentials"
		})
		return
	}

	for _, tag := range extracted {
		result := p.processTag(ctx, event.Repo.Name, tag)
		p.ledger.Update(rec.ID, func(r *domain.OperationRecord) {
			r.TagResults = append(r.TagResults, result)
		})
	}

	p.finish(ctx, rec.ID, func(r *domain.OperationRecord) {
		r.Status = domain.StatusCompleted
	})
}

func (p *Processor) processTag(ctx context.Context, repoName, tag string) domain.ToolCallResult {
	result := domain.ToolCallResult{
		Tag:       tag,
		Timestamp: time.Now().UTC(),
	}

	response, err := p.agent.ProcessTag(ctx, repoName, tag)
	if err != nil {
		slog.WarnContext(ctx, "tag processing failed",
			"tag", tag,
			"error", err)
		result.Error = err.Error()
		return result
	}

	result.Response = response
	return result
}

func (p *Processor) finish(ctx context.Context, recID int64, apply func(*domain.OperationRecord)) {
	p.ledger.Update(recID, apply)

	rec, ok := p.ledger.Get(recID)
	if !ok {
		// Evicted under load before we could mirror it; nothing left to do.
		slog.WarnContext(ctx, "operation record evicted before finish")
		return
	}

	slog.InfoContext(ctx, "operation finished",
		"status", string(rec.Status),
		"tag_count", len(rec.ExtractedTags))

	// Sinks only ever see terminal records.
	if !rec.Status.Terminal() {
		return
	}

	for _, sink := range p.sinks {
		if err := sink.Record(ctx, rec); err != nil {
			slog.WarnContext(ctx, "audit sink write failed",
				"sink", sink.Name(),
				"error", err)
		}
	}
}
