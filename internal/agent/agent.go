// Package agent drives the tag-applying decision agent.
//
// For each candidate tag the adapter issues one natural-language instruction
// to a tool-equipped model: read the repository's current tags, decide
// whether the candidate is new and valid, and add it if so. The model's
// final free-text summary is returned verbatim; the adapter does not second-
// guess the decision. Idempotency rests on the read-before-write instruction,
// not on the adapter.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hublabs.dev/tagger/common/llm"
	"hublabs.dev/tagger/common/logger"
	"hublabs.dev/tagger/core/config"
)

const (
	instructionTimeout = 2 * time.Minute

	// Transient chat failures (rate limits, 5xx, network) are retried with
	// a linear backoff before the tag is given up on.
	maxChatAttempts = 3
	retryBaseDelay  = 250 * time.Millisecond

	// Tag decisions should not vary run to run.
	decisionTemperature = 0.2
)

type Adapter struct {
	llm           llm.AgentClient
	tools         *TagTools
	maxIterations int
	maxTokens     int
}

func NewAdapter(client llm.AgentClient, tools *TagTools, cfg config.AgentLLMConfig) *Adapter {
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 6
	}
	return &Adapter{
		llm:           client,
		tools:         tools,
		maxIterations: maxIterations,
		maxTokens:     cfg.MaxTokens,
	}
}

// ProcessTag runs one instruction for a single candidate tag and returns the
// agent's free-text summary.
func (a *Adapter) ProcessTag(ctx context.Context, repoName, tag string) (string, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "tagger.agent",
		Tag:       logger.Ptr(tag),
	})

	ctx, cancel := context.WithTimeout(ctx, instructionTimeout)
	defer cancel()

	messages := []llm.Message{
		{Role: "system", Content: a.systemPrompt()},
		{Role: "user", Content: a.instruction(repoName, tag)},
	}

	start := time.Now()

	for iteration := 1; ; iteration++ {
		if iteration > a.maxIterations {
			slog.WarnContext(ctx, "agent hit iteration limit, forcing summary",
				"iterations", iteration-1)
			return a.forceSummary(ctx, messages)
		}

		resp, err := a.chat(ctx, llm.AgentRequest{
			Messages:    messages,
			Tools:       a.tools.Definitions(),
			MaxTokens:   a.maxTokens,
			Temperature: llm.Temp(decisionTemperature),
		})
		if err != nil {
			return "", fmt.Errorf("agent chat iteration %d: %w", iteration, err)
		}

		// No tool calls = the model has made its decision.
		if len(resp.ToolCalls) == 0 {
			slog.InfoContext(ctx, "agent instruction completed",
				"iterations", iteration,
				"duration_ms", time.Since(start).Milliseconds(),
				"response", logger.Truncate(resp.Content, 200))
			return resp.Content, nil
		}

		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, tc := range resp.ToolCalls {
			slog.DebugContext(ctx, "agent executing tool",
				"tool", tc.Name,
				"call_id", tc.ID)

			result, err := a.tools.Execute(ctx, tc.Name, tc.Arguments)
			if err != nil {
				result = fmt.Sprintf("Error: %s", err)
			}

			messages = append(messages, llm.Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}
}

// forceSummary asks the model for a final answer without offering tools.
func (a *Adapter) forceSummary(ctx context.Context, messages []llm.Message) (string, error) {
	messages = append(messages, llm.Message{
		Role:    "user",
		Content: "Stop calling tools. Summarize in one or two sentences what you did and why.",
	})

	resp, err := a.chat(ctx, llm.AgentRequest{
		Messages:    messages,
		MaxTokens:   a.maxTokens,
		Temperature: llm.Temp(decisionTemperature),
	})
	if err != nil {
		return "", fmt.Errorf("agent forced summary: %w", err)
	}
	return resp.Content, nil
}

// chat calls the model, retrying errors llm.IsRetryable approves of.
func (a *Adapter) chat(ctx context.Context, req llm.AgentRequest) (*llm.AgentResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= maxChatAttempts; attempt++ {
		resp, err := a.llm.ChatWithTools(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !llm.IsRetryable(ctx, err) || attempt == maxChatAttempts {
			break
		}

		slog.WarnContext(ctx, "agent chat failed, retrying",
			"attempt", attempt,
			"error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBaseDelay):
		}
	}
	return nil, lastErr
}

func (a *Adapter) systemPrompt() string {
	return `You maintain repository tags on a model hub. You have two tools:
get_repo_tags reads a repository's current tags, add_repo_tag adds one tag.

Rules:
- ALWAYS call get_repo_tags first. Never add a tag without reading first.
- Add the candidate tag only if it is not already present and is a short,
  sensible lowercase label. Adding a tag that exists is a wasted write.
- If the tag is already present or not suitable, do nothing and say why.
- Finish with one or two sentences stating what you did.`
}

func (a *Adapter) instruction(repoName, tag string) string {
	return fmt.Sprintf(
		"Repository: %s\nCandidate tag: %q\n\nCheck the repository's current tags and add the candidate if it is new and valid.",
		repoName, tag)
}
