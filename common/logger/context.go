package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within
// a context. Fields flow through context enrichment so that business context
// (operation_id, repo, etc.) is included in every log statement without being
// threaded by hand.
type LogFields struct {
	OperationID   *int64  // Ledger operation record ID
	Repo          *string // Target repository name
	DiscussionNum *int64  // Discussion number the comment belongs to
	Tag           *string // Candidate tag currently being processed
	Component     string  // Component name (e.g. "tagger.worker", "tagger.agent")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking
// precedence. Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.OperationID != nil {
		result.OperationID = next.OperationID
	}
	if next.Repo != nil {
		result.Repo = next.Repo
	}
	if next.DiscussionNum != nil {
		result.DiscussionNum = next.DiscussionNum
	}
	if next.Tag != nil {
		result.Tag = next.Tag
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value, for setting LogFields
// inline: logger.WithLogFields(ctx, logger.LogFields{Repo: logger.Ptr(name)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if
// truncated. Useful for logging potentially long comment bodies or agent
// responses.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
