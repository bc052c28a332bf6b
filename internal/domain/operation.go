package domain

import (
	"time"
	"unicode/utf8"
)

// OperationStatus tracks the lifecycle of one accepted event.
// Transitions: processing -> {no_tags, error, completed}. Terminal states
// are never left.
type OperationStatus string

const (
	StatusProcessing OperationStatus = "processing"
	StatusNoTags     OperationStatus = "no_tags"
	StatusError      OperationStatus = "error"
	StatusCompleted  OperationStatus = "completed"
)

// Terminal reports whether the status is an end state.
func (s OperationStatus) Terminal() bool {
	return s != StatusProcessing
}

const commentPreviewRunes = 140

// ToolCallResult is the per-tag outcome of one agent instruction.
// Exactly one of Response / Error carries the result.
type ToolCallResult struct {
	Tag       string    `json:"tag"`
	Response  string    `json:"response,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// OperationRecord is one audit entry describing the full lifecycle of
// processing a single accepted event. It is created when the event is
// accepted and mutated only by the worker that owns it.
type OperationRecord struct {
	ID             int64            `json:"id,string"`
	Timestamp      time.Time        `json:"timestamp"`
	RepoName       string           `json:"repo_name"`
	DiscussionNum  int64            `json:"discussion_num"`
	AuthorID       string           `json:"author_id"`
	ExtractedTags  []string         `json:"extracted_tags"`
	CommentPreview string           `json:"comment_preview"`
	Status         OperationStatus  `json:"status"`
	Error          string           `json:"error,omitempty"`
	TagResults     []ToolCallResult `json:"tag_results,omitempty"`
}

// NewOperationRecord creates a record in the processing state for an
// accepted event.
func NewOperationRecord(id int64, event InboundEvent) OperationRecord {
	return OperationRecord{
		ID:             id,
		Timestamp:      time.Now().UTC(),
		RepoName:       event.Repo.Name,
		DiscussionNum:  event.Discussion.Num,
		AuthorID:       event.Comment.Author.ID,
		CommentPreview: truncateRunes(event.Comment.Content, commentPreviewRunes),
		Status:         StatusProcessing,
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
