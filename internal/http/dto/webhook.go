package dto

import "hublabs.dev/tagger/internal/domain"

// SimulateRequest synthesizes an accepted discussion-comment event without a
// live hub delivery. Used for local testing of the full pipeline.
type SimulateRequest struct {
	RepoName        string `json:"repo_name" binding:"required"`
	DiscussionTitle string `json:"discussion_title"`
	CommentContent  string `json:"comment_content"`
	AuthorID        string `json:"author_id"`
}

// Event builds the InboundEvent a real delivery would have carried.
func (r SimulateRequest) Event() domain.InboundEvent {
	authorID := r.AuthorID
	if authorID == "" {
		authorID = "simulator"
	}
	return domain.InboundEvent{
		Action: "create",
		Scope:  "discussion.comment",
		Comment: domain.Comment{
			Content: r.CommentContent,
			Author:  domain.Author{ID: authorID},
		},
		Discussion: domain.Discussion{
			Title: r.DiscussionTitle,
		},
		Repo: domain.Repo{Name: r.RepoName},
	}
}

// OperationsResponse is the introspection view of the ledger.
type OperationsResponse struct {
	Count      int                      `json:"count"`
	Window     int                      `json:"window"`
	Operations []domain.OperationRecord `json:"operations"`
}
