package domain

// InboundEvent is the decoded webhook payload for one delivery from the hub.
// It is immutable once parsed; workers receive it by value.
type InboundEvent struct {
	Action     string     `json:"action"`
	Scope      string     `json:"scope"`
	Comment    Comment    `json:"comment"`
	Discussion Discussion `json:"discussion"`
	Repo       Repo       `json:"repo"`
}

type Comment struct {
	Content string `json:"content"`
	Author  Author `json:"author"`
}

type Author struct {
	ID string `json:"id"`
}

type Discussion struct {
	Title string `json:"title"`
	Num   int64  `json:"num"`
}

type Repo struct {
	Name string `json:"name"`
}

// Accepted reports whether this event is of interest to the pipeline.
// Only newly created discussion comments are processed; every other
// action/scope combination is acknowledged and dropped.
func (e InboundEvent) Accepted() bool {
	return e.Action == "create" && e.Scope == "discussion.comment"
}
