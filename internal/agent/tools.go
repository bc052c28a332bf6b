package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"hublabs.dev/tagger/common/llm"
	"hublabs.dev/tagger/internal/hub"
)

// GetRepoTagsParams reads the current tag set of a repository.
type GetRepoTagsParams struct {
	Repo string `json:"repo" jsonschema:"required,description=Repository name (e.g. 'user/repo')"`
}

// AddRepoTagParams adds a single tag to a repository.
type AddRepoTagParams struct {
	Repo string `json:"repo" jsonschema:"required,description=Repository name (e.g. 'user/repo')"`
	Tag  string `json:"tag" jsonschema:"required,description=Tag to add (lowercase, no spaces)"`
}

// TagTools exposes the two hub operations the agent may call.
type TagTools struct {
	tags        hub.TagService
	definitions []llm.Tool
}

func NewTagTools(tags hub.TagService) *TagTools {
	t := &TagTools{tags: tags}

	t.definitions = []llm.Tool{
		{
			Name: "get_repo_tags",
			Description: `Read the current tags of a repository. Always call this before adding
a tag so you can tell whether the candidate is already present.`,
			Parameters: llm.GenerateSchemaFrom(GetRepoTagsParams{}),
		},
		{
			Name: "add_repo_tag",
			Description: `Add one tag to a repository. Only call this after get_repo_tags has
shown the tag is not already present.`,
			Parameters: llm.GenerateSchemaFrom(AddRepoTagParams{}),
		},
	}

	return t
}

// Definitions returns the tool definitions for the LLM request.
func (t *TagTools) Definitions() []llm.Tool {
	return t.definitions
}

// Execute dispatches a tool call by name. Tool errors are returned to the
// caller, which feeds them back to the model as the tool result.
func (t *TagTools) Execute(ctx context.Context, name, arguments string) (string, error) {
	switch name {
	case "get_repo_tags":
		params, err := llm.ParseToolArguments[GetRepoTagsParams](arguments)
		if err != nil {
			return "", err
		}
		return t.getRepoTags(ctx, params)

	case "add_repo_tag":
		params, err := llm.ParseToolArguments[AddRepoTagParams](arguments)
		if err != nil {
			return "", err
		}
		return t.addRepoTag(ctx, params)

	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

func (t *TagTools) getRepoTags(ctx context.Context, params GetRepoTagsParams) (string, error) {
	tags, err := t.tags.GetTags(ctx, params.Repo)
	if err != nil {
		return "", err
	}

	if len(tags) == 0 {
		return "The repository has no tags.", nil
	}

	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return fmt.Sprintf("Current tags: %s", data), nil
}

func (t *TagTools) addRepoTag(ctx context.Context, params AddRepoTagParams) (string, error) {
	if err := t.tags.AddTag(ctx, params.Repo, params.Tag); err != nil {
		return "", err
	}
	return fmt.Sprintf("Tag %q added to %s.", params.Tag, params.Repo), nil
}
