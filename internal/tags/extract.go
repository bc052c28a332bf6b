// Package tags extracts candidate tags from discussion text.
//
// Extraction is a pure function: the same text always yields the same set,
// regardless of word order. Two sources feed it — a fixed vocabulary of
// known tags matched as whole words, and an explicit "tags: a, b" directive
// that users write in comments.
package tags

import (
	"regexp"
	"sort"
	"strings"
)

// vocabulary is the fixed set of tags recognized as bare words in free text.
var vocabulary = map[string]struct{}{
	"pytorch":       {},
	"tensorflow":    {},
	"jax":           {},
	"transformers":  {},
	"diffusers":     {},
	"onnx":          {},
	"safetensors":   {},
	"gguf":          {},
	"text-to-image": {},
	"translation":   {},
	"summarization": {},
}

var (
	directiveRe = regexp.MustCompile(`(?i)\btags?\s*:\s*([a-z0-9_\-,\s]+)`)
	wordRe      = regexp.MustCompile(`[a-z0-9][a-z0-9_\-]*`)
)

// Extract returns the deduplicated candidate tags found in text. Tags are
// lowercased; the result is sorted so callers get a stable order. Empty or
// unrecognized text yields an empty set.
func Extract(text string) []string {
	if text == "" {
		return nil
	}

	lower := strings.ToLower(text)
	seen := make(map[string]struct{})

	// Explicit directive: "tags: pytorch, transformers"
	for _, m := range directiveRe.FindAllStringSubmatch(lower, -1) {
		for _, part := range strings.Split(m[1], ",") {
			tag := strings.TrimSpace(part)
			if isValidTag(tag) {
				seen[tag] = struct{}{}
			}
		}
	}

	// Vocabulary words anywhere in the text
	for _, word := range wordRe.FindAllString(lower, -1) {
		if _, ok := vocabulary[word]; ok {
			seen[word] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil
	}

	result := make([]string, 0, len(seen))
	for tag := range seen {
		result = append(result, tag)
	}
	sort.Strings(result)
	return result
}

// ExtractAll unions the candidate tags of several texts, deduplicated.
// Used to combine a comment body with its discussion title.
func ExtractAll(texts ...string) []string {
	seen := make(map[string]struct{})
	for _, text := range texts {
		for _, tag := range Extract(text) {
			seen[tag] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil
	}

	result := make([]string, 0, len(seen))
	for tag := range seen {
		result = append(result, tag)
	}
	sort.Strings(result)
	return result
}

// isValidTag accepts short lowercase labels: letters, digits, hyphen,
// underscore, starting with an alphanumeric.
func isValidTag(tag string) bool {
	if tag == "" || len(tag) > 64 {
		return false
	}
	return wordRe.FindString(tag) == tag
}
