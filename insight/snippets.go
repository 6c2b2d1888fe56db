package insight

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/tourline/tourline/tour"
)

// Snippet is one annotation excerpt attached to a node.
type Snippet struct {
	Node   string `json:"node"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Source string `json:"source,omitempty"`
}

// StorySnippets walks node "stories" annotations and extracts up to limit
// trimmed excerpts. Story bodies sourced from upstream enrichment pages may
// carry HTML; those are converted to markdown before truncation so the
// narrator sees readable text instead of markup.
func StorySnippets(nodes []any, limit int) []Snippet {
	snippets := make([]Snippet, 0, limit)
	for _, node := range nodes {
		obj, ok := node.(map[string]any)
		if !ok {
			continue
		}
		stories, ok := obj["stories"].([]any)
		if !ok {
			continue
		}
		name := tour.NodeName(node)
		for _, raw := range stories {
			story, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			title := truncate(stringField(story, "title"), 120)
			body := truncate(readableBody(stringField(story, "body")), snippetCharLimit)
			if title == "" && body == "" {
				continue
			}
			snippets = append(snippets, Snippet{
				Node:   name,
				Title:  title,
				Body:   body,
				Source: stringField(story, "source"),
			})
			if len(snippets) >= limit {
				return snippets
			}
		}
	}
	return snippets
}

// readableBody converts HTML-looking bodies to markdown, leaving plain
// text untouched. Conversion failures fall back to the raw body.
func readableBody(body string) string {
	if !strings.Contains(body, "<") || !strings.Contains(body, ">") {
		return body
	}
	converted, err := htmltomarkdown.ConvertString(body)
	if err != nil {
		return body
	}
	return converted
}
