package insight

import (
	"strings"
	"testing"
)

func storyNode(name string, stories ...map[string]any) map[string]any {
	raw := make([]any, len(stories))
	for i, s := range stories {
		raw[i] = s
	}
	return map[string]any{"id": name, "name": name, "stories": raw}
}

func TestStorySnippets_ExtractsAndTruncates(t *testing.T) {
	long := strings.Repeat("a very long annotation body ", 30)
	nodes := []any{
		storyNode("Nina Simone",
			map[string]any{"title": "Early years", "body": long, "source": "wikipedia"},
			map[string]any{"title": "", "body": ""},
		),
		map[string]any{"id": "no-stories", "name": "no-stories"},
	}

	snippets := StorySnippets(nodes, 10)

	if len(snippets) != 1 {
		t.Fatalf("got %d snippets, want 1 (empty story dropped)", len(snippets))
	}
	s := snippets[0]
	if s.Node != "Nina Simone" || s.Title != "Early years" || s.Source != "wikipedia" {
		t.Errorf("snippet = %+v", s)
	}
	if len(s.Body) > snippetCharLimit {
		t.Errorf("body length %d exceeds limit %d", len(s.Body), snippetCharLimit)
	}
	if !strings.HasSuffix(s.Body, "...") {
		t.Errorf("truncated body missing ellipsis: %q", s.Body)
	}
}

func TestStorySnippets_ConvertsHTMLBodies(t *testing.T) {
	nodes := []any{
		storyNode("Artist",
			map[string]any{"title": "Bio", "body": "<p>Born in <strong>Detroit</strong>.</p>"},
		),
	}

	snippets := StorySnippets(nodes, 10)

	if len(snippets) != 1 {
		t.Fatalf("got %d snippets, want 1", len(snippets))
	}
	body := snippets[0].Body
	if strings.Contains(body, "<p>") || strings.Contains(body, "<strong>") {
		t.Errorf("body still carries HTML: %q", body)
	}
	if !strings.Contains(body, "**Detroit**") {
		t.Errorf("body not converted to markdown: %q", body)
	}
}

func TestStorySnippets_HonorsLimit(t *testing.T) {
	var stories []map[string]any
	for i := 0; i < 8; i++ {
		stories = append(stories, map[string]any{"title": "t", "body": "b"})
	}
	nodes := []any{storyNode("Artist", stories...)}

	if got := len(StorySnippets(nodes, 3)); got != 3 {
		t.Errorf("got %d snippets, want 3", got)
	}
}
