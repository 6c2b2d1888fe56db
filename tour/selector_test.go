package tour

import (
	"reflect"
	"testing"
)

// workedGraph is the reference graph used across selector tests:
// nodes {A,B,C,D,E}; edges A–B, A–C, A–D, B–C, D–E.
func workedGraph() *Graph {
	return &Graph{
		Nodes: []any{"A", "B", "C", "D", "E"},
		Links: []Link{
			{Source: "A", Target: "B"},
			{Source: "A", Target: "C"},
			{Source: "A", Target: "D"},
			{Source: "B", Target: "C"},
			{Source: "D", Target: "E"},
		},
	}
}

// TestSelect_WorkedExample verifies the documented reference case: with
// degrees A=3, B=2, C=2, D=2, E=1 and count=3 the eligible set is {A,B,C}
// and the walk yields [A, B, C].
func TestSelect_WorkedExample_TopThree(t *testing.T) {
	got := Select(workedGraph(), 3)
	want := []string{"A", "B", "C"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected tour %v, got %v", want, got)
	}
}

// TestSelect_FullCoverage verifies that count >= |nodes| produces a
// permutation covering every node exactly once, in walk order.
func TestSelect_FullCoverage_IsPermutation(t *testing.T) {
	got := Select(workedGraph(), 10)
	want := []string{"A", "B", "C", "D", "E"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected tour %v, got %v", want, got)
	}
}

// TestSelect_Disconnected verifies that the outer loop restarts walks so a
// disconnected eligible set is still fully covered.
func TestSelect_Disconnected_CoversAllComponents(t *testing.T) {
	g := &Graph{
		Links: []Link{
			{Source: "A", Target: "B"},
			{Source: "C", Target: "D"},
		},
	}
	got := Select(g, 4)
	want := []string{"A", "B", "C", "D"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected tour %v, got %v", want, got)
	}
}

// TestSelect_Determinism verifies that edge insertion order does not affect
// the result beyond the documented degree/identity tie break.
func TestSelect_Determinism_IndependentOfInsertionOrder(t *testing.T) {
	reversed := workedGraph()
	for i, j := 0, len(reversed.Links)-1; i < j; i, j = i+1, j-1 {
		reversed.Links[i], reversed.Links[j] = reversed.Links[j], reversed.Links[i]
	}

	first := Select(workedGraph(), 5)
	second := Select(reversed, 5)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical tours, got %v and %v", first, second)
	}
}

// TestSelect_MixedEdgeShapes verifies that links, edges, and triples all
// contribute to the same adjacency relation.
func TestSelect_MixedEdgeShapes_MergeIntoOneRelation(t *testing.T) {
	g := &Graph{
		Links:   []Link{{Source: "A", Target: "B"}},
		Edges:   []Edge{{From: "A", To: "C"}},
		Triples: []Triple{{Subject: "A", Predicate: "knows", Object: "D"}},
	}
	got := Select(g, 4)
	want := []string{"A", "B", "C", "D"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected tour %v, got %v", want, got)
	}
}

// TestSelect_Degenerate verifies the documented edge cases: non-positive
// count and empty graphs both yield empty sequences without error.
func TestSelect_Degenerate_EmptySequences(t *testing.T) {
	if got := Select(workedGraph(), 0); len(got) != 0 {
		t.Errorf("expected empty tour for count=0, got %v", got)
	}
	if got := Select(workedGraph(), -3); len(got) != 0 {
		t.Errorf("expected empty tour for negative count, got %v", got)
	}
	if got := Select(&Graph{}, 5); len(got) != 0 {
		t.Errorf("expected empty tour for empty graph, got %v", got)
	}
	if got := Select(nil, 5); len(got) != 0 {
		t.Errorf("expected empty tour for nil graph, got %v", got)
	}
}

// TestBuildAdjacency_SelfLoops verifies that a node never appears in its own
// neighbor set.
func TestBuildAdjacency_SelfLoops_Ignored(t *testing.T) {
	g := &Graph{
		Links: []Link{
			{Source: "A", Target: "A"},
			{Source: "A", Target: "B"},
		},
	}
	adj := BuildAdjacency(g)
	if _, ok := adj["A"]["A"]; ok {
		t.Error("expected self-loop to be excluded from the neighbor set")
	}
	if adj.Degree("A") != 1 {
		t.Errorf("expected degree 1 for A, got %d", adj.Degree("A"))
	}
}

// TestBuildAdjacency_Symmetry verifies that every edge registers both
// directions.
func TestBuildAdjacency_Symmetry_BothDirections(t *testing.T) {
	adj := BuildAdjacency(&Graph{Edges: []Edge{{From: "X", To: "Y"}}})
	if _, ok := adj["X"]["Y"]; !ok {
		t.Error("expected Y in neighbors(X)")
	}
	if _, ok := adj["Y"]["X"]; !ok {
		t.Error("expected X in neighbors(Y)")
	}
}

// TestNodeID_ExtractionOrder verifies the identity-extraction preference
// order and its totality over odd inputs.
func TestNodeID_ExtractionOrder_DeterministicAndTotal(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  string
	}{
		{"plain string", "artists/1", "artists/1"},
		{"integral number", float64(42), "42"},
		{"id preferred", map[string]any{"id": "n1", "name": "Nina"}, "n1"},
		{"underscore id", map[string]any{"_id": "songs/9", "label": "Song"}, "songs/9"},
		{"key fallback", map[string]any{"_key": "9"}, "9"},
		{"name fallback", map[string]any{"name": "Nina"}, "Nina"},
		{"label fallback", map[string]any{"label": "Jazz"}, "Jazz"},
		{"empty object", map[string]any{}, ""},
		{"nil", nil, ""},
		{"composite id ignored", map[string]any{"id": []any{"x"}, "name": "Y"}, "Y"},
	}
	for _, tc := range cases {
		if got := NodeID(tc.value); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
