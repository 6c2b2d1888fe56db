package tour

import (
	"fmt"
	"sort"
	"strconv"
)

// Graph is a heterogeneous graph description as received from callers.
// Any of the four collections may be absent; all present collections
// contribute to the same undirected adjacency relation.
type Graph struct {
	// Nodes lists node documents. Each entry may be a plain identifier
	// string or an object carrying one of the identity keys (see NodeID).
	Nodes []any `json:"nodes,omitempty"`

	// Links are source/target pairs. Endpoint values may themselves be
	// objects and are normalized through NodeID.
	Links []Link `json:"links,omitempty"`

	// Edges are ArangoDB-style _from/_to pairs.
	Edges []Edge `json:"edges,omitempty"`

	// Triples are subject/predicate/object statements.
	Triples []Triple `json:"triples,omitempty"`
}

// Link connects two nodes by raw endpoint values.
type Link struct {
	Source any    `json:"source"`
	Target any    `json:"target"`
	Label  string `json:"label,omitempty"`
}

// Edge connects two nodes by document id, ArangoDB style.
type Edge struct {
	From  string `json:"_from"`
	To    string `json:"_to"`
	Label string `json:"label,omitempty"`
}

// Triple is a subject/predicate/object statement.
type Triple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate,omitempty"`
	Object    string `json:"object"`
}

// identityKeys is the preference order for extracting a node identity from
// an object-shaped node or link endpoint.
var identityKeys = [...]string{"id", "_id", "_key", "name", "label"}

// NodeID extracts a node identity string from a raw node or link endpoint
// value. For objects it prefers, in order: id, _id, _key, name, label.
// Scalars are stringified. The function is deterministic and total: it never
// fails, and unresolvable values yield "" (callers drop empty identities).
func NodeID(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case map[string]any:
		for _, key := range identityKeys {
			if id := scalarString(v[key]); id != "" {
				return id
			}
		}
		return ""
	default:
		return scalarString(value)
	}
}

// NodeName returns a display name for a raw node value, falling back to the
// node identity when no name or label is present.
func NodeName(value any) string {
	if v, ok := value.(map[string]any); ok {
		if name := scalarString(v["name"]); name != "" {
			return name
		}
		if label := scalarString(v["label"]); label != "" {
			return label
		}
	}
	return NodeID(value)
}

// scalarString stringifies a scalar JSON value. JSON numbers arrive as
// float64; integral values are rendered without a fractional part so that
// an id of 42 round-trips as "42".
func scalarString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case map[string]any, []any:
		// Composite values carry no usable identity of their own.
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// InflateTriples synthesizes node and link lists from the triple list.
// It is used when a caller supplies only triples, so that downstream
// consumers that expect node documents (context builders, visualizations)
// still have something to work with. Existing nodes and links are preserved.
func (g *Graph) InflateTriples() {
	if len(g.Triples) == 0 {
		return
	}
	known := make(map[string]bool, len(g.Nodes))
	for _, node := range g.Nodes {
		if id := NodeID(node); id != "" {
			known[id] = true
		}
	}
	addNode := func(id string) {
		if id == "" || known[id] {
			return
		}
		known[id] = true
		g.Nodes = append(g.Nodes, map[string]any{"id": id, "name": id})
	}
	for _, t := range g.Triples {
		addNode(t.Subject)
		addNode(t.Object)
		if t.Subject != "" && t.Object != "" {
			g.Links = append(g.Links, Link{Source: t.Subject, Target: t.Object, Label: t.Predicate})
		}
	}
}

// NodeIDs returns the distinct identities contributed by the node list, in
// first-seen order.
func (g *Graph) NodeIDs() []string {
	seen := make(map[string]bool, len(g.Nodes))
	ids := make([]string, 0, len(g.Nodes))
	for _, node := range g.Nodes {
		id := NodeID(node)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// SortedIDs returns all identities in an adjacency map in ascending
// lexicographic order. Used by callers that need deterministic iteration.
func SortedIDs(adj Adjacency) []string {
	ids := make([]string, 0, len(adj))
	for id := range adj {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
