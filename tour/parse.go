package tour

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
)

// ParseGraph decodes a graph description from JSON. Graph exports pasted out
// of browser consoles or notebooks are frequently sloppy (single quotes,
// trailing commas, unquoted keys), so when strict decoding fails the input is
// run through a JSON repair pass and decoded once more before giving up.
//
// When the description carries only triples, node and link lists are inflated
// from them so downstream consumers always see node documents.
func ParseGraph(data []byte) (*Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(string(data))
		if repairErr != nil {
			return nil, fmt.Errorf("failed to parse graph description: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &g); err != nil {
			return nil, fmt.Errorf("failed to parse repaired graph description: %w", err)
		}
	}
	if len(g.Nodes) == 0 && len(g.Edges) == 0 && len(g.Links) == 0 {
		g.InflateTriples()
	}
	return &g, nil
}
