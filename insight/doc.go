// Package insight builds question-specific context payloads and prompts
// over a knowledge graph. Each question mode compacts the graph into a JSON
// payload tailored to what the narrator needs: theme counts, collaboration
// pairs, extracted facts, tour node cards, or a cluster summary. Payloads
// are byte-capped; oversized ones fall back to a compacted summary.
package insight
