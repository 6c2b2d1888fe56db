package insight

import "fmt"

// Mode identifies one of the supported question modes.
type Mode string

const (
	ModeThemes           Mode = "themes"
	ModeCollabs          Mode = "collabs"
	ModeFunFacts         Mode = "fun_facts"
	ModeTour             Mode = "tour"
	ModeSelectionSummary Mode = "selection_summary"
)

// Definition holds the user-facing label and the narrator focus line for a
// question mode.
type Definition struct {
	Label string
	Focus string
}

var definitions = map[Mode]Definition{
	ModeThemes: {
		Label: "What are the themes around this playlist?",
		Focus: "Summarize recurring genres, moods, topics, and artistic themes.",
	},
	ModeCollabs: {
		Label: "Which artists have worked together?",
		Focus: "Highlight artist collaborations, shared tracks, or direct relationships.",
	},
	ModeFunFacts: {
		Label: "What is a fun fact about this playlist?",
		Focus: "Share exactly one interesting, short fact from the graph (stat, rare item, or notable node).",
	},
	ModeTour: {
		Label: "Give me a tour",
		Focus: "Provide a brief guided tour of the most central nodes in the graph.",
	},
	ModeSelectionSummary: {
		Label: "Summarize this selected cluster of nodes and edges.",
		Focus: "Summarize the selected subgraph, noting dominant entities, relationships, and notable patterns.",
	},
}

// Modes returns the supported question modes in presentation order.
func Modes() []Mode {
	return []Mode{ModeThemes, ModeCollabs, ModeFunFacts, ModeTour, ModeSelectionSummary}
}

// ParseMode validates a raw question id.
func ParseMode(raw string) (Mode, error) {
	mode := Mode(raw)
	if _, ok := definitions[mode]; !ok {
		return "", fmt.Errorf("question_id must be one of: themes, collabs, fun_facts, tour, selection_summary")
	}
	return mode, nil
}

// Definition returns the mode's label and focus line.
func (m Mode) Definition() Definition {
	return definitions[m]
}

// Temperature returns the sampling temperature used when narrating this
// mode. Fun facts run hotter, tours a little cooler, everything else
// conservative.
func (m Mode) Temperature() float64 {
	switch m {
	case ModeFunFacts:
		return 0.7
	case ModeTour:
		return 0.5
	default:
		return 0.4
	}
}

// SystemPrompt returns the narrator system prompt for this mode.
func (m Mode) SystemPrompt() string {
	switch m {
	case ModeTour:
		return "You are an expert music analyst guiding a user through a playlist knowledge graph. " +
			"Use the provided tour nodes to narrate a guided tour. " +
			"Keep each step to one short sentence."
	case ModeSelectionSummary:
		return "You are an expert music analyst summarizing a selected cluster in a playlist knowledge graph. " +
			"Be concise: 2 to 3 short sentences max. " +
			"Avoid bullet lists and avoid prefacing with filler phrases."
	default:
		return "You are an expert music analyst helping users understand a playlist " +
			"knowledge graph. Use the provided graph data to answer questions. " +
			"If the graph data is incomplete, add a brief caveat at the end (one short sentence) " +
			"and still answer. Keep the response to 2 to 3 short sentences max. " +
			"Avoid bullet lists unless explicitly asked. Do not preface answers with filler phrases. " +
			"The graph payload is tailored to the requested question."
	}
}

// UserPrompt assembles the narrator user prompt around a serialized context
// payload.
func (m Mode) UserPrompt(payload []byte) string {
	def := definitions[m]
	switch m {
	case ModeTour:
		return fmt.Sprintf(
			"Question: %s\nFocus: %s\n"+
				"Response format: Numbered list, one short sentence per node. "+
				"Start each line with the node name. "+
				"No extra intro or outro.\n"+
				"Context:\n%s",
			def.Label, def.Focus, payload)
	case ModeSelectionSummary:
		return fmt.Sprintf(
			"Question: %s\nFocus: %s\n"+
				"Response format: 2 to 3 short sentences, no bullet lists, no extra intro or outro.\n"+
				"Keep it concise and specific to the selected cluster.\n"+
				"Context:\n%s",
			def.Label, def.Focus, payload)
	default:
		return fmt.Sprintf(
			"Question: %s\nFocus: %s\n"+
				"Response format: 1 short paragraph, 2 to 3 short sentences, no bullet lists.\n"+
				"Avoid prefacing with phrases like \"A fun fact from the graph\" or similar.\n"+
				"Context:\n%s",
			def.Label, def.Focus, payload)
	}
}
