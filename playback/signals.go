package playback

// SignalType discriminates step-signal messages from the visualization.
type SignalType string

const (
	// SignalStep means the visualization finished a highlight and is ready
	// for the next narration line.
	SignalStep SignalType = "step"
	// SignalDone means the visualization has walked every tour node.
	SignalDone SignalType = "done"
	// SignalStop is a user cancellation.
	SignalStop SignalType = "stop"
)

// StepSignal is the message the visualization collaborator emits as it works
// through the tour order. Nonce increases monotonically per sender and is
// used to drop repeated deliveries; a step signal carries no line content.
type StepSignal struct {
	Type   SignalType `json:"type"`
	NodeID string     `json:"nodeId,omitempty"`
	Index  int        `json:"index,omitempty"`
	Total  int        `json:"total,omitempty"`
	Nonce  int64      `json:"nonce"`
}
