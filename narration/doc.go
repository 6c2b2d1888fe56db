// Package narration consumes a streamed narration byte source and turns it
// into ordered, trimmed narration lines.
//
// The wire format is the SSE framing produced by the chat-stream endpoint:
// events separated by a blank line, each carrying a "data:" payload that is a
// JSON object with optional delta, done, and error fields. [Decoder] turns
// the byte stream into discrete [Event]s, absorbing malformed frames
// silently; [LineBuffer] accumulates text deltas into complete lines; and
// [Stream] composes the two into an iterator of [Item]s that preserves
// stream order, never duplicates a line, and never loses data across chunk
// boundaries. [Client] opens a stream over HTTP.
package narration
