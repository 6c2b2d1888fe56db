// Package httpx provides shared low-level HTTP helpers for streaming
// communication. It covers [DoPostStream] for opening a Server-Sent Events
// response, [SSEScanner] for reading individual SSE data payloads, and
// [CloseWithLog] for draining and closing response bodies.
package httpx
