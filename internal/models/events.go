package models

// EventType names one stage of the chat stream. The values double as the SSE
// event names on the wire.
type EventType string

const (
	EventTrace   EventType = "trace"
	EventSources EventType = "sources"
	EventChunk   EventType = "chunk"
	EventDone    EventType = "done"
	EventError   EventType = "error"
)

// DoneData is the payload of the terminal done event.
const DoneData = "[DONE]"

// StreamEvent is one element of a chat response stream. For a single request the
// sequence is: at most one trace, at most one sources, zero or more chunk, then
// exactly one done (preceded by one error when the request failed).
type StreamEvent struct {
	Type EventType
	Data string
}
