package models

// Role of a conversation turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is one prior message in a conversation.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /v1/chat/stream. All retrieval parameters are
// optional; nil means "use the configured default".
type ChatRequest struct {
	Message          string   `json:"message"`
	Language         string   `json:"language,omitempty"`
	ConversationID   string   `json:"conversation_id,omitempty"`
	K                *int     `json:"k,omitempty"`
	UseMMR           *bool    `json:"use_mmr,omitempty"`
	FetchK           *int     `json:"fetch_k,omitempty"`
	MMRLambda        *float64 `json:"mmr_lambda,omitempty"`
	MaxCharsPerChunk *int     `json:"max_chars_per_chunk,omitempty"`
	IncludeCitations *bool    `json:"include_citations,omitempty"`
}

// Feedback is a thumbs-up/down record for one assistant message.
type Feedback struct {
	ConversationID string `json:"conversation_id,omitempty"`
	MessageID      string `json:"message_id,omitempty"`
	Rating         string `json:"rating"`
	Comment        string `json:"comment,omitempty"`
}
