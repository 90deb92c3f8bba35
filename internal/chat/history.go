// Package chat orchestrates a question through retrieval, prompt assembly,
// and streamed answer generation.
package chat

import (
	"sync"
	"time"

	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/models"
)

// History keeps bounded per-conversation message logs in memory. Each
// conversation holds at most maxTurns exchanges (2*maxTurns messages); older
// messages fall off the front.
type History struct {
	maxTurns int

	mu            sync.Mutex
	conversations map[string]*conversation
}

type conversation struct {
	turns      []models.ConversationTurn
	lastActive time.Time
}

// NewHistory creates a history store keeping maxTurns exchanges per
// conversation.
func NewHistory(maxTurns int) *History {
	if maxTurns <= 0 {
		maxTurns = 6
	}
	return &History{
		maxTurns:      maxTurns,
		conversations: make(map[string]*conversation),
	}
}

// Turns returns a copy of the conversation's messages, oldest first.
func (h *History) Turns(id string) []models.ConversationTurn {
	h.mu.Lock()
	defer h.mu.Unlock()

	conv, ok := h.conversations[id]
	if !ok {
		return nil
	}
	out := make([]models.ConversationTurn, len(conv.turns))
	copy(out, conv.turns)
	return out
}

// Append adds a message to the conversation, trimming to the retention bound
// and refreshing its activity timestamp.
func (h *History) Append(id string, turn models.ConversationTurn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conv, ok := h.conversations[id]
	if !ok {
		conv = &conversation{}
		h.conversations[id] = conv
	}
	conv.turns = append(conv.turns, turn)
	if max := h.maxTurns * 2; len(conv.turns) > max {
		conv.turns = conv.turns[len(conv.turns)-max:]
	}
	conv.lastActive = time.Now()
}

// SweepIdle drops conversations inactive for longer than maxAge and returns
// how many were removed.
func (h *History) SweepIdle(maxAge time.Duration) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, conv := range h.conversations {
		if conv.lastActive.Before(cutoff) {
			delete(h.conversations, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live conversations.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conversations)
}
