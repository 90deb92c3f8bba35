package prompt

import (
	"strings"
	"testing"

	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/generator"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/models"
)

func sampleHits() []models.RetrievedHit {
	return []models.RetrievedHit{
		{ChunkID: "a.md::chunk::0", Source: "a.md", Text: "Go backend work since 2018.", Score: 0.9},
		{ChunkID: "b.md::chunk::1", Source: "b.md", Text: "Kubernetes and Kafka in production.", Score: 0.7},
	}
}

func TestBuildContextNumbersAndSources(t *testing.T) {
	ctx := BuildContext(sampleHits(), 900)

	if !strings.Contains(ctx, "[1] source: a.md\nGo backend work since 2018.") {
		t.Errorf("missing first block:\n%s", ctx)
	}
	if !strings.Contains(ctx, "[2] source: b.md") {
		t.Errorf("missing second block:\n%s", ctx)
	}
}

func TestBuildContextTruncates(t *testing.T) {
	hits := []models.RetrievedHit{{Source: "x.md", Text: strings.Repeat("y", 50)}}
	ctx := BuildContext(hits, 10)

	if !strings.Contains(ctx, strings.Repeat("y", 10)+"...") {
		t.Errorf("expected truncated text in:\n%s", ctx)
	}
	if strings.Contains(ctx, strings.Repeat("y", 11)) {
		t.Error("text not truncated to limit")
	}
}

func TestBuildContextEmpty(t *testing.T) {
	if got := BuildContext(nil, 900); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestBuildMessagesEnglish(t *testing.T) {
	msgs := BuildMessages("What do you do?", sampleHits(), "en", 900, nil)

	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != generator.RoleSystem {
		t.Errorf("first role = %q", msgs[0].Role)
	}
	if !strings.Contains(msgs[0].Content, "portfolio assistant for Asad Khan") {
		t.Error("wrong system prompt")
	}
	if !strings.Contains(msgs[0].Content, "I don't have that in my documents.") {
		t.Error("missing refusal phrase")
	}

	user := msgs[1].Content
	if !strings.Contains(user, "QUESTION:\nWhat do you do?") {
		t.Errorf("missing question section:\n%s", user)
	}
	if !strings.Contains(user, "CONTEXT:\n[1] source: a.md") {
		t.Errorf("missing context section:\n%s", user)
	}
	if !strings.HasSuffix(user, "ANSWER:") {
		t.Errorf("user message must end with answer cue:\n%s", user)
	}
	if strings.Contains(user, "HISTORY:") {
		t.Error("history section present without history")
	}
}

func TestBuildMessagesGerman(t *testing.T) {
	msgs := BuildMessages("Was machst du?", sampleHits(), "de", 900, nil)

	if !strings.Contains(msgs[0].Content, "Das steht nicht in meinen Unterlagen.") {
		t.Error("missing German refusal phrase")
	}
	user := msgs[1].Content
	for _, label := range []string{"FRAGE:", "KONTEXT:", "ANTWORT:"} {
		if !strings.Contains(user, label) {
			t.Errorf("missing %s in:\n%s", label, user)
		}
	}
	if strings.Contains(user, "QUESTION:") {
		t.Error("English labels leaked into German prompt")
	}
}

func TestBuildMessagesHistory(t *testing.T) {
	history := []models.ConversationTurn{
		{Role: models.RoleUser, Content: "Hi there"},
		{Role: models.RoleAssistant, Content: "Hello! Ask me anything."},
		{Role: models.RoleUser, Content: "   "},
	}
	msgs := BuildMessages("And your skills?", sampleHits(), "en", 900, history)

	user := msgs[1].Content
	if !strings.Contains(user, "HISTORY:\nUser: Hi there\nAssistant: Hello! Ask me anything.") {
		t.Errorf("history not rendered:\n%s", user)
	}
	if idx := strings.Index(user, "HISTORY:"); idx > strings.Index(user, "QUESTION:") {
		t.Error("history must precede the question")
	}
}
