// Package prompt assembles the system and user messages for answer
// generation, grounding the model in retrieved context.
package prompt

import (
	"fmt"
	"strings"

	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/generator"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/models"
)

const systemEN = "You are a portfolio assistant for Asad Khan. " +
	"Answer only using the provided context. " +
	"If the answer is not in the context, say: 'I don't have that in my documents.' " +
	"Respond as clear plain text for streaming. " +
	"Append a JSON block at the END inside <json>...</json>. " +
	"Schema: {\"summary\": string, \"items\": [string], \"details\": [{\"title\": string, \"bullets\": [string]}], \"notes\": string}. " +
	"If something is missing, use empty list or empty string."

const systemDE = "Du bist ein Portfolio-Assistent fuer Asad Khan. " +
	"Antworte nur mit Informationen aus dem bereitgestellten Kontext. " +
	"Wenn etwas nicht im Kontext steht, sag ehrlich: 'Das steht nicht in meinen Unterlagen.' " +
	"Antworte als klarer Fliesstext fuer das Streaming. " +
	"Haenge am ENDE eine JSON-Struktur in einem <json>...</json>-Block an. " +
	"Schema: {\"summary\": string, \"items\": [string], \"details\": [{\"title\": string, \"bullets\": [string]}], \"notes\": string}. " +
	"Wenn etwas fehlt, nutze leere Liste oder leeren String."

// BuildContext renders retrieved hits as numbered, source-attributed blocks.
// Hit text longer than maxChars runes is cut with a trailing ellipsis.
func BuildContext(hits []models.RetrievedHit, maxChars int) string {
	if maxChars <= 0 {
		maxChars = 900
	}
	var lines []string
	for i, hit := range hits {
		text := strings.TrimSpace(hit.Text)
		if runes := []rune(text); len(runes) > maxChars {
			text = string(runes[:maxChars]) + "..."
		}
		lines = append(lines, fmt.Sprintf("[%d] source: %s\n%s\n", i+1, hit.Source, text))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// BuildMessages produces the system and user messages for one question. The
// user message carries prior conversation turns (most recent last), the
// question, and the retrieved context, labeled in the answer language.
func BuildMessages(question string, hits []models.RetrievedHit, lng string, maxChars int, history []models.ConversationTurn) []generator.Message {
	context := BuildContext(hits, maxChars)

	var historyLines []string
	for _, turn := range history {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		label := "User"
		if turn.Role == models.RoleAssistant {
			label = "Assistant"
		}
		historyLines = append(historyLines, label+": "+content)
	}
	historyText := strings.TrimSpace(strings.Join(historyLines, "\n"))

	system := systemEN
	labels := struct{ history, question, context, answer string }{
		"HISTORY", "QUESTION", "CONTEXT", "ANSWER",
	}
	if lng == "de" {
		system = systemDE
		labels.history, labels.question = "VERLAUF", "FRAGE"
		labels.context, labels.answer = "KONTEXT", "ANTWORT"
	}

	var user strings.Builder
	if historyText != "" {
		fmt.Fprintf(&user, "%s:\n%s\n\n", labels.history, historyText)
	}
	fmt.Fprintf(&user, "%s:\n%s\n\n%s:\n%s\n\n%s:",
		labels.question, question, labels.context, context, labels.answer)

	return []generator.Message{
		{Role: generator.RoleSystem, Content: system},
		{Role: generator.RoleUser, Content: user.String()},
	}
}
