// Package lang provides lightweight language detection for routing questions
// to the right corpus index.
package lang

import "strings"

// German function words frequent enough in short questions to be a signal.
var germanStopwords = map[string]bool{
	"und": true, "ich": true, "der": true, "die": true, "das": true,
	"nicht": true, "mit": true, "für": true, "ist": true, "sind": true,
	"habe": true, "haben": true, "wie": true, "was": true, "warum": true,
	"bitte": true,
}

// Detect classifies text as "de" or "en". A single umlaut or eszett is taken
// as German immediately; otherwise at least two German stopwords are required.
// Everything else falls back to English.
func Detect(text string) string {
	lower := strings.ToLower(text)
	if strings.ContainsAny(lower, "äöüß") {
		return "de"
	}

	hits := 0
	for _, word := range strings.Fields(lower) {
		word = strings.Trim(word, ".,!?;:\"'()")
		if germanStopwords[word] {
			hits++
			if hits >= 2 {
				return "de"
			}
		}
	}
	return "en"
}

// Resolve picks the effective language for a request: an explicitly requested
// language wins if supported, otherwise the message is detected, and anything
// unsupported collapses to fallback.
func Resolve(requested, message string, supported []string, fallback string) string {
	if requested != "" && contains(supported, requested) {
		return requested
	}
	detected := Detect(message)
	if contains(supported, detected) {
		return detected
	}
	return fallback
}

func contains(langs []string, lang string) bool {
	for _, l := range langs {
		if l == lang {
			return true
		}
	}
	return false
}
