package extract

import (
	"fmt"

	"github.com/lu4p/cat"
)

// extractRichText handles .odt and .rtf via lu4p/cat, which sniffs the format
// from the bytes. DOCX deliberately does not go through here: cat's DOCX regex
// misses paragraphs carrying attributes, so real-world files come back empty.
func extractRichText(content []byte) (string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", fmt.Errorf("extract rich text: %w", err)
	}
	return text, nil
}
