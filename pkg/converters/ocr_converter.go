package converters

import (
	"strings"

	"github.com/feichai0017/document-search/internal/models"
)

// FlattenWords returns every word value of doc in document order: pages,
// then blocks, then lines.
func FlattenWords(doc *models.OCRDocument) []string {
	words := make([]string, 0, doc.WordCount())
	if doc == nil {
		return words
	}
	for _, p := range doc.Pages {
		for _, b := range p.Blocks {
			for _, l := range b.Lines {
				for _, w := range l.Words {
					words = append(words, w.Value)
				}
			}
		}
	}
	return words
}

// PlainText renders doc as text, one OCR line per line and a blank line
// between blocks.
func PlainText(doc *models.OCRDocument) string {
	if doc == nil {
		return ""
	}
	var blocks []string
	for _, p := range doc.Pages {
		for _, b := range p.Blocks {
			lines := make([]string, 0, len(b.Lines))
			for _, l := range b.Lines {
				values := make([]string, len(l.Words))
				for i, w := range l.Words {
					values[i] = w.Value
				}
				lines = append(lines, strings.Join(values, " "))
			}
			if len(lines) > 0 {
				blocks = append(blocks, strings.Join(lines, "\n"))
			}
		}
	}
	return strings.Join(blocks, "\n\n")
}
