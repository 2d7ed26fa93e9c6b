package converters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/feichai0017/document-search/internal/models"
)

func doc(lines ...[]string) *models.OCRDocument {
	var block models.OCRBlock
	for _, l := range lines {
		var line models.OCRLine
		for _, w := range l {
			line.Words = append(line.Words, models.OCRWord{Value: w, Confidence: 90})
		}
		block.Lines = append(block.Lines, line)
	}
	return &models.OCRDocument{Pages: []models.OCRPage{{Blocks: []models.OCRBlock{block}}}}
}

func TestFlattenWords(t *testing.T) {
	d := doc([]string{"hello"}, []string{"world", "again"})
	d.Pages = append(d.Pages, models.OCRPage{Blocks: []models.OCRBlock{{Lines: []models.OCRLine{{Words: []models.OCRWord{{Value: "p2"}}}}}}})

	assert.Equal(t, []string{"hello", "world", "again", "p2"}, FlattenWords(d))
	assert.Equal(t, []string{}, FlattenWords(nil))
	assert.Equal(t, []string{}, FlattenWords(&models.OCRDocument{}))
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "hello\nworld again", PlainText(doc([]string{"hello"}, []string{"world", "again"})))
	assert.Equal(t, "", PlainText(nil))
}

func TestToPageViews(t *testing.T) {
	now := time.Now()
	records := []models.PageRecord{
		{FileName: "a.pdf", FilePath: "Data/a.pdf_0.pdf", UploadTime: now, Words: []string{"x", "y"}, OCRAttempted: true},
		{FileName: "a.pdf", PageNumber: 1, FilePath: "Data/a.pdf_1.pdf", UploadTime: now, Words: []string{"stale"}},
	}

	views := ToPageViews(records, true)

	assert.Equal(t, "done", views[0].State)
	assert.Equal(t, 2, views[0].WordCount)
	assert.Equal(t, []string{"x", "y"}, views[0].Words)
	assert.Equal(t, "pending", views[1].State)
	assert.Zero(t, views[1].WordCount)
	assert.Nil(t, views[1].Words)

	assert.Nil(t, ToPageViews(records, false)[0].Words)
}
