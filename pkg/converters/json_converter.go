package converters

import (
	"time"

	"github.com/feichai0017/document-search/internal/models"
)

// PageView is the JSON shape of a catalog row returned by the API.
type PageView struct {
	FileName     string    `json:"fileName"`
	PageNumber   int       `json:"pageNumber"`
	FilePath     string    `json:"filePath"`
	FileType     string    `json:"fileType"`
	Notes        string    `json:"notes"`
	UploadTime   time.Time `json:"uploadTime"`
	State        string    `json:"state"`
	OCRAttempted bool      `json:"ocrAttempted"`
	WordCount    int       `json:"wordCount"`
	Words        []string  `json:"words,omitempty"`
}

// ToPageViews converts records for the API. Words are included only when
// withWords is set.
func ToPageViews(records []models.PageRecord, withWords bool) []PageView {
	views := make([]PageView, 0, len(records))
	for _, r := range records {
		v := PageView{
			FileName:     r.FileName,
			PageNumber:   r.PageNumber,
			FilePath:     r.FilePath,
			FileType:     r.FileType,
			Notes:        r.Notes,
			UploadTime:   r.UploadTime,
			State:        string(r.State()),
			OCRAttempted: r.OCRAttempted,
			WordCount:    len(r.Tokens()),
		}
		if withWords {
			v.Words = r.Tokens()
		}
		views = append(views, v)
	}
	return views
}
