package models

import (
	"time"
)

// OCRState is the processing state of a PageRecord.
type OCRState string

const (
	StatePending OCRState = "pending"
	StateDone    OCRState = "done"
)

// PageRecord is one catalog row describing a single physical page.
type PageRecord struct {
	FileName     string    `json:"fileName"`
	PageNumber   int       `json:"pageNumber"`
	FilePath     string    `json:"filePath"`
	FileType     string    `json:"fileType"`
	Notes        string    `json:"notes"`
	UploadTime   time.Time `json:"uploadTime"`
	Words        []string  `json:"words"`
	OCRAttempted bool      `json:"ocrAttempted"`
}

// State reports whether OCR has run for the record.
func (r PageRecord) State() OCRState {
	if r.OCRAttempted {
		return StateDone
	}
	return StatePending
}

// Tokens returns the OCR tokens of a Done record. Pending records have none,
// whatever their Words field holds.
func (r PageRecord) Tokens() []string {
	if !r.OCRAttempted {
		return nil
	}
	return r.Words
}

// Clone returns a copy that shares no slice memory with r.
func (r PageRecord) Clone() PageRecord {
	out := r
	if r.Words != nil {
		out.Words = append(make([]string, 0, len(r.Words)), r.Words...)
	}
	return out
}
