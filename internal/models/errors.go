package models

import "errors"

// Errors shared by the catalog, ingestion, OCR and search layers.
var (
	// ErrNotFound indicates a missing catalog snapshot or artifact
	ErrNotFound = errors.New("not found")

	// ErrInvalidDocument indicates an upload that could not be split into pages
	ErrInvalidDocument = errors.New("invalid document")

	// ErrMalformedRecord indicates a catalog row that could not be decoded
	ErrMalformedRecord = errors.New("malformed record")

	// ErrExtractionFailure indicates the OCR extractor failed for a batch
	ErrExtractionFailure = errors.New("extraction failure")

	// ErrConflict indicates the catalog snapshot changed since it was loaded
	ErrConflict = errors.New("catalog version conflict")
)
