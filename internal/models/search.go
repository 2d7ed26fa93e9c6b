package models

// TokenMatch is a single OCR token and its similarity to the query.
type TokenMatch struct {
	Token string `json:"token"`
	Score int    `json:"score"`
}

// SearchResult is one ranked page returned by a search.
type SearchResult struct {
	FileName    string       `json:"fileName"`
	FilePath    string       `json:"filePath"`
	FileType    string       `json:"fileType"`
	Notes       string       `json:"notes"`
	PageNumber  int          `json:"pageNumber"`
	Score       int          `json:"score"`
	BestMatches []TokenMatch `json:"bestMatches"`
}
