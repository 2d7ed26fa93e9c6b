// Package splitter turns an uploaded document into ordered single-page blobs.
package splitter

import "context"

// Page is one single-page blob and the file extension its artifact uses.
type Page struct {
	Data []byte
	Ext  string
}

// Splitter splits a document into pages in document order.
type Splitter interface {
	Split(ctx context.Context, data []byte) ([]Page, error)
}
