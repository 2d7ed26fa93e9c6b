// Package catalog holds the ordered collection of PageRecords and persists it
// as a single CSV snapshot.
package catalog

import (
	"time"

	"github.com/feichai0017/document-search/internal/models"
)

// Catalog is an ordered set of PageRecords keyed by FilePath. A Catalog is
// not safe for concurrent mutation; callers work on their own copy loaded
// from the Store.
type Catalog struct {
	records []models.PageRecord
	index   map[string]int
	version string
}

// New builds a catalog from records in order. Records sharing a FilePath
// collapse onto the first position with the content of the last one.
func New(records ...models.PageRecord) *Catalog {
	c := &Catalog{
		records: make([]models.PageRecord, 0, len(records)),
		index:   make(map[string]int, len(records)),
	}
	c.put(records)
	return c
}

func (c *Catalog) put(records []models.PageRecord) {
	for _, r := range records {
		r = r.Clone()
		if i, ok := c.index[r.FilePath]; ok {
			c.records[i] = r
			continue
		}
		c.index[r.FilePath] = len(c.records)
		c.records = append(c.records, r)
	}
}

// Len is the number of records.
func (c *Catalog) Len() int {
	return len(c.records)
}

// At returns a copy of the record at catalog position i.
func (c *Catalog) At(i int) models.PageRecord {
	return c.records[i].Clone()
}

// Records returns a copy of every record in catalog order.
func (c *Catalog) Records() []models.PageRecord {
	out := make([]models.PageRecord, len(c.records))
	for i, r := range c.records {
		out[i] = r.Clone()
	}
	return out
}

// Get looks a record up by FilePath.
func (c *Catalog) Get(path string) (models.PageRecord, bool) {
	i, ok := c.index[path]
	if !ok {
		return models.PageRecord{}, false
	}
	return c.records[i].Clone(), true
}

// Version is the digest of the snapshot this catalog was loaded from, or
// empty when it was not loaded from a snapshot.
func (c *Catalog) Version() string {
	return c.version
}

// Clone returns an independent copy carrying the same version.
func (c *Catalog) Clone() *Catalog {
	out := New(c.records...)
	out.version = c.version
	return out
}

// Append returns a new catalog with records added after the existing ones.
// A record whose FilePath is already present replaces that row in place.
func (c *Catalog) Append(records ...models.PageRecord) *Catalog {
	out := c.Clone()
	out.put(records)
	return out
}

// Pending returns the positions of records still awaiting OCR.
func (c *Catalog) Pending() []int {
	var out []int
	for i, r := range c.records {
		if r.State() == models.StatePending {
			out = append(out, i)
		}
	}
	return out
}

// MarkDone moves the record at path from Pending to Done with words. It only
// applies when the record exists, is still Pending, and carries uploadTime,
// so a transition computed for an older upload of the same path is dropped.
func (c *Catalog) MarkDone(path string, uploadTime time.Time, words []string) bool {
	i, ok := c.index[path]
	if !ok {
		return false
	}
	r := &c.records[i]
	if r.OCRAttempted || !r.UploadTime.Equal(uploadTime) {
		return false
	}
	r.Words = append(make([]string, 0, len(words)), words...)
	r.OCRAttempted = true
	return true
}
