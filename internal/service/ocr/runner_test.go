package ocr

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/document-search/internal/catalog"
	"github.com/feichai0017/document-search/internal/models"
	"github.com/feichai0017/document-search/pkg/logger"
	"github.com/feichai0017/document-search/pkg/storage/local"
)

// wordsExtractor returns the artifact content split on spaces as a single
// line of words.
type wordsExtractor struct {
	mu    sync.Mutex
	seen  []string
	fail  string
	calls int
}

func (e *wordsExtractor) Name() string { return "words" }

func (e *wordsExtractor) Extract(ctx context.Context, page []byte) (*models.OCRDocument, error) {
	e.mu.Lock()
	e.calls++
	e.seen = append(e.seen, string(page))
	e.mu.Unlock()

	if e.fail != "" && string(page) == e.fail {
		return nil, errors.New("engine crashed")
	}
	var line models.OCRLine
	for _, w := range strings.Fields(string(page)) {
		line.Words = append(line.Words, models.OCRWord{Value: w, Confidence: 99})
	}
	return &models.OCRDocument{Pages: []models.OCRPage{{Blocks: []models.OCRBlock{{Lines: []models.OCRLine{line}}}}}}, nil
}

var uploaded = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func record(path string) models.PageRecord {
	return models.PageRecord{FileName: "doc.pdf", FilePath: path, UploadTime: uploaded, Words: []string{}}
}

func setup(t *testing.T, artifacts map[string]string) (*local.LocalStorage, context.Context) {
	t.Helper()
	st, err := local.NewLocalStorage(t.TempDir(), logger.NewTestLogger())
	require.NoError(t, err)
	ctx := context.Background()
	for k, v := range artifacts {
		_, err := st.Store(ctx, strings.NewReader(v), k)
		require.NoError(t, err)
	}
	return st, ctx
}

func TestRunPending_HelloWorld(t *testing.T) {
	st, ctx := setup(t, map[string]string{"Data/a_0.pdf": "hello world"})
	ext := &wordsExtractor{}
	r := NewRunner(ext, st, logger.NewTestLogger())

	cat := catalog.New(record("Data/a_0.pdf"))
	next, res, err := r.RunPending(ctx, cat)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Processed)
	got, _ := next.Get("Data/a_0.pdf")
	assert.Equal(t, models.StateDone, got.State())
	assert.Equal(t, []string{"hello", "world"}, got.Words)

	orig, _ := cat.Get("Data/a_0.pdf")
	assert.Equal(t, models.StatePending, orig.State(), "input catalog must not change")
}

func TestRunPending_Idempotent(t *testing.T) {
	st, ctx := setup(t, map[string]string{"Data/a_0.pdf": "x", "Data/a_1.pdf": "y"})
	ext := &wordsExtractor{}
	r := NewRunner(ext, st, logger.NewTestLogger(), WithConcurrency(2))

	once, _, err := r.RunPending(ctx, catalog.New(record("Data/a_0.pdf"), record("Data/a_1.pdf")))
	require.NoError(t, err)
	assert.Equal(t, 2, ext.calls)

	twice, res, err := r.RunPending(ctx, once)
	require.NoError(t, err)
	assert.Equal(t, once.Records(), twice.Records())
	assert.Zero(t, res.Processed)
	assert.Equal(t, 2, ext.calls, "done records are never fetched or extracted")
}

func TestRunPending_DoneRecordsUntouched(t *testing.T) {
	st, ctx := setup(t, map[string]string{"Data/b_0.pdf": "fresh"})
	ext := &wordsExtractor{}
	r := NewRunner(ext, st, logger.NewTestLogger())

	done := record("Data/a_0.pdf")
	done.Words = []string{"kept"}
	done.OCRAttempted = true

	next, _, err := r.RunPending(ctx, catalog.New(done, record("Data/b_0.pdf")))
	require.NoError(t, err)

	got, _ := next.Get("Data/a_0.pdf")
	assert.Equal(t, []string{"kept"}, got.Words)
	assert.Equal(t, []string{"fresh"}, ext.seen)
}

func TestRunPending_FailureIsAllOrNothing(t *testing.T) {
	st, ctx := setup(t, map[string]string{"Data/a_0.pdf": "good", "Data/a_1.pdf": "bad"})
	r := NewRunner(&wordsExtractor{fail: "bad"}, st, logger.NewTestLogger())

	cat := catalog.New(record("Data/a_0.pdf"), record("Data/a_1.pdf"))
	next, res, err := r.RunPending(ctx, cat)

	assert.ErrorIs(t, err, models.ErrExtractionFailure)
	assert.Nil(t, res)
	assert.Same(t, cat, next)
	assert.Equal(t, []int{0, 1}, cat.Pending())
}

func TestRunPending_MissingArtifactSkipped(t *testing.T) {
	st, ctx := setup(t, map[string]string{"Data/a_1.pdf": "present"})
	log := logger.NewTestLogger()
	r := NewRunner(&wordsExtractor{}, st, log)

	next, res, err := r.RunPending(ctx, catalog.New(record("Data/a_0.pdf"), record("Data/a_1.pdf")))
	require.NoError(t, err)

	assert.Equal(t, []string{"Data/a_0.pdf"}, res.Skipped)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, []int{0}, next.Pending())
	assert.NotEmpty(t, log.Messages("WARN"))
}

func TestRunPending_EmptySelection(t *testing.T) {
	st, ctx := setup(t, nil)
	ext := &wordsExtractor{}
	r := NewRunner(ext, st, logger.NewTestLogger())

	cat := catalog.New()
	next, res, err := r.RunPending(ctx, cat)
	require.NoError(t, err)
	assert.Same(t, cat, next)
	assert.Zero(t, res.Processed)
	assert.Zero(t, ext.calls)
}

func TestApply_ReplaysOntoFresherCatalog(t *testing.T) {
	updates := []Update{
		{FilePath: "Data/a_0.pdf", UploadTime: uploaded, Words: []string{"x"}},
		{FilePath: "Data/gone.pdf", UploadTime: uploaded, Words: []string{"y"}},
		{FilePath: "Data/re_0.pdf", UploadTime: uploaded, Words: []string{"stale"}},
	}
	reuploaded := record("Data/re_0.pdf")
	reuploaded.UploadTime = uploaded.Add(time.Minute)

	fresher := catalog.New(record("Data/a_0.pdf"), reuploaded, record("Data/new_0.pdf"))

	assert.Equal(t, 1, Apply(fresher, updates))
	assert.Equal(t, []int{1, 2}, fresher.Pending())
}
