package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/document-search/pkg/logger"
	"github.com/feichai0017/document-search/pkg/queue"
)

type recordingHandler struct {
	taskIDs    []string
	requestIDs []string
	err        error
}

func (h *recordingHandler) HandleOCRBatch(ctx context.Context, taskID string) error {
	h.taskIDs = append(h.taskIDs, taskID)
	h.requestIDs = append(h.requestIDs, logger.RequestID(ctx))
	return h.err
}

func newTestWorker(t *testing.T, h BatchHandler) (*DocumentWorker, *logger.TestLogger) {
	t.Helper()
	log := logger.NewTestLogger()
	w, err := NewDocumentWorker(&Config{RedisAddr: "localhost:6379", Concurrency: 4}, h, log)
	require.NoError(t, err)
	return w, log
}

func batchTask(t *testing.T, task queue.Task) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(task)
	require.NoError(t, err)
	return asynq.NewTask(queue.TaskTypeOCRBatch, payload)
}

func TestNewDocumentWorker_RequiresRedis(t *testing.T) {
	_, err := NewDocumentWorker(&Config{}, &recordingHandler{}, logger.NewTestLogger())
	assert.Error(t, err)
}

func TestNewDocumentWorker_ForcesSingleConcurrency(t *testing.T) {
	_, log := newTestWorker(t, &recordingHandler{})
	assert.Equal(t, []string{"Ignoring worker concurrency, catalog batches run one at a time"}, log.Messages("WARN"))
}

func TestHandleOCRBatch(t *testing.T) {
	h := &recordingHandler{}
	w, _ := newTestWorker(t, h)

	task := queue.Task{ID: "ocr-batch", Type: queue.TaskTypeOCRBatch, Metadata: map[string]string{"requestId": "req-1"}}
	require.NoError(t, w.handleOCRBatch(context.Background(), batchTask(t, task)))

	assert.Equal(t, []string{"ocr-batch"}, h.taskIDs)
	assert.Equal(t, []string{"req-1"}, h.requestIDs)
}

func TestHandleOCRBatch_PropagatesFailure(t *testing.T) {
	h := &recordingHandler{err: errors.New("extraction failure")}
	w, _ := newTestWorker(t, h)

	err := w.handleOCRBatch(context.Background(), batchTask(t, queue.Task{ID: "ocr-batch"}))
	assert.EqualError(t, err, "extraction failure")
}

func TestHandleOCRBatch_BadPayloadSkipsRetry(t *testing.T) {
	h := &recordingHandler{}
	w, log := newTestWorker(t, h)

	err := w.handleOCRBatch(context.Background(), asynq.NewTask(queue.TaskTypeOCRBatch, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, h.taskIDs)
	assert.Equal(t, []string{"Failed to unmarshal task"}, log.Messages("ERROR"))
}
