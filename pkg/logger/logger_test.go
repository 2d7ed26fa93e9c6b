package logger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	log, err := NewLogger(
		WithLevel("debug"),
		WithEncoding("console"),
		WithOutputPaths([]string{path}),
	)
	require.NoError(t, err)

	log.Info("hello", String("k", "v"))
	assert.NoError(t, log.Sync())
	assert.FileExists(t, path)
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(WithLevel("loud"), WithOutputPaths([]string{"stdout"}))
	assert.Error(t, err)
}

func TestTestLogger_ChildrenShareEntries(t *testing.T) {
	root := NewTestLogger()
	child := root.Named("ocr").With(String("batch", "1"))

	child.Warn("skipped")
	root.Info("done")

	entries := root.GetEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "ocr", entries[0].Name)
	assert.Len(t, entries[0].Fields, 1)
	assert.Equal(t, []string{"skipped"}, root.Messages("WARN"))

	root.Clear()
	assert.Empty(t, root.GetEntries())
}

func TestFromContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestID(ctx))

	base := NewTestLogger()
	FromContext(ctx, base).Info("x")
	entries := base.GetEntries()
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Fields, 1)
	assert.Equal(t, "request_id", entries[0].Fields[0].Key)

	assert.Same(t, base, FromContext(context.Background(), base))
}
