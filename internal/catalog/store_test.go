package catalog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/document-search/internal/models"
	"github.com/feichai0017/document-search/pkg/lock"
	"github.com/feichai0017/document-search/pkg/logger"
	"github.com/feichai0017/document-search/pkg/storage/local"
)

func newTestStore(t *testing.T) (*BlobStore, *local.LocalStorage) {
	t.Helper()
	log := logger.NewTestLogger()
	st, err := local.NewLocalStorage(t.TempDir(), log)
	require.NoError(t, err)
	return NewBlobStore(st, lock.NewLocalLock(), log, WithLockTTL(time.Second)), st
}

func TestBlobStore_LoadMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestBlobStore_SaveLoadRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	cat := New(done("Data/a_0.pdf", "b", "a", "b"), pending("Data/a_1.pdf", 1))
	require.NoError(t, store.Save(ctx, cat))
	assert.NotEmpty(t, cat.Version())

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, cat.Records(), loaded.Records())
	assert.Equal(t, cat.Version(), loaded.Version())
}

func TestBlobStore_StaleSaveConflicts(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, New(pending("Data/a_0.pdf", 0))))

	first, err := store.Load(ctx)
	require.NoError(t, err)
	second, err := store.Load(ctx)
	require.NoError(t, err)

	first = first.Append(pending("Data/b_0.pdf", 0))
	require.NoError(t, store.Save(ctx, first))

	second = second.Append(pending("Data/c_0.pdf", 0))
	err = store.Save(ctx, second)
	assert.ErrorIs(t, err, models.ErrConflict)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	_, ok := loaded.Get("Data/b_0.pdf")
	assert.True(t, ok)
	_, ok = loaded.Get("Data/c_0.pdf")
	assert.False(t, ok)
}

func TestBlobStore_FreshCatalogConflictsWithExistingSnapshot(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, New(pending("Data/a_0.pdf", 0))))
	assert.ErrorIs(t, store.Save(ctx, New(pending("Data/b_0.pdf", 0))), models.ErrConflict)
}

func TestBlobStore_SuccessiveSavesAdvanceVersion(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	cat := New(pending("Data/a_0.pdf", 0))
	require.NoError(t, store.Save(ctx, cat))
	v1 := cat.Version()

	require.True(t, cat.MarkDone("Data/a_0.pdf", uploaded, []string{"x"}))
	require.NoError(t, store.Save(ctx, cat))
	assert.NotEqual(t, v1, cat.Version())
}

func TestBlobStore_CustomKeyAndLegacyFile(t *testing.T) {
	log := logger.NewTestLogger()
	st, err := local.NewLocalStorage(t.TempDir(), log)
	require.NoError(t, err)
	ctx := context.Background()

	legacy := "file_name,page_number,file_path,file_type,notes,upload_time,words,OCR_attempted\n" +
		"a.pdf,0,Data/a.pdf_0.pdf,t,,,\"['x']\",True\n" +
		"a.pdf,,Data/a.pdf_1.pdf,t,,,[],False\n"
	_, err = st.Store(ctx, strings.NewReader(legacy), "catalogs/docs.csv")
	require.NoError(t, err)

	store := NewBlobStore(st, lock.NewLocalLock(), log, WithKey("catalogs/docs.csv"))
	cat, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, cat.Len())
	assert.Equal(t, []string{"x"}, cat.At(0).Tokens())
}
