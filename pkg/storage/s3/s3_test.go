package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/document-search/internal/models"
	"github.com/feichai0017/document-search/pkg/logger"
)

type fakeObjects struct {
	objects map[string][]byte
}

func (f *fakeObjects) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, fmt.Errorf("operation error S3: GetObject: %w", &types.NoSuchKey{})
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3Storage_RoundTrip(t *testing.T) {
	s := &S3Storage{client: &fakeObjects{objects: map[string][]byte{}}, bucketName: "b", logger: logger.NewTestLogger()}
	ctx := context.Background()

	// A plain io.Reader is buffered before upload.
	key, err := s.Store(ctx, io.MultiReader(strings.NewReader("pa"), strings.NewReader("ge")), "Data/a.pdf_0.pdf")
	require.NoError(t, err)

	rc, err := s.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "page", string(data))
}

func TestS3Storage_GetMissingMapsToNotFound(t *testing.T) {
	s := &S3Storage{client: &fakeObjects{objects: map[string][]byte{}}, bucketName: "b", logger: logger.NewTestLogger()}

	_, err := s.Get(context.Background(), "doc_df.csv")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&types.NoSuchKey{}))
	assert.True(t, isNotFound(fmt.Errorf("wrapped: %w", &types.NotFound{})))
	assert.False(t, isNotFound(errors.New("access denied")))
}
