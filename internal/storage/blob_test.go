package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
)

func newTestUploader(t *testing.T, maxBytes int64) *BlobUploader {
	t.Helper()
	u := NewBlobUploader(memblob.OpenBucket(nil), "https://files.example.com/", maxBytes)
	t.Cleanup(func() { _ = u.Close() })
	return u
}

func TestBlobUploader_UploadReportsProgress(t *testing.T) {
	ctx := context.Background()
	u := newTestUploader(t, 0)

	var last int64
	payload := bytes.Repeat([]byte("a"), 4096)
	res, err := u.Upload(ctx, UploadInput{
		Key:         "queries/q1/a1-receipt.pdf",
		Body:        bytes.NewReader(payload),
		Size:        int64(len(payload)),
		ContentType: "application/pdf",
		Progress:    func(written, total int64) { last = written; assert.Equal(t, int64(4096), total) },
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4096), res.Size)
	assert.Equal(t, int64(4096), last)
	assert.Equal(t, "https://files.example.com/queries/q1/a1-receipt.pdf", res.URL)

	r, contentType, err := u.Open(ctx, res.Key)
	require.NoError(t, err)
	defer r.Close()
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, payload, body)
	assert.Equal(t, "application/pdf", contentType)
}

func TestBlobUploader_RejectsOversizedAndEmpty(t *testing.T) {
	ctx := context.Background()
	u := newTestUploader(t, 10)

	_, err := u.Upload(ctx, UploadInput{Key: "big", Body: strings.NewReader(strings.Repeat("x", 11))})
	assert.ErrorIs(t, err, ErrTooLarge)

	_, _, err = u.Open(ctx, "big")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = u.Upload(ctx, UploadInput{Key: "empty", Body: strings.NewReader("")})
	assert.ErrorIs(t, err, ErrEmptyBody)

	_, err = u.Upload(ctx, UploadInput{Key: " ", Body: strings.NewReader("x")})
	assert.Error(t, err)
}

func TestBlobUploader_Delete(t *testing.T) {
	ctx := context.Background()
	u := newTestUploader(t, 0)

	_, err := u.Upload(ctx, UploadInput{Key: "k", Body: strings.NewReader("hello")})
	require.NoError(t, err)

	require.NoError(t, u.Delete(ctx, "k"))
	assert.ErrorIs(t, u.Delete(ctx, "k"), ErrNotFound)
}

func TestNoopUploader(t *testing.T) {
	var u Uploader = NoopUploader{}
	_, err := u.Upload(context.Background(), UploadInput{Key: "k"})
	assert.Error(t, err)
	assert.Error(t, u.Delete(context.Background(), "k"))
}
