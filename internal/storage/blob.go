package storage

import (
	"context"
	"io"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"

	"github.com/spec-kit/violation-service/internal/config"
)

const defaultContentType = "application/octet-stream"

// BlobUploader implements Uploader over a gocloud bucket.
type BlobUploader struct {
	bucket        *blob.Bucket
	publicBaseURL string
	maxBytes      int64
}

// Open opens the bucket named by cfg.BucketURL (mem:// or file:///path).
func Open(ctx context.Context, cfg config.StorageConfig) (*BlobUploader, error) {
	bucket, err := blob.OpenBucket(ctx, cfg.BucketURL)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "open bucket %q", cfg.BucketURL)
	}
	return NewBlobUploader(bucket, cfg.PublicBaseURL, cfg.MaxFileBytes), nil
}

// NewBlobUploader wraps an already opened bucket. maxBytes <= 0 disables the limit.
func NewBlobUploader(bucket *blob.Bucket, publicBaseURL string, maxBytes int64) *BlobUploader {
	return &BlobUploader{
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		maxBytes:      maxBytes,
	}
}

// Upload streams input.Body into the bucket under input.Key.
func (u *BlobUploader) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	key := strings.TrimLeft(strings.TrimSpace(input.Key), "/")
	if key == "" {
		return nil, pkgerrors.New("storage: object key required")
	}
	if input.Body == nil {
		return nil, ErrEmptyBody
	}
	if u.maxBytes > 0 && input.Size > u.maxBytes {
		return nil, ErrTooLarge
	}

	contentType := strings.TrimSpace(input.ContentType)
	if contentType == "" {
		contentType = defaultContentType
	}

	total := input.Size
	if total <= 0 {
		total = -1
	}
	var body io.Reader = input.Body
	if u.maxBytes > 0 {
		body = io.LimitReader(body, u.maxBytes+1)
	}
	reader := &progressReader{r: body, total: total, progress: input.Progress}

	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	w, err := u.bucket.NewWriter(writeCtx, key, &blob.WriterOptions{
		ContentType:  contentType,
		CacheControl: input.CacheControl,
	})
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "open writer %s", key)
	}

	n, err := io.Copy(w, reader)
	switch {
	case err != nil:
		cancel()
		_ = w.Close()
		return nil, pkgerrors.Wrapf(err, "write %s", key)
	case n == 0:
		cancel()
		_ = w.Close()
		return nil, ErrEmptyBody
	case u.maxBytes > 0 && n > u.maxBytes:
		cancel()
		_ = w.Close()
		return nil, ErrTooLarge
	}
	if err := w.Close(); err != nil {
		return nil, pkgerrors.Wrapf(err, "commit %s", key)
	}

	return &UploadResult{Key: key, URL: u.URL(key), Size: n}, nil
}

// Delete removes key. Missing objects yield ErrNotFound.
func (u *BlobUploader) Delete(ctx context.Context, key string) error {
	err := u.bucket.Delete(ctx, key)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return ErrNotFound
	}
	return pkgerrors.Wrapf(err, "delete %s", key)
}

// Open returns a reader for key along with its content type.
func (u *BlobUploader) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	r, err := u.bucket.NewReader(ctx, key, nil)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", pkgerrors.Wrapf(err, "open %s", key)
	}
	return r, r.ContentType(), nil
}

// URL returns the public address served for key.
func (u *BlobUploader) URL(key string) string {
	return u.publicBaseURL + "/" + key
}

// Close releases the bucket.
func (u *BlobUploader) Close() error {
	return u.bucket.Close()
}
