// Package storage stores attachment bodies in a portable blob bucket.
package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound is returned when a key has no stored object.
	ErrNotFound = errors.New("storage: object not found")
	// ErrTooLarge is returned when a body exceeds the configured limit.
	ErrTooLarge = errors.New("storage: object exceeds size limit")
	// ErrEmptyBody is returned for zero-length uploads.
	ErrEmptyBody = errors.New("storage: empty body")
)

// ProgressFunc observes upload progress. Total is -1 when the size is unknown.
type ProgressFunc func(written, total int64)

// UploadInput describes a single upload.
type UploadInput struct {
	Key          string
	Body         io.Reader
	Size         int64
	ContentType  string
	CacheControl string
	Progress     ProgressFunc
}

// UploadResult describes the stored artifact.
type UploadResult struct {
	Key  string
	URL  string
	Size int64
}

// Uploader stores and removes blobs by key.
type Uploader interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
}

type progressReader struct {
	r        io.Reader
	total    int64
	written  int64
	progress ProgressFunc
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.written += int64(n)
		if p.progress != nil {
			p.progress(p.written, p.total)
		}
	}
	return n, err
}
