package storage

import (
	"context"
	"errors"
)

var errNotConfigured = errors.New("storage: uploader not configured")

// NoopUploader rejects every call, signalling that no backend is configured.
type NoopUploader struct{}

// Upload always fails.
func (NoopUploader) Upload(context.Context, UploadInput) (*UploadResult, error) {
	return nil, errNotConfigured
}

// Delete always fails.
func (NoopUploader) Delete(context.Context, string) error {
	return errNotConfigured
}
