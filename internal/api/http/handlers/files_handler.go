package handlers

import (
	"context"
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/violation-service/internal/storage"
	apperrors "github.com/spec-kit/violation-service/pkg/util/errorutil"
)

// BlobOpener reads stored objects by key.
type BlobOpener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// FilesHandler streams stored attachment bodies.
type FilesHandler struct {
	blobs BlobOpener
}

// NewFilesHandler constructs handler.
func NewFilesHandler(blobs BlobOpener) *FilesHandler {
	return &FilesHandler{blobs: blobs}
}

// Serve handles GET /files/*.
func (h *FilesHandler) Serve(c *fiber.Ctx) error {
	key := c.Params("*")
	if key == "" {
		return apperrors.NewNotFound("File", nil)
	}
	r, contentType, err := h.blobs.Open(c.UserContext(), key)
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.NewNotFound("File", map[string]any{"key": key})
	}
	if err != nil {
		return err
	}
	defer r.Close()

	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if contentType != "" {
		c.Set(fiber.HeaderContentType, contentType)
	}
	return c.Send(body)
}
