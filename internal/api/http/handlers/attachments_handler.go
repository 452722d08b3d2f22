package handlers

import (
	"errors"
	"mime"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/blob"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// AttachmentsHandler serves stored attachment content.
type AttachmentsHandler struct {
	blobs blob.Store
}

// NewAttachmentsHandler constructs handler.
func NewAttachmentsHandler(blobs blob.Store) *AttachmentsHandler {
	return &AttachmentsHandler{blobs: blobs}
}

// Download GET /attachments/:key.
func (h *AttachmentsHandler) Download(c *fiber.Ctx) error {
	rc, meta, err := h.blobs.Open(c.UserContext(), c.Params("key"))
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return apperrors.NewNotFound("attachment", nil)
		}
		return apperrors.NewInternalError(err)
	}
	if meta.MIME == "" {
		meta.MIME = fiber.MIMEOctetStream
	}
	c.Set(fiber.HeaderContentType, meta.MIME)
	c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": meta.Name}))
	// -1 streams until EOF when the sidecar is missing.
	size := -1
	if meta.Size > 0 {
		size = int(meta.Size)
	}
	return c.SendStream(rc, size)
}
