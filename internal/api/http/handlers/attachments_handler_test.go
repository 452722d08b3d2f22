package handlers

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/blob"
	"github.com/spec-kit/support-desk/internal/domain"
)

// sidecarlessStore serves content without any stored metadata.
type sidecarlessStore struct {
	content string
}

func (s sidecarlessStore) Put(context.Context, string, string, io.Reader) (domain.AttachmentRef, error) {
	return domain.AttachmentRef{}, nil
}

func (s sidecarlessStore) Open(context.Context, string) (io.ReadCloser, blob.Meta, error) {
	return io.NopCloser(strings.NewReader(s.content)), blob.Meta{}, nil
}

func TestDownloadWithoutMetadataStreamsContent(t *testing.T) {
	app := fiber.New()
	app.Get("/attachments/:key", NewAttachmentsHandler(sidecarlessStore{content: "raw bytes"}).Download)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/attachments/"+strings.Repeat("ab", 32), nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, fiber.MIMEOctetStream, resp.Header.Get(fiber.HeaderContentType))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "raw bytes", string(body))
}
