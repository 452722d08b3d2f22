package blob

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "/attachments/", 1024)
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := store.Put(ctx, "../logs/vpn.log", "text/plain", strings.NewReader("tunnel reset"))
	require.NoError(t, err)
	assert.Equal(t, "vpn.log", ref.Name)
	assert.Equal(t, "text/plain", ref.MIME)
	require.True(t, strings.HasPrefix(ref.URL, "/attachments/"))

	key := strings.TrimPrefix(ref.URL, "/attachments/")
	assert.Len(t, key, 64)

	again, err := store.Put(ctx, "copy.log", "", strings.NewReader("tunnel reset"))
	require.NoError(t, err)
	assert.Equal(t, ref.URL, again.URL)
	assert.Equal(t, "application/octet-stream", again.MIME)

	rc, meta, err := store.Open(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "tunnel reset", string(body))
	assert.Equal(t, int64(len("tunnel reset")), meta.Size)
}

func TestFileStoreLimitsAndKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "/attachments", 4)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Put(ctx, "big.bin", "", strings.NewReader("12345"))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, _, err = store.Open(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = store.Open(ctx, strings.Repeat("ab", 32))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreKeepsFirstUploadMetadata(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "/attachments", 1024)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := store.Put(ctx, "invoice.pdf", "application/pdf", strings.NewReader("%PDF-1.7"))
	require.NoError(t, err)
	second, err := store.Put(ctx, "evil.exe", "application/x-msdownload", strings.NewReader("%PDF-1.7"))
	require.NoError(t, err)
	require.Equal(t, first.URL, second.URL)
	assert.Equal(t, "evil.exe", second.Name)

	rc, meta, err := store.Open(ctx, strings.TrimPrefix(first.URL, "/attachments/"))
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "invoice.pdf", meta.Name)
	assert.Equal(t, "application/pdf", meta.MIME)
}
