package blob

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/spec-kit/support-desk/internal/domain"
)

var (
	// ErrTooLarge is returned when an upload exceeds the configured limit.
	ErrTooLarge = errors.New("blob exceeds size limit")
	// ErrNotFound is returned for unknown keys.
	ErrNotFound = errors.New("blob not found")
)

const (
	tmpDir   = "tmp"
	metaExt  = ".json"
	keyBytes = 32
)

// Store accepts attachment bytes and returns an opaque reference.
type Store interface {
	Put(ctx context.Context, name, mime string, r io.Reader) (domain.AttachmentRef, error)
	Open(ctx context.Context, key string) (io.ReadCloser, Meta, error)
}

// Meta is what the store remembers about an object besides its bytes.
type Meta struct {
	Name string `json:"name"`
	MIME string `json:"mime"`
	Size int64  `json:"size"`
}

// FileStore keeps blobs on the local filesystem addressed by the BLAKE3
// digest of their content, so identical uploads share one file.
type FileStore struct {
	root          string
	publicBaseURL string
	maxBytes      int64
}

// NewFileStore prepares root for writing.
func NewFileStore(root, publicBaseURL string, maxBytes int64) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(root, tmpDir), 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &FileStore{
		root:          root,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		maxBytes:      maxBytes,
	}, nil
}

// Put streams r to disk while hashing it and moves it under its digest.
func (s *FileStore) Put(ctx context.Context, name, mime string, r io.Reader) (domain.AttachmentRef, error) {
	if err := ctx.Err(); err != nil {
		return domain.AttachmentRef{}, err
	}
	tmpPath := filepath.Join(s.root, tmpDir, uuid.NewString()+".part")
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return domain.AttachmentRef{}, fmt.Errorf("create temp blob: %w", err)
	}
	defer os.Remove(tmpPath)

	hasher := blake3.New()
	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	size, err := io.Copy(io.MultiWriter(tmp, hasher), src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return domain.AttachmentRef{}, fmt.Errorf("write blob: %w", err)
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return domain.AttachmentRef{}, ErrTooLarge
	}

	key := hex.EncodeToString(hasher.Sum(nil))
	finalPath := s.path(key)
	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return domain.AttachmentRef{}, fmt.Errorf("create blob dir: %w", err)
	}
	created := false
	if _, err := os.Stat(finalPath); errors.Is(err, os.ErrNotExist) {
		if err := os.Rename(tmpPath, finalPath); err != nil {
			return domain.AttachmentRef{}, fmt.Errorf("commit blob: %w", err)
		}
		created = true
	}

	meta := Meta{Name: filepath.Base(name), MIME: mime, Size: size}
	if meta.MIME == "" {
		meta.MIME = "application/octet-stream"
	}
	// The sidecar belongs to the first upload of these bytes; later uploads
	// only get their own name and type on the returned reference.
	if _, err := os.Stat(finalPath + metaExt); created || errors.Is(err, os.ErrNotExist) {
		if err := writeMeta(finalPath+metaExt, meta); err != nil {
			return domain.AttachmentRef{}, err
		}
	}

	return domain.AttachmentRef{
		URL:  s.publicBaseURL + "/" + key,
		Name: meta.Name,
		MIME: meta.MIME,
	}, nil
}

// Open returns the content stored under key.
func (s *FileStore) Open(_ context.Context, key string) (io.ReadCloser, Meta, error) {
	if !validKey(key) {
		return nil, Meta{}, ErrNotFound
	}
	path := s.path(key)
	var meta Meta
	if raw, err := os.ReadFile(path + metaExt); err == nil {
		_ = json.Unmarshal(raw, &meta)
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Meta{}, ErrNotFound
		}
		return nil, Meta{}, err
	}
	return f, meta, nil
}

func writeMeta(path string, meta Meta) error {
	encoded, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("write blob metadata: %w", err)
	}
	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.root, key[:2], key)
}

func validKey(key string) bool {
	if len(key) != keyBytes*2 {
		return false
	}
	_, err := hex.DecodeString(key)
	return err == nil
}
