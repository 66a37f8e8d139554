package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// ErrTooLarge is returned when an upload exceeds the configured size limit.
var ErrTooLarge = errors.New("file exceeds upload size limit")

const maxSlugLen = 40

// Upload is a file received from a client.
type Upload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// Stored describes a saved file. FilePath is the public path clients use.
type Stored struct {
	FilePath string `json:"file_path"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

// Store persists uploaded files.
type Store interface {
	Save(ctx context.Context, up Upload) (Stored, error)
	Delete(ctx context.Context, filePath string) error
}

type localStore struct {
	dir      string
	prefix   string
	maxBytes int64
	now      func() time.Time
}

// NewLocalStore writes files under dir and exposes them as prefix/<name>.
func NewLocalStore(dir, prefix string, maxBytes int64) Store {
	return &localStore{
		dir:      dir,
		prefix:   "/" + strings.Trim(prefix, "/"),
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

func (s *localStore) Save(ctx context.Context, up Upload) (Stored, error) {
	if err := ctx.Err(); err != nil {
		return Stored{}, err
	}
	data, err := io.ReadAll(io.LimitReader(up.Body, s.maxBytes+1))
	if err != nil {
		return Stored{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return Stored{}, ErrTooLarge
	}

	mime := detectMime(data, up.ContentType)
	name := s.storageName(up.FileName, mime)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Stored{}, fmt.Errorf("failed to create upload dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return Stored{}, fmt.Errorf("failed to write upload: %w", err)
	}

	return Stored{
		FilePath: s.prefix + "/" + name,
		FileName: up.FileName,
		FileSize: int64(len(data)),
		MimeType: mime,
	}, nil
}

// Delete removes a file previously returned by Save. Paths outside the
// store's prefix and files already gone are ignored.
func (s *localStore) Delete(ctx context.Context, filePath string) error {
	if !strings.HasPrefix(filePath, s.prefix+"/") {
		return nil
	}
	name := filepath.Base(strings.TrimPrefix(filePath, s.prefix+"/"))
	if name == "." || name == "/" || name == "" {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", filePath, err)
	}
	return nil
}

// storageName builds <uuid>-<unix ms>[-<slug>].<ext>.
func (s *localStore) storageName(original, mime string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" {
		if m := mimetype.Lookup(mime); m != nil {
			ext = m.Extension()
		}
	}
	if ext == "" {
		ext = ".bin"
	}

	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	s2 := slug.Make(base)
	if len(s2) > maxSlugLen {
		s2 = strings.Trim(s2[:maxSlugLen], "-")
	}

	name := fmt.Sprintf("%s-%d", uuid.NewString(), s.now().UnixMilli())
	if s2 != "" {
		name += "-" + s2
	}
	return name + ext
}

// detectMime sniffs the content and falls back to the client's header when
// sniffing finds nothing specific.
func detectMime(data []byte, declared string) string {
	detected := mimetype.Detect(bytes.Clone(data)).String()
	if strings.HasPrefix(detected, "application/octet-stream") && declared != "" {
		return declared
	}
	return detected
}
