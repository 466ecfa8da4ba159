package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidName is returned for names that would escape the upload directory.
var ErrInvalidName = errors.New("invalid file name")

// maxOriginalBytes caps the sanitized original name so uuid + name stays under NAME_MAX and
// the 255-character image column.
const maxOriginalBytes = 200

// maxExtBytes bounds how much of the tail is treated as an extension worth keeping.
const maxExtBytes = 16

type Storage interface {
	// Save writes r under a new unique name derived from original and returns that name.
	Save(ctx context.Context, original string, r io.Reader) (string, error)
	// Path resolves a stored name to a filesystem path.
	Path(name string) (string, error)
	Delete(ctx context.Context, name string) error
}

// LocalStorage keeps uploads in one flat directory.
type LocalStorage struct {
	basePath string
	maxBytes int64
}

func NewLocalStorage(basePath string, maxBytes int64) (*LocalStorage, error) {
	if basePath == "" {
		basePath = "./uploads"
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath, maxBytes: maxBytes}, nil
}

func (s *LocalStorage) Save(ctx context.Context, original string, r io.Reader) (string, error) {
	name := uuid.NewString() + shortenFilename(SanitizeFilename(original), maxOriginalBytes)
	fullPath := filepath.Join(s.basePath, name)

	file, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := io.Copy(file, src)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxBytes > 0 && n > s.maxBytes {
		err = fmt.Errorf("file exceeds %d bytes", s.maxBytes)
	}
	if err != nil {
		_ = os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return name, nil
}

func (s *LocalStorage) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	return filepath.Join(s.basePath, name), nil
}

func (s *LocalStorage) Delete(ctx context.Context, name string) error {
	fullPath, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// shortenFilename cuts an ASCII name to limit bytes, keeping a short extension intact.
func shortenFilename(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) > maxExtBytes || len(ext) >= limit {
		ext = ""
	}
	base := strings.TrimRight(name[:limit-len(ext)], "._")
	return base + ext
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
	whitespaceRun       = regexp.MustCompile(`\s+`)
)

// SanitizeFilename keeps ASCII letters, digits, '_', '.' and '-', turns whitespace into '_' and
// trims leading and trailing dots and underscores. Directory parts are dropped.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	name = whitespaceRun.ReplaceAllString(strings.TrimSpace(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}
