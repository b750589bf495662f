package printing

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/anchala/pos/internal/domain/printing"
	"go.uber.org/zap"
)

// FileSystemStorageConfig contains configuration for file system storage
type FileSystemStorageConfig struct {
	// BasePath is the root directory for invoice files. Default: ./invoices
	BasePath string
	Logger   *zap.Logger
}

// FileSystemStorage archives rendered invoices on the local file system
type FileSystemStorage struct {
	basePath string
	logger   *zap.Logger
	now      func() time.Time
}

// NewFileSystemStorage creates the base directory if needed
func NewFileSystemStorage(config FileSystemStorageConfig) (*FileSystemStorage, error) {
	if config.BasePath == "" {
		config.BasePath = "./invoices"
	}
	if err := os.MkdirAll(config.BasePath, 0o755); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed,
			fmt.Sprintf("failed to create storage directory: %s", config.BasePath), err)
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSystemStorage{basePath: config.BasePath, logger: logger, now: time.Now}, nil
}

// Save writes the document under {base}/{year}/{month}/{file name} and
// returns the path relative to the base. Re-saving a bill overwrites the
// earlier copy.
func (s *FileSystemStorage) Save(ctx context.Context, doc *printing.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "operation cancelled", err)
	}
	if doc == nil || len(doc.Content) == 0 {
		return "", NewRenderError(ErrCodeStorageFailed, "document is empty", nil)
	}
	if doc.FileName == "" || containsDotDot(doc.FileName) || strings.ContainsAny(doc.FileName, `/\`) {
		return "", NewRenderError(ErrCodeStorageFailed, "invalid file name: "+doc.FileName, nil)
	}

	stamp := doc.GeneratedAt
	if stamp.IsZero() {
		stamp = s.now()
	}
	relDir := filepath.Join(fmt.Sprintf("%d", stamp.Year()), fmt.Sprintf("%02d", stamp.Month()))
	if err := os.MkdirAll(filepath.Join(s.basePath, relDir), 0o755); err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to create directory", err)
	}

	relPath := filepath.Join(relDir, doc.FileName)
	if err := os.WriteFile(filepath.Join(s.basePath, relPath), doc.Content, 0o644); err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to write invoice file", err)
	}

	s.logger.Info("Invoice archived",
		zap.String("path", relPath),
		zap.Int("size", doc.Size()))
	return filepath.ToSlash(relPath), nil
}

// Get opens an archived invoice by its relative path
func (s *FileSystemStorage) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "operation cancelled", err)
	}
	fullPath, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewRenderError(ErrCodeStorageFailed, "invoice not found", err)
		}
		return nil, NewRenderError(ErrCodeStorageFailed, "failed to open invoice file", err)
	}
	return file, nil
}

// resolve maps a relative path under the base directory, rejecting
// anything that would escape it
func (s *FileSystemStorage) resolve(path string) (string, error) {
	cleanPath := filepath.Clean(path)
	if filepath.IsAbs(cleanPath) || containsDotDot(path) {
		s.logger.Warn("blocked potentially malicious path", zap.String("path", path))
		return "", NewRenderError(ErrCodeStorageFailed, "invalid path", nil)
	}

	fullPath := filepath.Join(s.basePath, cleanPath)
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to resolve base path", err)
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to resolve file path", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		s.logger.Warn("path escape attempt blocked", zap.String("path", path))
		return "", NewRenderError(ErrCodeStorageFailed, "invalid path", nil)
	}
	return fullPath, nil
}

// containsDotDot checks the raw path for ".." components before any
// normalization
func containsDotDot(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == filepath.Separator || r == '\\'
	})
	return slices.Contains(parts, "..")
}

// Ensure FileSystemStorage implements printing.InvoiceArchive
var _ printing.InvoiceArchive = (*FileSystemStorage)(nil)
