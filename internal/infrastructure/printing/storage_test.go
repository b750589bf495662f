package printing

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/anchala/pos/internal/domain/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) (*FileSystemStorage, string) {
	t.Helper()
	base := filepath.Join(t.TempDir(), "invoices")
	s, err := NewFileSystemStorage(FileSystemStorageConfig{BasePath: base})
	require.NoError(t, err)
	return s, base
}

func TestFileSystemStorage_SaveAndGet(t *testing.T) {
	s, base := newTestStorage(t)
	ctx := context.Background()

	doc := &printing.Document{
		FileName:    "Invoice_12.pdf",
		Content:     []byte("%PDF-1.4"),
		GeneratedAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
	path, err := s.Save(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, "2026/03/Invoice_12.pdf", path)

	_, err = os.Stat(filepath.Join(base, "2026", "03", "Invoice_12.pdf"))
	require.NoError(t, err)

	rc, err := s.Get(ctx, path)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestFileSystemStorage_SaveRejects(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	_, err := s.Save(ctx, nil)
	assert.Error(t, err)
	_, err = s.Save(ctx, &printing.Document{FileName: "Invoice_1.pdf"})
	assert.Error(t, err, "empty content")
	_, err = s.Save(ctx, &printing.Document{FileName: "../escape.pdf", Content: []byte("x")})
	assert.Error(t, err)
	_, err = s.Save(ctx, &printing.Document{FileName: "a/b.pdf", Content: []byte("x")})
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Save(cancelled, &printing.Document{FileName: "Invoice_1.pdf", Content: []byte("x")})
	assert.Error(t, err)
}

func TestFileSystemStorage_GetBlocksTraversal(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	for _, p := range []string{"../secret", "/etc/passwd", "2026/../../x"} {
		_, err := s.Get(ctx, p)
		assert.Error(t, err, p)
	}

	_, err := s.Get(ctx, "2026/01/missing.pdf")
	var re *RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "invoice not found", re.Message)
}
