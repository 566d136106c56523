package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const chunkSize = 64 << 10

// Storage writes uploads under a root directory shared with the static file
// server. Names are not deduplicated: a second upload with the same name
// overwrites the first.
type Storage struct {
	root      string
	urlPrefix string
}

func New(root, urlPrefix string) *Storage {
	if urlPrefix == "" {
		urlPrefix = "/uploads/"
	}
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &Storage{root: root, urlPrefix: urlPrefix}
}

func (s *Storage) Root() string { return s.root }

// Save streams r into root/<name> and returns urlPrefix+name.
func (s *Storage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	clean, err := sanitizeFileName(name)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(s.root, clean)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.CopyBuffer(f, ctxReader{ctx: ctx, r: r}, make([]byte, chunkSize)); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return s.urlPrefix + clean, nil
}

// sanitizeFileName keeps the base name only, so a client cannot write outside root.
func sanitizeFileName(name string) (string, error) {
	n := strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	n = filepath.Base(filepath.Clean("/" + n))
	if n == "" || n == "." || n == "/" || n == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return n, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
