package localfs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveWritesUnderRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "uploads")
	s := New(root, "/uploads")

	path, err := s.Save(context.Background(), "lamp.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/lamp.jpg", path)

	b, err := os.ReadFile(filepath.Join(root, "lamp.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(b))
}

func TestSaveStreamsLargeContent(t *testing.T) {
	s := New(t.TempDir(), "")
	big := strings.Repeat("x", 3*chunkSize+17)

	_, err := s.Save(context.Background(), "big.bin", strings.NewReader(big))
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(s.Root(), "big.bin"))
	require.NoError(t, err)
	assert.EqualValues(t, len(big), info.Size())
}

func TestSaveSameNameOverwrites(t *testing.T) {
	s := New(t.TempDir(), "/media/")
	ctx := context.Background()

	first, err := s.Save(ctx, "a.png", strings.NewReader("one"))
	require.NoError(t, err)
	second, err := s.Save(ctx, "a.png", strings.NewReader("two"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "/media/a.png", second)

	b, err := os.ReadFile(filepath.Join(s.Root(), "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(b))
}

func TestSaveStripsDirectories(t *testing.T) {
	root := t.TempDir()
	s := New(root, "")

	path, err := s.Save(context.Background(), "../../etc/passwd", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/passwd", path)
	assert.FileExists(t, filepath.Join(root, "passwd"))

	_, err = s.Save(context.Background(), "  ", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestSaveHonorsCancelledContext(t *testing.T) {
	s := New(t.TempDir(), "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Save(ctx, "a.txt", strings.NewReader("data"))
	assert.ErrorIs(t, err, context.Canceled)
}
