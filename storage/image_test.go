package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warbler/domain"
	"warbler/errs"
)

// openTempFile writes data to a temporary file and opens it for reading.
func openTempFile(t *testing.T, data []byte) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload")
	require.NoError(t, os.WriteFile(path, data, 0644))
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageService_Create(t *testing.T) {
	baseDir := t.TempDir()
	is := NewImageService(baseDir)

	img := &domain.Image{
		OwnerType: domain.OwnerTypeUser,
		OwnerID:   1,
		File:      openTempFile(t, pngBytes(t)),
		Filename:  "avatar.PNG",
	}
	require.NoError(t, is.Create(img))
	assert.Equal(t, ".png", img.Extension)
	assert.Equal(t, "image/png", img.ContentType)
	assert.NotEqual(t, "avatar.PNG", img.Filename, "the filename is replaced by a unique one")
	assert.True(t, strings.HasPrefix(img.URL(), "/images/user/1/"), img.URL())

	stored, err := os.ReadFile(filepath.Join(baseDir, "user", "1", img.Filename))
	require.NoError(t, err)
	assert.Equal(t, pngBytes(t), stored)

	images, err := is.ByOwner(domain.OwnerTypeUser, 1)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, img.Filename, images[0].Filename)
}

func TestImageService_CreateRejects(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		filename string
	}{
		{"bad extension", pngBytes(t), "avatar.gif"},
		{"not an image", []byte("just some text"), "avatar.png"},
		{"extension mismatch", pngBytes(t), "avatar.jpg"},
		{"too large", append(pngBytes(t), make([]byte, domain.MaxUploadSize)...), "avatar.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := NewImageService(t.TempDir())
			img := &domain.Image{
				OwnerType: domain.OwnerTypeUser,
				OwnerID:   1,
				File:      openTempFile(t, tt.data),
				Filename:  tt.filename,
			}
			err := is.Create(img)
			assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
		})
	}
}

func TestImageService_Delete(t *testing.T) {
	is := NewImageService(t.TempDir())
	var created []*domain.Image
	for i := 0; i < 2; i++ {
		img := &domain.Image{
			OwnerType: domain.OwnerTypeUser,
			OwnerID:   7,
			File:      openTempFile(t, pngBytes(t)),
			Filename:  "avatar.png",
		}
		require.NoError(t, is.Create(img))
		created = append(created, img)
	}
	if created[0].Filename == created[1].Filename {
		t.Skip("both uploads got the same timestamp")
	}

	require.NoError(t, is.Delete(created[0]))
	images, err := is.ByOwner(domain.OwnerTypeUser, 7)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, created[1].Filename, images[0].Filename)

	require.NoError(t, is.DeleteAll(domain.OwnerTypeUser, 7))
	images, err = is.ByOwner(domain.OwnerTypeUser, 7)
	require.NoError(t, err)
	assert.Empty(t, images)

	assert.Equal(t, errs.EINVALID, errs.ErrorCode(is.Delete(&domain.Image{OwnerType: domain.OwnerTypeUser, OwnerID: 7})))
}
