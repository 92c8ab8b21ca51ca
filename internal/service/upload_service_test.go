package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// multipartFileHeader builds a real *multipart.FileHeader the way the HTTP
// stack would hand it to the controller.
func multipartFileHeader(t *testing.T, filename, contentType string, body []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, "/api/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))

	files := req.MultipartForm.File["image"]
	require.Len(t, files, 1)
	return files[0]
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	svc := NewUploadService(dir)

	file := multipartFileHeader(t, "photo.png", "image/png", []byte("pngdata"))
	url, err := svc.SaveImage(context.Background(), file)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	saved, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, []byte("pngdata"), saved)
}

func TestSaveImageUniqueFilenames(t *testing.T) {
	svc := NewUploadService(t.TempDir())

	first, err := svc.SaveImage(context.Background(), multipartFileHeader(t, "photo.png", "image/png", []byte("a")))
	require.NoError(t, err)
	second, err := svc.SaveImage(context.Background(), multipartFileHeader(t, "photo.png", "image/png", []byte("b")))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestSaveImageRejectsNonImage(t *testing.T) {
	svc := NewUploadService(t.TempDir())

	file := multipartFileHeader(t, "notes.txt", "text/plain", []byte("hello"))
	_, err := svc.SaveImage(context.Background(), file)
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestSaveImageRejectsOversizedFile(t *testing.T) {
	svc := NewUploadService(t.TempDir())

	big := bytes.Repeat([]byte("x"), maxUploadSize+1)
	file := multipartFileHeader(t, "huge.png", "image/png", big)
	_, err := svc.SaveImage(context.Background(), file)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}
