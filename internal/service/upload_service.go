package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const maxUploadSize = 5 * 1024 * 1024 // 5MB

var (
	ErrFileTooLarge = errors.New("File too large (max 5MB)")
	ErrNotAnImage   = errors.New("Only image files are allowed")
)

type IUploadService interface {
	// SaveImage stores an uploaded image and returns the relative URL it is
	// served under.
	SaveImage(ctx context.Context, file *multipart.FileHeader) (string, error)
}

type uploadService struct {
	uploadDir string
}

func NewUploadService(uploadDir string) IUploadService {
	return &uploadService{uploadDir: uploadDir}
}

func (s *uploadService) SaveImage(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if file.Size > maxUploadSize {
		return "", ErrFileTooLarge
	}
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		return "", ErrNotAnImage
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("%s%s", uuid.New().String(), filepath.Ext(file.Filename))
	dst, err := os.Create(filepath.Join(s.uploadDir, filename))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return "/uploads/" + filename, nil
}
