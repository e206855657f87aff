package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxUploadSize caps uploaded images at 2 MB, matching the frontends
const MaxUploadSize = 2 << 20

var allowedImageExts = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".svg":  true,
}

// SaveUpload stores an uploaded image under dir/folder with a random
// filename and returns the relative path ("folder/uuid.ext").
func SaveUpload(fh *multipart.FileHeader, dir, folder string) (string, error) {
	if fh.Size > MaxUploadSize {
		return "", fmt.Errorf("file too large (max %d bytes)", MaxUploadSize)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedImageExts[ext] {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Join(dir, folder), 0o755); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	rel := filepath.Join(folder, name)

	dst, err := os.Create(filepath.Join(dir, rel))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", err
	}

	return filepath.ToSlash(rel), nil
}

// RemoveUpload deletes a previously stored local file. Paths starting with
// http are external and left alone.
func RemoveUpload(path, dir string) {
	if path == "" || strings.HasPrefix(path, "http") {
		return
	}
	_ = os.Remove(filepath.Join(dir, path))
}
