// Package filex has the small filesystem helpers the client needs: making
// room for the local database and reading an avatar image for upload.
package filex

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxImageSize caps avatar uploads.
const MaxImageSize = 5 << 20

var (
	ErrTooLarge = errors.New("file too large")
	ErrNotImage = errors.New("file is not an image")
)

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// ReadImage reads an image of at most limit bytes and sniffs its content
// type. limit <= 0 means MaxImageSize.
func ReadImage(path string, limit int64) ([]byte, string, error) {
	if limit <= 0 {
		limit = MaxImageSize
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	if int64(len(data)) > limit {
		return nil, "", fmt.Errorf("%w: %s is over %d bytes", ErrTooLarge, filepath.Base(path), limit)
	}

	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return nil, "", fmt.Errorf("%w: %s (%s)", ErrNotImage, filepath.Base(path), ct)
	}
	return data, ct, nil
}
