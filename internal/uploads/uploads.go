package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const MaxFileSize = 5 * 1024 * 1024

var (
	ErrTooLarge = errors.New("file exceeds the 5MB limit")
	ErrBadType  = errors.New("file type not allowed")
)

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
}

// Store keeps transfer receipts and returns the reference stored on the
// submission.
type Store interface {
	Save(ctx context.Context, filename string, size int64, body io.Reader) (string, error)
}

// Check validates a receipt before it is stored and returns its lowercased
// extension.
func Check(filename string, size int64) (string, error) {
	if size > MaxFileSize {
		return "", fmt.Errorf("%s: %w", filename, ErrTooLarge)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := contentTypes[ext]; !ok {
		return "", fmt.Errorf("%s: %w", filename, ErrBadType)
	}
	return ext, nil
}

func objectName(ext string, now time.Time) string {
	return fmt.Sprintf("receipts/%s/%s%s", now.Format("2006/01"), uuid.New().String(), ext)
}
