package uploads

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"
)

// LocalStore writes receipts under a directory served at /uploads/.
type LocalStore struct {
	Dir string
}

func (s LocalStore) Save(ctx context.Context, filename string, size int64, body io.Reader) (string, error) {
	ext, err := Check(filename, size)
	if err != nil {
		return "", err
	}
	name := objectName(ext, time.Now())
	path := filepath.Join(s.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	// One byte past the limit is enough to tell an oversized body whose
	// declared size lied.
	n, err := io.Copy(dst, io.LimitReader(body, MaxFileSize+1))
	if err != nil {
		os.Remove(path)
		return "", err
	}
	if n > MaxFileSize {
		os.Remove(path)
		return "", ErrTooLarge
	}
	return "/uploads/" + name, nil
}
