// Package storage saves uploaded files under the public uploads directory.
package storage

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// PublicPrefix is the URL path uploads are served under.
const PublicPrefix = "/uploads/"

// MaxUploadSize caps a single upload.
const MaxUploadSize = 5 << 20

var (
	ErrNotImage = errors.New("only image uploads are allowed")
	ErrTooLarge = errors.New("upload is too large")
)

// FileStore writes uploads to a directory on disk.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating upload dir %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Dir is the directory uploads are written to.
func (s *FileStore) Dir() string { return s.dir }

// Save sniffs r, rejects anything that is not an image, and stores it under a
// random name keeping the detected extension. It returns the public URL.
// name is only used for error messages.
func (s *FileStore) Save(r io.Reader, name string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", name)
	}
	if len(data) > MaxUploadSize {
		return "", ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", errors.Wrapf(ErrNotImage, "%s is %s", name, mtype.String())
	}

	filename := uuid.NewString() + mtype.Extension()
	dst, err := os.Create(filepath.Join(s.dir, filename))
	if err != nil {
		return "", errors.Wrap(err, "creating upload")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, bytes.NewReader(data)); err != nil {
		return "", errors.Wrap(err, "writing upload")
	}
	return PublicPrefix + filename, nil
}

// Remove deletes a file previously returned by Save. Unknown URLs are ignored.
func (s *FileStore) Remove(url string) error {
	if !strings.HasPrefix(url, PublicPrefix) {
		return nil
	}
	name := filepath.Base(strings.TrimPrefix(url, PublicPrefix))
	err := os.Remove(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
