// Package blobstore stores visit attachment images on local disk. A blob
// is addressed by an opaque reference handed back from Put; references are
// what Record.Attachments carries.
package blobstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrBlobNotFound       = errors.New("blob not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
)

// MaxFileSize bounds a single attachment (10 MB).
const MaxFileSize = 10 * 1024 * 1024

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// Store is a disk-backed attachment store rooted at one directory.
type Store struct {
	dir string
}

// New creates the root directory if needed and returns the store.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Put stores data under a fresh reference derived from the original file
// name's extension.
func (s *Store) Put(fileName string, data []byte) (string, error) {
	if len(data) > MaxFileSize {
		return "", ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %s", ErrInvalidContentType, ext)
	}
	ref := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(s.dir, ref), data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return ref, nil
}

// Get returns the stored bytes for a reference.
func (s *Store) Get(ref string) ([]byte, error) {
	// References are generated server-side, but reject traversal anyway.
	if ref != filepath.Base(ref) {
		return nil, ErrBlobNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.dir, ref))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

// Delete removes a stored blob. Missing blobs are not an error.
func (s *Store) Delete(ref string) error {
	if ref != filepath.Base(ref) {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, ref))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}
