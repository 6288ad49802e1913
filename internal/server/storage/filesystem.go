package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/securedoc/internal/common"
	"github.com/dmitrijs2005/securedoc/internal/filex"
)

// FileStore keeps custody of file bytes on the local filesystem, one
// directory per owner with an "original" and a "redacted" bucket:
//
//	<root>/<ownerID>/original/<fileID>.pdf
//	<root>/<ownerID>/redacted/<fileID>.pdf
type FileStore struct {
	root string
}

// NewFileStore creates the storage root if needed and returns a store
// rooted there.
func NewFileStore(root string) (*FileStore, error) {
	if _, err := filex.EnsureDir(root); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}
	return &FileStore{root: root}, nil
}

// Path implements Store.
func (s *FileStore) Path(ownerID, fileID string, v Variant) string {
	return filepath.Join(s.root, ownerID, string(v), fileID+".pdf")
}

func (s *FileStore) checked(ownerID, fileID string, v Variant) (string, error) {
	if !safeSegment(ownerID) || !safeSegment(fileID) {
		return "", fmt.Errorf("%w: malformed identifier", common.ErrNotFound)
	}
	return s.Path(ownerID, fileID, v), nil
}

// Put implements Store using write-to-temp-then-rename.
func (s *FileStore) Put(ctx context.Context, ownerID, fileID string, v Variant, b []byte) error {
	path, err := s.checked(ownerID, fileID, v)
	if err != nil {
		return err
	}
	if _, err := filex.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}
	if err := filex.WriteAtomic(path, b); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}
	return nil
}

// Get implements Store.
func (s *FileStore) Get(ctx context.Context, ownerID, fileID string, v Variant) ([]byte, error) {
	path, err := s.checked(ownerID, fileID, v)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s/%s (%s)", common.ErrNotFound, ownerID, fileID, v)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}
	return b, nil
}

// Exists implements Store.
func (s *FileStore) Exists(ctx context.Context, ownerID, fileID string, v Variant) (bool, error) {
	path, err := s.checked(ownerID, fileID, v)
	if err != nil {
		return false, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}
	return true, nil
}

// Delete implements Store. A missing file is not an error.
func (s *FileStore) Delete(ctx context.Context, ownerID, fileID string, v Variant) error {
	path, err := s.checked(ownerID, fileID, v)
	if err != nil {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}
	return nil
}

// AssertAccessible implements Store.
func (s *FileStore) AssertAccessible(ctx context.Context, ownerID, fileID string) error {
	for _, v := range []Variant{VariantOriginal, VariantRedacted} {
		ok, err := s.Exists(ctx, ownerID, fileID, v)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf("%w: file not found or access denied", common.ErrAccessDenied)
}
