package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/awase/internal/bm25"
)

const fileExt = ".gob"

// FileStore keeps one gob-encoded record file per document id inside dir.
type FileStore struct {
	dir string
}

// NewFileStore creates the storage directory if needed and returns a store
// over it.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage: index directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the storage directory path.
func (f *FileStore) Dir() string {
	return f.dir
}

// recordPath maps a document id to its file. Ids that would escape the
// storage directory are rejected.
func (f *FileStore) recordPath(documentID string) (string, error) {
	if documentID == "" {
		return "", fmt.Errorf("storage: document id must not be empty")
	}
	if strings.ContainsAny(documentID, `/\`) || documentID == "." || documentID == ".." {
		return "", fmt.Errorf("storage: invalid document id %q", documentID)
	}
	return filepath.Join(f.dir, documentID+fileExt), nil
}

// Save writes the record to a temporary file and renames it into place, so a
// crashed write never leaves a truncated record behind.
func (f *FileStore) Save(ctx context.Context, documentID string, svc *bm25.Service) error {
	path, err := f.recordPath(documentID)
	if err != nil {
		return err
	}
	data, err := encodeRecord(documentID, svc)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, documentID+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close record: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}

// Load reads and rebuilds the keyword index for documentID.
// Returns (nil, nil) when no record file exists.
func (f *FileStore) Load(ctx context.Context, documentID string) (*bm25.Service, error) {
	path, err := f.recordPath(documentID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read record: %w", err)
	}
	return decodeRecord(data)
}

// Exists reports whether a record file exists for documentID.
func (f *FileStore) Exists(ctx context.Context, documentID string) (bool, error) {
	path, err := f.recordPath(documentID)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat record: %w", err)
	}
	return true, nil
}

// Delete removes the record file, reporting whether it existed.
func (f *FileStore) Delete(ctx context.Context, documentID string) (bool, error) {
	path, err := f.recordPath(documentID)
	if err != nil {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("delete record: %w", err)
	}
	return true, nil
}

// ListIndexes returns the document ids of all stored records.
func (f *FileStore) ListIndexes(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("list index directory: %w", err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, fileExt))
	}
	return ids, nil
}

// Close is a no-op for FileStore.
func (f *FileStore) Close() error {
	return nil
}
