package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage implements Storage on the local filesystem, for development.
// The declared content type is kept in a sidecar file next to each object
// since the filesystem has no metadata of its own.
type LocalStorage struct {
	basePath string
}

type localMeta struct {
	ContentType string `json:"content_type"`
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory: %w", err)
	}
	return &LocalStorage{basePath: abs}, nil
}

// resolve maps a key to its path under basePath. A key whose cleaned path
// would land outside the storage root is rejected; such an object cannot
// exist.
func (s *LocalStorage) resolve(key string) (string, error) {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))
	if !strings.HasPrefix(fullPath, s.basePath+string(filepath.Separator)) {
		return "", fmt.Errorf("key escapes storage root: %s", key)
	}
	return fullPath, nil
}

// Put stores the object locally
func (s *LocalStorage) Put(ctx context.Context, key string, contentType string, data io.Reader) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		os.Remove(fullPath) // Clean up on error
		return fmt.Errorf("failed to write file: %w", err)
	}

	meta, _ := json.Marshal(localMeta{ContentType: contentType})
	if err := os.WriteFile(fullPath+".meta", meta, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

// Head returns metadata for a locally stored object
func (s *LocalStorage) Head(ctx context.Context, key string) (*ObjectInfo, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, ErrObjectNotFound
	}

	fi, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	return &ObjectInfo{Size: fi.Size(), ContentType: s.contentType(fullPath)}, nil
}

// Get retrieves an object from local storage
func (s *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, nil, ErrObjectNotFound
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrObjectNotFound
		}
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	fi, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}
	return file, &ObjectInfo{Size: fi.Size(), ContentType: s.contentType(fullPath)}, nil
}

// Delete removes an object from local storage
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	os.Remove(fullPath + ".meta")
	return nil
}

// PresignGet is unsupported for local storage; callers stream instead.
func (s *LocalStorage) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "", ErrPresignUnsupported
}

func (s *LocalStorage) contentType(fullPath string) string {
	raw, err := os.ReadFile(fullPath + ".meta")
	if err != nil {
		return "application/octet-stream"
	}
	var meta localMeta
	if err := json.Unmarshal(raw, &meta); err != nil || meta.ContentType == "" {
		return "application/octet-stream"
	}
	return meta.ContentType
}
