// Package storage keeps uploaded dataset files on local disk.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/freight-scorecard/backend/internal/models"
)

// ErrNotFound is returned for unknown file ids.
var ErrNotFound = errors.New("file not found")

const fileExt = ".csv"

// Store defines the interface for dataset file storage.
type Store interface {
	Save(kind models.DatasetKind, name string, r io.Reader) (*models.FileInfo, error)
	SaveBytes(kind models.DatasetKind, name string, data []byte) (*models.FileInfo, error)
	Get(id string) (*models.FileInfo, error)
	List(limit int) ([]*models.FileInfo, error)
	Latest(kind models.DatasetKind) (*models.FileInfo, bool)
	Delete(id string) error
	GetFilePath(id string) (string, error)
}

// LocalStore implements Store using the local filesystem. Files are named
// <kind>_<id>.csv so they can be rediscovered after a restart.
type LocalStore struct {
	mu        sync.RWMutex
	uploadDir string
	files     map[string]*models.FileInfo
}

// NewLocalStore creates the upload directory if needed and registers any
// dataset files already in it.
func NewLocalStore(uploadDir string) (*LocalStore, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	s := &LocalStore{
		uploadDir: uploadDir,
		files:     make(map[string]*models.FileInfo),
	}
	if err := s.scanExisting(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *LocalStore) scanExisting() error {
	entries, err := os.ReadDir(s.uploadDir)
	if err != nil {
		return fmt.Errorf("scanning upload directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != fileExt {
			continue
		}
		kindStr, id, ok := strings.Cut(strings.TrimSuffix(entry.Name(), fileExt), "_")
		if !ok {
			continue
		}
		kind, ok := models.ParseDatasetKind(kindStr)
		if !ok {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		s.files[id] = &models.FileInfo{
			ID:         id,
			Name:       entry.Name(),
			Kind:       kind,
			Size:       fi.Size(),
			UploadedAt: fi.ModTime(),
		}
	}
	return nil
}

func (s *LocalStore) path(kind models.DatasetKind, id string) string {
	return filepath.Join(s.uploadDir, string(kind)+"_"+id+fileExt)
}

// Save writes r to a new file for kind.
func (s *LocalStore) Save(kind models.DatasetKind, name string, r io.Reader) (*models.FileInfo, error) {
	if _, ok := models.ParseDatasetKind(string(kind)); !ok {
		return nil, fmt.Errorf("unknown dataset kind: %q", kind)
	}
	id := uuid.New().String()
	path := s.path(kind, id)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	info := &models.FileInfo{
		ID:         id,
		Name:       name,
		Kind:       kind,
		Size:       size,
		UploadedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[id] = info

	return info, nil
}

// SaveBytes is Save for an in-memory body.
func (s *LocalStore) SaveBytes(kind models.DatasetKind, name string, data []byte) (*models.FileInfo, error) {
	return s.Save(kind, name, bytes.NewReader(data))
}

// Get retrieves file metadata by ID.
func (s *LocalStore) Get(id string) (*models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return info, nil
}

// List returns the most recent files, newest first.
func (s *LocalStore) List(limit int) ([]*models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.FileInfo, 0, len(s.files))
	for _, info := range s.files {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].UploadedAt.After(list[j].UploadedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// Latest returns the newest upload of kind.
func (s *LocalStore) Latest(kind models.DatasetKind) (*models.FileInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.FileInfo
	for _, info := range s.files {
		if info.Kind != kind {
			continue
		}
		if latest == nil || info.UploadedAt.After(latest.UploadedAt) {
			latest = info
		}
	}
	return latest, latest != nil
}

// Delete removes a file from storage.
func (s *LocalStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.files[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := os.Remove(s.path(info.Kind, id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting file: %w", err)
	}
	delete(s.files, id)
	return nil
}

// GetFilePath returns the on-disk path of a file.
func (s *LocalStore) GetFilePath(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.files[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.path(info.Kind, id), nil
}
