// mock_storage.go - Mock storage implementation for testing
package testutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/freight-scorecard/backend/internal/models"
	"github.com/freight-scorecard/backend/internal/storage"
)

// MockStorage implements storage.Store. Files are written under a temp
// directory so loaders can read them back.
type MockStorage struct {
	mu      sync.RWMutex
	dir     string
	files   map[string]*models.FileInfo
	nextID  int
	SaveErr error
}

// NewMockStorage creates an empty mock backed by dir.
func NewMockStorage(dir string) *MockStorage {
	return &MockStorage{dir: dir, files: make(map[string]*models.FileInfo)}
}

func (m *MockStorage) Save(kind models.DatasetKind, name string, r io.Reader) (*models.FileInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return m.SaveBytes(kind, name, data)
}

func (m *MockStorage) SaveBytes(kind models.DatasetKind, name string, data []byte) (*models.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	m.nextID++
	id := fmt.Sprintf("test-id-%d", m.nextID)
	if err := os.WriteFile(filepath.Join(m.dir, id), data, 0o644); err != nil {
		return nil, err
	}
	info := &models.FileInfo{
		ID:   id,
		Name: name,
		Kind: kind,
		Size: int64(len(data)),
		// Strictly increasing so Latest is deterministic.
		UploadedAt: time.Unix(int64(m.nextID), 0),
	}
	m.files[id] = info
	return info, nil
}

func (m *MockStorage) Get(id string) (*models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.files[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return info, nil
}

func (m *MockStorage) List(limit int) ([]*models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var files []*models.FileInfo
	for i := m.nextID; i > 0; i-- {
		if info, ok := m.files[fmt.Sprintf("test-id-%d", i)]; ok {
			files = append(files, info)
		}
		if limit > 0 && len(files) >= limit {
			break
		}
	}
	return files, nil
}

func (m *MockStorage) Latest(kind models.DatasetKind) (*models.FileInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *models.FileInfo
	for _, info := range m.files {
		if info.Kind == kind && (latest == nil || info.UploadedAt.After(latest.UploadedAt)) {
			latest = info
		}
	}
	return latest, latest != nil
}

func (m *MockStorage) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.files, id)
	return os.Remove(filepath.Join(m.dir, id))
}

func (m *MockStorage) GetFilePath(id string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.files[id]; !ok {
		return "", errors.New("file not found")
	}
	return filepath.Join(m.dir, id), nil
}

// FileCount returns the number of stored files.
func (m *MockStorage) FileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

var _ storage.Store = (*MockStorage)(nil)
