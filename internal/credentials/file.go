package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// File - KV поверх JSON-файла. Аналог localStorage для CLI:
// весь объект перезаписывается на каждое изменение.
type File struct {
	path string

	mu   sync.RWMutex
	data map[string]string
}

// NewFile читает существующий файл; отсутствие файла не ошибка.
func NewFile(path string) (*File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("credentials file path is required")
	}

	f := &File{
		path: path,
		data: make(map[string]string),
	}
	if err := f.load(); err != nil {
		return nil, err
	}

	return f, nil
}

func (f *File) Path() string { return f.path }

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	v, ok := f.data[key]
	return v, ok, nil
}

// Set и Remove меняют копию и подменяют f.data только после успешной записи:
// память и файл не расходятся.
func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := maps.Clone(f.data)
	next[key] = value

	return f.commitLocked(next)
}

func (f *File) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.data[key]; !ok {
		return nil
	}

	next := maps.Clone(f.data)
	delete(next, key)

	return f.commitLocked(next)
}

func (f *File) commitLocked(next map[string]string) error {
	if err := f.persist(next); err != nil {
		return err
	}

	f.data = next
	return nil
}

func (f *File) load() error {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read credentials file: %w", err)
	}
	if len(b) == 0 {
		return nil
	}

	var data map[string]string
	if err := json.Unmarshal(b, &data); err != nil {
		return fmt.Errorf("decode credentials file: %w", err)
	}
	// JSON null - пустой файл.
	if data != nil {
		f.data = data
	}

	return nil
}

// persist пишет во временный файл и переименовывает,
// чтобы оборванная запись не оставила полфайла.
func (f *File) persist(data map[string]string) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("mkdir credentials dir: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write credentials file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace credentials file: %w", err)
	}

	return nil
}

var _ KV = (*File)(nil)
