package credstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore хранит токены в yaml-файле с правами 0600.
// Каждая запись переписывает файл целиком через временный файл + rename,
// поэтому одиночная запись ключа атомарна.
type FileStore struct {
	path string
	mu   sync.Mutex
}

type fileContent struct {
	Tokens map[string]string `yaml:"tokens"`
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("credstore: file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("credstore: create dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := s.load()
	if err != nil {
		return "", err
	}
	token, ok := content.Tokens[key]
	if !ok {
		return "", ErrNoToken
	}
	return token, nil
}

func (s *FileStore) Set(_ context.Context, key, token string) error {
	if err := validKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := s.load()
	if err != nil {
		return err
	}
	content.Tokens[key] = token
	return s.save(content)
}

func (s *FileStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := content.Tokens[key]; !ok {
		return nil
	}
	delete(content.Tokens, key)
	return s.save(content)
}

// load читает файл заново при каждом обращении: кэша нет намеренно,
// иначе очистка из другого процесса была бы не видна.
func (s *FileStore) load() (*fileContent, error) {
	content := &fileContent{Tokens: make(map[string]string)}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return content, nil
		}
		return nil, fmt.Errorf("credstore: read %s: %w", s.path, err)
	}
	if err := yaml.Unmarshal(data, content); err != nil {
		return nil, fmt.Errorf("credstore: decode %s: %w", s.path, err)
	}
	if content.Tokens == nil {
		content.Tokens = make(map[string]string)
	}
	return content, nil
}

func (s *FileStore) save(content *fileContent) error {
	data, err := yaml.Marshal(content)
	if err != nil {
		return fmt.Errorf("credstore: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("credstore: temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("credstore: chmod: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("credstore: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("credstore: close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("credstore: rename: %w", err)
	}
	return nil
}
