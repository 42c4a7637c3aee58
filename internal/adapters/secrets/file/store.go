package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/meli-relist-cli/internal/domain"
	"github.com/bnema/meli-relist-cli/internal/ports"
)

const (
	storeDirMode   = 0o700
	secretFileMode = 0o600
	tempPattern    = ".secret-*.tmp"
)

// Store keeps one secret per file under root. Keys in "scheme://a/b" form map
// to root/scheme/a/b.
type Store struct {
	root string
	mu   sync.RWMutex
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathForKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, storeDirMode); err != nil {
		return fmt.Errorf("create secret directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("create temp secret %q: %w", key, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(secretFileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp secret %q: %w", key, err)
	}
	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write secret %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp secret %q: %w", key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace secret %q: %w", key, err)
	}
	committed = true

	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := s.pathForKey(key)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("file secret %q: %w", key, domain.ErrSecretNotFound)
		}
		return "", fmt.Errorf("read file secret %q: %w", key, err)
	}

	return string(data), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathForKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete file secret %q: %w", key, err)
	}

	return nil
}

func (s *Store) pathForKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", errors.New("secret key is empty")
	}

	if scheme, rest, ok := strings.Cut(trimmed, "://"); ok {
		if scheme == "" || rest == "" {
			return "", fmt.Errorf("invalid secret key %q", key)
		}
		trimmed = scheme + "/" + rest
	}

	cleaned := filepath.Clean(trimmed)
	if filepath.IsAbs(cleaned) || cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid secret key %q", key)
	}

	return filepath.Join(s.root, cleaned), nil
}
