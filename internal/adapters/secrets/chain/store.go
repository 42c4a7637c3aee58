package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/meli-relist-cli/internal/adapters/secrets/file"
	passstore "github.com/bnema/meli-relist-cli/internal/adapters/secrets/pass"
	"github.com/bnema/meli-relist-cli/internal/domain"
	"github.com/bnema/meli-relist-cli/internal/ports"
)

// Store tries each backend in order. Writes land in the first backend that
// accepts them; reads return the first hit.
type Store struct {
	backends []ports.SecretStore
}

var _ ports.SecretStore = (*Store)(nil)

var errNoBackends = errors.New("secret store chain has no backends")

func NewStore(backends ...ports.SecretStore) (*Store, error) {
	filtered := make([]ports.SecretStore, 0, len(backends))
	for i, backend := range backends {
		if backend == nil {
			return nil, fmt.Errorf("secret backend %d is nil", i)
		}
		filtered = append(filtered, backend)
	}
	if len(filtered) == 0 {
		return nil, errNoBackends
	}

	return &Store{backends: filtered}, nil
}

func NewPassFirstWithFileFallback(fileRoot string) (*Store, error) {
	return NewStore(passstore.NewStore(), filestore.NewStore(fileRoot))
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	var errs []error
	for i, backend := range s.backends {
		err := backend.Put(ctx, key, value)
		if err == nil {
			return nil
		}
		if isContextErr(err) {
			return err
		}
		errs = append(errs, fmt.Errorf("backend %d put: %w", i, err))
	}

	return errors.Join(errs...)
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var errs []error
	notFound := 0
	for i, backend := range s.backends {
		value, err := backend.Get(ctx, key)
		if err == nil {
			return value, nil
		}
		if isContextErr(err) {
			return "", err
		}
		if errors.Is(err, domain.ErrSecretNotFound) {
			notFound++
		}
		errs = append(errs, fmt.Errorf("backend %d get: %w", i, err))
	}

	if notFound == len(s.backends) {
		return "", fmt.Errorf("secret %q: %w", key, domain.ErrSecretNotFound)
	}
	return "", errors.Join(errs...)
}

// Delete removes the key from every backend so no stale copy survives in a
// fallback. It fails only when no backend could delete.
func (s *Store) Delete(ctx context.Context, key string) error {
	var errs []error
	for i, backend := range s.backends {
		err := backend.Delete(ctx, key)
		if err == nil {
			continue
		}
		if isContextErr(err) {
			return err
		}
		errs = append(errs, fmt.Errorf("backend %d delete: %w", i, err))
	}

	if len(errs) == len(s.backends) {
		return errors.Join(errs...)
	}
	return nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
