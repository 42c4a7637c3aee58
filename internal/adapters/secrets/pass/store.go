package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bnema/meli-relist-cli/internal/domain"
	"github.com/bnema/meli-relist-cli/internal/ports"
)

const defaultPrefix = "mlr"

var ErrUnavailable = errors.New("pass command unavailable")

type runFunc func(ctx context.Context, input string, args ...string) (stdout string, stderr string, err error)

// Store keeps secrets in the pass password manager under a fixed prefix.
type Store struct {
	prefix string
	run    runFunc
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{prefix: defaultPrefix, run: runPassCommand}
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry, err := s.entryName(key)
	if err != nil {
		return err
	}

	_, stderr, err := s.run(ctx, value+"\n", "insert", "--multiline", "--force", entry)
	if err != nil {
		return passError("insert", entry, err, stderr)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	entry, err := s.entryName(key)
	if err != nil {
		return "", err
	}

	stdout, stderr, err := s.run(ctx, "", "show", entry)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return "", fmt.Errorf("%w: %w", ErrUnavailable, domain.ErrSecretNotFound)
		}
		if strings.Contains(stderr, "is not in the password store") {
			return "", fmt.Errorf("pass entry %q: %w", entry, domain.ErrSecretNotFound)
		}
		return "", passError("show", entry, err, stderr)
	}

	return strings.TrimRight(stdout, "\r\n"), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry, err := s.entryName(key)
	if err != nil {
		return err
	}

	_, stderr, err := s.run(ctx, "", "rm", "--force", entry)
	if err != nil {
		if errors.Is(err, ErrUnavailable) || strings.Contains(stderr, "is not in the password store") {
			return nil
		}
		return passError("rm", entry, err, stderr)
	}

	return nil
}

func (s *Store) entryName(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", errors.New("secret key is empty")
	}
	trimmed = strings.Replace(trimmed, "://", "/", 1)
	if strings.Contains(trimmed, "..") {
		return "", fmt.Errorf("invalid secret key %q", key)
	}

	prefix := s.prefix
	if prefix == "" {
		return trimmed, nil
	}
	return prefix + "/" + trimmed, nil
}

func runPassCommand(ctx context.Context, input string, args ...string) (string, string, error) {
	path, err := exec.LookPath("pass")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", "", ErrUnavailable
		}
		return "", "", fmt.Errorf("locate pass command: %w", err)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func passError(op string, entry string, err error, stderr string) error {
	if stderr == "" {
		return fmt.Errorf("pass %s %q: %w", op, entry, err)
	}
	return fmt.Errorf("pass %s %q: %w: %s", op, entry, err, stderr)
}
