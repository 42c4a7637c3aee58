package toml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bnema/meli-relist-cli/internal/domain"
	"github.com/bnema/meli-relist-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	accountsFileMode = 0o600
	accountsDirMode  = 0o700
	tempFilePattern  = ".accounts-*.toml.tmp"
	secretKeyFormat  = "meli://%s/oauth_tokens"
)

// Store persists account metadata in a TOML file and the token pair of each
// account in a secret store.
type Store struct {
	accountsPath string
	secrets      ports.SecretStore
	clock        ports.Clock
	mu           *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.CredentialStore = (*Store)(nil)

func NewStore(accountsPath string, secrets ports.SecretStore, clock ports.Clock) (*Store, error) {
	if strings.TrimSpace(accountsPath) == "" {
		return nil, errors.New("accounts path is empty")
	}
	if secrets == nil {
		return nil, errors.New("secret store is nil")
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	normalized, err := normalizeAccountsPath(accountsPath)
	if err != nil {
		return nil, err
	}

	return &Store{
		accountsPath: normalized,
		secrets:      secrets,
		clock:        clock,
		mu:           lockForPath(normalized),
	}, nil
}

func SecretKey(nickname domain.Nickname) string {
	return fmt.Sprintf(secretKeyFormat, nickname)
}

func (s *Store) Load(ctx context.Context) (map[domain.Nickname]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.readSchema()
	if err != nil {
		return nil, err
	}

	accounts := make(map[domain.Nickname]domain.Account, len(file.Accounts))
	for _, entry := range file.Accounts {
		secret, err := s.readTokens(ctx, entry.SecretRef)
		if err != nil {
			return nil, fmt.Errorf("load tokens for %s: %w", entry.Nickname, err)
		}
		account := fromSchema(entry, secret)
		accounts[account.Nickname] = account
	}

	return accounts, nil
}

func (s *Store) Save(ctx context.Context, changes []ports.CredentialChange) (ports.SaveReport, error) {
	var report ports.SaveReport
	if err := ctx.Err(); err != nil {
		return report, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.readSchema()
	if err != nil {
		return report, err
	}

	var restores []secretRestore
	for _, change := range changes {
		nickname := strings.TrimSpace(string(change.Account.Nickname))
		if nickname == "" {
			return report, s.rollbackSecrets(ctx, restores, errors.New("account nickname is empty"))
		}

		idx := file.indexOf(nickname)
		var stored tokenSecret
		if idx >= 0 {
			stored, err = s.readTokens(ctx, file.Accounts[idx].SecretRef)
			if err != nil {
				return report, s.rollbackSecrets(ctx, restores, fmt.Errorf("read stored tokens for %s: %w", nickname, err))
			}
		}
		if stored.RefreshToken != change.ExpectedRefreshToken || (idx < 0 && change.ExpectedRefreshToken != "") {
			report.Conflicts = append(report.Conflicts, change.Account.Nickname)
			continue
		}

		entry := toSchema(change.Account, s.clock.Now())
		restore, err := s.putTokens(ctx, entry.SecretRef, change.Account.Credential)
		if err != nil {
			return report, s.rollbackSecrets(ctx, restores, fmt.Errorf("store tokens for %s: %w", nickname, err))
		}
		restores = append(restores, restore)

		if idx >= 0 {
			file.Accounts[idx] = entry
		} else {
			file.Accounts = append(file.Accounts, entry)
		}
		report.Written = append(report.Written, change.Account.Nickname)
	}

	if len(report.Written) == 0 {
		return report, nil
	}

	if err := ctx.Err(); err != nil {
		return ports.SaveReport{}, s.rollbackSecrets(ctx, restores, err)
	}

	if err := s.writeSchema(file); err != nil {
		return ports.SaveReport{}, s.rollbackSecrets(ctx, restores, err)
	}

	return report, nil
}

func (s *Store) Remove(ctx context.Context, nickname domain.Nickname) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.readSchema()
	if err != nil {
		return err
	}

	idx := file.indexOf(string(nickname))
	if idx < 0 {
		return fmt.Errorf("%s: %w", nickname, domain.ErrAccountNotFound)
	}
	removed := file.Accounts[idx]
	original := fileSchema{Version: file.Version, Accounts: append([]accountSchema(nil), file.Accounts...)}
	file.Accounts = append(file.Accounts[:idx], file.Accounts[idx+1:]...)

	if err := s.writeSchema(file); err != nil {
		return err
	}

	if removed.SecretRef == "" {
		return nil
	}
	if err := s.secrets.Delete(ctx, removed.SecretRef); err != nil {
		if restoreErr := s.writeSchema(original); restoreErr != nil {
			return fmt.Errorf("delete tokens and restore account: %w", errors.Join(err, restoreErr))
		}
		return fmt.Errorf("delete tokens: %w", err)
	}

	return nil
}

type secretRestore struct {
	key      string
	previous string
	existed  bool
}

func (s *Store) putTokens(ctx context.Context, key string, credential domain.Credential) (secretRestore, error) {
	restore := secretRestore{key: key}
	previous, err := s.secrets.Get(ctx, key)
	switch {
	case err == nil:
		restore.previous = previous
		restore.existed = true
	case errors.Is(err, domain.ErrSecretNotFound):
	default:
		return restore, err
	}

	payload, err := json.Marshal(tokenSecret{
		AccessToken:  credential.AccessToken,
		RefreshToken: credential.RefreshToken,
	})
	if err != nil {
		return restore, fmt.Errorf("encode tokens: %w", err)
	}

	if err := s.secrets.Put(ctx, key, string(payload)); err != nil {
		return restore, err
	}

	return restore, nil
}

func (s *Store) rollbackSecrets(ctx context.Context, restores []secretRestore, cause error) error {
	var rollbackErr error
	for i := len(restores) - 1; i >= 0; i-- {
		restore := restores[i]
		var err error
		if restore.existed {
			err = s.secrets.Put(context.WithoutCancel(ctx), restore.key, restore.previous)
		} else {
			err = s.secrets.Delete(context.WithoutCancel(ctx), restore.key)
		}
		if err != nil {
			rollbackErr = errors.Join(rollbackErr, fmt.Errorf("restore %s: %w", restore.key, err))
		}
	}

	if rollbackErr != nil {
		return fmt.Errorf("save accounts and rollback stored tokens: %w", errors.Join(cause, rollbackErr))
	}
	return fmt.Errorf("save accounts: %w", cause)
}

func (s *Store) readTokens(ctx context.Context, key string) (tokenSecret, error) {
	if key == "" {
		return tokenSecret{}, nil
	}

	raw, err := s.secrets.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrSecretNotFound) {
			return tokenSecret{}, nil
		}
		return tokenSecret{}, err
	}

	var secret tokenSecret
	if err := json.Unmarshal([]byte(raw), &secret); err != nil {
		return tokenSecret{}, fmt.Errorf("decode tokens %q: %w", key, err)
	}

	return secret, nil
}

func (s *Store) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(s.accountsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{Version: currentSchemaVersion}, nil
		}
		return fileSchema{}, fmt.Errorf("read accounts file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode accounts file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (s *Store) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(s.accountsPath), accountsDirMode); err != nil {
		return fmt.Errorf("create accounts directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode accounts file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(s.accountsPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp accounts file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp accounts file: %w", err)
	}
	if err := tempFile.Chmod(accountsFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp accounts file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp accounts file: %w", err)
	}
	if err := os.Rename(tempName, s.accountsPath); err != nil {
		return fmt.Errorf("replace accounts file: %w", err)
	}
	cleanup = false

	if err := os.Chmod(s.accountsPath, accountsFileMode); err != nil {
		return fmt.Errorf("chmod accounts file: %w", err)
	}

	return nil
}

func normalizeAccountsPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve accounts path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func toSchema(account domain.Account, now time.Time) accountSchema {
	return accountSchema{
		Nickname:     string(account.Nickname),
		SellerID:     account.SellerID,
		UserID:       account.UserID,
		ShippingMode: string(account.EffectiveShippingMode()),
		ExpiresAt:    formatTime(account.Credential.ExpiresAt),
		SecretRef:    SecretKey(account.Nickname),
		UpdatedAt:    formatTime(now),
	}
}

func fromSchema(entry accountSchema, secret tokenSecret) domain.Account {
	return domain.Account{
		Nickname:     domain.Nickname(entry.Nickname),
		SellerID:     entry.SellerID,
		UserID:       entry.UserID,
		ShippingMode: domain.ShippingMode(entry.ShippingMode),
		Credential: domain.Credential{
			AccessToken:  secret.AccessToken,
			RefreshToken: secret.RefreshToken,
			ExpiresAt:    parseTime(entry.ExpiresAt),
		},
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339)
}
