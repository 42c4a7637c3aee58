package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/meli-relist-cli/internal/domain"
	"github.com/bnema/meli-relist-cli/internal/ports"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const dbFileMode = 0o600

// Store keeps accounts and their token pairs in a single SQLite database.
type Store struct {
	db    *sql.DB
	clock ports.Clock
}

var _ ports.CredentialStore = (*Store)(nil)

func Open(dbPath string, clock ports.Clock) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, errors.New("database path is empty")
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	if err := os.Chmod(dbPath, dbFileMode); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("chmod database: %w", err)
	}

	return &Store{db: db, clock: clock}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context) (map[domain.Nickname]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT nickname, seller_id, user_id, shipping_mode, access_token, refresh_token, expires_at
		FROM accounts
		ORDER BY nickname
	`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	accounts := map[domain.Nickname]domain.Account{}
	for rows.Next() {
		var (
			account   domain.Account
			nickname  string
			mode      string
			expiresAt string
		)
		if err := rows.Scan(&nickname, &account.SellerID, &account.UserID, &mode,
			&account.Credential.AccessToken, &account.Credential.RefreshToken, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		account.Nickname = domain.Nickname(nickname)
		account.ShippingMode = domain.ShippingMode(mode)
		account.Credential.ExpiresAt = parseTime(expiresAt)
		accounts[account.Nickname] = account
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

// Save applies every change inside one transaction. A change whose expected
// refresh token no longer matches the stored row is skipped and reported.
func (s *Store) Save(ctx context.Context, changes []ports.CredentialChange) (ports.SaveReport, error) {
	var report ports.SaveReport

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return report, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(s.clock.Now())
	for _, change := range changes {
		account := change.Account
		if strings.TrimSpace(string(account.Nickname)) == "" {
			return ports.SaveReport{}, errors.New("account nickname is empty")
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE accounts
			SET seller_id = ?, user_id = ?, shipping_mode = ?, access_token = ?, refresh_token = ?, expires_at = ?, updated_at = ?
			WHERE nickname = ? AND refresh_token = ?
		`, account.SellerID, account.UserID, string(account.EffectiveShippingMode()),
			account.Credential.AccessToken, account.Credential.RefreshToken,
			formatTime(account.Credential.ExpiresAt), now,
			string(account.Nickname), change.ExpectedRefreshToken)
		if err != nil {
			return ports.SaveReport{}, fmt.Errorf("update %s: %w", account.Nickname, err)
		}

		updated, err := result.RowsAffected()
		if err != nil {
			return ports.SaveReport{}, fmt.Errorf("update %s: %w", account.Nickname, err)
		}
		if updated == 1 {
			report.Written = append(report.Written, account.Nickname)
			continue
		}

		var exists bool
		if err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM accounts WHERE nickname = ?)", string(account.Nickname)).Scan(&exists); err != nil {
			return ports.SaveReport{}, fmt.Errorf("lookup %s: %w", account.Nickname, err)
		}
		if exists || change.ExpectedRefreshToken != "" {
			report.Conflicts = append(report.Conflicts, account.Nickname)
			continue
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (nickname, seller_id, user_id, shipping_mode, access_token, refresh_token, expires_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, string(account.Nickname), account.SellerID, account.UserID, string(account.EffectiveShippingMode()),
			account.Credential.AccessToken, account.Credential.RefreshToken,
			formatTime(account.Credential.ExpiresAt), now, now); err != nil {
			return ports.SaveReport{}, fmt.Errorf("insert %s: %w", account.Nickname, err)
		}
		report.Written = append(report.Written, account.Nickname)
	}

	if err := tx.Commit(); err != nil {
		return ports.SaveReport{}, fmt.Errorf("commit accounts: %w", err)
	}

	return report, nil
}

func (s *Store) Remove(ctx context.Context, nickname domain.Nickname) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM accounts WHERE nickname = ?", string(nickname))
	if err != nil {
		return fmt.Errorf("delete %s: %w", nickname, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", nickname, err)
	}
	if deleted == 0 {
		return fmt.Errorf("%s: %w", nickname, domain.ErrAccountNotFound)
	}

	return nil
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
