package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskhaven/taskhaven/internal/database"
	"github.com/taskhaven/taskhaven/internal/models"
)

const accountColumns = `id, email, name, password_hash, two_factor_secret, two_factor_enabled, backup_codes, created_at, updated_at`

// AccountRepository is the Postgres-backed account store. Per-account
// read-modify-write atomicity is provided here: backup-code consumption is a
// compare-and-swap on the stored code list and the enable transition runs in
// a transaction holding a row lock.
type AccountRepository struct {
	pool *pgxpool.Pool
	db   *database.DB
}

func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{pool: db.Pool, db: db}
}

// rowScanner covers both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var account models.Account
	var secret *string

	err := scanner.Scan(
		&account.ID, &account.Email, &account.Name, &account.PasswordHash,
		&secret, &account.TwoFactorEnabled, &account.BackupCodes,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	account.TwoFactorSecret = secret
	if account.BackupCodes == nil {
		account.BackupCodes = []string{}
	}

	return &account, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	return scanAccountRow(r.pool.QueryRow(ctx, query, id))
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	return scanAccountRow(r.pool.QueryRow(ctx, query, email))
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	account.ID = uuid.New().String()

	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	query := `
		INSERT INTO accounts (id, email, name, password_hash, two_factor_secret, two_factor_enabled, backup_codes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + accountColumns

	return scanAccountRow(r.pool.QueryRow(ctx, query,
		account.ID, account.Email, account.Name, account.PasswordHash,
		account.TwoFactorSecret, account.TwoFactorEnabled, account.BackupCodes,
		account.CreatedAt, account.UpdatedAt,
	))
}

// SetPendingSecret stores a freshly provisioned secret without enabling the
// second factor. Any previous pending secret is replaced.
func (r *AccountRepository) SetPendingSecret(ctx context.Context, id, secret string) error {
	query := `
		UPDATE accounts
		SET two_factor_secret = $2, two_factor_enabled = FALSE, backup_codes = '{}', updated_at = $3
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, secret, time.Now())
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// EnableTwoFactor flips the account to enabled and stores its backup codes.
// The transition only happens while a pending secret exists; the row lock
// keeps a concurrent disable or re-provision from interleaving.
func (r *AccountRepository) EnableTwoFactor(ctx context.Context, id string, codes []string) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var secret *string
		err := tx.QueryRow(ctx, `SELECT two_factor_secret FROM accounts WHERE id = $1 FOR UPDATE`, id).Scan(&secret)
		if err != nil {
			return database.MapPostgresError(err)
		}

		if secret == nil {
			return models.ErrSetupNotPending
		}

		_, err = tx.Exec(ctx, `
			UPDATE accounts
			SET two_factor_enabled = TRUE, backup_codes = $2, updated_at = $3
			WHERE id = $1
		`, id, codes, time.Now())
		if err != nil {
			return database.MapPostgresError(err)
		}

		return nil
	})
}

// ReplaceBackupCodes swaps the stored code list for remaining, conditional on
// the stored list still matching expect. Zero rows updated means another
// request consumed a code first; the caller treats that as a failed attempt
// rather than accepting the same code twice.
func (r *AccountRepository) ReplaceBackupCodes(ctx context.Context, id string, expect, remaining []string) error {
	query := `
		UPDATE accounts
		SET backup_codes = $3, updated_at = $4
		WHERE id = $1 AND backup_codes = $2
	`

	result, err := r.pool.Exec(ctx, query, id, expect, remaining, time.Now())
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrConflict
	}

	return nil
}

// DisableTwoFactor clears the secret, the backup codes and the enabled flag
// in a single statement so no partial state is ever observable.
func (r *AccountRepository) DisableTwoFactor(ctx context.Context, id string) error {
	query := `
		UPDATE accounts
		SET two_factor_secret = NULL, two_factor_enabled = FALSE, backup_codes = '{}', updated_at = $2
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, time.Now())
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// Delete removes an account. Used by tests and account-closure tooling.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
