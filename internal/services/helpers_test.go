package services

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/taskhaven/taskhaven/internal/auth"
	"github.com/taskhaven/taskhaven/internal/models"
	pkgauth "github.com/taskhaven/taskhaven/pkg/auth"
	pkglogger "github.com/taskhaven/taskhaven/pkg/logger"
)

const testPassword = "password123"

// newTestAccount builds an account with a real bcrypt hash of testPassword.
func newTestAccount(t *testing.T) *models.Account {
	t.Helper()

	hash, err := pkgauth.HashPassword(testPassword)
	require.NoError(t, err)

	now := time.Now()
	return &models.Account{
		ID:           uuid.New().String(),
		Email:        "user@example.com",
		Name:         "Test User",
		PasswordHash: hash,
		BackupCodes:  []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// newTestAccountWithTwoFactor builds an enabled-2FA account and returns it
// with its TOTP secret so tests can compute valid codes.
func newTestAccountWithTwoFactor(t *testing.T, totp *auth.TOTPManager, backupCodes []string) (*models.Account, string) {
	t.Helper()

	account := newTestAccount(t)

	key, err := totp.GenerateSecret(account.Email)
	require.NoError(t, err)

	secret := key.Secret
	account.TwoFactorSecret = &secret
	account.TwoFactorEnabled = true
	account.BackupCodes = backupCodes

	return account, secret
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAuthService(repo AccountRepository) (*AuthService, *auth.TokenManager, *auth.TOTPManager) {
	logger := newTestLogger()
	tm := auth.NewTokenManager("test-secret-key-minimum-32-chars!!", time.Hour)
	totp := auth.NewTOTPManager("TaskHaven", 6)
	return NewAuthService(repo, tm, totp, logger, pkglogger.NewAuditLogger(logger)), tm, totp
}

func newTestTwoFactorService(repo AccountRepository) (*TwoFactorService, *auth.TOTPManager) {
	logger := newTestLogger()
	totp := auth.NewTOTPManager("TaskHaven", 6)
	return NewTwoFactorService(repo, totp, logger, pkglogger.NewAuditLogger(logger), 10), totp
}
