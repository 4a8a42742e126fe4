package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskhaven/taskhaven/internal/auth"
	"github.com/taskhaven/taskhaven/internal/models"
	pkglogger "github.com/taskhaven/taskhaven/pkg/logger"
)

// TwoFactorService drives the 2FA lifecycle:
// disabled -> secret pending -> enabled -> disabled.
type TwoFactorService struct {
	repo            AccountRepository
	totp            *auth.TOTPManager
	logger          *slog.Logger
	auditLogger     *pkglogger.AuditLogger
	backupCodeCount int
}

// NewTwoFactorService creates a new TwoFactorService
func NewTwoFactorService(repo AccountRepository, totp *auth.TOTPManager, logger *slog.Logger, auditLogger *pkglogger.AuditLogger, backupCodeCount int) *TwoFactorService {
	return &TwoFactorService{
		repo:            repo,
		totp:            totp,
		logger:          logger,
		auditLogger:     auditLogger,
		backupCodeCount: backupCodeCount,
	}
}

// BeginSetup provisions a fresh secret for the account and stores it without
// enabling the second factor. The caller only ever sees the secret and its
// QR payload; the account stays disabled until the secret is confirmed.
// Re-running setup replaces any earlier unconfirmed secret.
func (s *TwoFactorService) BeginSetup(ctx context.Context, accountID string) (*auth.TOTPKey, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get account", slog.Any("error", err))
		return nil, fmt.Errorf("account lookup: %w", models.ErrInternalServer)
	}

	if account.TwoFactorEnabled {
		return nil, models.ErrConflict
	}

	key, err := s.totp.GenerateSecret(account.Email)
	if err != nil {
		s.logger.Error("failed to generate TOTP secret", slog.Any("error", err))
		return nil, fmt.Errorf("generate secret: %w", models.ErrInternalServer)
	}

	if err := s.repo.SetPendingSecret(ctx, account.ID, key.Secret); err != nil {
		s.logger.Error("failed to store pending secret", slog.Any("error", err))
		return nil, fmt.Errorf("store pending secret: %w", models.ErrInternalServer)
	}

	s.logger.Info("two-factor setup initiated", slog.String("account_id", account.ID))
	s.auditLogger.LogTwoFactorEvent(pkglogger.AuditEvent{
		EventType: "two_factor_setup_started",
		AccountID: account.ID,
		Success:   true,
	})

	return key, nil
}

// ConfirmSetup verifies the first code against the pending secret and, on
// success, enables the second factor and returns the freshly generated
// backup codes. The codes are returned exactly once; they are not
// retrievable afterwards. On a bad code the pending secret stays intact so
// the caller can retry.
func (s *TwoFactorService) ConfirmSetup(ctx context.Context, accountID, code string) ([]string, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get account", slog.Any("error", err))
		return nil, fmt.Errorf("account lookup: %w", models.ErrInternalServer)
	}

	if account.TwoFactorEnabled {
		return nil, models.ErrConflict
	}

	if account.TwoFactorSecret == nil {
		return nil, models.ErrSetupNotPending
	}

	if !s.totp.VerifyCode(*account.TwoFactorSecret, code, time.Now()) {
		s.auditLogger.LogTwoFactorEvent(pkglogger.AuditEvent{
			EventType:     "two_factor_confirm_failed",
			AccountID:     account.ID,
			FailureReason: "invalid_totp_code",
			Success:       false,
		})
		return nil, models.ErrInvalidSecondFactor
	}

	codes, err := auth.GenerateBackupCodes(s.backupCodeCount)
	if err != nil {
		s.logger.Error("failed to generate backup codes", slog.Any("error", err))
		return nil, fmt.Errorf("generate backup codes: %w", models.ErrInternalServer)
	}

	if err := s.repo.EnableTwoFactor(ctx, account.ID, codes); err != nil {
		if errors.Is(err, models.ErrSetupNotPending) {
			return nil, models.ErrSetupNotPending
		}
		s.logger.Error("failed to enable two-factor", slog.Any("error", err))
		return nil, fmt.Errorf("enable two-factor: %w", models.ErrInternalServer)
	}

	s.logger.Info("two-factor enabled", slog.String("account_id", account.ID))
	s.auditLogger.LogTwoFactorEvent(pkglogger.AuditEvent{
		EventType: "two_factor_enabled",
		AccountID: account.ID,
		Success:   true,
	})

	return codes, nil
}

// Disable clears the secret, the backup codes and the enabled flag in one
// store update. Authorization is the caller's session; once that holds,
// disabling has no failure mode and is idempotent.
func (s *TwoFactorService) Disable(ctx context.Context, accountID string) error {
	if err := s.repo.DisableTwoFactor(ctx, accountID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to disable two-factor", slog.Any("error", err))
		return fmt.Errorf("disable two-factor: %w", models.ErrInternalServer)
	}

	s.logger.Info("two-factor disabled", slog.String("account_id", accountID))
	s.auditLogger.LogTwoFactorEvent(pkglogger.AuditEvent{
		EventType: "two_factor_disabled",
		AccountID: accountID,
		Success:   true,
	})

	return nil
}
