package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taskhaven/taskhaven/internal/auth"
	"github.com/taskhaven/taskhaven/internal/models"
	pkgauth "github.com/taskhaven/taskhaven/pkg/auth"
	pkglogger "github.com/taskhaven/taskhaven/pkg/logger"
)

// AccountRepository defines the account store contract. The store must
// provide per-account read-modify-write atomicity: ReplaceBackupCodes is a
// compare-and-swap keyed on the pre-consume code list, and EnableTwoFactor
// commits the enabled flag and codes together.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	SetPendingSecret(ctx context.Context, id, secret string) error
	EnableTwoFactor(ctx context.Context, id string, codes []string) error
	ReplaceBackupCodes(ctx context.Context, id string, expect, remaining []string) error
	DisableTwoFactor(ctx context.Context, id string) error
}

// AuthService orchestrates login: credential check, the optional second
// factor exchange, and session issuance.
type AuthService struct {
	repo        AccountRepository
	tm          *auth.TokenManager
	totp        *auth.TOTPManager
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(repo AccountRepository, tm *auth.TokenManager, totp *auth.TOTPManager, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		repo:        repo,
		tm:          tm,
		totp:        totp,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// AccountResponse is an account's public profile in HTTP responses
type AccountResponse struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Name             string `json:"name"`
	TwoFactorEnabled bool   `json:"two_factor_enabled"`
}

// AuthResponse is the terminal result of a successful authentication
type AuthResponse struct {
	Token   string           `json:"token"`
	Account *AccountResponse `json:"account"`
}

// LoginResult is either a completed authentication or a second-factor
// challenge. When RequiresTwoFactor is set, AccountID is the correlation
// handle the client echoes back with its code and Auth is nil; no token
// exists until the second factor verifies.
type LoginResult struct {
	RequiresTwoFactor bool
	AccountID         string
	Auth              *AuthResponse
}

// Login checks the submitted credentials. Unknown email and wrong password
// both surface ErrInvalidCredentials with no distinction. Accounts with 2FA
// enabled get a challenge instead of a token.
func (s *AuthService) Login(ctx context.Context, email, password, ipAddress string) (*LoginResult, error) {
	if email = strings.ToLower(strings.TrimSpace(email)); email == "" {
		s.logger.Warn("login attempt with empty email")
		return nil, models.ErrInvalidCredentials
	}

	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				IPAddress:     ipAddress,
				FailureReason: "invalid_credentials",
				Success:       false,
			})
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("failed to get account by email", slog.Any("error", err))
		return nil, fmt.Errorf("account lookup: %w", models.ErrInternalServer)
	}

	if !pkgauth.VerifyPassword(account.PasswordHash, password) {
		s.logger.Info("login failed: invalid credentials")
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			AccountID:     account.ID,
			IPAddress:     ipAddress,
			FailureReason: "invalid_credentials",
			Success:       false,
		})
		return nil, models.ErrInvalidCredentials
	}

	if account.TwoFactorEnabled {
		// Stateless challenge: the account id is the correlation handle, no
		// pending-login state is held server side.
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType: "login_challenge_issued",
			AccountID: account.ID,
			IPAddress: ipAddress,
			Success:   true,
		})
		return &LoginResult{
			RequiresTwoFactor: true,
			AccountID:         account.ID,
		}, nil
	}

	authResp, err := s.issueSession(account)
	if err != nil {
		return nil, err
	}

	s.logger.Info("account logged in", slog.String("account_id", account.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		AccountID: account.ID,
		IPAddress: ipAddress,
		Success:   true,
	})

	return &LoginResult{Auth: authResp}, nil
}

// VerifySecondFactor completes a challenged login with a TOTP code or a
// backup code. This is the only path that mutates the backup code set.
// Unknown account ids surface the same generic failure as a wrong code.
func (s *AuthService) VerifySecondFactor(ctx context.Context, accountID, code string, isBackupCode bool, ipAddress string) (*AuthResponse, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("second factor for unknown account")
			return nil, models.ErrInvalidSecondFactor
		}
		s.logger.Error("failed to get account by id", slog.Any("error", err))
		return nil, fmt.Errorf("account lookup: %w", models.ErrInternalServer)
	}

	if !account.TwoFactorEnabled || account.TwoFactorSecret == nil {
		s.logger.Info("second factor submitted without 2FA enabled", slog.String("account_id", account.ID))
		return nil, models.ErrInvalidSecondFactor
	}

	if isBackupCode {
		if err := s.consumeBackupCode(ctx, account, code, ipAddress); err != nil {
			return nil, err
		}
	} else {
		if !s.totp.VerifyCode(*account.TwoFactorSecret, code, time.Now()) {
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "second_factor_failed",
				AccountID:     account.ID,
				IPAddress:     ipAddress,
				FailureReason: "invalid_totp_code",
				Success:       false,
			})
			return nil, models.ErrInvalidSecondFactor
		}
	}

	authResp, err := s.issueSession(account)
	if err != nil {
		return nil, err
	}

	s.logger.Info("second factor verified", slog.String("account_id", account.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "second_factor_success",
		AccountID: account.ID,
		IPAddress: ipAddress,
		Success:   true,
	})

	return authResp, nil
}

// consumeBackupCode removes exactly one matching code. The conditional store
// update rejects the write when a concurrent request consumed a code first,
// so a backup code can never be accepted twice.
func (s *AuthService) consumeBackupCode(ctx context.Context, account *models.Account, code, ipAddress string) error {
	submitted := strings.ToUpper(strings.TrimSpace(code))

	found, remaining := auth.ConsumeBackupCode(account.BackupCodes, submitted)
	if !found {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "second_factor_failed",
			AccountID:     account.ID,
			IPAddress:     ipAddress,
			FailureReason: "invalid_backup_code",
			Success:       false,
		})
		return models.ErrInvalidSecondFactor
	}

	err := s.repo.ReplaceBackupCodes(ctx, account.ID, account.BackupCodes, remaining)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			s.logger.Warn("backup code consume lost a concurrent update", slog.String("account_id", account.ID))
			return models.ErrInvalidSecondFactor
		}
		s.logger.Error("failed to persist consumed backup code", slog.Any("error", err))
		return fmt.Errorf("backup code update: %w", models.ErrInternalServer)
	}

	s.logger.Info("backup code used",
		slog.String("account_id", account.ID),
		slog.Int("codes_remaining", len(remaining)))

	return nil
}

// Register creates a new account and signs it in.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, err
	}

	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		s.logger.Info("registration failed: account already exists")
		return nil, models.ErrConflict
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check for existing account", slog.Any("error", err))
		return nil, fmt.Errorf("account lookup: %w", models.ErrInternalServer)
	}

	hashedPassword, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, fmt.Errorf("hash password: %w", models.ErrInternalServer)
	}

	account := &models.Account{
		Email:        email,
		Name:         name,
		PasswordHash: hashedPassword,
		BackupCodes:  []string{},
	}

	created, err := s.repo.Create(ctx, account)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create account", slog.Any("error", err))
		return nil, fmt.Errorf("create account: %w", models.ErrInternalServer)
	}

	authResp, err := s.issueSession(created)
	if err != nil {
		return nil, err
	}

	s.logger.Info("account registered", slog.String("account_id", created.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "account_registered",
		AccountID: created.ID,
		Success:   true,
	})

	return authResp, nil
}

// GetProfile returns an account's public profile.
func (s *AuthService) GetProfile(ctx context.Context, accountID string) (*AccountResponse, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get account", slog.Any("error", err))
		return nil, fmt.Errorf("account lookup: %w", models.ErrInternalServer)
	}

	return accountToResponse(account), nil
}

func (s *AuthService) issueSession(account *models.Account) (*AuthResponse, error) {
	token, err := s.tm.IssueSession(account.ID)
	if err != nil {
		s.logger.Error("failed to issue session token", slog.String("account_id", account.ID), slog.Any("error", err))
		return nil, fmt.Errorf("issue session: %w", models.ErrInternalServer)
	}

	return &AuthResponse{
		Token:   token,
		Account: accountToResponse(account),
	}, nil
}

func accountToResponse(account *models.Account) *AccountResponse {
	return &AccountResponse{
		ID:               account.ID,
		Email:            account.Email,
		Name:             account.Name,
		TwoFactorEnabled: account.TwoFactorEnabled,
	}
}
