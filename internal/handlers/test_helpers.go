package handlers

import (
	"context"

	internalauth "github.com/taskhaven/taskhaven/internal/auth"
	"github.com/taskhaven/taskhaven/internal/models"
	"github.com/taskhaven/taskhaven/internal/services"
)

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc              func(ctx context.Context, email, password, ipAddress string) (*services.LoginResult, error)
	VerifySecondFactorFunc func(ctx context.Context, accountID, code string, isBackupCode bool, ipAddress string) (*services.AuthResponse, error)
	RegisterFunc           func(ctx context.Context, email, password, name string) (*services.AuthResponse, error)
	GetProfileFunc         func(ctx context.Context, accountID string) (*services.AccountResponse, error)
}

func (m *MockAuthService) Login(ctx context.Context, email, password, ipAddress string) (*services.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password, ipAddress)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAuthService) VerifySecondFactor(ctx context.Context, accountID, code string, isBackupCode bool, ipAddress string) (*services.AuthResponse, error) {
	if m.VerifySecondFactorFunc != nil {
		return m.VerifySecondFactorFunc(ctx, accountID, code, isBackupCode, ipAddress)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAuthService) Register(ctx context.Context, email, password, name string) (*services.AuthResponse, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, email, password, name)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAuthService) GetProfile(ctx context.Context, accountID string) (*services.AccountResponse, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, accountID)
	}
	return nil, models.ErrNotFound
}

// MockTwoFactorService implements TwoFactorServiceInterface for testing
type MockTwoFactorService struct {
	BeginSetupFunc   func(ctx context.Context, accountID string) (*internalauth.TOTPKey, error)
	ConfirmSetupFunc func(ctx context.Context, accountID, code string) ([]string, error)
	DisableFunc      func(ctx context.Context, accountID string) error
}

func (m *MockTwoFactorService) BeginSetup(ctx context.Context, accountID string) (*internalauth.TOTPKey, error) {
	if m.BeginSetupFunc != nil {
		return m.BeginSetupFunc(ctx, accountID)
	}
	return nil, models.ErrInternalServer
}

func (m *MockTwoFactorService) ConfirmSetup(ctx context.Context, accountID, code string) ([]string, error) {
	if m.ConfirmSetupFunc != nil {
		return m.ConfirmSetupFunc(ctx, accountID, code)
	}
	return nil, models.ErrInternalServer
}

func (m *MockTwoFactorService) Disable(ctx context.Context, accountID string) error {
	if m.DisableFunc != nil {
		return m.DisableFunc(ctx, accountID)
	}
	return nil
}
