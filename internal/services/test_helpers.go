package services

import (
	"context"

	"github.com/taskhaven/taskhaven/internal/models"
)

// MockAccountRepository implements AccountRepository for testing
type MockAccountRepository struct {
	GetByIDFunc            func(ctx context.Context, id string) (*models.Account, error)
	GetByEmailFunc         func(ctx context.Context, email string) (*models.Account, error)
	CreateFunc             func(ctx context.Context, account *models.Account) (*models.Account, error)
	SetPendingSecretFunc   func(ctx context.Context, id, secret string) error
	EnableTwoFactorFunc    func(ctx context.Context, id string, codes []string) error
	ReplaceBackupCodesFunc func(ctx context.Context, id string, expect, remaining []string) error
	DisableTwoFactorFunc   func(ctx context.Context, id string) error
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAccountRepository) SetPendingSecret(ctx context.Context, id, secret string) error {
	if m.SetPendingSecretFunc != nil {
		return m.SetPendingSecretFunc(ctx, id, secret)
	}
	return nil
}

func (m *MockAccountRepository) EnableTwoFactor(ctx context.Context, id string, codes []string) error {
	if m.EnableTwoFactorFunc != nil {
		return m.EnableTwoFactorFunc(ctx, id, codes)
	}
	return nil
}

func (m *MockAccountRepository) ReplaceBackupCodes(ctx context.Context, id string, expect, remaining []string) error {
	if m.ReplaceBackupCodesFunc != nil {
		return m.ReplaceBackupCodesFunc(ctx, id, expect, remaining)
	}
	return nil
}

func (m *MockAccountRepository) DisableTwoFactor(ctx context.Context, id string) error {
	if m.DisableTwoFactorFunc != nil {
		return m.DisableTwoFactorFunc(ctx, id)
	}
	return nil
}
