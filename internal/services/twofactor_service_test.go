package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhaven/taskhaven/internal/models"
)

// ============================================================================
// BeginSetup Tests
// ============================================================================

func TestTwoFactorService_BeginSetup_Success(t *testing.T) {
	account := newTestAccount(t)

	var storedID, storedSecret string
	repo := &MockAccountRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Account, error) {
			return account, nil
		},
		SetPendingSecretFunc: func(ctx context.Context, id, secret string) error {
			storedID = id
			storedSecret = secret
			return nil
		},
	}
	svc, _ := newTestTwoFactorService(repo)

	key, err := svc.BeginSetup(context.Background(), account.ID)
	require.NoError(t, err)

	assert.NotEmpty(t, key.Secret)
	assert.Contains(t, key.ProvisioningURI, "otpauth://totp/")
	assert.Contains(t, key.QRCode, "data:image/png;base64,")

	assert.Equal(t, account.ID, storedID)
	assert.Equal(t, key.Secret, storedSecret, "the stored secret must be the one shown to the caller")
}

func TestTwoFactorService_BeginSetup_ReplacesPendingSecret(t *testing.T) {
	account := newTestAccount(t)
	oldSecret := "OLDSECRET"
	account.TwoFactorSecret = &oldSecret

	var storedSecret string
	repo := &MockAccountRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Account, error) {
			return account, nil
		},
		SetPendingSecretFunc: func(ctx context.Context, id, secret string) error {
			storedSecret = secret
			return nil
		},
	}
	svc, _ := newTestTwoFactorService(repo)

	key, err := svc.BeginSetup(context.Background(), account.ID)
	require.NoError(t, err)
	assert.NotEqual(t, oldSecret, storedSecret)
	assert.Equal(t, key.Secret, storedSecret)
}

func TestTwoFactorService_BeginSetup_AlreadyEnabled(t *testing.T) {
	repo := &MockAccountRepository{}
	svc, totp := newTestTwoFactorService(repo)

	account, _ := newTestAccountWithTwoFactor(t, totp, []string{"AAAA111111"})
	repo.GetByIDFunc = func(ctx context.Context, id string) (*models.Account, error) {
		return account, nil
	}

	_, err := svc.BeginSetup(context.Background(), account.ID)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestTwoFactorService_BeginSetup_AccountNotFound(t *testing.T) {
	repo := &MockAccountRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Account, error) {
			return nil, models.ErrNotFound
		},
	}
	svc, _ := newTestTwoFactorService(repo)

	_, err := svc.BeginSetup(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTwoFactorService_BeginSetup_StoreFailure(t *testing.T) {
	account := newTestAccount(t)
	repo := &MockAccountRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Account, error) {
			return account, nil
		},
		SetPendingSecretFunc: func(ctx context.Context, id, secret string) error {
			return models.ErrInternalServer
		},
	}
	svc, _ := newTestTwoFactorService(repo)

	_, err := svc.BeginSetup(context.Background(), account.ID)
	assert.ErrorIs(t, err, models.ErrInternalServer)
}

// ============================================================================
// ConfirmSetup Tests
// ============================================================================

func TestTwoFactorService_ConfirmSetup_Success(t *testing.T) {
	account := newTestAccount(t)
	repo := &MockAccountRepository{}
	svc, totp := newTestTwoFactorService(repo)

	key, err := totp.GenerateSecret(account.Email)
	require.NoError(t, err)
	secret := key.Secret
	account.TwoFactorSecret = &secret

	var enabledID string
	var enabledCodes []string
	repo.GetByIDFunc = func(ctx context.Context, id string) (*models.Account, error) {
		return account, nil
	}
	repo.EnableTwoFactorFunc = func(ctx context.Context, id string, codes []string) error {
		enabledID = id
		enabledCodes = codes
		return nil
	}

	code, err := totp.CurrentCode(secret, time.Now())
	require.NoError(t, err)

	backupCodes, err := svc.ConfirmSetup(context.Background(), account.ID, code)
	require.NoError(t, err)

	assert.Len(t, backupCodes, 10)
	assert.Equal(t, account.ID, enabledID)
	assert.Equal(t, backupCodes, enabledCodes, "returned codes must be the persisted codes")
}

func TestTwoFactorService_ConfirmSetup_WrongCode(t *testing.T) {
	account := newTestAccount(t)
	repo := &MockAccountRepository{}
	svc, totp := newTestTwoFactorService(repo)

	key, err := totp.GenerateSecret(account.Email)
	require.NoError(t, err)
	secret := key.Secret
	account.TwoFactorSecret = &secret

	enableCalled := false
	repo.GetByIDFunc = func(ctx context.Context, id string) (*models.Account, error) {
		return account, nil
	}
	repo.EnableTwoFactorFunc = func(ctx context.Context, id string, codes []string) error {
		enableCalled = true
		return nil
	}

	_, err = svc.ConfirmSetup(context.Background(), account.ID, "000000")
	assert.ErrorIs(t, err, models.ErrInvalidSecondFactor)
	assert.False(t, enableCalled, "a failed confirmation must leave the pending secret intact")
}

func TestTwoFactorService_ConfirmSetup_NoPendingSecret(t *testing.T) {
	account := newTestAccount(t)

	repo := &MockAccountRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Account, error) {
			return account, nil
		},
	}
	svc, _ := newTestTwoFactorService(repo)

	_, err := svc.ConfirmSetup(context.Background(), account.ID, "123456")
	assert.ErrorIs(t, err, models.ErrSetupNotPending)
}

func TestTwoFactorService_ConfirmSetup_AlreadyEnabled(t *testing.T) {
	repo := &MockAccountRepository{}
	svc, totp := newTestTwoFactorService(repo)

	account, secret := newTestAccountWithTwoFactor(t, totp, []string{"AAAA111111"})
	repo.GetByIDFunc = func(ctx context.Context, id string) (*models.Account, error) {
		return account, nil
	}

	code, err := totp.CurrentCode(secret, time.Now())
	require.NoError(t, err)

	_, err = svc.ConfirmSetup(context.Background(), account.ID, code)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestTwoFactorService_ConfirmSetup_AccountNotFound(t *testing.T) {
	repo := &MockAccountRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Account, error) {
			return nil, models.ErrNotFound
		},
	}
	svc, _ := newTestTwoFactorService(repo)

	_, err := svc.ConfirmSetup(context.Background(), "no-such-id", "123456")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTwoFactorService_ConfirmSetup_PendingSecretCleared(t *testing.T) {
	account := newTestAccount(t)
	repo := &MockAccountRepository{}
	svc, totp := newTestTwoFactorService(repo)

	key, err := totp.GenerateSecret(account.Email)
	require.NoError(t, err)
	secret := key.Secret
	account.TwoFactorSecret = &secret

	repo.GetByIDFunc = func(ctx context.Context, id string) (*models.Account, error) {
		return account, nil
	}
	repo.EnableTwoFactorFunc = func(ctx context.Context, id string, codes []string) error {
		// The pending secret disappeared between read and commit
		return models.ErrSetupNotPending
	}

	code, err := totp.CurrentCode(secret, time.Now())
	require.NoError(t, err)

	_, err = svc.ConfirmSetup(context.Background(), account.ID, code)
	assert.ErrorIs(t, err, models.ErrSetupNotPending)
}

// ============================================================================
// Disable Tests
// ============================================================================

func TestTwoFactorService_Disable_Success(t *testing.T) {
	var disabledID string
	repo := &MockAccountRepository{
		DisableTwoFactorFunc: func(ctx context.Context, id string) error {
			disabledID = id
			return nil
		},
	}
	svc, _ := newTestTwoFactorService(repo)

	err := svc.Disable(context.Background(), "account-123")
	require.NoError(t, err)
	assert.Equal(t, "account-123", disabledID)
}

func TestTwoFactorService_Disable_AccountNotFound(t *testing.T) {
	repo := &MockAccountRepository{
		DisableTwoFactorFunc: func(ctx context.Context, id string) error {
			return models.ErrNotFound
		},
	}
	svc, _ := newTestTwoFactorService(repo)

	err := svc.Disable(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTwoFactorService_Disable_StoreFailure(t *testing.T) {
	repo := &MockAccountRepository{
		DisableTwoFactorFunc: func(ctx context.Context, id string) error {
			return models.ErrInternalServer
		},
	}
	svc, _ := newTestTwoFactorService(repo)

	err := svc.Disable(context.Background(), "account-123")
	assert.ErrorIs(t, err, models.ErrInternalServer)
}
