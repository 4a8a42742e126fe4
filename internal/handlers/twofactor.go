package handlers

import (
	"context"
	"errors"
	"net/http"

	internalauth "github.com/taskhaven/taskhaven/internal/auth"
	"github.com/taskhaven/taskhaven/internal/models"
	pkghttp "github.com/taskhaven/taskhaven/pkg/http"
)

// TwoFactorServiceInterface defines the interface for the 2FA lifecycle
type TwoFactorServiceInterface interface {
	BeginSetup(ctx context.Context, accountID string) (*internalauth.TOTPKey, error)
	ConfirmSetup(ctx context.Context, accountID, code string) ([]string, error)
	Disable(ctx context.Context, accountID string) error
}

// TwoFactorHandler handles 2FA lifecycle HTTP requests. All routes here sit
// behind the session middleware.
type TwoFactorHandler struct {
	service TwoFactorServiceInterface
}

// NewTwoFactorHandler creates a new TwoFactorHandler
func NewTwoFactorHandler(service TwoFactorServiceInterface) *TwoFactorHandler {
	return &TwoFactorHandler{service: service}
}

// GenerateSecretResponse carries the provisioning artifacts for setup
type GenerateSecretResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
	QRCode     string `json:"qr_code"`
}

// EnableTwoFactorRequest is the confirmation code submission
type EnableTwoFactorRequest struct {
	Code string `json:"code" validate:"required,max=20"`
}

// EnableTwoFactorResponse returns the backup codes, shown exactly once
type EnableTwoFactorResponse struct {
	Success     bool     `json:"success"`
	BackupCodes []string `json:"backup_codes"`
}

// DisableTwoFactorResponse confirms the disable transition
type DisableTwoFactorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// GenerateSecret begins 2FA setup for the authenticated account
func (h *TwoFactorHandler) GenerateSecret(w http.ResponseWriter, r *http.Request) {
	accountID := internalauth.AccountIDFromContext(r)
	if accountID == "" {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	key, err := h.service.BeginSetup(r.Context(), accountID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Account not found")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Two-factor authentication is already enabled")
		default:
			pkghttp.WriteInternalError(w, "Error generating secret")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, GenerateSecretResponse{
		Secret:     key.Secret,
		OTPAuthURL: key.ProvisioningURI,
		QRCode:     key.QRCode,
	})
}

// Enable confirms the pending secret and enables 2FA
func (h *TwoFactorHandler) Enable(w http.ResponseWriter, r *http.Request) {
	accountID := internalauth.AccountIDFromContext(r)
	if accountID == "" {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	var req EnableTwoFactorRequest
	if err := pkghttp.DecodeJSON(r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	backupCodes, err := h.service.ConfirmSetup(r.Context(), accountID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidSecondFactor):
			pkghttp.WriteBadRequest(w, "Invalid verification code")
		case errors.Is(err, models.ErrSetupNotPending):
			pkghttp.WriteBadRequest(w, "No pending two-factor setup")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Two-factor authentication is already enabled")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Account not found")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, EnableTwoFactorResponse{
		Success:     true,
		BackupCodes: backupCodes,
	})
}

// Disable turns off 2FA for the authenticated account
func (h *TwoFactorHandler) Disable(w http.ResponseWriter, r *http.Request) {
	accountID := internalauth.AccountIDFromContext(r)
	if accountID == "" {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	if err := h.service.Disable(r.Context(), accountID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Account not found")
			return
		}
		pkghttp.WriteInternalError(w, "Error disabling two-factor authentication")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, DisableTwoFactorResponse{
		Success: true,
		Message: "Two-factor authentication disabled",
	})
}
