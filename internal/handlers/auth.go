package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/taskhaven/taskhaven/internal/auth"
	"github.com/taskhaven/taskhaven/internal/models"
	"github.com/taskhaven/taskhaven/internal/services"
	pkghttp "github.com/taskhaven/taskhaven/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password, ipAddress string) (*services.LoginResult, error)
	VerifySecondFactor(ctx context.Context, accountID, code string, isBackupCode bool, ipAddress string) (*services.AuthResponse, error)
	Register(ctx context.Context, email, password, name string) (*services.AuthResponse, error)
	GetProfile(ctx context.Context, accountID string) (*services.AccountResponse, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// Request DTOs

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyTwoFactorRequest represents the second-factor submission
type VerifyTwoFactorRequest struct {
	AccountID    string    `json:"account_id" validate:"required"`
	Code         string    `json:"code" validate:"required,max=20"` // TOTP (6 digits) or backup code (10 chars)
	IsBackupCode looseBool `json:"is_backup_code"`
}

// LoginResponse is either a completed authentication or a 2FA challenge
type LoginResponse struct {
	// Completed authentication
	Token   *string                   `json:"token,omitempty"`
	Account *services.AccountResponse `json:"account,omitempty"`

	// Second factor required
	RequiresTwoFactor bool   `json:"requires_two_factor,omitempty"`
	AccountID         string `json:"account_id,omitempty"`
}

// looseBool accepts both JSON booleans and "true"/"false" strings; older
// clients send the flag either way, so it is normalized here before the
// typed service contract sees it.
type looseBool bool

func (b *looseBool) UnmarshalJSON(data []byte) error {
	switch strings.TrimSpace(string(data)) {
	case "true", `"true"`:
		*b = true
		return nil
	case "false", `"false"`, "null", `""`:
		*b = false
		return nil
	}

	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("is_backup_code must be a boolean")
	}
	*b = looseBool(v)
	return nil
}

// Register handles account creation
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest

	if err := pkghttp.DecodeJSON(r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	authResp, err := h.service.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "An account with this email already exists")
		case errors.Is(err, models.ErrInternalServer):
			pkghttp.WriteInternalError(w, "Internal server error")
		default:
			// Validation failures (weak password, missing fields)
			pkghttp.WriteBadRequest(w, err.Error())
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, authResp)
}

// Login handles the first step of authentication. Accounts with 2FA enabled
// get a challenge response instead of a token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := pkghttp.DecodeJSON(r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password, pkghttp.RemoteIP(r))
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			pkghttp.WriteUnauthorized(w, "Invalid credentials")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	if result.RequiresTwoFactor {
		pkghttp.WriteJSON(w, http.StatusOK, LoginResponse{
			RequiresTwoFactor: true,
			AccountID:         result.AccountID,
		})
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, LoginResponse{
		Token:   &result.Auth.Token,
		Account: result.Auth.Account,
	})
}

// VerifyTwoFactor handles the second step of a challenged login
func (h *AuthHandler) VerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req VerifyTwoFactorRequest

	if err := pkghttp.DecodeJSON(r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	authResp, err := h.service.VerifySecondFactor(r.Context(), req.AccountID, req.Code, bool(req.IsBackupCode), pkghttp.RemoteIP(r))
	if err != nil {
		if errors.Is(err, models.ErrInvalidSecondFactor) {
			if req.IsBackupCode {
				pkghttp.WriteUnauthorized(w, "Invalid backup code")
			} else {
				pkghttp.WriteUnauthorized(w, "Invalid verification code")
			}
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, authResp)
}

// Me returns the authenticated account's profile
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	accountID := auth.AccountIDFromContext(r)
	if accountID == "" {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	profile, err := h.service.GetProfile(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Account not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, profile)
}
