package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims carried by a session token.
type TokenClaims struct {
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}
