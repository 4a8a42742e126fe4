package models

import (
	"time"
)

type Account struct {
	ID               string
	Email            string
	Name             string
	PasswordHash     string
	TwoFactorSecret  *string  // base32 shared secret; set while 2FA is pending or enabled
	TwoFactorEnabled bool
	BackupCodes      []string // single-use recovery codes; non-empty only while 2FA is enabled
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TwoFactorPending reports whether a secret has been provisioned but not yet
// confirmed with a first valid code.
func (a *Account) TwoFactorPending() bool {
	return !a.TwoFactorEnabled && a.TwoFactorSecret != nil
}
