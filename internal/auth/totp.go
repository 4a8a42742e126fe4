package auth

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
)

// totpPeriod is the code rotation period in seconds.
const totpPeriod = 30

// TOTPManager generates shared secrets and verifies time-based codes.
//
// Verification accepts codes up to skew periods either side of the current
// one. The default of 6 steps each way (3 minutes total drift) matches what
// real authenticator devices need in practice.
type TOTPManager struct {
	issuer string
	skew   uint
}

// NewTOTPManager creates a TOTP manager. issuer is the name shown by
// authenticator apps; skew is the accepted window in 30-second steps.
func NewTOTPManager(issuer string, skew uint) *TOTPManager {
	return &TOTPManager{
		issuer: issuer,
		skew:   skew,
	}
}

// TOTPKey holds the artifacts of a freshly provisioned secret.
type TOTPKey struct {
	Secret          string // base32-encoded shared secret (for manual entry)
	ProvisioningURI string // otpauth:// URL
	QRCode          string // PNG data URL rendering the provisioning URI
}

// GenerateSecret creates a fresh random secret for a 6-digit, 30-second TOTP
// plus the provisioning URI and a scannable QR code. Freshness comes from the
// library's crypto/rand source; prior secrets are not consulted.
func (tm *TOTPManager) GenerateSecret(accountEmail string) (*TOTPKey, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      tm.issuer,
		AccountName: accountEmail,
		SecretSize:  32, // 256 bits
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	qr, err := qrcode.New(key.URL(), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	qrImage, err := qr.PNG(200)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}

	return &TOTPKey{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
		QRCode:          "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrImage),
	}, nil
}

// CurrentCode returns the expected code for a secret at the given time,
// floored to the period boundary. Exposed so tests and callers can compute
// the code a well-synchronized client would submit.
func (tm *TOTPManager) CurrentCode(secret string, at time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    totpPeriod,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to compute TOTP code: %w", err)
	}
	return code, nil
}

// VerifyCode checks a submitted code against the secret at the given time.
// The submitted code is normalized (whitespace stripped) first; input that is
// not six digits fails immediately without touching the window math.
func (tm *TOTPManager) VerifyCode(secret, submitted string, at time.Time) bool {
	code := normalizeCode(submitted)
	if len(code) != 6 || !allDigits(code) {
		return false
	}

	valid, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      tm.skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}
	return valid
}

// Skew returns the configured window tolerance in steps.
func (tm *TOTPManager) Skew() uint {
	return tm.skew
}

func normalizeCode(code string) string {
	return strings.Join(strings.Fields(code), "")
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
