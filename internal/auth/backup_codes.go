package auth

import (
	"crypto/rand"
	"fmt"
)

const (
	// BackupCodeLength is the number of characters in a recovery code.
	BackupCodeLength = 10

	// backupCodeCharset is uppercase alphanumeric. Matching is exact, so the
	// uppercase alphabet is what makes comparison effectively case-insensitive
	// once callers upcase the submitted code.
	backupCodeCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// GenerateBackupCodes returns count single-use recovery codes drawn from
// crypto/rand. Codes are generated independently; at 36^10 possibilities the
// collision probability is negligible and not checked.
func GenerateBackupCodes(count int) ([]string, error) {
	codes := make([]string, count)
	for i := range codes {
		buf := make([]byte, BackupCodeLength)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		code := make([]byte, BackupCodeLength)
		for j, b := range buf {
			code[j] = backupCodeCharset[int(b)%len(backupCodeCharset)]
		}
		codes[i] = string(code)
	}
	return codes, nil
}

// ConsumeBackupCode matches submitted against the code set. On a match it
// returns true and the set with that one entry removed; otherwise it returns
// false and the set unchanged. The input slice is never mutated.
func ConsumeBackupCode(codes []string, submitted string) (bool, []string) {
	for i, code := range codes {
		if code == submitted {
			remaining := make([]string, 0, len(codes)-1)
			remaining = append(remaining, codes[:i]...)
			remaining = append(remaining, codes[i+1:]...)
			return true, remaining
		}
	}
	return false, codes
}
