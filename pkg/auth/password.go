package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/deenmate/sync-core/pkg/errs"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
)

// commonPasswords is the embedded blocklist spec.md requires at
// minimum; it is intentionally small since the cost of this check
// must stay negligible next to the bcrypt hash itself.
var commonPasswords = map[string]bool{
	"password":    true,
	"123456":      true,
	"123456789":   true,
	"qwerty":      true,
	"abc123":      true,
	"password123": true,
	"admin":       true,
	"letmein":     true,
	"welcome":     true,
	"monkey":      true,
	"dragon":      true,
	"master":      true,
}

// ValidatePassword enforces the password policy: length 8-128, at
// least one upper/lower/digit/special character, no run of more than
// two identical consecutive characters, no 3-character ascending run
// of letters or digits (e.g. "abc" or "123"; descending runs such as
// "cba" are allowed), and not present in
// the common-password blocklist. Returns a ValidationError describing
// every violation found, not just the first.
func ValidatePassword(password string) error {
	var violations []string

	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		violations = append(violations, "password must be between 8 and 128 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	if !hasUpper {
		violations = append(violations, "password must contain an uppercase letter")
	}
	if !hasLower {
		violations = append(violations, "password must contain a lowercase letter")
	}
	if !hasDigit {
		violations = append(violations, "password must contain a digit")
	}
	if !hasSpecial {
		violations = append(violations, "password must contain a special character")
	}

	if hasRepeatedRun(password) {
		violations = append(violations, "password must not repeat a character more than twice in a row")
	}
	if hasSequentialRun(password) {
		violations = append(violations, "password must not contain a 3-character sequential run")
	}

	if commonPasswords[strings.ToLower(password)] {
		violations = append(violations, "password is too common")
	}

	if len(violations) > 0 {
		return errs.NewValidationErrors(violations)
	}
	return nil
}

// PasswordRequirements describes the policy in prose for the
// GET /auth/password-requirements endpoint.
func PasswordRequirements() []string {
	return []string{
		"Between 8 and 128 characters",
		"At least one uppercase letter",
		"At least one lowercase letter",
		"At least one digit",
		"At least one special character",
		"No character repeated more than twice in a row",
		"No 3-character sequential run (e.g. abc, 123)",
		"Must not be a commonly used password",
	}
}

func hasRepeatedRun(s string) bool {
	run := 1
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] {
			run++
			if run > 2 {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

// hasSequentialRun detects a 3-character ascending sequential run of
// letters or digits, case-insensitive: "abc", "ABC", "123" are
// forbidden, but "cba" (descending) is allowed per policy.
func hasSequentialRun(s string) bool {
	lower := strings.ToLower(s)
	if len(lower) < 3 {
		return false
	}
	for i := 0; i+2 < len(lower); i++ {
		a, b, c := lower[i], lower[i+1], lower[i+2]
		letters := a >= 'a' && c <= 'z'
		digits := a >= '0' && c <= '9'
		if b-a == 1 && c-b == 1 && (letters || digits) {
			return true
		}
	}
	return false
}

// HashPassword bcrypt-hashes a password already validated by
// ValidatePassword, at the configured cost.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", errs.Wrap(err, errs.ErrorTypeInternal, "failed to hash password")
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches hash using bcrypt's
// constant-time comparison.
func VerifyPassword(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
