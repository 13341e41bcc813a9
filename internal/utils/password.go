package utils

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/event-dashboard/internal/model"
)

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// NewAccount hashes the demo password once at startup.
func NewAccount(email, plain string, cost int) (model.Account, error) {
	hash, err := HashPassword(plain, cost)
	if err != nil {
		return model.Account{}, err
	}
	return model.Account{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	}, nil
}

// CheckCredentials reports whether email/plain match the account.  The
// password is always checked so a wrong email costs the same as a wrong
// password.
func CheckCredentials(acc model.Account, email, plain string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(acc.Email)) == 1
	passOK := VerifyPassword(acc.PasswordHash, plain)
	return emailOK && passOK
}
