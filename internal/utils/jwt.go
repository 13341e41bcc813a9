package utils // package utils provides helper functions for session tokens and password hashing

import (
	"errors" // sentinel errors for token parsing
	"time"   // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
	"github.com/google/uuid"       // random token ids (jti)
)

// ErrInvalidToken is returned by ParseAccessToken for any token that is
// malformed, expired, signed with another key or missing its claims.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed session JWT along with its expiry.  The
// same token is used as the value of the session cookie and as a Bearer
// token on API calls.
type AccessToken struct {
	Token string    // the serialized JWT string
	ID    string    // jti claim, unique per login
	Exp   time.Time // the UTC expiration time
}

// Claims is the decoded content of a valid access token.
type Claims struct {
	Subject string
	Role    string
	ID      string
	Exp     time.Time
}

// NewAccessToken builds and signs an HS256 JWT for the operator.  The
// subject is the login email.  The token carries sub, role, jti, exp and
// iat claims.
func NewAccessToken(secret, subject, role string, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	jti := uuid.NewString()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"jti":  jti,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, ID: jti, Exp: exp}, nil
}

// ParseAccessToken verifies raw against secret and returns its claims.
// Only HMAC signatures are accepted.
func ParseAccessToken(secret, raw string) (Claims, error) {
	if raw == "" {
		return Claims{}, ErrInvalidToken
	}
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// reject alg=none and asymmetric algorithms
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	sub, _ := mc["sub"].(string)
	if sub == "" {
		return Claims{}, ErrInvalidToken
	}
	role, _ := mc["role"].(string)
	jti, _ := mc["jti"].(string)
	var exp time.Time
	if d, err := mc.GetExpirationTime(); err == nil && d != nil {
		exp = d.Time.UTC()
	}
	return Claims{Subject: sub, Role: role, ID: jti, Exp: exp}, nil
}
