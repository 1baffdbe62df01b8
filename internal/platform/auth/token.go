package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/smartclinic/api/internal/platform/apperror"
)

// Tokens issues and verifies HS256-signed bearer tokens. The subject is
// the only identity claim: an email for doctors and patients, a
// username for admins. Role membership is re-resolved from storage on
// every request, so a token outlives nothing but the subject string.
type Tokens struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{key: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock overrides the token clock. Test hook.
func (t *Tokens) WithClock(now func() time.Time) *Tokens {
	t.now = now
	return t
}

// Issue signs a token for the given subject with the configured TTL.
func (t *Tokens) Issue(subject string) (string, error) {
	issuedAt := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(t.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", apperror.Wrap(apperror.KindInternal, "sign token", err)
	}
	return signed, nil
}

// Verify validates the signature and expiry and returns the subject.
// Every failure mode collapses to Unauthorized; the caller learns
// nothing about why a token was rejected.
func (t *Tokens) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return t.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return "", apperror.Wrap(apperror.KindUnauthorized, "invalid or expired token", err)
	}
	if claims.Subject == "" {
		return "", apperror.New(apperror.KindUnauthorized, "token carries no subject")
	}
	return claims.Subject, nil
}
