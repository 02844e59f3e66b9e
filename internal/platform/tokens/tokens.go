package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fundmatch/pkg/domain"
)

// Claims is what the engine needs from a verified token: the caller identity.
type Claims struct {
	Caller domain.Identity
}

// Validator verifies HS256 bearer tokens issued by the deployment's gateway.
// The engine trusts the subject claim as the caller identity; key custody and
// token issuance live outside the engine.
type Validator struct {
	key []byte
}

func NewValidator(signingKey string) *Validator {
	return &Validator{key: []byte(signingKey)}
}

// ValidateToken parses and verifies a token string.
func (v *Validator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	caller, err := domain.ParseIdentity(subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	return &Claims{Caller: caller}, nil
}

// Issue mints a short-lived token for an identity. Development and test use.
func (v *Validator) Issue(caller domain.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   caller.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString(v.key)
}
