package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/approval-gate/internal/domain"
)

// TokenTTL is the lifetime of a login token.
const TokenTTL = time.Hour

// tokenClaims is the JWT payload: the account id and role plus the
// registered sub/iat/exp claims.
type tokenClaims struct {
	jwt.RegisteredClaims
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
}

// JWTIssuer mints and verifies HS256 session tokens. It implements both
// domain.TokenIssuer and domain.AuthGuard.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// JWTOption customizes a JWTIssuer.
type JWTOption func(*JWTIssuer)

// WithClock overrides the time source used to stamp and check tokens.
func WithClock(now func() time.Time) JWTOption {
	return func(j *JWTIssuer) {
		if now != nil {
			j.now = now
		}
	}
}

// NewJWTIssuer creates an issuer signing with secret.
func NewJWTIssuer(secret string, opts ...JWTOption) *JWTIssuer {
	j := &JWTIssuer{
		secret: []byte(secret),
		ttl:    TokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Issue signs a token asserting the user's id and role.
func (j *JWTIssuer) Issue(user *domain.User) (string, error) {
	now := j.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
		UserID: user.ID,
		Role:   user.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string.
func (j *JWTIssuer) Verify(tokenString string) (*domain.Claims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) {
			return j.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	if claims.UserID == "" || !claims.Role.IsValid() {
		return nil, domain.ErrUnauthorized
	}

	out := &domain.Claims{
		UserID:    claims.UserID,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
