// Package jwt is the identity provider adapter: it resolves the opaque user
// id carried in a token issued by the authentication provider.
package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/practix/practix/shared/domain"
	"github.com/practix/practix/shared/errors"
	"github.com/practix/practix/shared/logger"
)

type JwtService interface {
	NewToken(userId domain.UserId) (string, error)
	Resolve(jwtStr string) (domain.UserId, error)
}

type Jwt struct {
	secretKey string
	ttl       time.Duration
	now       func() time.Time
}

func New(secretKey string, ttl time.Duration) JwtService {
	return &Jwt{secretKey: secretKey, ttl: ttl, now: time.Now}
}

// NewToken mints a token for userId. The provider normally does this; the API
// uses it only for local tooling and tests.
func (j *Jwt) NewToken(userId domain.UserId) (string, error) {
	now := j.now()
	claims := jwt.RegisteredClaims{
		Subject:   userId,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		logger.Log.Error("failed to sign token", "error", err)
		return "", fmt.Errorf("can't create token: %w", err)
	}
	return tokenString, nil
}

// Resolve validates the token and returns its subject.
// Every failure is an AuthError.
func (j *Jwt) Resolve(jwtStr string) (domain.UserId, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(jwtStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.secretKey), nil
	}, jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())
	if err != nil {
		logger.Log.Debug("token rejected", "error", err)
		return "", errors.Auth("Invalid access token")
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.Auth("Invalid access token")
	}
	return claims.Subject, nil
}
