// Package auth mints and verifies the signed session tokens that guard
// every authenticated operation. Tokens are stateless: validity is a pure
// function of the HMAC signature and the expiry claim, nothing is stored.
package auth

import (
	"errors"
	"time"

	"github.com/aquawatch/aquawatch/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claim set; the subject claim holds the
// username the token was issued for.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken mints an HS256 token for subject, expiring after
// validityDuration. There is no refresh mechanism: expiry forces a full
// re-authentication.
func GenerateToken(subject string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// SubjectFromToken verifies signature and expiry and returns the subject.
// Expired tokens yield common.ErrTokenExpired; a bad signature, a missing
// subject claim, or a structurally malformed token yields
// common.ErrInvalidToken.
func SubjectFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}
