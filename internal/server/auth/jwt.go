// Package auth provides session tokens and password hashing for the account
// service.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/snoofz/snofbase/internal/common"
)

// Claims extends the registered JWT claims with the authenticated username.
type Claims struct {
	jwt.RegisteredClaims
	Username string
}

// GenerateSessionToken mints an HS256 session token for username.
func GenerateSessionToken(username string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		Username: username,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// UsernameFromToken validates tokenString and extracts the username claim.
func UsernameFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", err
	}

	if !token.Valid || claims.Username == "" {
		return "", common.ErrorInvalidToken
	}

	return claims.Username, nil
}
