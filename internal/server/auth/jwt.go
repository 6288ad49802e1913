// Package auth issues and verifies the signed session tokens that carry an
// owner identity between requests.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/securedoc/internal/common"
)

// Claims includes the registered claims plus the owner identity the session
// belongs to.
type Claims struct {
	jwt.RegisteredClaims
	OwnerID string
}

// GenerateToken signs a session token for ownerID with HS256.
func GenerateToken(ownerID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		OwnerID: ownerID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetOwnerIDFromToken verifies the signature and expiry and returns the owner
// identity. Any verification failure is reported as common.ErrInvalidToken;
// callers treat such sessions as absent and mint a fresh one.
func GetOwnerIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.OwnerID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.OwnerID, nil
}
