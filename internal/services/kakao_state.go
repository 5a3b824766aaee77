package services

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// stateClaims is the signed OAuth state. It lets the callback confirm the
// redirect came from a flow this service started, without server-side storage.
type stateClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

var errStateRequired = errors.New("state is required")

func (c *KakaoClient) issueState(purpose KakaoPurpose) (string, error) {
	now := c.now()
	claims := stateClaims{
		Purpose: purpose.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.cfg.StateTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.cfg.StateSecret))
}

func (c *KakaoClient) verifyState(raw string, purpose KakaoPurpose) error {
	if raw == "" {
		return errStateRequired
	}

	var claims stateClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (interface{}, error) { return []byte(c.cfg.StateSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return fmt.Errorf("invalid state: %w", err)
	}
	if claims.Purpose != purpose.String() {
		return fmt.Errorf("state was issued for %s", claims.Purpose)
	}
	return nil
}
