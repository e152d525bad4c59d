// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gatekeeper/config"
	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/errors"
)

// jwtService is a concrete implementation of the TokenIssuer interface using the JWT standard.
type jwtService struct {
	secret string        // Secret key for signing session tokens.
	ttl    time.Duration // Time-to-live for session tokens.
	clock  service.Clock
}

// NewJWTService is the constructor for jwtService.
// It takes configuration values to create a new token issuer instance.
func NewJWTService(cfg *config.Config, clock service.Clock) (service.TokenIssuer, error) {
	if cfg.JWT.Secret == "" {
		return nil, errors.New("jwt secret must be provided")
	}

	ttl := cfg.JWT.TTL
	if ttl <= 0 {
		ttl = time.Hour * 24
	}

	return &jwtService{
		secret: cfg.JWT.Secret,
		ttl:    ttl,
		clock:  clock,
	}, nil
}

// Issue creates a signed session token carrying the identity's id, username
// and roles. Expiry is issue time plus the configured TTL.
func (s *jwtService) Issue(identity *entity.Identity) (string, error) {
	now := s.clock.Now()
	claims := &service.Claims{
		Username: identity.Username,
		Roles:    identity.Roles.ToStrings(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", errors.Wrap(err, "sign session token")
	}

	return signed, nil
}

// Parse verifies the token's signature and expiry and returns its claims.
func (s *jwtService) Parse(tokenString string) (*service.Claims, error) {
	claims := &service.Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return []byte(s.secret), nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse token structure")
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}

	return claims, nil
}
