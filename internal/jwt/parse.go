package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidLink   = errors.New("invalid_verification_link")
	ErrExpiredLink   = errors.New("expired_verification_link")
	ErrInvalidIssuer = errors.New("invalid_issuer")
)

// Parse valida firma HS256, issuer y exp (tolerancia de 30s) y retorna las claims.
func (s *LinkSigner) Parse(token string) (*LinkClaims, error) {
	claims := &LinkClaims{}
	tok, err := jwtv5.ParseWithClaims(token, claims,
		func(*jwtv5.Token) (any, error) { return s.key, nil },
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithIssuer(s.issuer),
		jwtv5.WithLeeway(30*time.Second),
		jwtv5.WithTimeFunc(s.now),
		jwtv5.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwtv5.ErrTokenExpired):
		return nil, ErrExpiredLink
	case errors.Is(err, jwtv5.ErrTokenInvalidIssuer):
		return nil, ErrInvalidIssuer
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	case !tok.Valid:
		return nil, ErrInvalidLink
	}
	if claims.ChallengeID == "" || claims.PaymentID == "" {
		return nil, ErrInvalidLink
	}
	return claims, nil
}
