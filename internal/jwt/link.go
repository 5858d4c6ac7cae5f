// Package jwt firma y valida los links de verificación que se envían al
// miembro junto con el código (HS256, expiran con el challenge).
package jwt

import (
	"errors"
	"net/url"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

const DefaultIssuer = "simguard"

// LinkClaims viaja en el query param "token" del link.
type LinkClaims struct {
	ChallengeID string `json:"cid"`
	PaymentID   string `json:"pid"`
	jwtv5.RegisteredClaims
}

type LinkSigner struct {
	key     []byte
	issuer  string
	baseURL string
	now     func() time.Time
}

// NewLinkSigner requiere una clave de al menos 32 bytes.
func NewLinkSigner(key []byte, issuer, baseURL string) (*LinkSigner, error) {
	if len(key) < 32 {
		return nil, errors.New("jwt: signing key must be at least 32 bytes")
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &LinkSigner{key: key, issuer: issuer, baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}, nil
}

// WithClock reemplaza el reloj (tests).
func (s *LinkSigner) WithClock(now func() time.Time) *LinkSigner {
	s.now = now
	return s
}

// Sign emite un token que vence en expiresAt.
func (s *LinkSigner) Sign(challengeID, paymentID string, expiresAt time.Time) (string, error) {
	now := s.now()
	claims := LinkClaims{
		ChallengeID: challengeID,
		PaymentID:   paymentID,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   challengeID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(expiresAt),
		},
	}
	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(s.key)
}

// URL arma el link completo; vacío si no hay base URL configurada.
func (s *LinkSigner) URL(token string) string {
	if s.baseURL == "" || token == "" {
		return ""
	}
	return s.baseURL + "?token=" + url.QueryEscape(token)
}

// Link firma y arma el URL en un paso.
func (s *LinkSigner) Link(challengeID, paymentID string, expiresAt time.Time) (string, error) {
	tok, err := s.Sign(challengeID, paymentID, expiresAt)
	if err != nil {
		return "", err
	}
	return s.URL(tok), nil
}
