package services

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const tokenIssuer = "ieltspro"

// TokenSigner issues and checks the short lived HS256 token that the web app
// presents to the status store. A signer with an empty secret is disabled:
// Sign returns "" and Verify accepts anything.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenSigner(secret string) *TokenSigner {
	return &TokenSigner{secret: []byte(secret), ttl: time.Minute}
}

func (s *TokenSigner) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

func (s *TokenSigner) Sign() (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   "status-client",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign service token")
	}
	return signed, nil
}

// Verify checks an Authorization header value ("Bearer <token>").
func (s *TokenSigner) Verify(authHeader string) error {
	if !s.Enabled() {
		return nil
	}
	if authHeader == "" {
		return errors.New("authorization header required")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return errors.Wrap(err, "invalid token")
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}
