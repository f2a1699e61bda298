package jwt

import (
	"errors"

	libJWT "github.com/golang-jwt/jwt/v5"
)

// minSecretLen is the HS512 block size; shorter keys weaken the MAC.
const minSecretLen = 64

var (
	ErrInvalidSigningMethod = errors.New("jwt: unexpected signing method")
	ErrSigningKeyTooShort   = errors.New("jwt: HS512 secret must be at least 64 bytes")
	ErrTokenExpired         = errors.New("jwt: token expired")
	ErrInvalidToken         = errors.New("jwt: invalid token")
)

// JWT signs claims into a compact token and parses it back.
type JWT interface {
	Sign(claims libJWT.Claims) (string, error)
	Parse(token string, claims libJWT.Claims, opts ...libJWT.ParserOption) error
}

type Config struct {
	Secret []byte
}
