package jwt

import (
	"errors"

	libJWT "github.com/golang-jwt/jwt/v5"
)

// Symmetric implements JWT signing and verification using an HMAC secret.
type Symmetric struct {
	secret []byte
}

// NewHS512 constructs a Symmetric JWT implementation using HS512.
func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < minSecretLen {
		return nil, ErrSigningKeyTooShort
	}

	return &Symmetric{secret: cfg.Secret}, nil
}

// Sign returns claims as a signed HS512 token.
func (s *Symmetric) Sign(claims libJWT.Claims) (string, error) {
	return libJWT.NewWithClaims(libJWT.SigningMethodHS512, claims).SignedString(s.secret)
}

// Parse verifies the signature of token and decodes it into claims. Extra
// parser options such as issuer or audience checks are applied as given.
func (s *Symmetric) Parse(token string, claims libJWT.Claims, opts ...libJWT.ParserOption) error {
	opts = append(opts, libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}))

	parsed, err := libJWT.ParseWithClaims(token, claims,
		func(t *libJWT.Token) (any, error) {
			if t.Method != libJWT.SigningMethodHS512 {
				return nil, ErrInvalidSigningMethod
			}
			return s.secret, nil
		},
		opts...,
	)
	if err != nil {
		if errors.Is(err, libJWT.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return err
	}

	if !parsed.Valid {
		return ErrInvalidToken
	}

	return nil
}
