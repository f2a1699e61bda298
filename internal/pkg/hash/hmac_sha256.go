package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 is a keyed Hash producing lowercase hex digests. An instance is
// safe for concurrent use.
type HMACSHA256 struct {
	key []byte
}

func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{key: []byte(secret)}
}

// Hash never fails; the error exists to satisfy Hash.
func (s *HMACSHA256) Hash(str string) ([]byte, error) {
	return s.digest(str), nil
}

// Verify compares in constant time.
func (s *HMACSHA256) Verify(hashed, str string) bool {
	if len(hashed) != hex.EncodedLen(sha256.Size) {
		return false
	}
	return hmac.Equal([]byte(hashed), s.digest(str))
}

func (s *HMACSHA256) digest(str string) []byte {
	mac := hmac.New(sha256.New, s.key)
	_, _ = mac.Write([]byte(str))
	return hex.AppendEncode(nil, mac.Sum(nil))
}
