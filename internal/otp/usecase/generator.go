package usecase

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/shandysiswandi/gotp/internal/otp/entity"
)

// Generator draws random strings from charset fragments.
type Generator struct {
	rand io.Reader
}

// NewGenerator returns a Generator reading entropy from r, or crypto/rand when r is nil.
func NewGenerator(r io.Reader) *Generator {
	if r == nil {
		r = rand.Reader
	}

	return &Generator{rand: r}
}

// Generate joins charset into one alphabet and picks length symbols from it,
// each drawn independently and uniformly.
func (g *Generator) Generate(charset []string, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("%w: length must be positive, got %d", entity.ErrInvalidConfig, length)
	}

	alphabet := []rune(strings.Join(charset, ""))
	if len(alphabet) == 0 {
		return "", fmt.Errorf("%w: charset is empty", entity.ErrInvalidConfig)
	}

	size := big.NewInt(int64(len(alphabet)))
	var sb strings.Builder
	sb.Grow(length)

	for range length {
		n, err := rand.Int(g.rand, size)
		if err != nil {
			return "", err
		}
		sb.WriteRune(alphabet[n.Int64()])
	}

	return sb.String(), nil
}

// GenerateOTPAndReference generates the code and the reference independently.
func (g *Generator) GenerateOTPAndReference(otp, reference entity.CharsetSpec) (string, string, error) {
	code, err := g.Generate(otp.Charset, otp.Length)
	if err != nil {
		return "", "", err
	}

	ref, err := g.Generate(reference.Charset, reference.Length)
	if err != nil {
		return "", "", err
	}

	return code, ref, nil
}
