package usecase

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shandysiswandi/gotp/internal/otp/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestGenerator_Generate(t *testing.T) {
	tests := []struct {
		name    string
		charset []string
		length  int
	}{
		{name: "digits", charset: []string{"0123456789"}, length: 6},
		{name: "fragments joined", charset: []string{"ABC", "", "xyz"}, length: 32},
		{name: "single symbol", charset: []string{"7"}, length: 4},
		{name: "multibyte", charset: []string{"αβγ"}, length: 5},
	}

	g := NewGenerator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Generate(tt.charset, tt.length)

			require.NoError(t, err)
			assert.Equal(t, tt.length, utf8.RuneCountInString(got))
			alphabet := strings.Join(tt.charset, "")
			for _, r := range got {
				assert.Contains(t, alphabet, string(r))
			}
		})
	}
}

func TestGenerator_Generate_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		charset []string
		length  int
	}{
		{name: "nil charset", charset: nil, length: 6},
		{name: "empty charset", charset: []string{}, length: 6},
		{name: "all fragments empty", charset: []string{"", ""}, length: 6},
		{name: "zero length", charset: []string{"0123"}, length: 0},
		{name: "negative length", charset: []string{"0123"}, length: -1},
	}

	g := NewGenerator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Generate(tt.charset, tt.length)

			assert.ErrorIs(t, err, entity.ErrInvalidConfig)
			assert.Empty(t, got)
		})
	}
}

func TestGenerator_Generate_EntropyFailure(t *testing.T) {
	_, err := NewGenerator(failingReader{}).Generate([]string{"0123456789"}, 6)

	assert.EqualError(t, err, "entropy exhausted")
}

func TestGenerator_GenerateOTPAndReference(t *testing.T) {
	g := NewGenerator(nil)

	code, ref, err := g.GenerateOTPAndReference(defaultSchema.OTP, defaultSchema.Reference)

	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9]{6}$`), code)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{8}$`), ref)

	_, _, err = g.GenerateOTPAndReference(defaultSchema.OTP, entity.CharsetSpec{Length: 8})
	assert.ErrorIs(t, err, entity.ErrInvalidConfig)
}
