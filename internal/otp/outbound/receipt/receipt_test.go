package receipt

import (
	"context"
	"strings"
	"testing"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/gotp/internal/otp/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/hash"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/jwt"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type staticID string

func (s staticID) Generate() string { return string(s) }

var now = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func record() entity.OTPRecord {
	return entity.OTPRecord{
		OTPValue: entity.OTPValue{
			Target:    entity.Target{Type: entity.TargetTypeEmail, Value: "a@b.com"},
			Value:     "123456",
			Reference: "ABCD1234",
		},
		Used: 1,
	}
}

func newReceipt(t *testing.T, cfg Config, secret string) *JWT {
	t.Helper()

	signer, err := jwt.NewHS512(jwt.Config{Secret: []byte(strings.Repeat(secret, 64))})
	require.NoError(t, err)

	return New(Dependency{
		Config:     cfg,
		JWT:        signer,
		Hash:       hash.NewHMACSHA256("ref-secret"),
		Clock:      fixedClock{now: now},
		UUID:       staticID("jti-1"),
		Instrument: instrument.NewNoop(),
	})
}

var defaultCfg = Config{Issuer: "gotp", Audience: []string{"gotp-clients"}, TTL: 10 * time.Minute}

func TestJWT_RoundTrip(t *testing.T) {
	ctx := context.Background()
	r := newReceipt(t, defaultCfg, "k")

	token, err := r.CreateValidationReceipt(ctx, record(), []string{"login", "transfer"})
	require.NoError(t, err)
	assert.NotContains(t, token, "ABCD1234")

	got, err := r.ValidateReceipt(ctx, "ABCD1234", token)
	require.NoError(t, err)
	assert.Equal(t, record().Target, got.Target)
	assert.Equal(t, []string{"login", "transfer"}, got.Purpose)
	assert.True(t, now.Add(10*time.Minute).Equal(got.ExpiresAt))
}

func TestJWT_ValidateReceipt_ReturnsExpiredReceipt(t *testing.T) {
	ctx := context.Background()
	r := newReceipt(t, Config{Issuer: "gotp", TTL: -time.Minute}, "k")

	token, err := r.CreateValidationReceipt(ctx, record(), []string{"login"})
	require.NoError(t, err)

	got, err := r.ValidateReceipt(ctx, "ABCD1234", token)
	require.NoError(t, err)
	assert.True(t, got.ExpiresAt.Before(now))
}

func TestJWT_ValidateReceipt_Rejects(t *testing.T) {
	ctx := context.Background()
	r := newReceipt(t, defaultCfg, "k")
	token, err := r.CreateValidationReceipt(ctx, record(), []string{"login"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		verifier  *JWT
		reference string
		token     string
		wantErr   error
	}{
		{name: "other reference", verifier: r, reference: "ZZZZ9999", token: token, wantErr: errReferenceMismatch},
		{name: "other issuer", verifier: newReceipt(t, Config{Issuer: "x", Audience: defaultCfg.Audience}, "k"), reference: "ABCD1234", token: token, wantErr: errIssuerMismatch},
		{name: "other audience", verifier: newReceipt(t, Config{Issuer: "gotp", Audience: []string{"x"}}, "k"), reference: "ABCD1234", token: token, wantErr: errAudienceMismatch},
		{name: "other secret", verifier: newReceipt(t, defaultCfg, "z"), reference: "ABCD1234", token: token},
		{name: "garbage", verifier: r, reference: "ABCD1234", token: "a.b.c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.verifier.ValidateReceipt(ctx, tt.reference, tt.token)
			assert.Nil(t, got)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestJWT_ValidateReceipt_BitFlip(t *testing.T) {
	ctx := context.Background()
	r := newReceipt(t, defaultCfg, "k")
	token, err := r.CreateValidationReceipt(ctx, record(), []string{"login"})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	payload := []byte(parts[1])
	if payload[5] == 'A' {
		payload[5] = 'B'
	} else {
		payload[5] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, err = r.ValidateReceipt(ctx, "ABCD1234", tampered)
	assert.Error(t, err)
}

func TestJWT_ValidateReceipt_SubjectMismatch(t *testing.T) {
	ctx := context.Background()
	signer, err := jwt.NewHS512(jwt.Config{Secret: []byte(strings.Repeat("k", 64))})
	require.NoError(t, err)
	r := newReceipt(t, defaultCfg, "k")

	ref, err := hash.NewHMACSHA256("ref-secret").Hash("ABCD1234")
	require.NoError(t, err)
	token, err := signer.Sign(claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			Subject:   "email:someone@else.com",
			Issuer:    "gotp",
			Audience:  defaultCfg.Audience,
			ExpiresAt: libJWT.NewNumericDate(now.Add(time.Minute)),
		},
		Target:   record().Target,
		Purposes: []string{"login"},
		Ref:      string(ref),
	})
	require.NoError(t, err)

	_, err = r.ValidateReceipt(ctx, "ABCD1234", token)
	assert.ErrorIs(t, err, errSubjectMismatch)
}
