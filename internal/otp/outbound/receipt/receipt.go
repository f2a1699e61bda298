// Package receipt issues validation receipts as HS512 JWTs bound to the OTP
// reference they were created from.
package receipt

import (
	"context"
	"errors"
	"slices"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"

	"github.com/shandysiswandi/gotp/internal/otp/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/clock"
	"github.com/shandysiswandi/gotp/internal/pkg/hash"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/jwt"
	"github.com/shandysiswandi/gotp/internal/pkg/uid"
)

var (
	errIssuerMismatch    = errors.New("receipt issuer mismatch")
	errAudienceMismatch  = errors.New("receipt audience mismatch")
	errSubjectMismatch   = errors.New("receipt subject mismatch")
	errReferenceMismatch = errors.New("receipt reference mismatch")
	errMissingExpiry     = errors.New("receipt has no expiry")
)

type claims struct {
	libJWT.RegisteredClaims
	Target   entity.Target `json:"target"`
	Purposes []string      `json:"purposes"`
	Ref      string        `json:"ref"`
}

type Config struct {
	Issuer   string
	Audience []string
	TTL      time.Duration
}

type Dependency struct {
	Config     Config
	JWT        jwt.JWT
	Hash       hash.Hash
	Clock      clock.Clocker
	UUID       uid.StringID
	Instrument instrument.Instrumentation
}

type JWT struct {
	cfg   Config
	jwt   jwt.JWT
	hash  hash.Hash
	clock clock.Clocker
	uuid  uid.StringID
	ins   instrument.Instrumentation
}

func New(dep Dependency) *JWT {
	return &JWT{
		cfg:   dep.Config,
		jwt:   dep.JWT,
		hash:  dep.Hash,
		clock: dep.Clock,
		uuid:  dep.UUID,
		ins:   dep.Instrument,
	}
}

func (j *JWT) CreateValidationReceipt(ctx context.Context, record entity.OTPRecord, purposes []string) (string, error) {
	_, span := j.ins.Tracer("otp.outbound.receipt").Start(ctx, "CreateValidationReceipt")
	defer span.End()

	ref, err := j.hash.Hash(record.Reference)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	now := j.clock.Now()
	token, err := j.jwt.Sign(claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        j.uuid.Generate(),
			Subject:   record.Target.Subject(),
			Issuer:    j.cfg.Issuer,
			Audience:  j.cfg.Audience,
			IssuedAt:  libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(j.cfg.TTL)),
		},
		Target:   record.Target,
		Purposes: append([]string{}, purposes...),
		Ref:      string(ref),
	})
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	return token, nil
}

// ValidateReceipt checks signature and binding only. Expiry is returned to the
// caller rather than enforced here.
func (j *JWT) ValidateReceipt(ctx context.Context, reference, token string) (*entity.ValidationReceipt, error) {
	_, span := j.ins.Tracer("otp.outbound.receipt").Start(ctx, "ValidateReceipt")
	defer span.End()

	var c claims
	if err := j.jwt.Parse(token, &c, libJWT.WithoutClaimsValidation()); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := j.check(reference, c); err != nil {
		span.RecordError(err)
		return nil, err
	}

	return &entity.ValidationReceipt{
		Target:    c.Target,
		Purpose:   c.Purposes,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

func (j *JWT) check(reference string, c claims) error {
	if c.Issuer != j.cfg.Issuer {
		return errIssuerMismatch
	}

	for _, aud := range j.cfg.Audience {
		if !slices.Contains(c.Audience, aud) {
			return errAudienceMismatch
		}
	}

	if c.Subject != c.Target.Subject() {
		return errSubjectMismatch
	}

	if !j.hash.Verify(c.Ref, reference) {
		return errReferenceMismatch
	}

	if c.ExpiresAt == nil {
		return errMissingExpiry
	}

	return nil
}
