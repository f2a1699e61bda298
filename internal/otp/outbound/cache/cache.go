// Package cache stores OTP records in redis. Every state change that must be
// atomic runs as a single Lua script.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/gotp/internal/otp/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/hash"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
)

var (
	markRequestedScript = redis.NewScript(`
local ms = tonumber(ARGV[1])
if ms > 0 and redis.call('SET', KEYS[1], '1', 'NX', 'PX', ms) then
	return 0
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl > 0 then
	return ttl
end
if ms > 0 then
	redis.call('SET', KEYS[1], '1', 'PX', ms)
end
return 0
`)

	fetchAndUsedScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
redis.call('HINCRBY', KEYS[1], 'used', 1)
return redis.call('HGETALL', KEYS[1])
`)

	markAsSentScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	redis.call('HSET', KEYS[1], 'receipt_id', ARGV[1])
end
return 0
`)
)

const (
	fieldTargetType      = "target_type"
	fieldTargetValue     = "target_value"
	fieldTargetUID       = "target_uid"
	fieldReference       = "reference"
	fieldExpiresAt       = "expires_at_ms"
	fieldResendAllowedAt = "resend_allowed_at_ms"
	fieldUsed            = "used"
	fieldReceiptID       = "receipt_id"
)

type Cache struct {
	client *redis.Client
	prefix string
	hash   hash.Hash
	ins    instrument.Instrumentation
}

func New(client *redis.Client, prefix string, h hash.Hash, ins instrument.Instrumentation) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		hash:   h,
		ins:    ins,
	}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("otp.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *Cache) blockKey(recipientKey string) string {
	return c.prefix + "block:" + recipientKey
}

func (c *Cache) recordKey(reference, value string) (string, error) {
	digest, err := hash.Composite(c.hash, reference, value)
	if err != nil {
		return "", err
	}

	return c.prefix + "otp:" + digest, nil
}

func (c *Cache) MarkRequested(ctx context.Context, recipientKey string, blockedFor time.Duration) (_ time.Duration, err error) {
	ctx, span := c.startSpan(ctx, "MarkRequested")
	defer func() { c.endSpan(span, err) }()

	ms, err := markRequestedScript.Run(ctx, c.client, []string{c.blockKey(recipientKey)}, blockedFor.Milliseconds()).Int64()
	if err != nil {
		return 0, err
	}

	return time.Duration(ms) * time.Millisecond, nil
}

func (c *Cache) UnmarkRequested(ctx context.Context, recipientKey string) (err error) {
	ctx, span := c.startSpan(ctx, "UnmarkRequested")
	defer func() { c.endSpan(span, err) }()

	return c.client.Del(ctx, c.blockKey(recipientKey)).Err()
}

func (c *Cache) Store(ctx context.Context, otp entity.OTPValue, deletableAt time.Time) (err error) {
	ctx, span := c.startSpan(ctx, "Store")
	defer func() { c.endSpan(span, err) }()

	key, err := c.recordKey(otp.Reference, otp.Value)
	if err != nil {
		return err
	}

	_, err = c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key,
			fieldTargetType, otp.Target.Type.String(),
			fieldTargetValue, otp.Target.Value,
			fieldTargetUID, otp.Target.UniqueIdentifier,
			fieldReference, otp.Reference,
			fieldExpiresAt, otp.ExpiresAt.UnixMilli(),
			fieldResendAllowedAt, otp.ResendAllowedAt.UnixMilli(),
			fieldUsed, 0,
		)
		p.PExpireAt(ctx, key, deletableAt)
		return nil
	})

	return err
}

func (c *Cache) FetchAndUsed(ctx context.Context, reference, value string) (_ *entity.OTPRecord, err error) {
	ctx, span := c.startSpan(ctx, "FetchAndUsed")
	defer func() { c.endSpan(span, err) }()

	key, err := c.recordKey(reference, value)
	if err != nil {
		return nil, err
	}

	fields, err := fetchAndUsedScript.Run(ctx, c.client, []string{key}).StringSlice()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return decodeRecord(fields, value)
}

func (c *Cache) MarkAsSent(ctx context.Context, reference, value, receiptID string) (err error) {
	ctx, span := c.startSpan(ctx, "MarkAsSent")
	defer func() { c.endSpan(span, err) }()

	key, err := c.recordKey(reference, value)
	if err != nil {
		return err
	}

	return markAsSentScript.Run(ctx, c.client, []string{key}, receiptID).Err()
}

func decodeRecord(fields []string, value string) (*entity.OTPRecord, error) {
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("cache: malformed otp record with %d fields", len(fields))
	}

	m := make(map[string]string, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		m[fields[i]] = fields[i+1]
	}

	used, err := strconv.Atoi(m[fieldUsed])
	if err != nil {
		return nil, fmt.Errorf("cache: parse used: %w", err)
	}
	expiresAt, err := strconv.ParseInt(m[fieldExpiresAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cache: parse expires at: %w", err)
	}
	resendAllowedAt, err := strconv.ParseInt(m[fieldResendAllowedAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cache: parse resend allowed at: %w", err)
	}

	return &entity.OTPRecord{
		OTPValue: entity.OTPValue{
			Target: entity.Target{
				Type:             entity.TargetType(m[fieldTargetType]),
				Value:            m[fieldTargetValue],
				UniqueIdentifier: m[fieldTargetUID],
			},
			Value:           value,
			Reference:       m[fieldReference],
			ExpiresAt:       time.UnixMilli(expiresAt),
			ResendAllowedAt: time.UnixMilli(resendAllowedAt),
		},
		Used:      used,
		ReceiptID: m[fieldReceiptID],
	}, nil
}
