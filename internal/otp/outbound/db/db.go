// Package db stores OTP records in postgres.
package db

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/gotp/internal/otp/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/clock"
	"github.com/shandysiswandi/gotp/internal/pkg/hash"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
)

//go:embed schema.sql
var schema string

const (
	markRequestedSQL = `
INSERT INTO otp_recipient_blocks (recipient_key, blocked_until)
VALUES ($1, $2)
ON CONFLICT (recipient_key) DO UPDATE
    SET blocked_until = EXCLUDED.blocked_until
    WHERE otp_recipient_blocks.blocked_until <= $3
RETURNING blocked_until`

	blockedUntilSQL = `SELECT blocked_until FROM otp_recipient_blocks WHERE recipient_key = $1`

	unmarkRequestedSQL = `DELETE FROM otp_recipient_blocks WHERE recipient_key = $1`

	storeSQL = `
INSERT INTO otp_records (digest, reference, target_type, target_value, target_uid, expires_at, resend_allowed_at, deletable_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (digest) DO UPDATE SET
    target_type = EXCLUDED.target_type,
    target_value = EXCLUDED.target_value,
    target_uid = EXCLUDED.target_uid,
    expires_at = EXCLUDED.expires_at,
    resend_allowed_at = EXCLUDED.resend_allowed_at,
    deletable_at = EXCLUDED.deletable_at,
    used = 0,
    receipt_id = ''`

	fetchAndUsedSQL = `
UPDATE otp_records SET used = used + 1
WHERE digest = $1 AND deletable_at > $2
RETURNING reference, target_type, target_value, target_uid, expires_at, resend_allowed_at, used, receipt_id`

	markAsSentSQL = `UPDATE otp_records SET receipt_id = $2 WHERE digest = $1`

	purgeRecordsSQL = `DELETE FROM otp_records WHERE deletable_at <= $1`

	purgeBlocksSQL = `DELETE FROM otp_recipient_blocks WHERE blocked_until <= $1`
)

type DB struct {
	conn  *pgxpool.Pool
	hash  hash.Hash
	clock clock.Clocker
	ins   instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, h hash.Hash, clk clock.Clocker, ins instrument.Instrumentation) *DB {
	return &DB{
		conn:  conn,
		hash:  h,
		clock: clk,
		ins:   ins,
	}
}

// Migrate creates the tables when they do not exist.
func (s *DB) Migrate(ctx context.Context) (err error) {
	ctx, span := s.startSpan(ctx, "Migrate")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, schema)
	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *DB) MarkRequested(ctx context.Context, recipientKey string, blockedFor time.Duration) (_ time.Duration, err error) {
	ctx, span := s.startSpan(ctx, "MarkRequested")
	defer func() { s.endSpan(span, err) }()

	now := s.clock.Now()
	if blockedFor <= 0 {
		return s.remaining(ctx, recipientKey, now)
	}

	var until time.Time
	err = s.conn.QueryRow(ctx, markRequestedSQL, recipientKey, now.Add(blockedFor), now).Scan(&until)
	if err == nil {
		return 0, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	// The upsert skipped an active block.
	return s.remaining(ctx, recipientKey, now)
}

func (s *DB) remaining(ctx context.Context, recipientKey string, now time.Time) (time.Duration, error) {
	var until time.Time
	err := s.conn.QueryRow(ctx, blockedUntilSQL, recipientKey).Scan(&until)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	if left := until.Sub(now); left > 0 {
		return left, nil
	}

	return 0, nil
}

func (s *DB) UnmarkRequested(ctx context.Context, recipientKey string) (err error) {
	ctx, span := s.startSpan(ctx, "UnmarkRequested")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, unmarkRequestedSQL, recipientKey)
	return err
}

func (s *DB) Store(ctx context.Context, otp entity.OTPValue, deletableAt time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "Store")
	defer func() { s.endSpan(span, err) }()

	digest, err := hash.Composite(s.hash, otp.Reference, otp.Value)
	if err != nil {
		return err
	}

	_, err = s.conn.Exec(ctx, storeSQL,
		digest,
		otp.Reference,
		otp.Target.Type.String(),
		otp.Target.Value,
		otp.Target.UniqueIdentifier,
		otp.ExpiresAt,
		otp.ResendAllowedAt,
		deletableAt,
	)

	return err
}

func (s *DB) FetchAndUsed(ctx context.Context, reference, value string) (_ *entity.OTPRecord, err error) {
	ctx, span := s.startSpan(ctx, "FetchAndUsed")
	defer func() { s.endSpan(span, err) }()

	digest, err := hash.Composite(s.hash, reference, value)
	if err != nil {
		return nil, err
	}

	var (
		rec        entity.OTPRecord
		targetType string
	)
	err = s.conn.QueryRow(ctx, fetchAndUsedSQL, digest, s.clock.Now()).Scan(
		&rec.Reference,
		&targetType,
		&rec.Target.Value,
		&rec.Target.UniqueIdentifier,
		&rec.ExpiresAt,
		&rec.ResendAllowedAt,
		&rec.Used,
		&rec.ReceiptID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.Target.Type = entity.TargetType(targetType)
	rec.Value = value

	return &rec, nil
}

func (s *DB) MarkAsSent(ctx context.Context, reference, value, receiptID string) (err error) {
	ctx, span := s.startSpan(ctx, "MarkAsSent")
	defer func() { s.endSpan(span, err) }()

	digest, err := hash.Composite(s.hash, reference, value)
	if err != nil {
		return err
	}

	_, err = s.conn.Exec(ctx, markAsSentSQL, digest, receiptID)
	return err
}

// Purge deletes records past their deletable time and elapsed blocks. It
// returns the number of records removed.
func (s *DB) Purge(ctx context.Context) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "Purge")
	defer func() { s.endSpan(span, err) }()

	now := s.clock.Now()

	tag, err := s.conn.Exec(ctx, purgeRecordsSQL, now)
	if err != nil {
		return 0, err
	}

	if _, err = s.conn.Exec(ctx, purgeBlocksSQL, now); err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}
