// Package memory is a process-local OTP storage for single-instance runs and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shandysiswandi/gotp/internal/otp/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/clock"
	"github.com/shandysiswandi/gotp/internal/pkg/hash"
)

type record struct {
	target          entity.Target
	reference       string
	expiresAt       time.Time
	resendAllowedAt time.Time
	deletableAt     time.Time
	used            int
	receiptID       string
}

// Memory keeps records keyed by the digest of (reference, value), so the code
// itself is never held.
type Memory struct {
	mu      sync.Mutex
	clock   clock.Clocker
	hash    hash.Hash
	blocks  map[string]time.Time
	records map[string]*record
}

func New(clk clock.Clocker, h hash.Hash) *Memory {
	return &Memory{
		clock:   clk,
		hash:    h,
		blocks:  make(map[string]time.Time),
		records: make(map[string]*record),
	}
}

func (m *Memory) MarkRequested(_ context.Context, recipientKey string, blockedFor time.Duration) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	if until, ok := m.blocks[recipientKey]; ok && until.After(now) {
		return until.Sub(now), nil
	}

	if blockedFor > 0 {
		m.blocks[recipientKey] = now.Add(blockedFor)
	}

	return 0, nil
}

func (m *Memory) UnmarkRequested(_ context.Context, recipientKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blocks, recipientKey)
	return nil
}

func (m *Memory) Store(_ context.Context, otp entity.OTPValue, deletableAt time.Time) error {
	key, err := hash.Composite(m.hash, otp.Reference, otp.Value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[key] = &record{
		target:          otp.Target,
		reference:       otp.Reference,
		expiresAt:       otp.ExpiresAt,
		resendAllowedAt: otp.ResendAllowedAt,
		deletableAt:     deletableAt,
	}

	return nil
}

func (m *Memory) FetchAndUsed(_ context.Context, reference, value string) (*entity.OTPRecord, error) {
	key, err := hash.Composite(m.hash, reference, value)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok || !rec.deletableAt.After(m.clock.Now()) {
		return nil, nil
	}

	rec.used++

	return &entity.OTPRecord{
		OTPValue: entity.OTPValue{
			Target:          rec.target,
			Value:           value,
			Reference:       rec.reference,
			ExpiresAt:       rec.expiresAt,
			ResendAllowedAt: rec.resendAllowedAt,
		},
		Used:      rec.used,
		ReceiptID: rec.receiptID,
	}, nil
}

func (m *Memory) MarkAsSent(_ context.Context, reference, value, receiptID string) error {
	key, err := hash.Composite(m.hash, reference, value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.records[key]; ok {
		rec.receiptID = receiptID
	}

	return nil
}

// Purge drops records past their deletable time and elapsed blocks.
func (m *Memory) Purge(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	var n int64
	for key, rec := range m.records {
		if !rec.deletableAt.After(now) {
			delete(m.records, key)
			n++
		}
	}
	for key, until := range m.blocks {
		if !until.After(now) {
			delete(m.blocks, key)
		}
	}

	return n, nil
}
