package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/shandysiswandi/gotp/internal/otp/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/hash"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
)

func TestDecodeRecord(t *testing.T) {
	tests := []struct {
		name    string
		fields  []string
		want    *entity.OTPRecord
		wantErr bool
	}{
		{
			name: "complete",
			fields: []string{
				fieldTargetType, "email",
				fieldTargetValue, "a@b.com",
				fieldTargetUID, "",
				fieldReference, "ABCD1234",
				fieldExpiresAt, "1000",
				fieldResendAllowedAt, "500",
				fieldUsed, "2",
				fieldReceiptID, "msg-1",
			},
			want: &entity.OTPRecord{
				OTPValue: entity.OTPValue{
					Target:          entity.Target{Type: entity.TargetTypeEmail, Value: "a@b.com"},
					Value:           "123456",
					Reference:       "ABCD1234",
					ExpiresAt:       time.UnixMilli(1000),
					ResendAllowedAt: time.UnixMilli(500),
				},
				Used:      2,
				ReceiptID: "msg-1",
			},
		},
		{name: "odd fields", fields: []string{fieldUsed}, wantErr: true},
		{name: "bad used", fields: []string{fieldUsed, "x", fieldExpiresAt, "1", fieldResendAllowedAt, "1"}, wantErr: true},
		{name: "bad expiry", fields: []string{fieldUsed, "1", fieldExpiresAt, "x", fieldResendAllowedAt, "1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeRecord(tt.fields, "123456")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newRedisCache(t *testing.T) (*Cache, *redis.Client) {
	t.Helper()

	if testing.Short() {
		t.Skip("redis integration test")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opt, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	return New(client, "gotp:", hash.NewHMACSHA256("secret"), instrument.NewNoop()), client
}

func sample() entity.OTPValue {
	now := time.Now().Truncate(time.Millisecond)
	return entity.OTPValue{
		Target:          entity.Target{Type: entity.TargetTypeEmail, Value: "a@b.com", UniqueIdentifier: "user-1"},
		Value:           "123456",
		Reference:       "ABCD1234",
		ExpiresAt:       now.Add(5 * time.Minute),
		ResendAllowedAt: now.Add(time.Minute),
	}
}

func TestCache_MarkRequested(t *testing.T) {
	c, _ := newRedisCache(t)
	ctx := context.Background()

	ttl, err := c.MarkRequested(ctx, "user-1", time.Minute)
	require.NoError(t, err)
	assert.Zero(t, ttl)

	ttl, err = c.MarkRequested(ctx, "user-1", time.Minute)
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)
	assert.LessOrEqual(t, ttl, time.Minute)

	require.NoError(t, c.UnmarkRequested(ctx, "user-1"))
	ttl, err = c.MarkRequested(ctx, "user-1", time.Minute)
	require.NoError(t, err)
	assert.Zero(t, ttl)

	ttl, err = c.MarkRequested(ctx, "user-2", 0)
	require.NoError(t, err)
	assert.Zero(t, ttl)
}

func TestCache_MarkRequested_Concurrent(t *testing.T) {
	c, _ := newRedisCache(t)
	ctx := context.Background()

	const n = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ttl, err := c.MarkRequested(ctx, "race", time.Minute)
			if err == nil && ttl == 0 {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, granted)
}

func TestCache_StoreFetchAndUsed(t *testing.T) {
	c, client := newRedisCache(t)
	ctx := context.Background()
	otp := sample()

	require.NoError(t, c.Store(ctx, otp, time.Now().Add(time.Hour)))

	key, err := c.recordKey(otp.Reference, otp.Value)
	require.NoError(t, err)
	stored, err := client.HGetAll(ctx, key).Result()
	require.NoError(t, err)
	for _, v := range stored {
		assert.NotEqual(t, otp.Value, v)
	}

	got, err := c.FetchAndUsed(ctx, otp.Reference, "000000")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = c.FetchAndUsed(ctx, otp.Reference, otp.Value)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Used)
	assert.Equal(t, otp.Target, got.Target)
	assert.True(t, otp.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, c.MarkAsSent(ctx, otp.Reference, otp.Value, "msg-1"))
	got, err = c.FetchAndUsed(ctx, otp.Reference, otp.Value)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Used)
	assert.Equal(t, "msg-1", got.ReceiptID)
}

func TestCache_FetchAndUsed_Concurrent(t *testing.T) {
	c, _ := newRedisCache(t)
	ctx := context.Background()
	otp := sample()
	require.NoError(t, c.Store(ctx, otp, time.Now().Add(time.Hour)))

	const n = 32
	seen := make(chan int, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.FetchAndUsed(ctx, otp.Reference, otp.Value)
			if err == nil && got != nil {
				seen <- got.Used
			}
		}()
	}
	wg.Wait()
	close(seen)

	distinct := make(map[int]struct{}, n)
	for used := range seen {
		distinct[used] = struct{}{}
	}
	assert.Len(t, distinct, n)
}

func TestCache_MarkAsSent_Missing(t *testing.T) {
	c, client := newRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.MarkAsSent(ctx, "NOPE", "123456", "msg-1"))

	key, err := c.recordKey("NOPE", "123456")
	require.NoError(t, err)
	n, err := client.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}
