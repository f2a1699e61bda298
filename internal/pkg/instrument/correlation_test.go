package instrument

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelationID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetCorrelationID(ctx))

	ctx = SetCorrelationID(ctx, "cid-1")
	assert.Equal(t, "cid-1", GetCorrelationID(ctx))
}

func TestBuildMaskKeys(t *testing.T) {
	keys := MaskKeys([]string{" Authorization ", ""})

	for _, k := range []string{"authorization", "otp", "value", "receipt", "secret"} {
		assert.Contains(t, keys, k)
	}
	assert.NotContains(t, keys, "")
}

func TestMaskData(t *testing.T) {
	keys := MaskKeys(nil)

	got := MaskData(map[string]any{
		"reference": "ABCD1234",
		"otp":       "123456",
		"nested":    []any{map[string]any{"receipt": "token"}},
	}, keys)

	assert.Equal(t, map[string]any{
		"reference": "ABCD1234",
		"otp":       "***",
		"nested":    []any{map[string]any{"receipt": "***"}},
	}, got)
}
