package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
app:
  server:
    cors: "http://a.test, http://b.test"
instrument:
  log_mask_fields:
    - authorization
    - " "
    - cookie
storage:
  purge_interval_seconds: 30
modules:
  otp:
    schemas:
      - name: sms
        otp:
          charset: [digits]
          length: 6
`

func TestViper_Getters(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.GetArray("app.server.cors"))
	assert.Equal(t, []string{"authorization", "cookie"}, cfg.GetArray("instrument.log_mask_fields"))
	assert.Empty(t, cfg.GetArray("missing"))
	assert.Equal(t, 30*time.Second, cfg.GetSecond("storage.purge_interval_seconds"))
	assert.NoError(t, cfg.Close())
}

func TestViper_Unmarshal(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	require.NoError(t, err)

	type spec struct {
		Charset []string `mapstructure:"charset"`
		Length  int      `mapstructure:"length"`
	}
	type schema struct {
		Name string `mapstructure:"name"`
		OTP  spec   `mapstructure:"otp"`
	}

	var schemas []schema
	require.NoError(t, cfg.Unmarshal("modules.otp.schemas", &schemas))
	require.Len(t, schemas, 1)
	assert.Equal(t, "sms", schemas[0].Name)
	assert.Equal(t, spec{Charset: []string{"digits"}, Length: 6}, schemas[0].OTP)

	err = cfg.Unmarshal("modules.otp.delivery_agents", &schemas)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestNewViperFromBytes_RequiresType(t *testing.T) {
	_, err := NewViperFromBytes(" ", nil)
	assert.ErrorIs(t, err, ErrMissingFormat)
}

func TestViper_GetBinary(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte("creds: eyJhIjoxfQ==\nbroken: \"%%%\"\n"))
	require.NoError(t, err)

	assert.Equal(t, []byte(`{"a":1}`), cfg.GetBinary("creds"))
	assert.Nil(t, cfg.GetBinary("broken"))
	assert.Nil(t, cfg.GetBinary("missing"))
}
