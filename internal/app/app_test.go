package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-key"

type successEnvelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error"`
}

// inbox is a webhook receiver that remembers the last message per reference.
type inbox struct {
	mu       sync.Mutex
	messages map[string]string
}

func (i *inbox) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var event struct {
		Reference string `json:"reference"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	i.mu.Lock()
	i.messages[event.Reference] = event.Message
	i.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"id":"hook-1"}`))
}

func (i *inbox) otp(reference string) string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.messages[reference]
}

const testConfig = `
app:
  api_keys: [test-key]
  server:
    http:
      address: 127.0.0.1:0
instrument:
  enabled: false
storage:
  driver: memory
  digest_secret: app-test-digest
modules:
  otp:
    schemas:
      - name: default
        otp: {charset: [digits], length: 6}
        reference: {charset: [uppercase, digits], length: 8}
        aging:
          success_validate_count: 1
          purge_from_db_in_seconds: 600
          can_resend_in_seconds: 60
          expires_in_seconds: 300
    delivery_agents:
      - name: hook
        driver: webhook
        url: {{URL}}
        template: "{{.OTP}}"
    receipt:
      enabled: true
      issuer: gotp
      audience: [app-test]
      ttl_seconds: 300
      secret: 0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef
`

func startApp(t *testing.T) (string, *inbox) {
	t.Helper()

	box := &inbox{messages: map[string]string{}}
	hook := httptest.NewServer(box)
	t.Cleanup(hook.Close)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(testConfig, "{{URL}}", hook.URL, 1)), 0o600))
	t.Setenv("CONFIG_PATH", path)

	application := New()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	errChan := application.Serve(l)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		application.Stop(ctx)
		assert.ErrorIs(t, <-errChan, http.ErrServerClosed)
	})

	return "http://" + l.Addr().String(), box
}

func doJSON(t *testing.T, baseURL, method, path string, payload any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		buf := &bytes.Buffer{}
		require.NoError(t, json.NewEncoder(buf).Encode(payload))
		body = buf
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", testAPIKey)

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, respBody
}

func decodeSuccess(t *testing.T, body []byte, out any) {
	t.Helper()

	var env successEnvelope
	require.NoError(t, json.Unmarshal(body, &env))
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func decodeError(t *testing.T, body []byte) errorEnvelope {
	t.Helper()

	var env errorEnvelope
	require.NoError(t, json.Unmarshal(body, &env))
	return env
}

func TestApp_OTPLifecycle(t *testing.T) {
	// Arrange
	baseURL, box := startApp(t)
	target := map[string]any{"target": map[string]string{"type": "email", "value": "user@example.com"}}

	// Act: request
	status, body := doJSON(t, baseURL, http.MethodPost, "/api/v1/otp/request", target)

	// Assert
	require.Equal(t, http.StatusOK, status, string(body))
	var requested struct {
		Reference         string `json:"reference"`
		ExpiresAtMS       int64  `json:"expires_at_ms"`
		ResendAllowedAtMS int64  `json:"resend_allowed_at_ms"`
	}
	decodeSuccess(t, body, &requested)
	assert.Regexp(t, `^[A-Z0-9]{8}$`, requested.Reference)
	assert.Greater(t, requested.ExpiresAtMS, requested.ResendAllowedAtMS)

	code := box.otp(requested.Reference)
	require.Regexp(t, `^[0-9]{6}$`, code)
	assert.NotContains(t, string(body), code)

	// a second request inside the resend window is blocked
	status, body = doJSON(t, baseURL, http.MethodPost, "/api/v1/otp/request", target)
	require.Equal(t, http.StatusTooManyRequests, status)
	assert.NotEmpty(t, decodeError(t, body).Error["retry_after_ms"])

	// wrong value looks like an unknown reference
	status, _ = doJSON(t, baseURL, http.MethodPost, "/api/v1/otp/validate",
		map[string]any{"reference": requested.Reference, "otp": "not-it"})
	assert.Equal(t, http.StatusUnauthorized, status)

	// validate with a purpose returns a receipt
	status, body = doJSON(t, baseURL, http.MethodPost, "/api/v1/otp/validate",
		map[string]any{"reference": requested.Reference, "otp": code, "purpose": []string{"login"}})
	require.Equal(t, http.StatusOK, status, string(body))
	var validated struct {
		Used    int    `json:"used"`
		Receipt string `json:"receipt"`
	}
	decodeSuccess(t, body, &validated)
	assert.Equal(t, 1, validated.Used)
	require.NotEmpty(t, validated.Receipt)

	// the OTP is spent
	status, _ = doJSON(t, baseURL, http.MethodPost, "/api/v1/otp/validate",
		map[string]any{"reference": requested.Reference, "otp": code})
	assert.Equal(t, http.StatusForbidden, status)

	// the receipt covers login only
	status, body = doJSON(t, baseURL, http.MethodPost, "/api/v1/otp/receipt/validate",
		map[string]any{"reference": requested.Reference, "receipt": validated.Receipt, "purpose": "login"})
	require.Equal(t, http.StatusOK, status, string(body))
	var receipt struct {
		Target struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"target"`
		Purpose []string `json:"purpose"`
	}
	decodeSuccess(t, body, &receipt)
	assert.Equal(t, "email", receipt.Target.Type)
	assert.Equal(t, "user@example.com", receipt.Target.Value)
	assert.Equal(t, []string{"login"}, receipt.Purpose)

	status, _ = doJSON(t, baseURL, http.MethodPost, "/api/v1/otp/receipt/validate",
		map[string]any{"reference": requested.Reference, "receipt": validated.Receipt, "purpose": "transfer"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doJSON(t, baseURL, http.MethodPost, "/api/v1/otp/receipt/validate",
		map[string]any{"reference": "OTHERREF", "receipt": validated.Receipt, "purpose": "login"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestApp_RejectsMalformedTarget(t *testing.T) {
	baseURL, _ := startApp(t)

	status, body := doJSON(t, baseURL, http.MethodPost, "/api/v1/otp/request",
		map[string]any{"target": map[string]string{"type": "msisdn", "value": "0812"}})

	assert.Equal(t, http.StatusUnprocessableEntity, status, string(body))
}

func TestApp_Health(t *testing.T) {
	baseURL, _ := startApp(t)

	resp, err := http.Get(baseURL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
