package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/shandysiswandi/gotp/internal/otp/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/uid"
)

const (
	defaultWebhookTimeout = 10 * time.Second
	defaultWebhookBackoff = 200 * time.Millisecond
	maxWebhookBackoff     = 5 * time.Second
	maxWebhookResponse    = 1 << 20
)

type WebhookConfig struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
	// MaxRetries counts attempts after the first one.
	MaxRetries uint64
	// Backoff is the first retry delay; it doubles up to five seconds.
	Backoff time.Duration
}

// Webhook posts the delivery event as JSON to a fixed URL.
type Webhook struct {
	cfg    WebhookConfig
	client *http.Client
	body   *Renderer
	uuid   uid.StringID
	ins    instrument.Instrumentation
}

func NewWebhook(cfg WebhookConfig, body *Renderer, uuid uid.StringID, ins instrument.Instrumentation) *Webhook {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultWebhookTimeout
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultWebhookBackoff
	}

	return &Webhook{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		body:   body,
		uuid:   uuid,
		ins:    ins,
	}
}

type webhookResponse struct {
	ID string `json:"id"`
}

func (w *Webhook) SendMessageToAudience(ctx context.Context, otp entity.OTPValue) (_ string, err error) {
	ctx, span := startSpan(ctx, w.ins, "Webhook.SendMessageToAudience")
	defer func() { endSpan(span, err) }()

	text, err := w.body.Render(otp)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(newEvent(otp, text))
	if err != nil {
		return "", err
	}

	b := retry.NewExponential(w.cfg.Backoff)
	b = retry.WithCappedDuration(maxWebhookBackoff, b)
	b = retry.WithMaxRetries(w.cfg.MaxRetries, b)

	var id string
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		var postErr error
		id, postErr = w.post(ctx, payload)
		return postErr
	})
	if err != nil {
		return "", err
	}

	if id == "" {
		id = w.uuid.Generate()
	}

	return id, nil
}

// post returns a retryable error for transport failures and 5xx responses.
func (w *Webhook) post(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if cID := instrument.GetCorrelationID(ctx); cID != "" {
		req.Header.Set(headerCorrelationID, cID)
	}
	for k, v := range w.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return "", retry.RetryableError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxWebhookResponse))
	if err != nil {
		return "", retry.RetryableError(err)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return "", retry.RetryableError(fmt.Errorf("delivery: webhook responded %d", resp.StatusCode))
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return "", fmt.Errorf("delivery: webhook responded %d", resp.StatusCode)
	}

	var body webhookResponse
	if json.Unmarshal(raw, &body) == nil && body.ID != "" {
		return body.ID, nil
	}

	return resp.Header.Get("X-Request-ID"), nil
}
