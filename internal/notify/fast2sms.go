package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"lifelink/internal/platform/metrics"
)

const defaultBulkV2URL = "https://www.fast2sms.com/dev/bulkV2"

// Fast2SMS posts to the Fast2SMS bulkV2 endpoint on the quick route.
type Fast2SMS struct {
	apiKey  string
	url     string
	client  *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Fast2SMSOption func(*Fast2SMS)

// WithBulkV2URL overrides the endpoint, used by tests.
func WithBulkV2URL(url string) Fast2SMSOption {
	return func(f *Fast2SMS) { f.url = url }
}

func WithHTTPClient(client *http.Client) Fast2SMSOption {
	return func(f *Fast2SMS) { f.client = client }
}

func NewFast2SMS(apiKey string, logger *slog.Logger, m *metrics.Metrics, opts ...Fast2SMSOption) *Fast2SMS {
	f := &Fast2SMS{
		apiKey:  apiKey,
		url:     defaultBulkV2URL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
		metrics: m,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type bulkV2Request struct {
	Route    string `json:"route"`
	SenderID string `json:"sender_id"`
	Message  string `json:"message"`
	Language string `json:"language"`
	Flash    int    `json:"flash"`
	Numbers  string `json:"numbers"`
}

type bulkV2Response struct {
	Return     bool            `json:"return"`
	StatusCode int             `json:"status_code"`
	Message    json.RawMessage `json:"message"`
}

// Send delivers one SMS. The destination is normalized to its trailing 10
// digits; the provider signals failure with a non-true "return" field even on
// HTTP 200.
func (f *Fast2SMS) Send(ctx context.Context, to, message string) error {
	if err := f.send(ctx, to, message); err != nil {
		f.metrics.IncNotification("failed")
		return err
	}
	f.metrics.IncNotification("sent")
	return nil
}

func (f *Fast2SMS) send(ctx context.Context, to, message string) error {
	if to == "" || message == "" {
		return fmt.Errorf("destination and message are required")
	}
	number, err := normalizeNumber(to)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(bulkV2Request{
		Route:    "q",
		SenderID: "TXTIND",
		Message:  message,
		Language: "english",
		Flash:    0,
		Numbers:  number,
	})
	if err != nil {
		return fmt.Errorf("encode sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("authorization", f.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("call sms provider: %w", err)
	}
	defer resp.Body.Close()

	var body bulkV2Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode sms response (http %d): %w", resp.StatusCode, err)
	}
	if !body.Return {
		return fmt.Errorf("sms provider rejected send (status %d): %s", body.StatusCode, string(body.Message))
	}

	f.logger.DebugContext(ctx, "sms sent", "to", number)
	return nil
}

// normalizeNumber strips non-digits and keeps the trailing 10, so numbers
// with a country prefix or separators still resolve to the subscriber number.
func normalizeNumber(to string) (string, error) {
	var b strings.Builder
	for _, r := range to {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	if len(digits) != 10 {
		return "", fmt.Errorf("invalid phone number %q: need 10 digits", to)
	}
	return digits, nil
}
