package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Fast2SMS {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewFast2SMS("test-key", slog.New(slog.DiscardHandler), nil, WithBulkV2URL(srv.URL))
}

func TestFast2SMSSend(t *testing.T) {
	var got bulkV2Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{"return": true, "request_id": "abc"})
	})

	err := client.Send(context.Background(), "+91 98765-43210", "URGENT: Blood required")
	require.NoError(t, err)

	assert.Equal(t, "9876543210", got.Numbers, "country prefix and separators stripped")
	assert.Equal(t, "q", got.Route)
	assert.Equal(t, "TXTIND", got.SenderID)
	assert.Equal(t, "URGENT: Blood required", got.Message)
}

func TestFast2SMSProviderRejection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"return":      false,
			"status_code": 412,
			"message":     "Invalid Authentication",
		})
	})

	err := client.Send(context.Background(), "9876543210", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid Authentication")
}

func TestFast2SMSInvalidNumber(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("provider must not be called for an invalid number")
	})

	err := client.Send(context.Background(), "12345", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "10 digits")
}

func TestFast2SMSEmptyInput(t *testing.T) {
	client := NewFast2SMS("key", slog.New(slog.DiscardHandler), nil)
	require.Error(t, client.Send(context.Background(), "", "hello"))
	require.Error(t, client.Send(context.Background(), "9876543210", ""))
}

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"9876543210", "9876543210", false},
		{"+919876543210", "9876543210", false},
		{"91 98765 43210", "9876543210", false},
		{"(987) 654-3210", "9876543210", false},
		{"12345", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := normalizeNumber(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
