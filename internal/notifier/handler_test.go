package notifier

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
	"github.com/joao-fontenele/storefront-orders/internal/email"
)

func eventPayload(t *testing.T, recipient string) []byte {
	t.Helper()
	data, err := json.Marshal(domain.OrderEmailEvent{
		Recipient: recipient,
		Email: domain.OrderEmail{
			StatusID: domain.StatusDelivered,
			Subject:  "Delivered - Order #3",
			OrderID:  3,
			Amount:   decimal.RequireFromString("8.00"),
		},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestEmailHandler_Handle(t *testing.T) {
	t.Run("posts to the email service", func(t *testing.T) {
		var got email.SendRequest
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if r.URL.Path != "/send" || r.Method != http.MethodPost {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		h := NewEmailHandler(server.URL, server.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
		if err := h.Handle(context.Background(), eventPayload(t, "jane@example.com")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
		if got.To != "jane@example.com" || got.Subject != "Delivered - Order #3" {
			t.Errorf("unexpected request: %+v", got)
		}
		if !got.Amount.Equal(decimal.RequireFromString("8")) {
			t.Errorf("unexpected amount %s", got.Amount)
		}
	})

	t.Run("does not retry a failed delivery", func(t *testing.T) {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		h := NewEmailHandler(server.URL, server.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
		if err := h.Handle(context.Background(), eventPayload(t, "jane@example.com")); err == nil {
			t.Error("expected an error")
		}
		if calls != 1 {
			t.Errorf("expected exactly 1 attempt, got %d", calls)
		}
	})

	t.Run("skips events without recipient", func(t *testing.T) {
		h := NewEmailHandler("http://unused", http.DefaultClient, slog.New(slog.NewTextHandler(io.Discard, nil)))
		if err := h.Handle(context.Background(), eventPayload(t, "")); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("rejects malformed payload", func(t *testing.T) {
		h := NewEmailHandler("http://unused", http.DefaultClient, slog.New(slog.NewTextHandler(io.Discard, nil)))
		if err := h.Handle(context.Background(), []byte("{")); err == nil {
			t.Error("expected an error")
		}
	})
}
