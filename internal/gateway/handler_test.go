package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joao-fontenele/storefront-orders/internal/telemetry"
)

func newTestGateway(ordersURL string, client *http.Client) http.Handler {
	handler := NewHandler(
		NewServiceProxy(ordersURL, client),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	mux := telemetry.NewRouteMux()
	handler.Register(mux)
	return mux
}

func TestHandler_HandleOrders(t *testing.T) {
	t.Run("strips /api and keeps the query", func(t *testing.T) {
		ordersServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/orders/all" {
				t.Errorf("expected /orders/all, got %s", r.URL.Path)
			}
			if r.URL.Query().Get("statusId") != "2" {
				t.Errorf("expected statusId=2, got %q", r.URL.RawQuery)
			}
			if r.Method != http.MethodGet {
				t.Errorf("expected GET, got %s", r.Method)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"orders":[],"totalCount":0}`))
		}))
		defer ordersServer.Close()

		gw := newTestGateway(ordersServer.URL, ordersServer.Client())

		req := httptest.NewRequest(http.MethodGet, "/api/orders/all?statusId=2", nil)
		rec := httptest.NewRecorder()

		gw.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
		if rec.Header().Get("Content-Type") != "application/json" {
			t.Errorf("expected application/json, got %s", rec.Header().Get("Content-Type"))
		}
		if rec.Body.String() != `{"orders":[],"totalCount":0}` {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("forwards body and caller identity", func(t *testing.T) {
		ordersServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			if string(body) != `{"order_id":1}` {
				t.Errorf("unexpected body: %s", body)
			}
			if r.URL.Path != "/orders/item/10/cancel" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.Header.Get("X-User-ID") != "2" {
				t.Errorf("expected X-User-ID 2, got %q", r.Header.Get("X-User-ID"))
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
		}))
		defer ordersServer.Close()

		gw := newTestGateway(ordersServer.URL, ordersServer.Client())

		req := httptest.NewRequest(http.MethodPut, "/api/orders/item/10/cancel", strings.NewReader(`{"order_id":1}`))
		req.Header.Set("X-User-ID", "2")
		rec := httptest.NewRecorder()

		gw.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
	})

	t.Run("preserves downstream error status", func(t *testing.T) {
		ordersServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"status transition not allowed"}`))
		}))
		defer ordersServer.Close()

		gw := newTestGateway(ordersServer.URL, ordersServer.Client())

		req := httptest.NewRequest(http.MethodPut, "/api/orders/item/status", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()

		gw.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Errorf("expected status 409, got %d", rec.Code)
		}
	})

	t.Run("unknown routes are not proxied", func(t *testing.T) {
		gw := newTestGateway("http://unused", http.DefaultClient)

		req := httptest.NewRequest(http.MethodDelete, "/api/orders/1", nil)
		rec := httptest.NewRecorder()

		gw.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 404 or 405, got %d", rec.Code)
		}
	})

	t.Run("returns 502 when orders service unavailable", func(t *testing.T) {
		gw := newTestGateway("http://localhost:99999", &http.Client{})

		req := httptest.NewRequest(http.MethodGet, "/api/statuses", nil)
		rec := httptest.NewRecorder()

		gw.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected status 502, got %d", rec.Code)
		}

		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["error"] != "service unavailable" {
			t.Errorf("expected 'service unavailable', got %s", resp["error"])
		}
	})
}
