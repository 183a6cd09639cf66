package complaints

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
	"github.com/joao-fontenele/storefront-orders/internal/identity"
)

func newTestMux(t *testing.T, store *fakeStore) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := NewService(store, logger)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	mux := http.NewServeMux()
	NewHandler(svc, logger).Register(mux)
	return identity.Middleware(mux)
}

func TestHandler_File(t *testing.T) {
	tests := []struct {
		name       string
		user       string
		body       string
		wantStatus int
	}{
		{name: "files complaint", user: "2", body: `{"order_item_id":10,"order_id":1,"description":"bruised"}`, wantStatus: http.StatusCreated},
		{name: "anonymous", body: `{"order_item_id":10,"order_id":1,"description":"bruised"}`, wantStatus: http.StatusUnauthorized},
		{name: "not delivered", user: "2", body: `{"order_item_id":11,"order_id":1,"description":"bruised"}`, wantStatus: http.StatusConflict},
		{name: "unknown item", user: "2", body: `{"order_item_id":99,"order_id":1,"description":"bruised"}`, wantStatus: http.StatusNotFound},
		{name: "missing description", user: "2", body: `{"order_item_id":10,"order_id":1}`, wantStatus: http.StatusBadRequest},
		{name: "malformed", user: "2", body: `[`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := deliveredStore()
			mux := newTestMux(t, store)

			req := httptest.NewRequest(http.MethodPost, "/complaints", strings.NewReader(tt.body))
			if tt.user != "" {
				req.Header.Set(identity.Header, tt.user)
			}
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandler_Resolve(t *testing.T) {
	store := deliveredStore()
	mux := newTestMux(t, store)

	req := httptest.NewRequest(http.MethodPost, "/complaints",
		strings.NewReader(`{"order_item_id":10,"order_id":1,"description":"bruised","image_url":"https://img.example.com/1.jpg"}`))
	req.Header.Set(identity.Header, "2")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var filed struct {
		Complaint domain.Complaint `json:"complaint"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&filed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if filed.Complaint.Image != "https://img.example.com/1.jpg" {
		t.Errorf("unexpected image: %q", filed.Complaint.Image)
	}

	req = httptest.NewRequest(http.MethodPut, "/complaints/1/status", strings.NewReader(`{"status":"ACCEPTED","user_id":2}`))
	req.Header.Set(identity.Header, "1")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := store.item(10).status; got != domain.StatusRefunded {
		t.Errorf("expected refunded, got status %d", got)
	}

	req = httptest.NewRequest(http.MethodPut, "/complaints/1/status", strings.NewReader(`{"status":"rejected","user_id":2}`))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for resolved complaint, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/complaints/x/status", strings.NewReader(`{"status":"rejected","user_id":2}`))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestHandler_List(t *testing.T) {
	store := deliveredStore()
	mux := newTestMux(t, store)

	req := httptest.NewRequest(http.MethodGet, "/complaints?status=pending&limit=5&from=2026-02-01", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.listFilter.Status != domain.ComplaintPending || store.listFilter.Limit != 5 || store.listFilter.From == nil {
		t.Errorf("unexpected filter: %+v", store.listFilter)
	}

	var page Page
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Complaints == nil {
		t.Error("expected an empty list, got null")
	}
}
