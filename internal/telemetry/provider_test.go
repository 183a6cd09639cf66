package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func TestRouteMux_SetsHTTPRoute(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	mux := NewRouteMux()
	mux.HandleFunc("GET /orders/item/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	ctx, span := tp.Tracer("test").Start(t.Context(), "request")
	req := httptest.NewRequest(http.MethodGet, "/orders/item/42", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	span.End()

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	want := semconv.HTTPRoute("GET /orders/item/{id}")
	for _, attr := range spans[0].Attributes() {
		if attr == want {
			return
		}
	}
	t.Errorf("expected %v on span, got %v", want, spans[0].Attributes())
}
