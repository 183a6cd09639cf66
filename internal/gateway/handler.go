package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joao-fontenele/storefront-orders/internal/telemetry"
)

const apiPrefix = "/api"

// Routes exposed by the gateway. Each forwards to the same path on the orders
// service without the /api prefix.
var ordersRoutes = []string{
	"GET /api/statuses",
	"GET /api/orders",
	"POST /api/orders",
	"GET /api/orders/all",
	"GET /api/orders/item/{id}",
	"PUT /api/orders/item/status",
	"PUT /api/orders/item/{id}/cancel",
	"GET /api/complaints",
	"POST /api/complaints",
	"PUT /api/complaints/{id}/status",
}

type Handler struct {
	ordersProxy *ServiceProxy
	logger      *slog.Logger
}

func NewHandler(ordersProxy *ServiceProxy, logger *slog.Logger) *Handler {
	return &Handler{
		ordersProxy: ordersProxy,
		logger:      logger,
	}
}

func (h *Handler) Register(mux *telemetry.RouteMux) {
	for _, pattern := range ordersRoutes {
		mux.HandleFunc(pattern, h.HandleOrders)
	}
}

func (h *Handler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, apiPrefix)
	if path == "" {
		path = "/"
	}
	h.proxyRequest(w, r, h.ordersProxy, path)
}

func (h *Handler) proxyRequest(w http.ResponseWriter, r *http.Request, proxy *ServiceProxy, path string) {
	resp, err := proxy.ForwardRequest(r.Context(), r, path)
	if err != nil {
		h.logger.Error("failed to forward request", "error", err, "path", path)
		h.writeError(w, http.StatusBadGateway, "service unavailable")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if contentType := resp.Header.Get("Content-Type"); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	w.WriteHeader(resp.StatusCode)

	h.logger.Info("request proxied", "method", r.Method, "path", path, "status", resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Error("failed to copy response body", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		h.logger.Error("failed to encode error response", "error", err)
	}
}
