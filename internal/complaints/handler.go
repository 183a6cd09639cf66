package complaints

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
	"github.com/joao-fontenele/storefront-orders/internal/identity"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Router is the subset of *http.ServeMux handlers register on.
type Router interface {
	HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request))
}

func (h *Handler) Register(mux Router) {
	mux.HandleFunc("GET /complaints", h.HandleList)
	mux.HandleFunc("POST /complaints", h.HandleFile)
	mux.HandleFunc("PUT /complaints/{id}/status", h.HandleResolve)
}

type fileRequest struct {
	OrderItemID int64  `json:"order_item_id"`
	OrderID     int64  `json:"order_id"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

func (h *Handler) HandleFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req fileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	complaint, err := h.service.File(r.Context(), FileInput{
		OrderItemID: req.OrderItemID,
		OrderID:     req.OrderID,
		UserID:      userID,
		Description: req.Description,
		Image:       req.ImageURL,
	})
	if err != nil {
		h.handleError(w, err, "failed to file complaint", "order_item_id", req.OrderItemID)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{
		"message":   "Complaint registered successfully",
		"complaint": complaint,
	})
}

type resolveRequest struct {
	Status domain.ComplaintStatus `json:"status"`
	UserID int64                  `json:"user_id"`
}

func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid complaint id")
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Anonymous resolutions are accepted; resolved_by stays empty.
	actor, _ := identity.UserID(r.Context())

	complaint, err := h.service.Resolve(r.Context(), ResolveRequest{
		ComplaintID: id,
		FiledBy:     req.UserID,
		ResolvedBy:  actor,
		Decision:    req.Status,
	})
	if err != nil {
		h.handleError(w, err, "failed to resolve complaint", "complaint_id", id)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Complaint status updated",
		"complaint": complaint,
	})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	filter := Filter{
		Status: domain.ComplaintStatus(q.Get("status")),
		Limit:  limit,
		Offset: offset,
	}

	if v := q.Get("from"); v != "" {
		from, err := time.ParseInLocation(time.DateOnly, v, time.Local)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid from date")
			return
		}
		filter.From = &from
	}
	if v := q.Get("to"); v != "" {
		day, err := time.ParseInLocation(time.DateOnly, v, time.Local)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid to date")
			return
		}
		to := day.Add(24*time.Hour - time.Millisecond)
		filter.To = &to
	}

	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.handleError(w, err, "failed to list complaints")
		return
	}

	h.writeJSON(w, http.StatusOK, page)
}

func (h *Handler) handleError(w http.ResponseWriter, err error, msg string, attrs ...any) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		h.writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, ErrNotFound):
		h.writeError(w, http.StatusNotFound, "Complaint or order item not found")
	case errors.Is(err, ErrNotEligible):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error(msg, append([]any{"error", err}, attrs...)...)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
