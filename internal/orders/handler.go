package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

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

// Register mounts the order and status routes on mux.
func (h *Handler) Register(mux Router) {
	mux.HandleFunc("GET /statuses", h.HandleListStatuses)
	mux.HandleFunc("GET /orders", h.HandleUserOrders)
	mux.HandleFunc("POST /orders", h.HandleCreate)
	mux.HandleFunc("GET /orders/all", h.HandleListAll)
	mux.HandleFunc("GET /orders/item/{id}", h.HandleGetItem)
	mux.HandleFunc("PUT /orders/item/status", h.HandleUpdateItemsStatus)
	mux.HandleFunc("PUT /orders/item/{id}/cancel", h.HandleCancelItem)
}

func (h *Handler) HandleListStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.service.ListStatuses(r.Context())
	if err != nil {
		h.logger.Error("failed to list statuses", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"statuses": statuses})
}

type createOrderLine struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type createOrderRequest struct {
	AddressID           int64              `json:"address_id"`
	PaymentType         domain.PaymentType `json:"payment_type"`
	CartItems           []createOrderLine  `json:"cart_items"`
	Amount              *decimal.Decimal   `json:"amount"`
	DeliveryFee         *decimal.Decimal   `json:"delivery_fee"`
	PayPalTransactionID *string            `json:"paypal_transaction_id"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lines := make([]PlaceOrderLine, len(req.CartItems))
	for i, item := range req.CartItems {
		lines[i] = PlaceOrderLine{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price}
	}

	orderID, err := h.service.PlaceOrder(r.Context(), PlaceOrderRequest{
		UserID:        userID,
		AddressID:     req.AddressID,
		PaymentType:   req.PaymentType,
		Amount:        req.Amount,
		DeliveryFee:   req.DeliveryFee,
		TransactionID: req.PayPalTransactionID,
		Lines:         lines,
	})
	if errors.Is(err, ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "User, address or product not found")
		return
	}
	if err != nil {
		h.handleError(w, err, "failed to create order", "user_id", userID)
		return
	}

	h.logger.Info("order placed", "order_id", orderID, "user_id", userID)
	h.writeJSON(w, http.StatusCreated, map[string]any{"message": "Order Placed", "order_id": orderID})
}

func (h *Handler) HandleUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	orders, err := h.service.UserOrders(r.Context(), userID)
	if err != nil {
		h.handleError(w, err, "failed to get user orders", "user_id", userID)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// Malformed numbers fall back to defaults, as the admin console expects.
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	filter := OrderFilter{Limit: limit, Offset: offset}

	if v := q.Get("statusId"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			h.writeError(w, http.StatusBadRequest, "invalid statusId")
			return
		}
		filter.StatusID = domain.StatusID(id)
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

	page, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		h.handleError(w, err, "failed to list orders")
		return
	}

	h.logger.Info("orders listed", "count", len(page.Orders), "total", page.TotalCount)
	h.writeJSON(w, http.StatusOK, page)
}

func (h *Handler) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid Order Item Id!")
		return
	}

	item, err := h.service.GetOrderItem(r.Context(), id)
	if err != nil {
		h.handleError(w, err, "failed to get order item", "order_item_id", id)
		return
	}

	h.writeJSON(w, http.StatusOK, item)
}

// Address, amount and payment type are accepted for compatibility with the
// admin console; notification contents are read from the stored order.
type updateItemsStatusRequest struct {
	OrderItemIDs []int64         `json:"order_item_ids"`
	StatusID     domain.StatusID `json:"status_id"`
	OrderID      int64           `json:"order_id"`
	Address      json.RawMessage `json:"address,omitempty"`
	Amount       json.RawMessage `json:"amount,omitempty"`
	PaymentType  string          `json:"paymentType,omitempty"`
}

func (h *Handler) HandleUpdateItemsStatus(w http.ResponseWriter, r *http.Request) {
	var req updateItemsStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.service.ApplyBatchTransition(r.Context(), BatchTransitionRequest{
		OrderID:  req.OrderID,
		ItemIDs:  req.OrderItemIDs,
		StatusID: req.StatusID,
	})
	if err != nil {
		h.handleError(w, err, "failed to update order items status", "order_id", req.OrderID)
		return
	}

	h.logger.Info("order items status updated", "order_id", req.OrderID, "status_id", req.StatusID, "updated", updated)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Successfully updated status of " + strconv.FormatInt(updated, 10) + " order items",
		"updated": updated,
	})
}

type cancelItemRequest struct {
	OrderID int64 `json:"order_id"`
}

func (h *Handler) HandleCancelItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid Order Item Id!")
		return
	}

	var req cancelItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.service.CancelItem(r.Context(), req.OrderID, itemID); err != nil {
		h.handleError(w, err, "failed to cancel order item", "order_id", req.OrderID, "order_item_id", itemID)
		return
	}

	h.logger.Info("order item cancelled", "order_id", req.OrderID, "order_item_id", itemID)
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Order Cancelled Successfully"})
}

func (h *Handler) handleError(w http.ResponseWriter, err error, msg string, attrs ...any) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		h.writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, ErrNotFound):
		h.writeError(w, http.StatusNotFound, "No order items found")
	case errors.Is(err, ErrMixedStatuses), errors.Is(err, ErrComplaintOnly), errors.Is(err, ErrInvalidTransition):
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
