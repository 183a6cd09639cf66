package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
)

var (
	tracer = otel.Tracer("orders")
	meter  = otel.Meter("orders")
)

// Authorizer vets the current statuses of the scoped items before a batch
// update is written. It runs inside the update transaction.
type Authorizer func(current []domain.StatusID) error

type ItemSnapshot struct {
	OrderItemID int64
	Name        string
	Price       decimal.Decimal
	Image       string
}

// BatchResult describes a committed batch status update.
type BatchResult struct {
	OrderID     int64
	Updated     int64
	From        domain.StatusID
	Recipient   string
	PaymentType domain.PaymentType
	Address     domain.Address
	DeliveryFee decimal.Decimal
	// DeliveryFeeDue is true when the fee was still uncollected before this update.
	DeliveryFeeDue bool
	// Settled is true when this update marked the delivery fee as collected.
	Settled bool
	Items   []ItemSnapshot
}

type PlaceOrderLine struct {
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
}

type PlaceOrderInput struct {
	UserID        int64
	AddressID     int64
	PaymentType   domain.PaymentType
	Amount        decimal.Decimal
	DeliveryFee   decimal.Decimal
	TransactionID *string
	Lines         []PlaceOrderLine
}

type PlacedOrder struct {
	OrderID     int64
	Recipient   string
	Address     domain.Address
	Amount      decimal.Decimal
	DeliveryFee decimal.Decimal
	PaymentType domain.PaymentType
	Lines       []domain.EmailLine
}

type OrderFilter struct {
	StatusID domain.StatusID
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

type OrderPage struct {
	Orders     []domain.OrderView `json:"orders"`
	TotalCount int64              `json:"totalCount"`
}

type Store interface {
	ListStatuses(ctx context.Context) ([]domain.Status, error)
	ApplyBatchTransition(ctx context.Context, orderID int64, itemIDs []int64, target domain.StatusID, authorize Authorizer) (*BatchResult, error)
	PlaceOrder(ctx context.Context, in PlaceOrderInput) (*PlacedOrder, error)
	ListUserOrderRows(ctx context.Context, userID int64) ([]domain.OrderRow, error)
	ListOrderRows(ctx context.Context, filter OrderFilter) ([]domain.OrderRow, int64, error)
	GetOrderItem(ctx context.Context, id int64) (*domain.OrderItemDetail, error)
}

// Notifier delivers order emails. Implementations are best effort.
type Notifier interface {
	SendOrderEmail(ctx context.Context, recipient string, email domain.OrderEmail) error
}

type Service struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger

	transitions   metric.Int64Counter
	settlements   metric.Int64Counter
	notifyFailure metric.Int64Counter

	mu      sync.Mutex
	catalog *domain.Catalog

	notifyTimeout time.Duration
	outbox        chan outboundEmail
	senderOnce    sync.Once
	pending       sync.WaitGroup
}

// MaxLineQuantity caps the units of one cart line; each unit is its own row.
const MaxLineQuantity = 100

const (
	defaultNotifyTimeout = 5 * time.Second
	outboxSize           = 256
)

// NewService wires the order workflow. notifier may be nil, in which case no
// emails are sent.
func NewService(store Store, notifier Notifier, logger *slog.Logger) (*Service, error) {
	transitions, err := meter.Int64Counter("storefront.order_items.transitions",
		metric.WithDescription("Order items moved between fulfillment statuses"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create transitions counter: %w", err)
	}

	settlements, err := meter.Int64Counter("storefront.orders.delivery_fee_settlements",
		metric.WithDescription("Orders whose deferred delivery fee was marked as collected"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create settlements counter: %w", err)
	}

	notifyFailure, err := meter.Int64Counter("storefront.notifications.failures",
		metric.WithDescription("Order emails that could not be dispatched"),
		metric.WithUnit("{email}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create notification failures counter: %w", err)
	}

	return &Service{
		store:         store,
		notifier:      notifier,
		logger:        logger,
		transitions:   transitions,
		settlements:   settlements,
		notifyFailure: notifyFailure,
		notifyTimeout: defaultNotifyTimeout,
		outbox:        make(chan outboundEmail, outboxSize),
	}, nil
}

// Wait blocks until every queued email has been sent, has failed or has timed
// out.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) ListStatuses(ctx context.Context) ([]domain.Status, error) {
	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.List(), nil
}

// loadCatalog reads the status table once and keeps it; statuses are seeded
// reference data. An empty read is not kept.
func (s *Service) loadCatalog(ctx context.Context) (*domain.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.catalog != nil {
		return s.catalog, nil
	}

	statuses, err := s.store.ListStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	catalog := domain.NewCatalog(statuses)
	if len(statuses) > 0 {
		s.catalog = catalog
	}
	return catalog, nil
}

type BatchTransitionRequest struct {
	OrderID  int64
	ItemIDs  []int64
	StatusID domain.StatusID
}

// ApplyBatchTransition moves the listed items of one order to a new status and
// returns how many rows changed. Items outside the order are never touched.
func (s *Service) ApplyBatchTransition(ctx context.Context, req BatchTransitionRequest) (int64, error) {
	if req.StatusID <= 0 {
		return 0, invalid("status is required")
	}
	if req.OrderID <= 0 {
		return 0, invalid("order id is required")
	}
	if len(req.ItemIDs) == 0 {
		return 0, invalid("order item id array is required")
	}
	for _, id := range req.ItemIDs {
		if id <= 0 {
			return 0, invalid("Invalid order item IDs provided")
		}
	}

	ctx, span := tracer.Start(ctx, "orders.ApplyBatchTransition",
		trace.WithAttributes(
			attribute.Int64("order.id", req.OrderID),
			attribute.Int("order.items", len(req.ItemIDs)),
			attribute.Int("order.status_id", int(req.StatusID)),
		),
	)
	defer span.End()

	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	target, ok := catalog.ByID(req.StatusID)
	if !ok {
		return 0, invalid("unknown status")
	}

	authorize := func(current []domain.StatusID) error {
		names := make([]string, len(current))
		for i, id := range current {
			names[i] = catalog.Name(id)
		}
		return AuthorizeBatch(names, target.Name)
	}

	result, err := s.store.ApplyBatchTransition(ctx, req.OrderID, req.ItemIDs, req.StatusID, authorize)
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !isTransitionError(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return 0, err
	}

	s.transitions.Add(ctx, result.Updated, metric.WithAttributes(
		attribute.String("from", catalog.Name(result.From)),
		attribute.String("to", catalog.Name(req.StatusID)),
	))
	if result.Settled {
		s.settlements.Add(ctx, 1)
		s.logger.Info("delivery fee settled", "order_id", req.OrderID, "delivery_fee", result.DeliveryFee.StringFixed(2))
	}

	if email, ok := BuildStatusEmail(req.StatusID, result); ok {
		s.dispatch(ctx, result.Recipient, email)
	}

	return result.Updated, nil
}

// CancelItem cancels one unit of an order.
func (s *Service) CancelItem(ctx context.Context, orderID, itemID int64) (int64, error) {
	return s.ApplyBatchTransition(ctx, BatchTransitionRequest{
		OrderID:  orderID,
		ItemIDs:  []int64{itemID},
		StatusID: domain.StatusCancelled,
	})
}

type PlaceOrderRequest struct {
	UserID        int64
	AddressID     int64
	PaymentType   domain.PaymentType
	Amount        *decimal.Decimal
	DeliveryFee   *decimal.Decimal
	TransactionID *string
	Lines         []PlaceOrderLine
}

func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (int64, error) {
	if req.UserID <= 0 || req.AddressID <= 0 || req.PaymentType == "" ||
		req.Amount == nil || req.DeliveryFee == nil || len(req.Lines) == 0 {
		return 0, invalid("All order fields are required")
	}
	if !req.PaymentType.Valid() {
		return 0, invalid("Invalid payment type")
	}
	for _, l := range req.Lines {
		if l.ProductID <= 0 || l.Quantity < 1 || l.Quantity > MaxLineQuantity || l.Price.IsNegative() {
			return 0, invalid("Invalid cart item data")
		}
	}

	placed, err := s.store.PlaceOrder(ctx, PlaceOrderInput{
		UserID:        req.UserID,
		AddressID:     req.AddressID,
		PaymentType:   req.PaymentType,
		Amount:        *req.Amount,
		DeliveryFee:   *req.DeliveryFee,
		TransactionID: req.TransactionID,
		Lines:         req.Lines,
	})
	if err != nil {
		return 0, err
	}

	s.dispatch(ctx, placed.Recipient, BuildConfirmationEmail(placed))
	return placed.OrderID, nil
}

func (s *Service) UserOrders(ctx context.Context, userID int64) ([]domain.OrderView, error) {
	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListUserOrderRows(ctx, userID)
	if err != nil {
		return nil, err
	}
	return withAggregateStatus(GroupByOrder(rows), catalog), nil
}

func (s *Service) ListOrders(ctx context.Context, filter OrderFilter) (*OrderPage, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	rows, total, err := s.store.ListOrderRows(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &OrderPage{
		Orders:     withAggregateStatus(GroupByOrder(rows), catalog),
		TotalCount: total,
	}, nil
}

func (s *Service) GetOrderItem(ctx context.Context, id int64) (*domain.OrderItemDetail, error) {
	if id <= 0 {
		return nil, invalid("Invalid Order Item Id!")
	}
	return s.store.GetOrderItem(ctx, id)
}

type outboundEmail struct {
	ctx       context.Context
	recipient string
	email     domain.OrderEmail
}

// dispatch queues an email for the background sender once the triggering
// write has committed. It never blocks; a full queue drops the email.
func (s *Service) dispatch(ctx context.Context, recipient string, email domain.OrderEmail) {
	if s.notifier == nil {
		return
	}
	s.senderOnce.Do(func() { go s.sendQueued() })

	s.pending.Add(1)
	select {
	case s.outbox <- outboundEmail{ctx: context.WithoutCancel(ctx), recipient: recipient, email: email}:
	default:
		s.pending.Done()
		s.notifyFailure.Add(ctx, 1, metric.WithAttributes(attribute.Int("status_id", int(email.StatusID))))
		s.logger.Error("order email queue full, dropping email", "order_id", email.OrderID, "status_id", email.StatusID)
	}
}

// sendQueued delivers queued emails one at a time, in commit order.
func (s *Service) sendQueued() {
	for m := range s.outbox {
		s.send(m)
		s.pending.Done()
	}
}

func (s *Service) send(m outboundEmail) {
	ctx, cancel := context.WithTimeout(m.ctx, s.notifyTimeout)
	defer cancel()

	if err := s.notifier.SendOrderEmail(ctx, m.recipient, m.email); err != nil {
		s.notifyFailure.Add(ctx, 1, metric.WithAttributes(attribute.Int("status_id", int(m.email.StatusID))))
		s.logger.Error("failed to send order email", "error", err, "order_id", m.email.OrderID, "status_id", m.email.StatusID)
	}
}

func isTransitionError(err error) bool {
	return errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrMixedStatuses) || errors.Is(err, ErrComplaintOnly)
}
