package complaints

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
)

var (
	tracer = otel.Tracer("complaints")
	meter  = otel.Meter("complaints")
)

// Eligibility vets the current state of the disputed item. It runs inside the
// filing transaction with the item row locked.
type Eligibility func(status domain.StatusID, complaint domain.ComplaintStatus) error

type FileInput struct {
	OrderItemID int64
	OrderID     int64
	UserID      int64
	Description string
	Image       string
}

type ResolveInput struct {
	ComplaintID int64
	// FiledBy must match the complaint's filer.
	FiledBy    int64
	ResolvedBy int64
	Decision   domain.ComplaintStatus
	Target     domain.StatusID
}

type Filter struct {
	Status domain.ComplaintStatus
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

type Page struct {
	Complaints []domain.ComplaintView `json:"complaints"`
	TotalCount int64                  `json:"totalCount"`
}

type Store interface {
	File(ctx context.Context, in FileInput, eligible Eligibility) (*domain.Complaint, error)
	Resolve(ctx context.Context, in ResolveInput) (*domain.Complaint, error)
	List(ctx context.Context, filter Filter) ([]domain.ComplaintView, int64, error)
}

type Service struct {
	store  Store
	logger *slog.Logger

	filed    metric.Int64Counter
	resolved metric.Int64Counter
}

func NewService(store Store, logger *slog.Logger) (*Service, error) {
	filed, err := meter.Int64Counter("storefront.complaints.filed",
		metric.WithDescription("Complaints filed against delivered order items"),
		metric.WithUnit("{complaint}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create filed counter: %w", err)
	}

	resolved, err := meter.Int64Counter("storefront.complaints.resolved",
		metric.WithDescription("Complaints resolved, by decision"),
		metric.WithUnit("{complaint}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create resolved counter: %w", err)
	}

	return &Service{store: store, logger: logger, filed: filed, resolved: resolved}, nil
}

// File opens a complaint on a delivered item and moves the item to
// complaint open, outside the regular transition table.
func (s *Service) File(ctx context.Context, req FileInput) (*domain.Complaint, error) {
	description := strings.TrimSpace(req.Description)
	if req.OrderItemID <= 0 || req.OrderID <= 0 || req.UserID <= 0 || description == "" {
		return nil, invalid("order item, order and description are required")
	}

	ctx, span := tracer.Start(ctx, "complaints.File", trace.WithAttributes(
		attribute.Int64("order.id", req.OrderID),
		attribute.Int64("order_item.id", req.OrderItemID),
	))
	defer span.End()

	complaint, err := s.store.File(ctx, FileInput{
		OrderItemID: req.OrderItemID,
		OrderID:     req.OrderID,
		UserID:      req.UserID,
		Description: description,
		Image:       strings.TrimSpace(req.Image),
	}, CanFileComplaint)
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrNotEligible) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}

	s.filed.Add(ctx, 1)
	s.logger.Info("complaint filed", "complaint_id", complaint.ID, "order_item_id", req.OrderItemID, "user_id", req.UserID)
	return complaint, nil
}

type ResolveRequest struct {
	ComplaintID int64
	FiledBy     int64
	ResolvedBy  int64
	Decision    domain.ComplaintStatus
}

// Resolve records the decision on a pending complaint and forces the item to
// refunded or back to delivered.
func (s *Service) Resolve(ctx context.Context, req ResolveRequest) (*domain.Complaint, error) {
	if req.ComplaintID <= 0 {
		return nil, invalid("Invalid complaint id")
	}
	if req.FiledBy <= 0 {
		return nil, invalid("user id is required")
	}
	decision := domain.ComplaintStatus(strings.ToLower(strings.TrimSpace(string(req.Decision))))
	target, err := ResolutionTarget(decision)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "complaints.Resolve", trace.WithAttributes(
		attribute.Int64("complaint.id", req.ComplaintID),
		attribute.String("complaint.decision", string(decision)),
	))
	defer span.End()

	complaint, err := s.store.Resolve(ctx, ResolveInput{
		ComplaintID: req.ComplaintID,
		FiledBy:     req.FiledBy,
		ResolvedBy:  req.ResolvedBy,
		Decision:    decision,
		Target:      target,
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}

	s.resolved.Add(ctx, 1, metric.WithAttributes(attribute.String("decision", string(decision))))
	s.logger.Info("complaint resolved",
		"complaint_id", complaint.ID,
		"order_item_id", complaint.OrderItemID,
		"decision", decision,
		"resolved_by", req.ResolvedBy,
	)
	return complaint, nil
}

func (s *Service) List(ctx context.Context, filter Filter) (*Page, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	switch filter.Status {
	case "", domain.ComplaintPending, domain.ComplaintAccepted, domain.ComplaintRejected:
	default:
		return nil, invalid("invalid complaint status filter")
	}

	views, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if views == nil {
		views = []domain.ComplaintView{}
	}
	return &Page{Complaints: views, TotalCount: total}, nil
}
