package complaints

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// File inserts the complaint and forces the item to complaint open in one
// transaction. The item must belong to the order, and the order to the filer.
func (r *Repository) File(ctx context.Context, in FileInput, eligible Eligibility) (*domain.Complaint, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var status domain.StatusID
	var complaintStatus domain.ComplaintStatus
	err = tx.QueryRowContext(ctx, `
		SELECT oi.status_id, oi.complaint_status
		FROM order_items oi
		JOIN orders o ON oi.order_id = o.id
		WHERE oi.id = $1 AND oi.order_id = $2 AND o.user_id = $3
		FOR UPDATE OF oi
	`, in.OrderItemID, in.OrderID, in.UserID).Scan(&status, &complaintStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order item %d: %w", in.OrderItemID, ErrNotFound)
		}
		return nil, fmt.Errorf("lock order item: %w", err)
	}

	if eligible != nil {
		if err := eligible(status, complaintStatus); err != nil {
			return nil, err
		}
	}

	c := &domain.Complaint{
		OrderItemID: in.OrderItemID,
		UserID:      in.UserID,
		Description: in.Description,
		Image:       in.Image,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO complaints (order_item_id, user_id, description, image)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, created_at
	`, in.OrderItemID, in.UserID, in.Description, in.Image).Scan(&c.ID, &c.Status, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert complaint: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE order_items
		SET status_id = $1, complaint_status = $2
		WHERE id = $3
	`, domain.StatusComplaintOpen, domain.ComplaintPending, in.OrderItemID)
	if err != nil {
		return nil, fmt.Errorf("open complaint on order item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit complaint: %w", err)
	}

	return c, nil
}

// Resolve closes a pending complaint filed by in.FiledBy and forces its item
// to in.Target.
func (r *Repository) Resolve(ctx context.Context, in ResolveInput) (*domain.Complaint, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var resolvedBy sql.NullInt64
	if in.ResolvedBy > 0 {
		resolvedBy = sql.NullInt64{Int64: in.ResolvedBy, Valid: true}
	}

	c := &domain.Complaint{ID: in.ComplaintID}
	var by sql.NullInt64
	var at sql.NullTime
	err = tx.QueryRowContext(ctx, `
		UPDATE complaints
		SET status = $1, resolved_by = $2, resolved_at = NOW()
		WHERE id = $3 AND user_id = $4 AND status = 'pending'
		RETURNING order_item_id, user_id, description, image, status, resolved_by, resolved_at, created_at
	`, in.Decision, resolvedBy, in.ComplaintID, in.FiledBy).Scan(
		&c.OrderItemID, &c.UserID, &c.Description, &c.Image, &c.Status, &by, &at, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("complaint %d: %w", in.ComplaintID, ErrNotFound)
		}
		return nil, fmt.Errorf("update complaint: %w", err)
	}
	if by.Valid {
		c.ResolvedBy = &by.Int64
	}
	if at.Valid {
		c.ResolvedAt = &at.Time
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE order_items
		SET status_id = $1, complaint_status = $2
		WHERE id = $3
	`, in.Target, in.Decision, c.OrderItemID)
	if err != nil {
		return nil, fmt.Errorf("apply resolution to order item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit resolution: %w", err)
	}

	return c, nil
}

const complaintsFrom = `
	FROM complaints c
	JOIN order_items oi ON c.order_item_id = oi.id
	JOIN products p ON oi.product_id = p.id`

func (r *Repository) List(ctx context.Context, filter Filter) ([]domain.ComplaintView, int64, error) {
	var conditions []string
	var args []any
	idx := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", idx))
		args = append(args, filter.Status)
		idx++
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("c.created_at >= $%d", idx))
		args = append(args, *filter.From)
		idx++
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("c.created_at <= $%d", idx))
		args = append(args, *filter.To)
		idx++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+complaintsFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count complaints: %w", err)
	}

	query := `
		SELECT c.id, c.order_item_id, c.user_id, c.description, c.image, c.status,
		       c.resolved_by, c.resolved_at, c.created_at,
		       oi.order_id, p.name, p.category, COALESCE(p.images[1], ''), oi.price` +
		complaintsFrom + where +
		fmt.Sprintf(" ORDER BY c.created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)

	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query complaints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	views := []domain.ComplaintView{}
	for rows.Next() {
		var v domain.ComplaintView
		var by sql.NullInt64
		var at sql.NullTime
		err := rows.Scan(
			&v.ID, &v.OrderItemID, &v.UserID, &v.Description, &v.Image, &v.Status,
			&by, &at, &v.CreatedAt,
			&v.OrderID, &v.ProductName, &v.ProductCategory, &v.ProductImage, &v.ProductPrice,
		)
		if err != nil {
			return nil, 0, err
		}
		if by.Valid {
			v.ResolvedBy = &by.Int64
		}
		if at.Valid {
			v.ResolvedAt = &at.Time
		}
		views = append(views, v)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return views, total, nil
}
