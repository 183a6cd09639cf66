package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) ListStatuses(ctx context.Context) ([]domain.Status, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, color
		FROM statuses
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	statuses := []domain.Status{}
	for rows.Next() {
		var s domain.Status
		if err := rows.Scan(&s.ID, &s.Name, &s.Color); err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return statuses, nil
}

// ApplyBatchTransition locks the scoped items, lets authorize veto the move,
// updates them and settles the delivery fee when the order is delivered, all
// in one transaction.
func (r *OrderRepository) ApplyBatchTransition(ctx context.Context, orderID int64, itemIDs []int64, target domain.StatusID, authorize Authorizer) (*BatchResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
		SELECT status_id
		FROM order_items
		WHERE id = ANY($1) AND order_id = $2
		ORDER BY id
		FOR UPDATE
	`, pq.Array(itemIDs), orderID)
	if err != nil {
		return nil, fmt.Errorf("lock order items: %w", err)
	}

	var current []domain.StatusID
	for rows.Next() {
		var id domain.StatusID
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, err
		}
		current = append(current, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	if len(current) == 0 {
		return nil, fmt.Errorf("order %d items %v: %w", orderID, itemIDs, ErrNotFound)
	}

	if authorize != nil {
		if err := authorize(current); err != nil {
			return nil, err
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE order_items
		SET status_id = $1
		WHERE id = ANY($2) AND order_id = $3
	`, target, pq.Array(itemIDs), orderID)
	if err != nil {
		return nil, fmt.Errorf("update order items: %w", err)
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	result := &BatchResult{OrderID: orderID, Updated: updated, From: current[0]}

	var deliveryPaid bool
	err = tx.QueryRowContext(ctx, `
		SELECT o.delivery_paid, o.delivery_fee, o.payment_type, u.email,
		       a.first_name, a.last_name, a.street, a.city, a.state, a.country, a.phone
		FROM orders o
		JOIN users u ON o.user_id = u.id
		JOIN addresses a ON o.address_id = a.id
		WHERE o.id = $1
		FOR UPDATE OF o
	`, orderID).Scan(
		&deliveryPaid, &result.DeliveryFee, &result.PaymentType, &result.Recipient,
		&result.Address.FirstName, &result.Address.LastName, &result.Address.Street,
		&result.Address.City, &result.Address.State, &result.Address.Country, &result.Address.Phone,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("load order: %w", err)
	}

	result.DeliveryFeeDue = !deliveryPaid
	if !deliveryPaid && target == domain.StatusDelivered {
		res, err := tx.ExecContext(ctx, `
			UPDATE orders
			SET delivery_paid = true
			WHERE id = $1 AND delivery_paid = false
		`, orderID)
		if err != nil {
			return nil, fmt.Errorf("settle delivery fee: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		result.Settled = n == 1
	}

	itemRows, err := tx.QueryContext(ctx, `
		SELECT oi.id, p.name, oi.price, COALESCE(p.images[1], '')
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		WHERE oi.id = ANY($1) AND oi.order_id = $2
		ORDER BY oi.id
	`, pq.Array(itemIDs), orderID)
	if err != nil {
		return nil, fmt.Errorf("load updated items: %w", err)
	}
	for itemRows.Next() {
		var item ItemSnapshot
		if err := itemRows.Scan(&item.OrderItemID, &item.Name, &item.Price, &item.Image); err != nil {
			_ = itemRows.Close()
			return nil, err
		}
		result.Items = append(result.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		_ = itemRows.Close()
		return nil, err
	}
	_ = itemRows.Close()

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch transition: %w", err)
	}

	return result, nil
}

// PlaceOrder writes the order, one row per purchased unit, and empties the
// user's cart in one transaction.
func (r *OrderRepository) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*PlacedOrder, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	placed := &PlacedOrder{
		Amount:      in.Amount,
		DeliveryFee: in.DeliveryFee,
		PaymentType: in.PaymentType,
	}

	err = tx.QueryRowContext(ctx, `SELECT email FROM users WHERE id = $1`, in.UserID).Scan(&placed.Recipient)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", in.UserID, ErrNotFound)
		}
		return nil, err
	}

	err = tx.QueryRowContext(ctx, `
		SELECT first_name, last_name, street, city, state, country, phone
		FROM addresses
		WHERE id = $1 AND user_id = $2
	`, in.AddressID, in.UserID).Scan(
		&placed.Address.FirstName, &placed.Address.LastName, &placed.Address.Street,
		&placed.Address.City, &placed.Address.State, &placed.Address.Country, &placed.Address.Phone,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("address %d: %w", in.AddressID, ErrNotFound)
		}
		return nil, err
	}

	paymentStatus := domain.PaymentPending
	if in.PaymentType.PaidUpfront() {
		paymentStatus = domain.PaymentPaid
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, address_id, payment_type, amount, delivery_fee, payment_status, transaction_id, delivery_paid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, in.UserID, in.AddressID, in.PaymentType, in.Amount, in.DeliveryFee, paymentStatus, in.TransactionID, in.PaymentType.PaidUpfront(),
	).Scan(&placed.OrderID)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, line := range in.Lines {
		var name, image string
		err := tx.QueryRowContext(ctx, `
			SELECT name, COALESCE(images[1], '')
			FROM products
			WHERE id = $1
		`, line.ProductID).Scan(&name, &image)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("product %d: %w", line.ProductID, ErrNotFound)
			}
			return nil, err
		}

		for i := 0; i < line.Quantity; i++ {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, product_id, status_id, price)
				VALUES ($1, $2, $3, $4)
			`, placed.OrderID, line.ProductID, domain.StatusOrdered, line.Price)
			if err != nil {
				return nil, fmt.Errorf("insert order item: %w", err)
			}
		}

		placed.Lines = append(placed.Lines, domain.EmailLine{
			Name:     name,
			Quantity: line.Quantity,
			Price:    line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))),
			Image:    image,
		})
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE cart_id = (SELECT id FROM carts WHERE user_id = $1)
	`, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}

	return placed, nil
}

const orderRowsSelect = `
	SELECT
		o.user_id, o.id, oi.id, oi.complaint_status,
		o.amount, o.delivery_fee, o.payment_type, o.ordered_at,
		s.id, s.name, s.color,
		p.id, p.name, p.category, COALESCE(p.images[1], ''), oi.price,
		a.first_name, a.last_name, a.street, a.city, a.state, a.country, a.phone
	FROM orders o
	JOIN order_items oi ON o.id = oi.order_id
	JOIN products p ON oi.product_id = p.id
	JOIN addresses a ON o.address_id = a.id
	JOIN statuses s ON oi.status_id = s.id`

const orderRowsFrom = `
	FROM orders o
	JOIN order_items oi ON o.id = oi.order_id
	JOIN products p ON oi.product_id = p.id
	JOIN addresses a ON o.address_id = a.id
	JOIN statuses s ON oi.status_id = s.id`

func (r *OrderRepository) ListUserOrderRows(ctx context.Context, userID int64) ([]domain.OrderRow, error) {
	return r.queryOrderRows(ctx, orderRowsSelect+`
		WHERE o.user_id = $1
		ORDER BY o.ordered_at DESC, oi.id ASC
	`, userID)
}

// ListOrderRows pages over order item rows. The count is of rows matching the
// filter, not of distinct orders.
func (r *OrderRepository) ListOrderRows(ctx context.Context, filter OrderFilter) ([]domain.OrderRow, int64, error) {
	var conditions []string
	var args []any
	idx := 1

	if filter.StatusID > 0 {
		conditions = append(conditions, fmt.Sprintf("oi.status_id = $%d", idx))
		args = append(args, filter.StatusID)
		idx++
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("o.ordered_at >= $%d", idx))
		args = append(args, *filter.From)
		idx++
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("o.ordered_at <= $%d", idx))
		args = append(args, *filter.To)
		idx++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+orderRowsFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count order rows: %w", err)
	}

	query := orderRowsSelect + where +
		fmt.Sprintf(" ORDER BY o.ordered_at DESC, oi.id ASC LIMIT $%d OFFSET $%d", idx, idx+1)
	rows, err := r.queryOrderRows(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (r *OrderRepository) queryOrderRows(ctx context.Context, query string, args ...any) ([]domain.OrderRow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query order rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.OrderRow
	for rows.Next() {
		var row domain.OrderRow
		err := rows.Scan(
			&row.UserID, &row.OrderID, &row.OrderItemID, &row.ComplaintStatus,
			&row.Amount, &row.DeliveryFee, &row.PaymentType, &row.OrderedAt,
			&row.StatusID, &row.StatusName, &row.StatusColor,
			&row.ProductID, &row.Name, &row.Category, &row.Image, &row.Price,
			&row.Address.FirstName, &row.Address.LastName, &row.Address.Street,
			&row.Address.City, &row.Address.State, &row.Address.Country, &row.Address.Phone,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func (r *OrderRepository) GetOrderItem(ctx context.Context, id int64) (*domain.OrderItemDetail, error) {
	item := &domain.OrderItemDetail{}

	err := r.db.QueryRowContext(ctx, `
		SELECT o.id, p.name, p.category, COALESCE(p.images[1], ''), oi.price
		FROM orders o
		JOIN order_items oi ON o.id = oi.order_id
		JOIN products p ON oi.product_id = p.id
		WHERE oi.id = $1
	`, id).Scan(&item.OrderID, &item.Name, &item.Category, &item.Image, &item.Price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order item %d: %w", id, ErrNotFound)
		}
		return nil, err
	}

	return item, nil
}
