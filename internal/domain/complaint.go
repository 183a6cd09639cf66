package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Complaint struct {
	ID          int64           `json:"id"`
	OrderItemID int64           `json:"order_item_id"`
	UserID      int64           `json:"user_id"`
	Description string          `json:"description"`
	Image       string          `json:"image,omitempty"`
	Status      ComplaintStatus `json:"status"`
	ResolvedBy  *int64          `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ComplaintView is a complaint joined with the disputed item and its order.
type ComplaintView struct {
	Complaint
	OrderID         int64           `json:"order_id"`
	ProductName     string          `json:"product_name"`
	ProductCategory string          `json:"product_category"`
	ProductImage    string          `json:"product_image"`
	ProductPrice    decimal.Decimal `json:"product_price"`
}
