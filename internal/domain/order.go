package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentCash   PaymentType = "cash"
	PaymentPayPal PaymentType = "paypal"
	PaymentCard   PaymentType = "card"
)

func (p PaymentType) Valid() bool {
	switch p {
	case PaymentCash, PaymentPayPal, PaymentCard:
		return true
	}
	return false
}

// PaidUpfront reports whether the order total, delivery fee included, is
// collected at checkout.
func (p PaymentType) PaidUpfront() bool {
	return p == PaymentPayPal
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

type ComplaintStatus string

const (
	ComplaintNone     ComplaintStatus = "none"
	ComplaintPending  ComplaintStatus = "pending"
	ComplaintAccepted ComplaintStatus = "accepted"
	ComplaintRejected ComplaintStatus = "rejected"
)

type Address struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`
	Phone     string `json:"phone,omitempty"`
}

type Order struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	AddressID     int64           `json:"address_id"`
	PaymentType   PaymentType     `json:"payment_type"`
	Amount        decimal.Decimal `json:"amount"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	TransactionID *string         `json:"transaction_id,omitempty"`
	DeliveryPaid  bool            `json:"delivery_paid"`
	OrderedAt     time.Time       `json:"ordered_at"`
}

// OrderItem is one purchased unit. A quantity of N becomes N rows so each unit
// can be shipped, cancelled or disputed on its own.
type OrderItem struct {
	ID              int64           `json:"id"`
	OrderID         int64           `json:"order_id"`
	ProductID       int64           `json:"product_id"`
	StatusID        StatusID        `json:"status_id"`
	Price           decimal.Decimal `json:"price"`
	ComplaintStatus ComplaintStatus `json:"complaint_status"`
}

// OrderRow is one joined (order x order item) row as read for listings.
type OrderRow struct {
	UserID          int64
	OrderID         int64
	OrderItemID     int64
	ComplaintStatus ComplaintStatus
	Amount          decimal.Decimal
	DeliveryFee     decimal.Decimal
	PaymentType     PaymentType
	OrderedAt       time.Time
	StatusID        StatusID
	StatusName      string
	StatusColor     string
	ProductID       int64
	Name            string
	Category        string
	Image           string
	Price           decimal.Decimal
	Address         Address
}

type LineItem struct {
	ProductID       int64           `json:"product_id"`
	OrderItemID     int64           `json:"order_item_id"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	StatusID        StatusID        `json:"status_id"`
	StatusName      string          `json:"status_name"`
	StatusColor     string          `json:"status_color"`
	ComplaintStatus ComplaintStatus `json:"complaint_status"`
	Price           decimal.Decimal `json:"price"`
	Image           string          `json:"image"`
}

type AggregateStatus struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// OrderView is an order header with its line items, as shown to customers and
// admins.
type OrderView struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	PaymentType PaymentType     `json:"payment_type"`
	OrderedAt   time.Time       `json:"ordered_at"`
	Address     Address         `json:"address"`
	Status      AggregateStatus `json:"status"`
	Items       []LineItem      `json:"items"`
}

// OrderItemDetail is a single order item with its product fields.
type OrderItemDetail struct {
	OrderID  int64           `json:"order_id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Image    string          `json:"image"`
	Price    decimal.Decimal `json:"price"`
}
