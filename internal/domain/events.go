package domain

import "github.com/shopspring/decimal"

type EmailLine struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
}

// OrderEmail is the payload handed to the notification collaborator for order
// confirmation and status change emails.
type OrderEmail struct {
	StatusID      StatusID        `json:"status_id"`
	Subject       string          `json:"subject"`
	HeaderMessage string          `json:"header_message"`
	OrderID       int64           `json:"order_id"`
	OrderItems    []EmailLine     `json:"order_items"`
	Address       Address         `json:"address"`
	Amount        decimal.Decimal `json:"amount"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee"`
	PaymentType   PaymentType     `json:"payment_type"`
}

// OrderEmailEvent is the message published for the notifier.
type OrderEmailEvent struct {
	Recipient string     `json:"recipient"`
	Email     OrderEmail `json:"email"`
}
