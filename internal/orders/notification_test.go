package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNotifiesCustomer(t *testing.T) {
	for _, id := range []domain.StatusID{domain.StatusShipped, domain.StatusOutForDelivery, domain.StatusDelivered} {
		assert.Truef(t, NotifiesCustomer(id), "status %d", id)
	}
	for _, id := range []domain.StatusID{domain.StatusOrdered, domain.StatusCancelled, domain.StatusComplaintOpen, domain.StatusRefunded, domain.StatusReturned} {
		assert.Falsef(t, NotifiesCustomer(id), "status %d", id)
	}
}

func TestBuildStatusEmail_GroupsByName(t *testing.T) {
	result := &BatchResult{
		OrderID:        42,
		PaymentType:    domain.PaymentCash,
		DeliveryFee:    dec("2.50"),
		DeliveryFeeDue: true,
		Items: []ItemSnapshot{
			{OrderItemID: 1, Name: "Whole Milk", Price: dec("2.25")},
			{OrderItemID: 2, Name: "Organic Apples", Price: dec("3.99")},
			{OrderItemID: 3, Name: "Whole Milk", Price: dec("2.00")},
		},
	}

	email, ok := BuildStatusEmail(domain.StatusDelivered, result)
	require.True(t, ok)

	assert.Equal(t, "Delivered - Order #42", email.Subject)
	assert.Equal(t, "Your order was delivered successfully", email.HeaderMessage)
	require.Len(t, email.OrderItems, 2)

	assert.Equal(t, "Whole Milk", email.OrderItems[0].Name)
	assert.Equal(t, 2, email.OrderItems[0].Quantity)
	assert.True(t, email.OrderItems[0].Price.Equal(dec("4.25")), "got %s", email.OrderItems[0].Price)

	assert.Equal(t, "Organic Apples", email.OrderItems[1].Name)
	assert.Equal(t, 1, email.OrderItems[1].Quantity)

	assert.True(t, email.DeliveryFee.Equal(dec("2.50")))
	assert.True(t, email.Amount.Equal(dec("10.74")), "got %s", email.Amount)
}

func TestBuildStatusEmail_FeeAlreadyCollected(t *testing.T) {
	result := &BatchResult{
		OrderID:        9,
		PaymentType:    domain.PaymentPayPal,
		DeliveryFee:    dec("5.00"),
		DeliveryFeeDue: false,
		Items:          []ItemSnapshot{{Name: "Sourdough Bread", Price: dec("5.00")}},
	}

	email, ok := BuildStatusEmail(domain.StatusShipped, result)
	require.True(t, ok)
	assert.Equal(t, "Order Shipped - Order #9", email.Subject)
	assert.True(t, email.DeliveryFee.IsZero())
	assert.True(t, email.Amount.Equal(dec("5")))
}

func TestBuildStatusEmail_NoEmailForSilentStatuses(t *testing.T) {
	_, ok := BuildStatusEmail(domain.StatusCancelled, &BatchResult{})
	assert.False(t, ok)
}

func TestBuildConfirmationEmail(t *testing.T) {
	email := BuildConfirmationEmail(&PlacedOrder{
		OrderID:     5,
		Amount:      dec("9.99"),
		DeliveryFee: dec("1.00"),
		PaymentType: domain.PaymentCard,
		Lines:       []domain.EmailLine{{Name: "Whole Milk", Quantity: 2, Price: dec("4.50")}},
	})

	assert.Equal(t, domain.StatusOrdered, email.StatusID)
	assert.Equal(t, "Order Confirmation - Order #5", email.Subject)
	assert.Len(t, email.OrderItems, 1)
	assert.True(t, email.Amount.Equal(dec("9.99")))
}
