package orders

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
)

type emailContent struct {
	subject string
	header  string
}

var statusEmails = map[domain.StatusID]emailContent{
	domain.StatusShipped:        {subject: "Order Shipped - Order #%d", header: "Your order has been shipped"},
	domain.StatusOutForDelivery: {subject: "Out for Delivery - Order #%d", header: "Your order is out for delivery"},
	domain.StatusDelivered:      {subject: "Delivered - Order #%d", header: "Your order was delivered successfully"},
}

// NotifiesCustomer reports whether moving items to status sends an email.
func NotifiesCustomer(status domain.StatusID) bool {
	_, ok := statusEmails[status]
	return ok
}

// BuildStatusEmail builds the status change email for a committed batch. The
// delivery fee is charged in the email only while it was still outstanding
// before this transition.
func BuildStatusEmail(status domain.StatusID, result *BatchResult) (domain.OrderEmail, bool) {
	content, ok := statusEmails[status]
	if !ok {
		return domain.OrderEmail{}, false
	}

	lines := groupEmailLines(result.Items)
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Price)
	}

	fee := decimal.Zero
	if result.DeliveryFeeDue {
		fee = result.DeliveryFee
	}

	return domain.OrderEmail{
		StatusID:      status,
		Subject:       fmt.Sprintf(content.subject, result.OrderID),
		HeaderMessage: content.header,
		OrderID:       result.OrderID,
		OrderItems:    lines,
		Address:       result.Address,
		Amount:        subtotal.Add(fee),
		DeliveryFee:   fee,
		PaymentType:   result.PaymentType,
	}, true
}

// BuildConfirmationEmail builds the email sent once an order is placed.
func BuildConfirmationEmail(placed *PlacedOrder) domain.OrderEmail {
	return domain.OrderEmail{
		StatusID:      domain.StatusOrdered,
		Subject:       fmt.Sprintf("Order Confirmation - Order #%d", placed.OrderID),
		HeaderMessage: "Thank you for your order",
		OrderID:       placed.OrderID,
		OrderItems:    placed.Lines,
		Address:       placed.Address,
		Amount:        placed.Amount,
		DeliveryFee:   placed.DeliveryFee,
		PaymentType:   placed.PaymentType,
	}
}

// groupEmailLines merges units sharing a product name into one line. Prices
// are summed, so units bought at different prices add up rather than average.
func groupEmailLines(items []ItemSnapshot) []domain.EmailLine {
	index := make(map[string]int)
	lines := []domain.EmailLine{}

	for _, item := range items {
		i, ok := index[item.Name]
		if !ok {
			index[item.Name] = len(lines)
			lines = append(lines, domain.EmailLine{
				Name:     item.Name,
				Quantity: 1,
				Price:    item.Price,
				Image:    item.Image,
			})
			continue
		}
		lines[i].Quantity++
		lines[i].Price = lines[i].Price.Add(item.Price)
	}

	return lines
}
