package email

import (
	"fmt"
	"strings"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
)

// Render formats an order email as plain text.
func Render(e domain.OrderEmail) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\nOrder #%d\n\n", e.HeaderMessage, e.OrderID)
	for _, line := range e.OrderItems {
		fmt.Fprintf(&b, "  %d x %s  %s\n", line.Quantity, line.Name, line.Price.StringFixed(2))
	}
	if !e.DeliveryFee.IsZero() {
		fmt.Fprintf(&b, "\nDelivery fee: %s", e.DeliveryFee.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s (%s)\n", e.Amount.StringFixed(2), e.PaymentType)

	a := e.Address
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	if name != "" || a.Street != "" {
		fmt.Fprintf(&b, "\nShip to:\n  %s\n  %s\n  %s\n", name, a.Street, joinNonEmpty(", ", a.City, a.State, a.Country))
	}

	return b.String()
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
