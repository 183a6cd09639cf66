package messaging

import (
	"context"
	"strconv"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
)

// EventOrderEmail tags messages carrying a domain.OrderEmailEvent.
const EventOrderEmail = "order.email"

type publisher interface {
	Publish(ctx context.Context, key, eventType string, event any) error
}

// NotificationPublisher hands order emails to the notifier through Kafka.
type NotificationPublisher struct {
	publisher publisher
}

func NewNotificationPublisher(p publisher) *NotificationPublisher {
	return &NotificationPublisher{publisher: p}
}

func (n *NotificationPublisher) SendOrderEmail(ctx context.Context, recipient string, email domain.OrderEmail) error {
	return n.publisher.Publish(ctx, strconv.FormatInt(email.OrderID, 10), EventOrderEmail, domain.OrderEmailEvent{
		Recipient: recipient,
		Email:     email,
	})
}
