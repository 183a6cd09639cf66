package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestNotificationPublisher_SendOrderEmail(t *testing.T) {
	writer := &fakeWriter{}
	pub := NewNotificationPublisher(&Producer{writer: writer, topic: "order.notifications"})

	email := domain.OrderEmail{
		StatusID:    domain.StatusShipped,
		Subject:     "Order Shipped - Order #7",
		OrderID:     7,
		Amount:      decimal.RequireFromString("6.50"),
		PaymentType: domain.PaymentCash,
	}
	if err := pub.SendOrderEmail(context.Background(), "jane@example.com", email); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(writer.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(writer.msgs))
	}
	msg := writer.msgs[0]

	if string(msg.Key) != "7" {
		t.Errorf("expected key 7, got %q", msg.Key)
	}
	if got := header(&msg, HeaderEventType); got != EventOrderEmail {
		t.Errorf("expected event type %q, got %q", EventOrderEmail, got)
	}
	if _, err := uuid.Parse(header(&msg, HeaderEventID)); err != nil {
		t.Errorf("expected uuid event id, got %q", header(&msg, HeaderEventID))
	}

	var event domain.OrderEmailEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if event.Recipient != "jane@example.com" {
		t.Errorf("unexpected recipient %q", event.Recipient)
	}
	if !event.Email.Amount.Equal(decimal.RequireFromString("6.5")) {
		t.Errorf("unexpected amount %s", event.Email.Amount)
	}
}

func TestProducer_PublishError(t *testing.T) {
	boom := errors.New("leader not available")
	p := &Producer{writer: &fakeWriter{err: boom}, topic: "order.notifications"}

	err := p.Publish(context.Background(), "1", EventOrderEmail, map[string]string{})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped writer error, got %v", err)
	}
}

func TestSetHeader(t *testing.T) {
	msg := &kafka.Message{}
	setHeader(msg, "traceparent", "a")
	setHeader(msg, "traceparent", "b")
	setHeader(msg, HeaderEventID, "c")

	if len(msg.Headers) != 2 {
		t.Fatalf("expected 2 headers, got %d", len(msg.Headers))
	}
	if header(msg, "traceparent") != "b" {
		t.Errorf("expected replaced value, got %q", header(msg, "traceparent"))
	}
	keys := newHeaderCarrier(msg).Keys()
	if len(keys) != 2 || keys[0] != "traceparent" || keys[1] != HeaderEventID {
		t.Errorf("unexpected keys %v", keys)
	}
}
