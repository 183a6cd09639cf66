package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
	"github.com/joao-fontenele/storefront-orders/internal/email"
)

// EmailHandler forwards order email events to the email service.
type EmailHandler struct {
	emailServiceURL string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewEmailHandler(emailServiceURL string, client *http.Client, logger *slog.Logger) *EmailHandler {
	return &EmailHandler{
		emailServiceURL: emailServiceURL,
		httpClient:      client,
		logger:          logger,
	}
}

// Handle delivers one event. A failed delivery is reported once and dropped.
func (h *EmailHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderEmailEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order email event: %w", err)
	}

	if event.Recipient == "" {
		h.logger.Warn("order email event without recipient", "order_id", event.Email.OrderID)
		return nil
	}

	if err := h.send(ctx, event); err != nil {
		h.logger.Error("failed to send order email",
			"error", err,
			"order_id", event.Email.OrderID,
			"status_id", event.Email.StatusID,
		)
		return fmt.Errorf("send order email: %w", err)
	}

	h.logger.Info("order email delivered", "order_id", event.Email.OrderID, "status_id", event.Email.StatusID)
	return nil
}

func (h *EmailHandler) send(ctx context.Context, event domain.OrderEmailEvent) error {
	data, err := json.Marshal(email.SendRequest{To: event.Recipient, OrderEmail: event.Email})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
