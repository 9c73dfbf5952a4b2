package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"coachly/internal/models"

	"github.com/rs/zerolog"
)

// WebhookGateway delivers payment intents to an external payments service
// over HTTP. The intent id rides along as an idempotency key so replays are
// harmless on the receiving side.
type WebhookGateway struct {
	url    string
	client *http.Client
	logger *zerolog.Logger
}

func NewWebhookGateway(url string, timeout time.Duration, logger *zerolog.Logger) *WebhookGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookGateway{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (g *WebhookGateway) EmitPendingPayment(ctx context.Context, intent models.PaymentIntent) error {
	body, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("marshal payment intent: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", intent.ID)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("post payment intent: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("payment webhook returned status %d", resp.StatusCode)
	}

	g.logger.Debug().
		Str("intent_id", intent.ID).
		Int64("booking_id", intent.BookingID).
		Msg("payment intent delivered")
	return nil
}

// LogGateway is used when no webhook url is configured. It records the
// intent in the log and reports success, which keeps local and test
// environments working without a payments service.
type LogGateway struct {
	logger *zerolog.Logger
}

func NewLogGateway(logger *zerolog.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

func (g *LogGateway) EmitPendingPayment(_ context.Context, intent models.PaymentIntent) error {
	g.logger.Info().
		Str("intent_id", intent.ID).
		Int64("booking_id", intent.BookingID).
		Int64("amount_cents", intent.AmountCents).
		Int64("fee_cents", intent.FeeCents).
		Msg("payment intent (no gateway configured)")
	return nil
}
