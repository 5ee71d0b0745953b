package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront/internal/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// ErrNoPhone is returned when the customer has no phone number on record.
var ErrNoPhone = errors.New("no phone number for recipient")

type smsRequest struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"`
	Text string `json:"text"`
}

// SMSNotifier sends order confirmations through an HTTP SMS gateway.
type SMSNotifier struct {
	client     *http.Client
	url        string
	apiKey     string
	sender     string
	maxRetries int
	// initialInterval is the first retry delay.
	initialInterval time.Duration
	logger          zerolog.Logger
}

// NewSMSNotifier creates an SMS notifier from configuration.
func NewSMSNotifier(cfg config.SMSConfig, logger zerolog.Logger) *SMSNotifier {
	return &SMSNotifier{
		client:          &http.Client{Timeout: 10 * time.Second},
		url:             cfg.GatewayURL,
		apiKey:          cfg.APIKey,
		sender:          cfg.Sender,
		maxRetries:      cfg.MaxRetries,
		initialInterval: 500 * time.Millisecond,
		logger:          logger.With().Str("component", "sms-notifier").Logger(),
	}
}

// OrderPlaced sends the confirmation, retrying transient gateway failures
// with exponential backoff. Client errors (4xx) are not retried.
func (n *SMSNotifier) OrderPlaced(ctx context.Context, o OrderPlaced) error {
	if o.Phone == "" {
		return ErrNoPhone
	}

	body, err := json.Marshal(smsRequest{From: n.sender, To: o.Phone, Text: o.Text()})
	if err != nil {
		return fmt.Errorf("failed to encode sms request: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = n.initialInterval
	policy.MaxElapsedTime = 0

	attempt := 0
	operation := func() error {
		attempt++
		return n.send(ctx, body)
	}

	notifyRetry := func(err error, wait time.Duration) {
		n.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("retry_in", wait).
			Str("order_id", o.OrderID.String()).
			Msg("sms gateway call failed, retrying")
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(n.maxRetries)), ctx)
	if err := backoff.RetryNotify(operation, b, notifyRetry); err != nil {
		n.logger.Error().
			Err(err).
			Int("attempts", attempt).
			Str("order_id", o.OrderID.String()).
			Msg("failed to send order confirmation sms")
		return fmt.Errorf("failed to send sms after %d attempts: %w", attempt, err)
	}

	n.logger.Info().
		Int("attempts", attempt).
		Str("order_id", o.OrderID.String()).
		Msg("order confirmation sms sent")

	return nil
}

func (n *SMSNotifier) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to build sms request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if n.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.apiKey)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
		return backoff.Permanent(fmt.Errorf("sms gateway rejected request: status %d", resp.StatusCode))
	default:
		return fmt.Errorf("sms gateway unavailable: status %d", resp.StatusCode)
	}
}
