// Package notify sends best-effort customer notifications after an order is
// committed.
package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// OrderPlaced describes a committed order to confirm to the customer.
type OrderPlaced struct {
	OrderID uuid.UUID
	UserID  string
	Phone   string
	Total   decimal.Decimal
}

// Text renders the confirmation message.
func (o OrderPlaced) Text() string {
	return fmt.Sprintf("سفارش شما با کد %s ثبت شد. مبلغ قابل پرداخت: %s تومان",
		shortID(o.OrderID), o.Total.StringFixed(0))
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

// Notifier delivers order notifications.
type Notifier interface {
	OrderPlaced(ctx context.Context, n OrderPlaced) error
}

// logNotifier records notifications instead of sending them.
type logNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier returns a Notifier that only logs. It is used when no SMS
// gateway is configured.
func NewLogNotifier(logger zerolog.Logger) Notifier {
	return &logNotifier{logger: logger.With().Str("component", "log-notifier").Logger()}
}

func (n *logNotifier) OrderPlaced(ctx context.Context, o OrderPlaced) error {
	n.logger.Info().
		Str("order_id", o.OrderID.String()).
		Str("user_id", o.UserID).
		Str("total", o.Total.String()).
		Msg("order confirmation (not sent)")
	return nil
}
