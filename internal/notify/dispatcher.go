package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Dispatcher runs notifications in the background so that a slow or failing
// gateway never delays or fails the request that triggered it.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	wg       sync.WaitGroup
	logger   zerolog.Logger
}

// NewDispatcher creates a dispatcher. Each notification gets at most timeout
// to complete.
func NewDispatcher(notifier Notifier, timeout time.Duration, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		timeout:  timeout,
		logger:   logger.With().Str("component", "notify-dispatcher").Logger(),
	}
}

// OrderPlaced schedules a confirmation and returns immediately. Failures are
// logged and dropped.
func (d *Dispatcher) OrderPlaced(ctx context.Context, o OrderPlaced) {
	// Detached from the request so the send outlives the response.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error().
					Interface("panic", r).
					Str("order_id", o.OrderID.String()).
					Msg("notifier panicked")
			}
		}()

		if err := d.notifier.OrderPlaced(ctx, o); err != nil {
			d.logger.Warn().
				Err(err).
				Str("order_id", o.OrderID.String()).
				Msg("order notification failed")
		}
	}()
}

// Wait blocks until all scheduled notifications have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
