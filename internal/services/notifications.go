package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"sakura-backend/internal/models"
)

// OrderChannel is the Redis pub/sub channel order events are published on.
const OrderChannel = "sakura:orders"

const notifyTimeout = 15 * time.Second

// Notifier delivers an accepted order to one channel. Implementations must
// keep customer contact details out of anything they broadcast.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, order models.OrderRequest, event models.OrderEvent) error
}

// OrderDispatcher fans an accepted order out to every configured notifier.
// Delivery happens after the HTTP response and never affects it.
type OrderDispatcher struct {
	notifiers []Notifier
	logger    *slog.Logger
	inflight  sync.WaitGroup
}

func NewOrderDispatcher(logger *slog.Logger, notifiers ...Notifier) *OrderDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	var active []Notifier
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}
	return &OrderDispatcher{notifiers: active, logger: logger}
}

// Channels lists the enabled notifier names.
func (d *OrderDispatcher) Channels() []string {
	names := make([]string, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		names = append(names, n.Name())
	}
	return names
}

// Dispatch delivers in the background with its own timeout.
func (d *OrderDispatcher) Dispatch(order models.OrderRequest, event models.OrderEvent) {
	if len(d.notifiers) == 0 {
		return
	}
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := d.DispatchSync(ctx, order, event); err != nil {
			d.logger.Warn("order notification incomplete", "order_id", event.OrderID, "error", err)
		}
	}()
}

// Drain waits for background deliveries started by Dispatch, or for ctx to
// end, whichever comes first.
func (d *OrderDispatcher) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("order notifications still in flight: %w", ctx.Err())
	}
}

// DispatchSync notifies all channels concurrently and returns the first
// failure. A failing channel does not stop the others.
func (d *OrderDispatcher) DispatchSync(ctx context.Context, order models.OrderRequest, event models.OrderEvent) error {
	var g errgroup.Group
	for _, n := range d.notifiers {
		g.Go(func() error {
			if err := n.Notify(ctx, order, event); err != nil {
				notificationsTotal.WithLabelValues(n.Name(), "error").Inc()
				d.logger.Error("order notification failed", "channel", n.Name(), "order_id", event.OrderID, "error", err)
				return fmt.Errorf("%s: %w", n.Name(), err)
			}
			notificationsTotal.WithLabelValues(n.Name(), "ok").Inc()
			return nil
		})
	}
	return g.Wait()
}

// RedisOrderPublisher publishes order events for the kitchen feed.
type RedisOrderPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisOrderPublisher(client *redis.Client) *RedisOrderPublisher {
	return &RedisOrderPublisher{client: client, channel: OrderChannel}
}

func (p *RedisOrderPublisher) Name() string { return "redis" }

func (p *RedisOrderPublisher) Notify(ctx context.Context, _ models.OrderRequest, event models.OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode order event: %w", err)
	}
	return p.client.Publish(ctx, p.channel, data).Err()
}
