package analytics

import (
	"context"
	"encoding/json"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/surojit-ghosh/url-shortener/internal/infra"
	"golang.org/x/sync/errgroup"
)

// Consumer drains the click queue and hands events to the recorder.
type Consumer struct {
	queue    *infra.Queue
	recorder *Recorder
	workers  int
	logger   *slog.Logger
}

// NewConsumer creates a consumer with the given worker concurrency
func NewConsumer(queue *infra.Queue, recorder *Recorder, workers int, logger *slog.Logger) *Consumer {
	if workers < 1 {
		workers = 1
	}
	return &Consumer{queue: queue, recorder: recorder, workers: workers, logger: logger}
}

// Run consumes until ctx is cancelled. Malformed payloads are acked and
// dropped; a store failure nacks with requeue so another attempt can
// land once the store recovers.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.queue.Channel.Qos(c.workers*2, 0, false); err != nil {
		return err
	}

	deliveries, err := c.queue.Channel.ConsumeWithContext(ctx,
		c.queue.Name,
		"",    // consumer tag
		false, // auto-ack off, we ack per message
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < c.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case d, ok := <-deliveries:
					if !ok {
						return nil
					}
					c.handle(ctx, d)
				}
			}
		})
	}
	return g.Wait()
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var ev ClickEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		c.logger.Warn("dropping malformed click event", slog.String("error", err.Error()))
		d.Ack(false)
		return
	}

	if err := c.recorder.Record(ctx, ev); err != nil {
		c.logger.Error("failed to record click, requeueing",
			slog.String("key", ev.Key),
			slog.String("error", err.Error()))
		d.Nack(false, true)
		return
	}
	d.Ack(false)
}
