package analytics

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/surojit-ghosh/url-shortener/internal/infra"
)

// Publisher ships click events to the durable click queue.
type Publisher struct {
	queue *infra.Queue
}

// NewPublisher creates a publisher bound to the click queue
func NewPublisher(queue *infra.Queue) *Publisher {
	return &Publisher{queue: queue}
}

// Publish sends one event. Persistent delivery mode so a broker restart
// does not drop queued clicks; the caller decides what a failure means
// (the redirect path logs and moves on).
func (p *Publisher) Publish(ctx context.Context, ev ClickEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return p.queue.Channel.PublishWithContext(ctx,
		"",           // default exchange
		p.queue.Name, // routing key = queue name
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
