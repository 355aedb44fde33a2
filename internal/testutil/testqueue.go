package testutil

import (
	"context"
	"time"

	"github.com/testcontainers/testcontainers-go"
	rabbitTC "github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/surojit-ghosh/url-shortener/internal/infra"
)

// TestQueue holds test message queue resources
type TestQueue struct {
	Queue     *infra.Queue
	container *rabbitTC.RabbitMQContainer
}

// SetupTestQueue creates a new test RabbitMQ container with the click
// queue declared.
func SetupTestQueue(ctx context.Context, queueName string) (*TestQueue, error) {
	container, err := rabbitTC.Run(ctx,
		"rabbitmq:4-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, err
	}

	connString, err := container.AmqpURL(ctx)
	if err != nil {
		if terr := container.Terminate(ctx); terr != nil {
			err = terr
		}
		return nil, err
	}

	queue, err := infra.NewQueue(connString, queueName)
	if err != nil {
		if terr := container.Terminate(ctx); terr != nil {
			err = terr
		}
		return nil, err
	}

	return &TestQueue{Queue: queue, container: container}, nil
}

// Teardown closes the queue and terminates the container
func (t *TestQueue) Teardown(ctx context.Context) {
	if t.Queue != nil {
		t.Queue.Close()
	}
	if t.container != nil {
		if err := t.container.Terminate(ctx); err != nil {
			return
		}
	}
}
