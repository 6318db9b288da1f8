package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue enqueues receipts for the mailer worker instead of sending them inline.
type Queue struct {
	pool      *ChannelPool
	queueName string
}

func NewQueue(pool *ChannelPool, queueName string) *Queue {
	return &Queue{pool: pool, queueName: queueName}
}

func (q *Queue) Send(ctx context.Context, r Receipt) error {
	ch, err := q.pool.Get()
	if err != nil {
		return fmt.Errorf("get channel: %w", err)
	}
	defer q.pool.Put(ch)

	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}

	err = ch.PublishWithContext(ctx,
		"",          // default exchange
		q.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    fmt.Sprintf("receipt-%d", r.OrderID),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publish receipt %d: %w", r.OrderID, err)
	}
	return nil
}
