package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Worker consumes queued receipts and hands them to a Sender. Each worker owns
// one channel and processes one message at a time with manual acks.
type Worker struct {
	id        int
	channel   *amqp.Channel
	queueName string
	sender    Sender
	timeout   time.Duration
	logger    *log.Logger
}

func NewWorker(id int, conn *amqp.Connection, queueName string, sender Sender, timeout time.Duration, logger *log.Logger) (*Worker, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel for worker %d: %w", id, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("set qos for worker %d: %w", id, err)
	}
	return &Worker{
		id:        id,
		channel:   ch,
		queueName: queueName,
		sender:    sender,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

// Start consumes until the channel or connection is closed.
func (w *Worker) Start(wg *sync.WaitGroup) {
	defer wg.Done()
	defer w.channel.Close()

	msgs, err := w.channel.Consume(
		w.queueName,
		fmt.Sprintf("mailer-%d", w.id),
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		w.logger.Printf("worker %d: register consumer: %v", w.id, err)
		return
	}

	w.logger.Printf("worker %d: waiting for receipts", w.id)
	for msg := range msgs {
		handleDelivery(context.Background(), msg, w.sender, w.timeout, w.logger, w.id)
	}
	w.logger.Printf("worker %d: stopped", w.id)
}

// handleDelivery decodes and sends one receipt. Malformed messages are
// dropped; a failed send is requeued once and dropped on redelivery.
func handleDelivery(ctx context.Context, msg amqp.Delivery, sender Sender, timeout time.Duration, logger *log.Logger, workerID int) {
	var r Receipt
	if err := json.Unmarshal(msg.Body, &r); err != nil {
		logger.Printf("worker %d: malformed receipt: %v", workerID, err)
		_ = msg.Nack(false, false)
		return
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := sender.Send(ctx, r); err != nil {
		requeue := !msg.Redelivered
		logger.Printf("worker %d: send receipt order_id=%d requeue=%t error=%v", workerID, r.OrderID, requeue, err)
		_ = msg.Nack(false, requeue)
		return
	}

	if err := msg.Ack(false); err != nil {
		logger.Printf("worker %d: ack receipt order_id=%d: %v", workerID, r.OrderID, err)
		return
	}
	logger.Printf("worker %d: delivered receipt order_id=%d to=%s", workerID, r.OrderID, r.To)
}
