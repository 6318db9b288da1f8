// Package notify delivers order receipts. Delivery is best-effort: callers
// log failures and carry on.
package notify

import (
	"context"
	"io"
	"log"
)

// Receipt is a plain-text email for one order.
type Receipt struct {
	OrderID int64  `json:"orderId"`
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Sender interface {
	Send(ctx context.Context, r Receipt) error
}

// Log writes receipts to a logger instead of sending them.
type Log struct {
	logger *log.Logger
}

func NewLog(logger *log.Logger) *Log {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Log{logger: logger}
}

func (l *Log) Send(_ context.Context, r Receipt) error {
	l.logger.Printf("notify: receipt order_id=%d to=%s subject=%q\n%s", r.OrderID, r.To, r.Subject, r.Body)
	return nil
}

// Noop drops every receipt.
type Noop struct{}

func (Noop) Send(context.Context, Receipt) error { return nil }
