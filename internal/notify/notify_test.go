package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

type recordingAck struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *recordingAck) Ack(uint64, bool) error { a.acked = true; return nil }

func (a *recordingAck) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func (a *recordingAck) Reject(_ uint64, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

type stubSender struct {
	got []Receipt
	err error
}

func (s *stubSender) Send(_ context.Context, r Receipt) error {
	s.got = append(s.got, r)
	return s.err
}

func discard() *log.Logger { return log.New(io.Discard, "", 0) }

func TestHandleDeliveryAcksSentReceipt(t *testing.T) {
	ack := &recordingAck{}
	sender := &stubSender{}
	msg := amqp.Delivery{Acknowledger: ack, Body: []byte(`{"orderId":7,"to":"ann@example.com","subject":"s","body":"b"}`)}

	handleDelivery(context.Background(), msg, sender, 0, discard(), 1)

	require.True(t, ack.acked)
	require.Len(t, sender.got, 1)
	require.Equal(t, int64(7), sender.got[0].OrderID)
}

func TestHandleDeliveryDropsMalformed(t *testing.T) {
	ack := &recordingAck{}
	sender := &stubSender{}
	handleDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte(`{`)}, sender, 0, discard(), 1)

	require.True(t, ack.nacked)
	require.False(t, ack.requeue)
	require.Empty(t, sender.got)
}

func TestHandleDeliveryRequeuesOnce(t *testing.T) {
	sender := &stubSender{err: errors.New("smtp down")}
	body := []byte(`{"orderId":1}`)

	first := &recordingAck{}
	handleDelivery(context.Background(), amqp.Delivery{Acknowledger: first, Body: body}, sender, 0, discard(), 1)
	require.True(t, first.nacked)
	require.True(t, first.requeue)

	second := &recordingAck{}
	handleDelivery(context.Background(), amqp.Delivery{Acknowledger: second, Body: body, Redelivered: true}, sender, 0, discard(), 1)
	require.True(t, second.nacked)
	require.False(t, second.requeue)
}

func TestLogSenderWritesReceipt(t *testing.T) {
	var buf bytes.Buffer
	sender := NewLog(log.New(&buf, "", 0))
	require.NoError(t, sender.Send(context.Background(), Receipt{OrderID: 3, To: "x@example.com", Subject: "Hi", Body: "Total: KSH 1"}))
	require.True(t, strings.Contains(buf.String(), "order_id=3"))
	require.True(t, strings.Contains(buf.String(), "Total: KSH 1"))
}

func TestBuildMessageRejectsBadAddress(t *testing.T) {
	_, err := buildMessage(Receipt{From: "shop@example.com", To: "not an address"})
	require.Error(t, err)

	msg, err := buildMessage(Receipt{From: "shop@example.com", To: "ann@example.com", Subject: "Order 1", Body: "hello"})
	require.NoError(t, err)
	require.Equal(t, []string{"Order 1"}, msg.GetGenHeader("Subject"))
}
