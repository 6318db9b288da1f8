package checkout

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"hezora/internal/domain"
)

const tracerName = "hezora/internal/service/checkout"

type checkouter interface {
	Checkout(ctx context.Context, cart domain.Cart, in ContactInput) (*Result, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
}

// Traced wraps the checkout service with spans.
type Traced struct {
	inner  checkouter
	tracer trace.Tracer
}

func NewTraced(inner checkouter, tp trace.TracerProvider) *Traced {
	if tp == nil {
		tp = nooptrace.NewTracerProvider()
	}
	return &Traced{inner: inner, tracer: tp.Tracer(tracerName)}
}

func (t *Traced) Checkout(ctx context.Context, cart domain.Cart, in ContactInput) (*Result, error) {
	ctx, span := t.tracer.Start(ctx, "CheckoutService.Checkout",
		trace.WithAttributes(
			attribute.Int("cart.count", cart.Count()),
			attribute.Int("cart.entries", len(cart)),
		))
	defer span.End()

	res, err := t.inner.Checkout(ctx, cart, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int64("order.id", res.Order.ID),
		attribute.String("order.total", res.Total.StringFixed(2)),
		attribute.Int("order.skipped", len(res.Skipped)),
	)
	return res, nil
}

func (t *Traced) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	ctx, span := t.tracer.Start(ctx, "CheckoutService.GetOrder", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := t.inner.GetOrder(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return order, nil
}
