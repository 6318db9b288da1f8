package order

import (
	"context"

	"hezora/internal/domain"
)

type CreateOrderInput struct {
	Contact       domain.Contact
	PaymentStatus domain.PaymentStatus
	Lines         []CreateLineInput
}

type CreateLineInput struct {
	BookID   int64
	Quantity int
}

type Repository interface {
	Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
}
