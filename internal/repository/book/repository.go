package book

import (
	"context"

	"hezora/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Book, error)
	GetByID(ctx context.Context, id int64) (*domain.Book, error)
}
