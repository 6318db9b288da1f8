package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"hezora/internal/domain"
)

type PostgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) *PostgresRepo {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &PostgresRepo{pool: pool, logger: logger}
}

// Create stores the order and all of its lines in one transaction.
func (r *PostgresRepo) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if len(in.Lines) == 0 {
		return nil, errors.New("order requires at least one line")
	}
	status := in.PaymentStatus
	if !status.Valid() {
		return nil, fmt.Errorf("invalid payment status %q", status)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var orderID int64
	err = tx.QueryRow(ctx, `
INSERT INTO orders (name, email, address, payment_status)
VALUES ($1, $2, $3, $4)
RETURNING id
`, in.Contact.Name, in.Contact.Email, in.Contact.Address, string(status)).Scan(&orderID)
	if err != nil {
		r.logger.Printf("order repo: insert order email=%s error=%v", in.Contact.Email, err)
		return nil, err
	}

	for _, line := range in.Lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("order line for book %d has quantity %d", line.BookID, line.Quantity)
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO order_items (order_id, book_id, quantity)
VALUES ($1, $2, $3)
`, orderID, line.BookID, line.Quantity); err != nil {
			r.logger.Printf("order repo: insert item order_id=%d book_id=%d error=%v", orderID, line.BookID, err)
			return nil, err
		}
	}

	order, err := fetchOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: created id=%d items=%d", order.ID, len(order.Items))
	return order, nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := fetchOrder(ctx, r.pool, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.Printf("order repo: get id=%d error=%v", id, err)
		}
		return nil, err
	}
	return order, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func fetchOrder(ctx context.Context, q querier, id int64) (*domain.Order, error) {
	var (
		order  domain.Order
		status string
	)
	err := q.QueryRow(ctx, `
SELECT id, name, email, address, payment_status, created_at
FROM orders
WHERE id = $1
`, id).Scan(&order.ID, &order.Contact.Name, &order.Contact.Email, &order.Contact.Address, &status, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	order.PaymentStatus = domain.PaymentStatus(status)

	rows, err := q.Query(ctx, `
SELECT oi.id, oi.order_id, oi.book_id, b.title, b.price::text, oi.quantity
FROM order_items oi
JOIN books b ON b.id = oi.book_id
WHERE oi.order_id = $1
ORDER BY oi.id ASC
`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	order.Items = []domain.OrderItem{}
	for rows.Next() {
		var (
			item  domain.OrderItem
			price string
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.BookID, &item.Title, &price, &item.Quantity); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &order, nil
}
