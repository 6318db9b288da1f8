package book

import (
	"context"
	"errors"
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

const bookColumns = `id, title, COALESCE(description, ''), price::text, COALESCE(file_path, ''), created_at`

// List returns every book, newest first.
func (r *PostgresRepo) List(ctx context.Context) ([]domain.Book, error) {
	const q = `
SELECT ` + bookColumns + `
FROM books
ORDER BY created_at DESC, id DESC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Printf("book repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("book repo: list rows error=%v", err)
		return nil, err
	}
	r.logger.Printf("book repo: list count=%d", len(result))
	return result, nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	const q = `
SELECT ` + bookColumns + `
FROM books
WHERE id = $1
`
	b, err := scanBook(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("book repo: get id=%d not found", id)
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("book repo: get id=%d error=%v", id, err)
		return nil, err
	}
	return &b, nil
}

// Upsert inserts a book or updates the existing one with the same title.
func (r *PostgresRepo) Upsert(ctx context.Context, book domain.Book) (*domain.Book, error) {
	const q = `
INSERT INTO books (title, description, price, file_path)
VALUES ($1, NULLIF($2, ''), $3::numeric, NULLIF($4, ''))
ON CONFLICT (title) DO UPDATE SET
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    file_path = EXCLUDED.file_path
RETURNING ` + bookColumns

	res, err := scanBook(r.pool.QueryRow(ctx, q, book.Title, book.Description, book.Price.StringFixed(2), book.FilePath))
	if err != nil {
		r.logger.Printf("book repo: upsert title=%q error=%v", book.Title, err)
		return nil, err
	}
	r.logger.Printf("book repo: upserted title=%q id=%d", res.Title, res.ID)
	return &res, nil
}

// Delete removes a book. Carts may still reference it afterwards.
func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		r.logger.Printf("book repo: delete id=%d error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("book repo: deleted id=%d", id)
	return nil
}

func scanBook(row pgx.Row) (domain.Book, error) {
	var (
		b     domain.Book
		price string
	)
	if err := row.Scan(&b.ID, &b.Title, &b.Description, &price, &b.FilePath, &b.CreatedAt); err != nil {
		return domain.Book{}, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Book{}, err
	}
	b.Price = p
	return b, nil
}
