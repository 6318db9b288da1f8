package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Book struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	FilePath    string          `json:"-"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// HasFile reports whether the book references a downloadable asset.
func (b Book) HasFile() bool {
	return strings.TrimSpace(b.FilePath) != ""
}

// LineTotal is the price of quantity copies of the book.
func (b Book) LineTotal(quantity int) decimal.Decimal {
	return b.Price.Mul(decimal.NewFromInt(int64(quantity)))
}
