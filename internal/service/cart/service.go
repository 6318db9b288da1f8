package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"hezora/internal/domain"
)

type Service struct {
	books bookRepo
}

type bookRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Book, error)
}

func New(books bookRepo) *Service {
	return &Service{books: books}
}

// Line is one resolved cart entry.
type Line struct {
	Book      domain.Book     `json:"book"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// Reconciliation is a cart resolved against the catalog.
type Reconciliation struct {
	Lines   []Line
	Total   decimal.Decimal
	Skipped []int64
}

// View is the read-only projection shown on the cart page.
type View struct {
	Items []Line          `json:"items"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"cartCount"`
}

// Reconcile resolves every cart entry in ascending book id order. Under
// PolicyStrict the first missing book aborts with a DanglingReferenceError;
// under PolicyTolerant missing books are collected in Skipped. Other lookup
// errors always propagate.
func (s *Service) Reconcile(ctx context.Context, cart domain.Cart, policy domain.ReconcilePolicy) (*Reconciliation, error) {
	res := &Reconciliation{Lines: []Line{}, Total: decimal.Zero}
	for _, id := range cart.BookIDs() {
		qty := cart.Quantity(id)
		if qty <= 0 {
			continue
		}
		book, err := s.books.GetByID(ctx, id)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
			if policy == domain.PolicyStrict {
				return nil, &domain.DanglingReferenceError{BookID: id}
			}
			res.Skipped = append(res.Skipped, id)
			continue
		}
		line := Line{Book: *book, Quantity: qty, LineTotal: book.LineTotal(qty)}
		res.Lines = append(res.Lines, line)
		res.Total = res.Total.Add(line.LineTotal)
	}
	return res, nil
}

// View projects the cart for display, silently leaving out books that no
// longer exist. The cart itself is not modified; Count still reflects every
// raw quantity.
func (s *Service) View(ctx context.Context, cart domain.Cart) (*View, error) {
	res, err := s.Reconcile(ctx, cart, domain.PolicyTolerant)
	if err != nil {
		return nil, err
	}
	return &View{Items: res.Lines, Total: res.Total, Count: cart.Count()}, nil
}
