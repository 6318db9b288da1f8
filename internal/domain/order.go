package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus records the outcome of the payment step. Checkout does not talk
// to a gateway yet, so new orders are always PaymentPaid.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
	PaymentFailed PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentUnpaid, PaymentPaid, PaymentFailed:
		return true
	}
	return false
}

// Contact holds the customer fields collected by the checkout form.
type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

type Order struct {
	ID            int64         `json:"id"`
	Contact       Contact       `json:"contact"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	CreatedAt     time.Time     `json:"createdAt"`
	Items         []OrderItem   `json:"items"`
}

func (o Order) Paid() bool {
	return o.PaymentStatus == PaymentPaid
}

// Total sums the line totals of all items.
func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"orderId"`
	BookID    int64           `json:"bookId"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// LineTotal is derived from the current book price; it is not stored.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ReconcilePolicy decides what happens when a cart references a book that no
// longer exists in the catalog.
type ReconcilePolicy int

const (
	// PolicyStrict fails the whole operation on the first missing book.
	PolicyStrict ReconcilePolicy = iota
	// PolicyTolerant skips missing books.
	PolicyTolerant
)

func (p ReconcilePolicy) String() string {
	if p == PolicyTolerant {
		return "tolerant"
	}
	return "strict"
}

// ParseReconcilePolicy maps "tolerant" to PolicyTolerant; anything else is strict.
func ParseReconcilePolicy(s string) ReconcilePolicy {
	if s == "tolerant" {
		return PolicyTolerant
	}
	return PolicyStrict
}
