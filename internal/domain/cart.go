package domain

import "sort"

// Cart maps book ids to the quantity a visitor intends to buy. It lives in
// session state only. Quantities are always >= 1; ids are not checked against
// the catalog until the cart is viewed or checked out.
type Cart map[int64]int

// NewCart returns an empty cart.
func NewCart() Cart {
	return Cart{}
}

// Add returns a copy of the cart with one more copy of bookID.
func (c Cart) Add(bookID int64) Cart {
	out := c.clone()
	out[bookID]++
	return out
}

// Count is the sum of all quantities, regardless of whether the books still exist.
func (c Cart) Count() int {
	total := 0
	for _, qty := range c {
		total += qty
	}
	return total
}

func (c Cart) Quantity(bookID int64) int {
	return c[bookID]
}

func (c Cart) Empty() bool {
	return len(c) == 0
}

// Clear returns an empty cart.
func (c Cart) Clear() Cart {
	return NewCart()
}

// BookIDs lists the ids in ascending order.
func (c Cart) BookIDs() []int64 {
	ids := make([]int64, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Normalize drops entries with a non-positive quantity. Used when a cart is
// decoded from session storage.
func (c Cart) Normalize() Cart {
	out := make(Cart, len(c))
	for id, qty := range c {
		if qty > 0 {
			out[id] = qty
		}
	}
	return out
}

func (c Cart) clone() Cart {
	out := make(Cart, len(c)+1)
	for id, qty := range c {
		out[id] = qty
	}
	return out
}
