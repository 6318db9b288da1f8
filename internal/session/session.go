// Package session keeps per-visitor state keyed by an opaque cookie id.
//
// Handlers read and write typed values through Data; the middleware loads the
// data once per request and Save persists it back to the configured Store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"hezora/internal/domain"
)

// ErrNotFound is returned by stores for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Session keys.
const (
	CartKey   = "cart"
	OrdersKey = "orders"
)

// maxRememberedOrders bounds the order ids kept per session.
const maxRememberedOrders = 20

// Store persists session payloads.
type Store interface {
	Load(ctx context.Context, id string) (Data, error)
	Save(ctx context.Context, id string, data Data) error
	Delete(ctx context.Context, id string) error
}

// Data is the decoded session payload: one JSON document per key.
type Data map[string]json.RawMessage

// Get decodes the value stored under key into dst. It reports false when the
// key is absent; dst is left untouched in that case.
func (d Data) Get(key string, dst any) (bool, error) {
	raw, ok := d[key]
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode session key %q: %w", key, err)
	}
	return true, nil
}

// Set encodes v under key.
func (d Data) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode session key %q: %w", key, err)
	}
	d[key] = raw
	return nil
}

func (d Data) clone() Data {
	out := make(Data, len(d))
	for k, v := range d {
		cp := make(json.RawMessage, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// Cart returns the cart held in the session, or an empty cart. A payload that
// cannot be decoded is treated as empty.
func (d Data) Cart() domain.Cart {
	var cart domain.Cart
	ok, err := d.Get(CartKey, &cart)
	if err != nil || !ok {
		return domain.NewCart()
	}
	return cart.Normalize()
}

// SetCart stores the cart under CartKey.
func (d Data) SetCart(cart domain.Cart) error {
	if cart == nil {
		cart = domain.NewCart()
	}
	return d.Set(CartKey, cart)
}

// Orders lists the ids of orders placed from this session, oldest first.
func (d Data) Orders() []int64 {
	var ids []int64
	if ok, err := d.Get(OrdersKey, &ids); err != nil || !ok {
		return nil
	}
	return ids
}

// AddOrder remembers an order id, dropping the oldest beyond the limit.
func (d Data) AddOrder(id int64) error {
	ids := append(d.Orders(), id)
	if len(ids) > maxRememberedOrders {
		ids = ids[len(ids)-maxRememberedOrders:]
	}
	return d.Set(OrdersKey, ids)
}
