package domain

import (
	"math/rand"
	"testing"
)

func TestCartAddAccumulates(t *testing.T) {
	cart := NewCart()
	adds := []int64{1, 2, 1, 3, 1}
	for _, id := range adds {
		cart = cart.Add(id)
	}
	if cart.Count() != len(adds) {
		t.Fatalf("expected count %d, got %d", len(adds), cart.Count())
	}
	if cart.Quantity(1) != 3 || cart.Quantity(2) != 1 || cart.Quantity(3) != 1 {
		t.Fatalf("unexpected quantities %v", cart)
	}
}

func TestCartAddReturnsCopy(t *testing.T) {
	original := NewCart().Add(5)
	updated := original.Add(5)
	if original.Quantity(5) != 1 || updated.Quantity(5) != 2 {
		t.Fatalf("Add must not mutate the receiver: %v %v", original, updated)
	}
}

func TestCartCountMatchesAddCalls(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		cart := NewCart()
		want := map[int64]int{}
		n := rng.Intn(40)
		for i := 0; i < n; i++ {
			id := int64(rng.Intn(6) + 1)
			cart = cart.Add(id)
			want[id]++
		}
		if cart.Count() != n {
			t.Fatalf("round %d: expected count %d, got %d", round, n, cart.Count())
		}
		for id, qty := range want {
			if cart.Quantity(id) != qty {
				t.Fatalf("round %d: book %d expected %d, got %d", round, id, qty, cart.Quantity(id))
			}
		}
	}
}

func TestCartClearAndNil(t *testing.T) {
	var absent Cart
	if absent.Count() != 0 || !absent.Empty() {
		t.Fatalf("nil cart should be empty")
	}
	if got := absent.Add(9); got.Quantity(9) != 1 {
		t.Fatalf("adding to nil cart failed: %v", got)
	}
	cleared := NewCart().Add(1).Add(2).Clear()
	if cleared.Count() != 0 || !cleared.Empty() {
		t.Fatalf("expected empty cart after clear, got %v", cleared)
	}
}

func TestCartBookIDsSorted(t *testing.T) {
	ids := Cart{9: 1, 2: 3, 5: 1}.BookIDs()
	if len(ids) != 3 || ids[0] != 2 || ids[1] != 5 || ids[2] != 9 {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestCartNormalizeDropsNonPositive(t *testing.T) {
	got := Cart{1: 2, 2: 0, 3: -1}.Normalize()
	if len(got) != 1 || got.Quantity(1) != 2 {
		t.Fatalf("unexpected normalized cart %v", got)
	}
}
