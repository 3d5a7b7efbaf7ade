package models

import "github.com/google/uuid"

// assignID gives a row a client-side uuid so inserts work on drivers
// without gen_random_uuid (sqlite in tests and local runs).
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Product{},
		&Order{},
		&OrderItem{},
		&Cart{},
		&CartItem{},
		&Coupon{},
		&WishlistItem{},
		&Banner{},
	}
}
