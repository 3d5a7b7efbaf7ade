// Package dbtest opens throwaway sqlite databases carrying the storefront schema.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
)

var schema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		phone TEXT,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		status TEXT NOT NULL DEFAULT 'Allowed',
		address TEXT,
		reset_password_token TEXT,
		reset_password_expire DATETIME,
		last_login_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		images TEXT,
		price TEXT NOT NULL,
		category TEXT NOT NULL,
		stock INTEGER,
		sku TEXT,
		order_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		shipping_address TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		discount_amount TEXT NOT NULL DEFAULT '0',
		payable_amount TEXT NOT NULL,
		coupon_code TEXT,
		status TEXT NOT NULL DEFAULT 'Pending',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE order_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE carts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE cart_items (
		id TEXT PRIMARY KEY,
		cart_id TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
		product_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (cart_id, product_id)
	)`,
	`CREATE TABLE coupons (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		discount_type TEXT NOT NULL,
		discount_value TEXT NOT NULL,
		min_order_amount TEXT NOT NULL DEFAULT '0',
		expires_at DATETIME NOT NULL,
		usage_limit INTEGER NOT NULL DEFAULT 1,
		used_count INTEGER NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE wishlist_items (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		created_at DATETIME,
		UNIQUE (user_id, product_id)
	)`,
	`CREATE TABLE banners (
		id TEXT PRIMARY KEY,
		image TEXT NOT NULL,
		product_id TEXT NOT NULL,
		created_at DATETIME
	)`,
}

// Open returns a private in-memory database with every table created.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return conn
}

// Client wraps Open in a *db.Client.
func Client(t *testing.T) *db.Client {
	t.Helper()
	return db.NewFromGorm(Open(t))
}
