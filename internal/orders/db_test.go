package orders

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var ordersDDL = []string{
	`CREATE TABLE orders (
		id text PRIMARY KEY,
		order_number integer NOT NULL UNIQUE,
		user_id text,
		customer_name text NOT NULL,
		customer_phone text NOT NULL,
		delivery_address text NOT NULL,
		notes text,
		payment_method text NOT NULL,
		payment_status text NOT NULL DEFAULT 'pending',
		fulfillment_status text NOT NULL DEFAULT 'pending',
		subtotal numeric NOT NULL,
		delivery_fee numeric NOT NULL,
		total numeric NOT NULL,
		stripe_payment_intent_id text,
		paid_at datetime,
		delivered_at datetime,
		cancelled_at datetime,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE order_items (
		id text PRIMARY KEY,
		order_id text NOT NULL,
		product_id text,
		product_name text NOT NULL,
		image_url text,
		selected_options text,
		fingerprint text NOT NULL,
		unit_price numeric NOT NULL,
		quantity integer NOT NULL,
		line_total numeric NOT NULL,
		created_at datetime,
		updated_at datetime
	)`,
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	for _, ddl := range ordersDDL {
		if err := conn.Exec(ddl).Error; err != nil {
			t.Fatalf("failed to create test schema: %v", err)
		}
	}
	return conn
}
