package catalog

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var catalogDDL = []string{
	`CREATE TABLE categories (
		id text PRIMARY KEY,
		name text NOT NULL UNIQUE,
		sort_order integer NOT NULL DEFAULT 0,
		is_active boolean NOT NULL DEFAULT true,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE products (
		id text PRIMARY KEY,
		category_id text NOT NULL,
		name text NOT NULL,
		description text,
		base_price numeric NOT NULL,
		image_url text,
		is_available boolean NOT NULL DEFAULT true,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE product_options (
		id text PRIMARY KEY,
		product_id text NOT NULL,
		name text NOT NULL,
		required boolean NOT NULL DEFAULT false,
		max_selections integer NOT NULL DEFAULT 1,
		sort_order integer NOT NULL DEFAULT 0,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE option_variations (
		id text PRIMARY KEY,
		option_id text NOT NULL,
		name text NOT NULL,
		price_delta numeric NOT NULL DEFAULT 0,
		sort_order integer NOT NULL DEFAULT 0,
		created_at datetime,
		updated_at datetime
	)`,
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	for _, ddl := range catalogDDL {
		if err := conn.Exec(ddl).Error; err != nil {
			t.Fatalf("failed to create test schema: %v", err)
		}
	}
	return conn
}
