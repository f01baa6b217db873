package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casadaesfiha/storefront-backend/pkg/types"
)

// OrderItem captures the snapshot of each cart line within an order.
type OrderItem struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID       *uuid.UUID            `gorm:"column:product_id;type:uuid"`
	ProductName     string                `gorm:"column:product_name;not null"`
	ImageURL        *string               `gorm:"column:image_url"`
	SelectedOptions types.SelectedOptions `gorm:"column:selected_options;type:jsonb;serializer:json"`
	Fingerprint     string                `gorm:"column:fingerprint;not null"`
	UnitPrice       decimal.Decimal       `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Quantity        int                   `gorm:"column:quantity;not null"`
	LineTotal       decimal.Decimal       `gorm:"column:line_total;type:numeric(10,2);not null"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
