package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a menu listing with its configurable option groups.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID  uuid.UUID       `gorm:"column:category_id;type:uuid;not null;index"`
	Name        string          `gorm:"column:name;not null"`
	Description *string         `gorm:"column:description"`
	BasePrice   decimal.Decimal `gorm:"column:base_price;type:numeric(10,2);not null"`
	ImageURL    *string         `gorm:"column:image_url"`
	IsAvailable bool            `gorm:"column:is_available;not null;default:true"`
	Options     []ProductOption `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductOption is an option group a customer picks variations from.
type ProductOption struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID         `gorm:"column:product_id;type:uuid;not null;index"`
	Name          string            `gorm:"column:name;not null"`
	Required      bool              `gorm:"column:required;not null;default:false"`
	MaxSelections int               `gorm:"column:max_selections;not null;default:1"`
	SortOrder     int               `gorm:"column:sort_order;not null;default:0"`
	Variations    []OptionVariation `gorm:"foreignKey:OptionID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OptionVariation is a selectable value within an option group. PriceDelta
// is added on top of the product base price when selected.
type OptionVariation struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OptionID   uuid.UUID       `gorm:"column:option_id;type:uuid;not null;index"`
	Name       string          `gorm:"column:name;not null"`
	PriceDelta decimal.Decimal `gorm:"column:price_delta;type:numeric(10,2);not null;default:0"`
	SortOrder  int             `gorm:"column:sort_order;not null;default:0"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
