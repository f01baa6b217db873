package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/casadaesfiha/storefront-backend/pkg/enums"
)

// PaymentMethod is a payment option the store offers at checkout.
type PaymentMethod struct {
	ID           uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Type         enums.PaymentMethodType `gorm:"column:type;type:text;not null;uniqueIndex"`
	Name         string                  `gorm:"column:name;not null"`
	Description  *string                 `gorm:"column:description"`
	Instructions *string                 `gorm:"column:instructions"`
	IsActive     bool                    `gorm:"column:is_active;not null;default:true"`
	SortOrder    int                     `gorm:"column:sort_order;not null;default:0"`
	CreatedAt    time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
