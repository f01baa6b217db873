package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casadaesfiha/storefront-backend/pkg/enums"
)

// Order is the materialized record produced from a customer's cart at
// checkout. Prices are snapshots; catalog edits after creation do not
// change them.
type Order struct {
	ID                    uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber           int64                   `gorm:"column:order_number;not null;uniqueIndex"`
	UserID                *uuid.UUID              `gorm:"column:user_id;type:uuid;index"`
	CustomerName          string                  `gorm:"column:customer_name;not null"`
	CustomerPhone         string                  `gorm:"column:customer_phone;not null"`
	DeliveryAddress       string                  `gorm:"column:delivery_address;not null"`
	Notes                 *string                 `gorm:"column:notes"`
	PaymentMethod         enums.PaymentMethodType `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus         enums.PaymentStatus     `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	FulfillmentStatus     enums.FulfillmentStatus `gorm:"column:fulfillment_status;type:text;not null;default:'pending'"`
	Subtotal              decimal.Decimal         `gorm:"column:subtotal;type:numeric(10,2);not null"`
	DeliveryFee           decimal.Decimal         `gorm:"column:delivery_fee;type:numeric(10,2);not null"`
	Total                 decimal.Decimal         `gorm:"column:total;type:numeric(10,2);not null"`
	StripePaymentIntentID *string                 `gorm:"column:stripe_payment_intent_id;index"`
	PaidAt                *time.Time              `gorm:"column:paid_at"`
	DeliveredAt           *time.Time              `gorm:"column:delivered_at"`
	CancelledAt           *time.Time              `gorm:"column:cancelled_at"`
	Items                 []OrderItem             `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
