package orders

import (
	"github.com/google/uuid"

	"github.com/casadaesfiha/storefront-backend/pkg/enums"
	"github.com/casadaesfiha/storefront-backend/pkg/pagination"
)

// CreateOrderInput is what the buyer confirms at checkout. The items come
// from their cart, not from the request.
type CreateOrderInput struct {
	CustomerName    string    `json:"customer_name" validate:"required,max=160"`
	CustomerPhone   string    `json:"customer_phone" validate:"required,max=32"`
	DeliveryAddress string    `json:"delivery_address" validate:"required,max=500"`
	Notes           *string   `json:"notes" validate:"omitempty,max=1000"`
	PaymentMethodID uuid.UUID `json:"payment_method_id" validate:"required"`
}

// ListFilter narrows admin order listings.
type ListFilter struct {
	PaymentStatus     *enums.PaymentStatus
	FulfillmentStatus *enums.FulfillmentStatus
	Pagination        pagination.Params
}

// StatusView pairs a status value with its display metadata so customer and
// admin surfaces render it the same way.
type StatusView struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Tone  string `json:"tone"`
}

// PaymentStatusView returns the display mapping for a payment status.
func PaymentStatusView(status enums.PaymentStatus) StatusView {
	display := status.Display()
	return StatusView{Value: status.String(), Label: display.Label, Tone: display.Tone}
}

// FulfillmentStatusView returns the display mapping for a fulfillment status.
func FulfillmentStatusView(status enums.FulfillmentStatus) StatusView {
	display := status.Display()
	return StatusView{Value: status.String(), Label: display.Label, Tone: display.Tone}
}
