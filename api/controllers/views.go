package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casadaesfiha/storefront-backend/internal/cart"
	"github.com/casadaesfiha/storefront-backend/internal/catalog"
	"github.com/casadaesfiha/storefront-backend/internal/orders"
	"github.com/casadaesfiha/storefront-backend/pkg/db/models"
	"github.com/casadaesfiha/storefront-backend/pkg/types"
)

type categoryView struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sort_order"`
	IsActive  bool      `json:"is_active"`
}

type variationView struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	PriceDelta decimal.Decimal `json:"price_delta"`
	SortOrder  int             `json:"sort_order"`
}

type optionView struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Required      bool            `json:"required"`
	MaxSelections int             `json:"max_selections"`
	SortOrder     int             `json:"sort_order"`
	Variations    []variationView `json:"variations"`
}

type productView struct {
	ID          uuid.UUID       `json:"id"`
	CategoryID  uuid.UUID       `json:"category_id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	BasePrice   decimal.Decimal `json:"base_price"`
	ImageURL    *string         `json:"image_url,omitempty"`
	IsAvailable bool            `json:"is_available"`
	Options     []optionView    `json:"options"`
}

type menuSectionView struct {
	Category categoryView  `json:"category"`
	Products []productView `json:"products"`
}

type paymentMethodView struct {
	ID           uuid.UUID `json:"id"`
	Type         string    `json:"type"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	Instructions *string   `json:"instructions,omitempty"`
	IsActive     bool      `json:"is_active"`
	SortOrder    int       `json:"sort_order"`
}

type cartLineView struct {
	Fingerprint     string                `json:"fingerprint"`
	ProductID       uuid.UUID             `json:"product_id"`
	ProductName     string                `json:"product_name"`
	ImageURL        *string               `json:"image_url,omitempty"`
	SelectedOptions types.SelectedOptions `json:"selected_options,omitempty"`
	UnitPrice       decimal.Decimal       `json:"unit_price"`
	Quantity        int                   `json:"quantity"`
	LineTotal       decimal.Decimal       `json:"line_total"`
}

// cartView flattens the cart's derived aggregates into fields so clients
// see subtotal and item count without recomputing them.
type cartView struct {
	Lines     []cartLineView  `json:"lines"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int             `json:"item_count"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func newCartView(c *cart.Cart) cartView {
	lines := make([]cartLineView, 0, len(c.Lines))
	for _, line := range c.Lines {
		lines = append(lines, cartLineView{
			Fingerprint:     line.Fingerprint,
			ProductID:       line.ProductID,
			ProductName:     line.ProductName,
			ImageURL:        line.ImageURL,
			SelectedOptions: line.SelectedOptions,
			UnitPrice:       line.UnitPrice,
			Quantity:        line.Quantity,
			LineTotal:       line.Total(),
		})
	}
	return cartView{
		Lines:     lines,
		Subtotal:  c.Subtotal(),
		ItemCount: c.ItemCount(),
		UpdatedAt: c.UpdatedAt,
	}
}

type orderItemView struct {
	ID              uuid.UUID             `json:"id"`
	ProductID       *uuid.UUID            `json:"product_id,omitempty"`
	ProductName     string                `json:"product_name"`
	ImageURL        *string               `json:"image_url,omitempty"`
	SelectedOptions types.SelectedOptions `json:"selected_options,omitempty"`
	UnitPrice       decimal.Decimal       `json:"unit_price"`
	Quantity        int                   `json:"quantity"`
	LineTotal       decimal.Decimal       `json:"line_total"`
}

type orderView struct {
	ID                uuid.UUID         `json:"id"`
	OrderNumber       int64             `json:"order_number"`
	CustomerName      string            `json:"customer_name"`
	CustomerPhone     string            `json:"customer_phone"`
	DeliveryAddress   string            `json:"delivery_address"`
	Notes             *string           `json:"notes,omitempty"`
	PaymentMethod     string            `json:"payment_method"`
	PaymentStatus     orders.StatusView `json:"payment_status"`
	FulfillmentStatus orders.StatusView `json:"fulfillment_status"`
	Subtotal          decimal.Decimal   `json:"subtotal"`
	DeliveryFee       decimal.Decimal   `json:"delivery_fee"`
	Total             decimal.Decimal   `json:"total"`
	PaidAt            *time.Time        `json:"paid_at,omitempty"`
	DeliveredAt       *time.Time        `json:"delivered_at,omitempty"`
	CancelledAt       *time.Time        `json:"cancelled_at,omitempty"`
	Items             []orderItemView   `json:"items"`
	CreatedAt         time.Time         `json:"created_at"`
}

func newCategoryView(category models.Category) categoryView {
	return categoryView{
		ID:        category.ID,
		Name:      category.Name,
		SortOrder: category.SortOrder,
		IsActive:  category.IsActive,
	}
}

func newProductView(product models.Product) productView {
	options := make([]optionView, 0, len(product.Options))
	for _, option := range product.Options {
		variations := make([]variationView, 0, len(option.Variations))
		for _, variation := range option.Variations {
			variations = append(variations, variationView{
				ID:         variation.ID,
				Name:       variation.Name,
				PriceDelta: variation.PriceDelta,
				SortOrder:  variation.SortOrder,
			})
		}
		options = append(options, optionView{
			ID:            option.ID,
			Name:          option.Name,
			Required:      option.Required,
			MaxSelections: option.MaxSelections,
			SortOrder:     option.SortOrder,
			Variations:    variations,
		})
	}
	return productView{
		ID:          product.ID,
		CategoryID:  product.CategoryID,
		Name:        product.Name,
		Description: product.Description,
		BasePrice:   product.BasePrice,
		ImageURL:    product.ImageURL,
		IsAvailable: product.IsAvailable,
		Options:     options,
	}
}

func newProductViews(products []models.Product) []productView {
	views := make([]productView, 0, len(products))
	for _, product := range products {
		views = append(views, newProductView(product))
	}
	return views
}

func newMenuView(sections []catalog.MenuSection) []menuSectionView {
	views := make([]menuSectionView, 0, len(sections))
	for _, section := range sections {
		views = append(views, menuSectionView{
			Category: newCategoryView(section.Category),
			Products: newProductViews(section.Products),
		})
	}
	return views
}

func newPaymentMethodView(method models.PaymentMethod) paymentMethodView {
	return paymentMethodView{
		ID:           method.ID,
		Type:         string(method.Type),
		Name:         method.Name,
		Description:  method.Description,
		Instructions: method.Instructions,
		IsActive:     method.IsActive,
		SortOrder:    method.SortOrder,
	}
}

func newPaymentMethodViews(methods []models.PaymentMethod) []paymentMethodView {
	views := make([]paymentMethodView, 0, len(methods))
	for _, method := range methods {
		views = append(views, newPaymentMethodView(method))
	}
	return views
}

func newOrderView(order *models.Order) orderView {
	items := make([]orderItemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemView{
			ID:              item.ID,
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			ImageURL:        item.ImageURL,
			SelectedOptions: item.SelectedOptions,
			UnitPrice:       item.UnitPrice,
			Quantity:        item.Quantity,
			LineTotal:       item.LineTotal,
		})
	}
	return orderView{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		CustomerName:      order.CustomerName,
		CustomerPhone:     order.CustomerPhone,
		DeliveryAddress:   order.DeliveryAddress,
		Notes:             order.Notes,
		PaymentMethod:     string(order.PaymentMethod),
		PaymentStatus:     orders.PaymentStatusView(order.PaymentStatus),
		FulfillmentStatus: orders.FulfillmentStatusView(order.FulfillmentStatus),
		Subtotal:          order.Subtotal,
		DeliveryFee:       order.DeliveryFee,
		Total:             order.Total,
		PaidAt:            order.PaidAt,
		DeliveredAt:       order.DeliveredAt,
		CancelledAt:       order.CancelledAt,
		Items:             items,
		CreatedAt:         order.CreatedAt,
	}
}

func newOrderViews(records []models.Order) []orderView {
	views := make([]orderView, 0, len(records))
	for i := range records {
		views = append(views, newOrderView(&records[i]))
	}
	return views
}
