package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casadaesfiha/storefront-backend/pkg/db/models"
)

// CreateCategoryInput creates a menu category.
type CreateCategoryInput struct {
	Name      string `json:"name" validate:"required,max=120"`
	SortOrder int    `json:"sort_order" validate:"min=0"`
	IsActive  *bool  `json:"is_active"`
}

// ToModel maps the input onto a fresh category row.
func (in CreateCategoryInput) ToModel() *models.Category {
	category := &models.Category{
		ID:        uuid.New(),
		Name:      in.Name,
		SortOrder: in.SortOrder,
		IsActive:  true,
	}
	if in.IsActive != nil {
		category.IsActive = *in.IsActive
	}
	return category
}

// UpdateCategoryInput is a partial category update. Nil fields are untouched.
type UpdateCategoryInput struct {
	Name      *string `json:"name" validate:"omitempty,max=120"`
	SortOrder *int    `json:"sort_order" validate:"omitempty,min=0"`
	IsActive  *bool   `json:"is_active"`
}

// VariationInput is one selectable value inside an option group.
type VariationInput struct {
	Name       string          `json:"name" validate:"required,max=120"`
	PriceDelta decimal.Decimal `json:"price_delta"`
	SortOrder  int             `json:"sort_order" validate:"min=0"`
}

// OptionInput is an option group on a product.
type OptionInput struct {
	Name          string           `json:"name" validate:"required,max=120"`
	Required      bool             `json:"required"`
	MaxSelections int              `json:"max_selections" validate:"min=1"`
	SortOrder     int              `json:"sort_order" validate:"min=0"`
	Variations    []VariationInput `json:"variations" validate:"required,min=1,dive"`
}

// CreateProductInput creates a product with its option tree.
type CreateProductInput struct {
	CategoryID  uuid.UUID     `json:"category_id" validate:"required"`
	Name        string        `json:"name" validate:"required,max=160"`
	Description *string       `json:"description"`
	BasePrice   decimal.Decimal `json:"base_price" validate:"required"`
	ImageURL    *string       `json:"image_url" validate:"omitempty,url"`
	IsAvailable *bool         `json:"is_available"`
	Options     []OptionInput `json:"options" validate:"dive"`
}

// ToModel maps the input onto a fresh product row with its options.
func (in CreateProductInput) ToModel() *models.Product {
	product := &models.Product{
		ID:          uuid.New(),
		CategoryID:  in.CategoryID,
		Name:        in.Name,
		Description: in.Description,
		BasePrice:   in.BasePrice,
		ImageURL:    in.ImageURL,
		IsAvailable: true,
		Options:     buildOptions(in.Options),
	}
	if in.IsAvailable != nil {
		product.IsAvailable = *in.IsAvailable
	}
	return product
}

// UpdateProductInput is a partial product update. A non-nil Options slice
// replaces the whole option tree.
type UpdateProductInput struct {
	CategoryID  *uuid.UUID       `json:"category_id"`
	Name        *string          `json:"name" validate:"omitempty,max=160"`
	Description *string          `json:"description"`
	BasePrice   *decimal.Decimal `json:"base_price"`
	ImageURL    *string          `json:"image_url" validate:"omitempty,url"`
	IsAvailable *bool            `json:"is_available"`
	Options     []OptionInput    `json:"options" validate:"omitempty,dive"`
}

// MenuSection is one category with its available products, ready for the
// storefront menu.
type MenuSection struct {
	Category models.Category  `json:"category"`
	Products []models.Product `json:"products"`
}

func buildOptions(inputs []OptionInput) []models.ProductOption {
	options := make([]models.ProductOption, 0, len(inputs))
	for _, opt := range inputs {
		variations := make([]models.OptionVariation, 0, len(opt.Variations))
		for _, v := range opt.Variations {
			variations = append(variations, models.OptionVariation{
				ID:         uuid.New(),
				Name:       v.Name,
				PriceDelta: v.PriceDelta,
				SortOrder:  v.SortOrder,
			})
		}
		maxSelections := opt.MaxSelections
		if maxSelections < 1 {
			maxSelections = 1
		}
		options = append(options, models.ProductOption{
			ID:            uuid.New(),
			Name:          opt.Name,
			Required:      opt.Required,
			MaxSelections: maxSelections,
			SortOrder:     opt.SortOrder,
			Variations:    variations,
		})
	}
	return options
}
