package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/casadaesfiha/storefront-backend/internal/pricing"
	"github.com/casadaesfiha/storefront-backend/pkg/db/models"
	pkgerrors "github.com/casadaesfiha/storefront-backend/pkg/errors"
	"github.com/casadaesfiha/storefront-backend/pkg/types"
)

const maxLineQuantity = 50

// productLoader is the slice of the catalog the cart needs.
type productLoader interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// AddItemInput is a request to put a product in the cart.
type AddItemInput struct {
	ProductID       uuid.UUID             `json:"product_id" validate:"required"`
	SelectedOptions types.SelectedOptions `json:"selected_options"`
	Quantity        int                   `json:"quantity" validate:"required,min=1"`
}

// Service manages per-customer carts. Unit prices are resolved once, at add
// time, from the product's current price and the selected variations; the
// product name and image are copied at the same moment. A line keeps those
// snapshots until it is removed.
type Service interface {
	Get(ctx context.Context, ownerID string) (*Cart, error)
	AddItem(ctx context.Context, ownerID string, input AddItemInput) (*Cart, error)
	UpdateQuantity(ctx context.Context, ownerID, fingerprint string, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, ownerID, fingerprint string) (*Cart, error)
	Clear(ctx context.Context, ownerID string) error
}

type service struct {
	store    *Store
	products productLoader
}

// NewService builds the cart service.
func NewService(store *Store, products productLoader) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart service requires a store")
	}
	if products == nil {
		return nil, fmt.Errorf("cart service requires a product loader")
	}
	return &service{store: store, products: products}, nil
}

func (s *service) Get(ctx context.Context, ownerID string) (*Cart, error) {
	return s.store.Load(ctx, ownerID)
}

func (s *service) AddItem(ctx context.Context, ownerID string, input AddItemInput) (*Cart, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.products.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("product %q is not available", product.Name))
	}

	selection := input.SelectedOptions.Normalize()
	unitPrice, err := pricing.ResolveUnitPrice(product, selection)
	if err != nil {
		return nil, err
	}
	fingerprint := selection.Fingerprint(product.ID)

	return s.store.Mutate(ctx, ownerID, func(c *Cart) error {
		if line := c.findLine(fingerprint); line != nil {
			if line.Quantity+input.Quantity > maxLineQuantity {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("quantity per item is limited to %d", maxLineQuantity))
			}
			line.Quantity += input.Quantity
			line.UnitPrice = unitPrice
			line.ProductName = product.Name
			line.ImageURL = product.ImageURL
			return nil
		}
		if input.Quantity > maxLineQuantity {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("quantity per item is limited to %d", maxLineQuantity))
		}
		c.Lines = append(c.Lines, Line{
			Fingerprint:     fingerprint,
			ProductID:       product.ID,
			ProductName:     product.Name,
			ImageURL:        product.ImageURL,
			SelectedOptions: selection,
			UnitPrice:       unitPrice,
			Quantity:        input.Quantity,
		})
		return nil
	})
}

func (s *service) UpdateQuantity(ctx context.Context, ownerID, fingerprint string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			"quantity must be at least 1, remove the item instead")
	}
	if quantity > maxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity per item is limited to %d", maxLineQuantity))
	}

	return s.store.Mutate(ctx, ownerID, func(c *Cart) error {
		line := c.findLine(fingerprint)
		if line == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		line.Quantity = quantity
		return nil
	})
}

// RemoveItem drops the line if present. Removing a line that does not exist
// is not an error, the cart already reflects the desired state.
func (s *service) RemoveItem(ctx context.Context, ownerID, fingerprint string) (*Cart, error) {
	return s.store.Mutate(ctx, ownerID, func(c *Cart) error {
		c.removeLine(fingerprint)
		return nil
	})
}

func (s *service) Clear(ctx context.Context, ownerID string) error {
	return s.store.Drop(ctx, ownerID)
}
