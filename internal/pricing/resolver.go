package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/casadaesfiha/storefront-backend/pkg/db/models"
	pkgerrors "github.com/casadaesfiha/storefront-backend/pkg/errors"
	"github.com/casadaesfiha/storefront-backend/pkg/types"
)

// PriceTable indexes a product's option groups so selections can be resolved
// without rescanning the nested catalog structures.
type PriceTable struct {
	base   decimal.Decimal
	groups map[string]optionGroup
}

type optionGroup struct {
	required      bool
	maxSelections int
	deltas        map[string]decimal.Decimal
}

// BuildPriceTable flattens the product's options into a lookup table.
func BuildPriceTable(product *models.Product) (*PriceTable, error) {
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}

	groups := make(map[string]optionGroup, len(product.Options))
	for _, opt := range product.Options {
		if _, exists := groups[opt.Name]; exists {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate option group %q", opt.Name))
		}
		deltas := make(map[string]decimal.Decimal, len(opt.Variations))
		for _, variation := range opt.Variations {
			deltas[variation.Name] = variation.PriceDelta
		}
		groups[opt.Name] = optionGroup{
			required:      opt.Required,
			maxSelections: opt.MaxSelections,
			deltas:        deltas,
		}
	}

	return &PriceTable{base: product.BasePrice, groups: groups}, nil
}

// Resolve computes the unit price for the given selection: the product base
// price plus the delta of every selected variation. Unknown groups, unknown
// variations, missing required groups, and over-limit picks are rejected.
func (t *PriceTable) Resolve(selection types.SelectedOptions) (decimal.Decimal, error) {
	normalized := selection.Normalize()

	for name, group := range t.groups {
		picks := normalized[name]
		if group.required && len(picks) == 0 {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("option %q requires a selection", name))
		}
		if group.maxSelections > 0 && len(picks) > group.maxSelections {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("option %q allows at most %d selections", name, group.maxSelections))
		}
	}

	price := t.base
	for name, picks := range normalized {
		group, ok := t.groups[name]
		if !ok {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown option group %q", name))
		}
		for _, pick := range picks {
			delta, ok := group.deltas[pick]
			if !ok {
				return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown variation %q for option %q", pick, name))
			}
			price = price.Add(delta)
		}
	}

	return price, nil
}

// ResolveUnitPrice is a convenience wrapper that builds the table and
// resolves in one call.
func ResolveUnitPrice(product *models.Product, selection types.SelectedOptions) (decimal.Decimal, error) {
	table, err := BuildPriceTable(product)
	if err != nil {
		return decimal.Zero, err
	}
	return table.Resolve(selection)
}
