package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casadaesfiha/storefront-backend/pkg/types"
)

// SchemaVersion tags persisted cart payloads so older snapshots can be
// discarded instead of misread after a format change.
const SchemaVersion = 1

// Line is one cart entry. Identity is the fingerprint: the product plus the
// normalized option selection. The same product with a different selection
// is a different line.
type Line struct {
	Fingerprint     string                `json:"fingerprint"`
	ProductID       uuid.UUID             `json:"product_id"`
	ProductName     string                `json:"product_name"`
	ImageURL        *string               `json:"image_url,omitempty"`
	SelectedOptions types.SelectedOptions `json:"selected_options,omitempty"`
	UnitPrice       decimal.Decimal       `json:"unit_price"`
	Quantity        int                   `json:"quantity"`
}

// Total returns unit price times quantity.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart aggregates the lines owned by one customer. Totals are always derived
// from the lines, never stored.
type Cart struct {
	OwnerID   string    `json:"owner_id"`
	Version   int       `json:"version"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCart returns an empty cart for the owner.
func NewCart(ownerID string) *Cart {
	return &Cart{
		OwnerID: ownerID,
		Version: SchemaVersion,
		Lines:   []Line{},
	}
}

// Subtotal sums every line total.
func (c *Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range c.Lines {
		subtotal = subtotal.Add(line.Total())
	}
	return subtotal
}

// ItemCount sums line quantities.
func (c *Cart) ItemCount() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Clone returns a deep copy so callers cannot mutate shared state.
func (c *Cart) Clone() *Cart {
	lines := make([]Line, len(c.Lines))
	for i, line := range c.Lines {
		line.SelectedOptions = line.SelectedOptions.Clone()
		lines[i] = line
	}
	return &Cart{
		OwnerID:   c.OwnerID,
		Version:   c.Version,
		Lines:     lines,
		UpdatedAt: c.UpdatedAt,
	}
}

func (c *Cart) findLine(fingerprint string) *Line {
	for i := range c.Lines {
		if c.Lines[i].Fingerprint == fingerprint {
			return &c.Lines[i]
		}
	}
	return nil
}

func (c *Cart) removeLine(fingerprint string) bool {
	for i := range c.Lines {
		if c.Lines[i].Fingerprint == fingerprint {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return true
		}
	}
	return false
}
