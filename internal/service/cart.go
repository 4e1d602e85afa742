package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

// MaxLineQuantity bounds a single cart line.
const MaxLineQuantity = 999

// CartLine is one product entry of a visitor cart.
type CartLine struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// Cart keeps lines in insertion order. Quantities stay within 1..MaxLineQuantity; a line disappears only
// through Remove.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

func (c *Cart) index(productID uint) int {
	return slices.IndexFunc(c.Lines, func(l CartLine) bool { return l.ProductID == productID })
}

func (c *Cart) IsEmpty() bool { return len(c.Lines) == 0 }

func (c *Cart) Quantity(productID uint) int {
	if i := c.index(productID); i >= 0 {
		return c.Lines[i].Quantity
	}
	return 0
}

// Count is the number of items, all lines summed.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Add merges qty into an existing line or appends a new one.
func (c *Cart) Add(productID uint, qty int) error {
	if productID == 0 {
		return fmt.Errorf("product id required: %w", ErrValidation)
	}
	if qty < 1 {
		return fmt.Errorf("quantity must be at least 1: %w", ErrValidation)
	}
	if qty > MaxLineQuantity-c.Quantity(productID) {
		return fmt.Errorf("quantity above %d: %w", MaxLineQuantity, ErrValidation)
	}
	if i := c.index(productID); i >= 0 {
		c.Lines[i].Quantity += qty
		return nil
	}
	c.Lines = append(c.Lines, CartLine{ProductID: productID, Quantity: qty})
	return nil
}

// Remove drops the line; an absent id is a no-op.
func (c *Cart) Remove(productID uint) {
	if i := c.index(productID); i >= 0 {
		c.Lines = slices.Delete(c.Lines, i, i+1)
	}
}

// SetQuantity applies a +1 or -1 step. +1 creates the line when absent; -1 never takes a
// line below 1 and ignores absent lines.
func (c *Cart) SetQuantity(productID uint, delta int) error {
	switch delta {
	case 1:
		return c.Add(productID, 1)
	case -1:
		if i := c.index(productID); i >= 0 && c.Lines[i].Quantity > 1 {
			c.Lines[i].Quantity--
		}
		return nil
	default:
		return fmt.Errorf("delta must be +1 or -1, got %d: %w", delta, ErrValidation)
	}
}

func (c *Cart) Clear() { c.Lines = nil }

type SnapshotLine struct {
	Product  models.Product
	Quantity int
	Subtotal decimal.Decimal
}

type Snapshot struct {
	Lines []SnapshotLine
	// Missing lists cart product ids that no longer exist in the catalog.
	Missing []uint
	Total   decimal.Decimal
}

func (s Snapshot) IsEmpty() bool { return len(s.Lines) == 0 }

type CartService struct {
	Repo *repo.GormRepo
}

// Snapshot resolves every line against the catalog. Missing products are skipped.
func (s *CartService) Snapshot(ctx context.Context, cart Cart) (Snapshot, error) {
	l := logging.FromContext(ctx).With("svc", "cart.snapshot")

	ids := make([]uint, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		l.Error("snapshot_error", "status", 500, "error", err)
		return Snapshot{}, err
	}

	snap := Snapshot{Total: decimal.Zero}
	for _, line := range cart.Lines {
		p, ok := products[line.ProductID]
		if !ok {
			snap.Missing = append(snap.Missing, line.ProductID)
			continue
		}
		sub := p.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		snap.Lines = append(snap.Lines, SnapshotLine{Product: p, Quantity: line.Quantity, Subtotal: sub})
		snap.Total = snap.Total.Add(sub)
	}
	if len(snap.Missing) > 0 {
		l.Warn("cart_products_missing", "product_ids", snap.Missing)
	}
	return snap, nil
}
