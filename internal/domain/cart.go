package domain

import (
	"math"
	"strings"
)

// LineItem is one product entry in the cart. The JSON field names are the
// persisted layout: the cart is stored as an array of these objects under the
// versioned storage key, so renaming a field is a storage-format change and
// requires a key-name bump.
type LineItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"img"`
}

// Valid reports whether the item satisfies all line-item constraints: a
// non-empty trimmed id and name, a finite non-negative unit price, and a
// quantity of at least 1. A pure predicate; invalidity is data, not a fault.
func (li LineItem) Valid() bool {
	if strings.TrimSpace(li.ID) == "" || strings.TrimSpace(li.Name) == "" {
		return false
	}
	if math.IsNaN(li.UnitPrice) || math.IsInf(li.UnitPrice, 0) || li.UnitPrice < 0 {
		return false
	}
	return li.Quantity >= 1
}

// LineTotal returns the item's price contribution (unit price times quantity).
func (li LineItem) LineTotal() float64 {
	return li.UnitPrice * float64(li.Quantity)
}

// Cart is the ordered collection of line items. Insertion order is preserved
// for stable display order; it is irrelevant to totals. Item ids are unique
// within a cart, and no item ever has quantity zero (it is removed instead).
type Cart []LineItem

// CartTotals is the derived aggregate over all line items. It is recomputed
// on demand and never stored.
type CartTotals struct {
	TotalPrice float64 `json:"total_price"`
	TotalItems int     `json:"total_items"`
}

// OrderLine is one line of the structured order summary.
type OrderLine struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

// OrderSummary is a pure projection of the cart for the presentation layer
// to format into an outbound order message. Channel-specific formatting
// (line breaks, currency localization) is not a concern of this type.
type OrderSummary struct {
	Lines      []OrderLine `json:"lines"`
	TotalPrice float64     `json:"total_price"`
}

// FindIndex returns the index of the line item with the given id, or -1 if
// the cart has no such item.
func (c Cart) FindIndex(id string) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns an independent copy of the cart.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// Totals computes the derived totals, skipping items that fail the line-item
// constraints. The second return value is the number of skipped items so the
// caller can report the data loss instead of it staying implicit.
func (c Cart) Totals() (CartTotals, int) {
	var totals CartTotals
	skipped := 0
	for _, li := range c {
		if !li.Valid() {
			skipped++
			continue
		}
		totals.TotalPrice += li.LineTotal()
		totals.TotalItems += li.Quantity
	}
	return totals, skipped
}

// OrderSummary projects the cart into order lines plus the grand total.
// Invalid items are excluded, mirroring Totals.
func (c Cart) OrderSummary() OrderSummary {
	summary := OrderSummary{Lines: make([]OrderLine, 0, len(c))}
	for _, li := range c {
		if !li.Valid() {
			continue
		}
		summary.Lines = append(summary.Lines, OrderLine{
			Name:      li.Name,
			Quantity:  li.Quantity,
			UnitPrice: li.UnitPrice,
			LineTotal: li.LineTotal(),
		})
		summary.TotalPrice += li.LineTotal()
	}
	return summary
}

// Sanitize filters the given items down to those passing Valid, preserving
// order, and reports how many were dropped. Invalid entries are removed
// silently rather than failing the whole collection.
func Sanitize(items []LineItem) (Cart, int) {
	valid := make(Cart, 0, len(items))
	for _, li := range items {
		if li.Valid() {
			valid = append(valid, li)
		}
	}
	return valid, len(items) - len(valid)
}
