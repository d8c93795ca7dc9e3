// Package cart holds the per-cashier shopping cart: an ordered list of lines
// with the unit price captured when each product was first added.
//
// A Cart is a plain value. It is loaded from a Store at the start of a
// request, mutated, and written back before the request returns.
package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one product in the cart. UnitPrice is the snapshot taken when the
// line was inserted and is what the customer is charged at commit.
type Line struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Barcode   string          `json:"barcode"`
	Image     string          `json:"image,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is UnitPrice × Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the ordered list of lines of one cashier session.
type Cart struct {
	Lines []Line `json:"lines"`
}

// Summary is the read-only view of a cart.
type Summary struct {
	Lines     []Line          `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

// Find returns the line for productID, if present.
func (c *Cart) Find(productID uuid.UUID) (Line, bool) {
	if i := c.index(productID); i >= 0 {
		return c.Lines[i], true
	}
	return Line{}, false
}

// Quantity returns how many units of productID the cart already holds.
func (c *Cart) Quantity(productID uuid.UUID) int {
	if l, ok := c.Find(productID); ok {
		return l.Quantity
	}
	return 0
}

// Add inserts line or, when the product is already present, increments the
// existing line's quantity and keeps its original price snapshot.
func (c *Cart) Add(line Line) {
	if i := c.index(line.ProductID); i >= 0 {
		c.Lines[i].Quantity += line.Quantity
		return
	}
	c.Lines = append(c.Lines, line)
}

// SetQuantity replaces the quantity of an existing line; qty <= 0 removes it.
// Returns false when the product is not in the cart.
func (c *Cart) SetQuantity(productID uuid.UUID, qty int) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	if qty <= 0 {
		c.removeAt(i)
		return true
	}
	c.Lines[i].Quantity = qty
	return true
}

// Remove drops the line for productID. Removing an absent product is a no-op.
func (c *Cart) Remove(productID uuid.UUID) {
	if i := c.index(productID); i >= 0 {
		c.removeAt(i)
	}
}

func (c *Cart) Clear() { c.Lines = nil }

func (c *Cart) IsEmpty() bool { return len(c.Lines) == 0 }

// Total is Σ UnitPrice × Quantity over all lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount is Σ Quantity over all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// View returns a copy of the lines with the derived totals. It never mutates c.
func (c *Cart) View() Summary {
	lines := make([]Line, len(c.Lines))
	copy(lines, c.Lines)
	return Summary{Lines: lines, Total: c.Total(), ItemCount: c.ItemCount()}
}

func (c *Cart) index(productID uuid.UUID) int {
	for i, l := range c.Lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	if len(c.Lines) == 0 {
		c.Lines = nil
	}
}
