// Package cart implements the per-session shopping cart.
package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/hampers-storefront/internal/model"
)

// Cart holds at most one line per product id, in first-add order.
// It is not safe for concurrent use; callers serialise mutations.
type Cart struct {
	lines []model.CartLine
	open  bool
}

// New returns an empty, closed cart.
func New() *Cart { return &Cart{} }

// Add increments the line for p or appends a new one with quantity 1,
// and opens the cart panel.
func (c *Cart) Add(p model.Product) {
	c.open = true
	if i := c.index(p.ID); i >= 0 {
		c.lines[i].Quantity++
		return
	}
	var price *float64
	if p.Price != nil {
		v := *p.Price
		price = &v
	}
	c.lines = append(c.lines, model.CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     price,
		Image:     p.Image,
		Quantity:  1,
	})
}

// Remove deletes the line for productID. Unknown ids are ignored.
func (c *Cart) Remove(productID string) {
	i := c.index(productID)
	if i < 0 {
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}

// Total sums price x quantity over all lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount sums quantities; it backs the cart badge.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Lines returns a copy of the cart lines.
func (c *Cart) Lines() []model.CartLine {
	out := make([]model.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int    { return len(c.lines) }
func (c *Cart) Empty() bool { return len(c.lines) == 0 }

// IsOpen reports whether the cart panel is shown.
func (c *Cart) IsOpen() bool { return c.open }

// SetOpen shows or hides the cart panel.
func (c *Cart) SetOpen(open bool) { c.open = open }

func (c *Cart) index(productID string) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

type wireCart struct {
	Lines []model.CartLine `json:"lines"`
	Open  bool             `json:"open"`
}

// MarshalJSON encodes the cart for session storage.
func (c *Cart) MarshalJSON() ([]byte, error) {
	lines := c.lines
	if lines == nil {
		lines = []model.CartLine{}
	}
	return json.Marshal(wireCart{Lines: lines, Open: c.open})
}

// UnmarshalJSON decodes a stored cart. Duplicate product ids are merged
// and non-positive quantities dropped.
func (c *Cart) UnmarshalJSON(b []byte) error {
	var w wireCart
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	c.lines = nil
	c.open = w.Open
	for _, l := range w.Lines {
		if l.Quantity <= 0 {
			continue
		}
		if i := c.index(l.ProductID); i >= 0 {
			c.lines[i].Quantity += l.Quantity
			continue
		}
		c.lines = append(c.lines, l)
	}
	return nil
}
