package domain

import (
	"sync"
	"time"

	catalog "github.com/Hariskhan09400/x-one-boutique-1/internal/catalog/domain"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/money"
	"github.com/shopspring/decimal"
)

// Line is one product's aggregated quantity. UnitPrice is captured when the
// product is first added and never follows later catalog changes.
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	AddedAt   time.Time       `json:"added_at"`
}

func (l Line) Subtotal() decimal.Decimal {
	return money.LineTotal(l.UnitPrice, l.Quantity)
}

// Snapshot is the persisted form of a cart, keyed by shopping session.
type Snapshot struct {
	Key       string    `json:"key"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Cart holds at most one line per product and never a line with quantity < 1.
// Every method is safe for concurrent use.
type Cart struct {
	mu    sync.RWMutex
	lines []*Line
	now   func() time.Time
}

func NewCart() *Cart {
	return &Cart{now: time.Now}
}

// Restore rebuilds a cart from a snapshot. Duplicate product ids are merged and
// non-positive quantities dropped, so a damaged snapshot cannot break the invariants.
func Restore(s Snapshot) *Cart {
	c := NewCart()
	for _, l := range s.Lines {
		if l.Quantity <= 0 || l.ProductID == "" {
			continue
		}
		if existing := c.find(l.ProductID); existing != nil {
			existing.Quantity += l.Quantity
			continue
		}
		line := l
		c.lines = append(c.lines, &line)
	}
	return c
}

func (c *Cart) find(productID string) *Line {
	for _, l := range c.lines {
		if l.ProductID == productID {
			return l
		}
	}
	return nil
}

func (c *Cart) indexOf(productID string) int {
	for i, l := range c.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// AddItem increments the product's line or inserts a new one at quantity 1.
func (c *Cart) AddItem(p catalog.Product) Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l := c.find(p.ID); l != nil {
		l.Quantity++
		return *l
	}

	l := &Line{
		ProductID: p.ID,
		Name:      p.Name,
		ImageURL:  p.PrimaryImage(),
		UnitPrice: p.Price,
		Quantity:  1,
		AddedAt:   c.now(),
	}
	c.lines = append(c.lines, l)
	return *l
}

// SetQuantity applies delta to a line, clamping at zero; a line reaching zero is removed.
// It returns the resulting quantity. Unknown products are ignored.
func (c *Cart) SetQuantity(productID string, delta int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(productID)
	if i < 0 {
		return 0
	}

	q := max(0, c.lines[i].Quantity+delta)
	if q == 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return 0
	}
	c.lines[i].Quantity = q
	return q
}

// RemoveItem drops the product's line and reports whether it was present.
func (c *Cart) RemoveItem(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return true
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Total is Σ(unit price × quantity) over all lines.
func (c *Cart) Total() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount is Σ(quantity) over all lines.
func (c *Cart) ItemCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lines) == 0
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Line, len(c.lines))
	for i, l := range c.lines {
		out[i] = *l
	}
	return out
}

func (c *Cart) Line(productID string) (Line, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if l := c.find(productID); l != nil {
		return *l, true
	}
	return Line{}, false
}

func (c *Cart) Snapshot(key string) Snapshot {
	return Snapshot{
		Key:       key,
		Lines:     c.Lines(),
		UpdatedAt: c.now(),
	}
}
