package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/wichananm65/food-order-backend/internal/apperr"
)

// Item is one line of a cart. At most one Item exists per ID; adding the
// same ID again increases Quantity.
type Item struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Quantity     int             `json:"quantity"`
	RestaurantID int             `json:"restaurantId"`
	Restaurant   string          `json:"restaurant,omitempty"`
	Image        string          `json:"image,omitempty"`
}

func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Group is the slice of a cart belonging to one restaurant.
type Group struct {
	RestaurantID int             `json:"restaurantId"`
	Restaurant   string          `json:"restaurant,omitempty"`
	Items        []Item          `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type Summary struct {
	Items       []Item          `json:"items"`
	Groups      []Group         `json:"groups"`
	ItemCount   int             `json:"itemCount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Total       decimal.Decimal `json:"total"`
}

// Cart is safe for concurrent use; mutations apply one at a time.
type Cart struct {
	mu    sync.Mutex
	items []Item
	fee   FeePolicy
}

func New(fee FeePolicy, items ...Item) *Cart {
	if fee == nil {
		fee = NoFee
	}
	c := &Cart{fee: fee}
	for _, it := range items {
		if it.Quantity > 0 {
			c.items = append(c.items, it)
		}
	}
	return c
}

func (c *Cart) AddItem(item Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addItem(item)
}

// UpdateQuantity sets the quantity for id. n <= 0 removes the line and an
// unknown id is ignored.
func (c *Cart) UpdateQuantity(id, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateQuantity(id, n)
}

func (c *Cart) RemoveItem(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeItem(id)
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Cart) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subtotal()
}

func (c *Cart) DeliveryFee() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deliveryFee(c.subtotal())
}

func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub := c.subtotal()
	return sub.Add(c.deliveryFee(sub))
}

func (c *Cart) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary()
}

// Groups splits the cart by restaurant, keeping first-seen order.
func (c *Cart) Groups() []Group {
	c.mu.Lock()
	defer c.mu.Unlock()
	return groupByRestaurant(c.items)
}

func (c *Cart) addItem(item Item) error {
	if item.ID <= 0 {
		return apperr.Validation("id", "is required")
	}
	if item.Quantity <= 0 {
		return apperr.Validation("quantity", "must be positive")
	}
	if item.UnitPrice.IsNegative() {
		return apperr.Validation("unitPrice", "must not be negative")
	}
	for i := range c.items {
		if c.items[i].ID == item.ID {
			c.items[i].Quantity += item.Quantity
			return nil
		}
	}
	c.items = append(c.items, item)
	return nil
}

func (c *Cart) updateQuantity(id, n int) {
	if n <= 0 {
		c.removeItem(id)
		return
	}
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Quantity = n
			return
		}
	}
}

func (c *Cart) removeItem(id int) {
	for i := range c.items {
		if c.items[i].ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

func (c *Cart) snapshot() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// deliveryFee is zero for an empty cart whatever the policy says.
func (c *Cart) deliveryFee(subtotal decimal.Decimal) decimal.Decimal {
	if len(c.items) == 0 {
		return decimal.Zero
	}
	return c.fee(subtotal)
}

func (c *Cart) summary() Summary {
	sub := c.subtotal()
	fee := c.deliveryFee(sub)
	count := 0
	for _, it := range c.items {
		count += it.Quantity
	}
	return Summary{
		Items:       c.snapshot(),
		Groups:      groupByRestaurant(c.items),
		ItemCount:   count,
		Subtotal:    sub,
		DeliveryFee: fee,
		Total:       sub.Add(fee),
	}
}

func groupByRestaurant(items []Item) []Group {
	groups := make([]Group, 0)
	index := make(map[int]int)
	for _, it := range items {
		i, ok := index[it.RestaurantID]
		if !ok {
			i = len(groups)
			index[it.RestaurantID] = i
			groups = append(groups, Group{RestaurantID: it.RestaurantID, Restaurant: it.Restaurant, Subtotal: decimal.Zero})
		}
		groups[i].Items = append(groups[i].Items, it)
		groups[i].Subtotal = groups[i].Subtotal.Add(it.LineTotal())
	}
	return groups
}

// Subtotal sums a snapshot of items.
func Subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}
