package address

import (
	"strings"
	"time"

	"github.com/wichananm65/food-order-backend/internal/apperr"
)

// Delivery is where an order goes. Orders hold a copy, so later edits to a
// saved address never reach an order already placed.
type Delivery struct {
	Street       string `json:"street"`
	City         string `json:"city"`
	ZipCode      string `json:"zipCode"`
	Instructions string `json:"instructions,omitempty"`
}

// Validate requires street, city and zip code.
func (d Delivery) Validate() error {
	switch {
	case strings.TrimSpace(d.Street) == "":
		return apperr.Validation("street", "is required")
	case strings.TrimSpace(d.City) == "":
		return apperr.Validation("city", "is required")
	case strings.TrimSpace(d.ZipCode) == "":
		return apperr.Validation("zipCode", "is required")
	}
	return nil
}

func (d Delivery) Normalize() Delivery {
	return Delivery{
		Street:       strings.TrimSpace(d.Street),
		City:         strings.TrimSpace(d.City),
		ZipCode:      strings.TrimSpace(d.ZipCode),
		Instructions: strings.TrimSpace(d.Instructions),
	}
}

// Address is an entry of a user's address book.
type Address struct {
	ID     int    `json:"addressId"`
	UserID int    `json:"userId"`
	Label  string `json:"label,omitempty"`
	Delivery
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
