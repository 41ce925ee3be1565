package restaurant

import "github.com/shopspring/decimal"

// Restaurant is a storefront listing. Menu is only filled in by detail
// lookups.
type Restaurant struct {
	ID           int             `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Image        string          `json:"image" db:"image"`
	CoverImage   string          `json:"coverImage" db:"cover_image"`
	Rating       float64         `json:"rating" db:"rating"`
	Cuisine      string          `json:"cuisine" db:"cuisine"`
	DeliveryTime string          `json:"deliveryTime" db:"delivery_time"`
	MinOrder     decimal.Decimal `json:"minOrder" db:"min_order"`
	Featured     bool            `json:"featured" db:"featured"`
	Menu         []MenuItem      `json:"menu,omitempty" db:"-"`
}

type MenuItem struct {
	ID           int             `json:"id" db:"id"`
	RestaurantID int             `json:"restaurantId" db:"restaurant_id"`
	Restaurant   string          `json:"restaurant,omitempty" db:"restaurant_name"`
	Name         string          `json:"name" db:"name"`
	Description  string          `json:"description" db:"description"`
	Price        decimal.Decimal `json:"price" db:"price"`
	Image        string          `json:"image" db:"image"`
	Category     string          `json:"category" db:"category"`
	Featured     bool            `json:"-" db:"featured"`
}

// FeaturedDish is a menu item promoted on the landing page.
type FeaturedDish struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Image        string          `json:"image"`
	Restaurant   string          `json:"restaurant"`
	RestaurantID int             `json:"restaurantId"`
	Price        decimal.Decimal `json:"price"`
	Description  string          `json:"description"`
}

type Cuisine struct {
	ID    int    `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Image string `json:"image" db:"image"`
	Count int    `json:"count" db:"count"`
}

// Filter narrows a restaurant listing. Query matches restaurant name,
// cuisine and menu item names case-insensitively.
type Filter struct {
	Query    string
	Cuisines []string
	Limit    int
	Offset   int
}

func featuredDish(m MenuItem) FeaturedDish {
	return FeaturedDish{
		ID:           m.ID,
		Name:         m.Name,
		Image:        m.Image,
		Restaurant:   m.Restaurant,
		RestaurantID: m.RestaurantID,
		Price:        m.Price,
		Description:  m.Description,
	}
}
