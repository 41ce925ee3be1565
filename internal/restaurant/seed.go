package restaurant

import "github.com/shopspring/decimal"

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// SeedRestaurants is the catalog served by the in-memory server and loaded
// into an empty database by PostgresRepository.Seed.
func SeedRestaurants() []Restaurant {
	return []Restaurant{
		{
			ID: 1, Name: "Mama Put Kitchen", Cuisine: "Nigerian", Rating: 4.7, DeliveryTime: "25-35 min",
			MinOrder: money("10.00"), Featured: true,
			Image: "/images/restaurants/mama-put.jpg", CoverImage: "/images/restaurants/mama-put-cover.jpg",
			Menu: []MenuItem{
				{ID: 101, Name: "Jollof Rice", Description: "Smoky party jollof with fried plantain", Price: money("10.00"), Category: "Mains", Image: "/images/menu/jollof.jpg", Featured: true},
				{ID: 102, Name: "Egusi Soup & Pounded Yam", Description: "Melon seed soup with assorted meat", Price: money("14.50"), Category: "Mains", Image: "/images/menu/egusi.jpg"},
				{ID: 103, Name: "Puff Puff", Description: "Six sweet fried dough balls", Price: money("3.99"), Category: "Sides", Image: "/images/menu/puff-puff.jpg"},
			},
		},
		{
			ID: 2, Name: "Suya Spot", Cuisine: "Grill", Rating: 4.5, DeliveryTime: "20-30 min",
			MinOrder: money("8.00"), Featured: false,
			Image: "/images/restaurants/suya-spot.jpg", CoverImage: "/images/restaurants/suya-spot-cover.jpg",
			Menu: []MenuItem{
				{ID: 201, Name: "Beef Suya", Description: "Spiced skewers with onions and yaji", Price: money("8.75"), Category: "Grill", Image: "/images/menu/beef-suya.jpg", Featured: true},
				{ID: 202, Name: "Chicken Wings", Description: "Eight wings, pepper glaze", Price: money("9.25"), Category: "Grill", Image: "/images/menu/wings.jpg"},
			},
		},
		{
			ID: 3, Name: "Trattoria Lagos", Cuisine: "Italian", Rating: 4.3, DeliveryTime: "35-45 min",
			MinOrder: money("15.00"), Featured: true,
			Image: "/images/restaurants/trattoria.jpg", CoverImage: "/images/restaurants/trattoria-cover.jpg",
			Menu: []MenuItem{
				{ID: 301, Name: "Margherita Pizza", Description: "San Marzano tomato, mozzarella, basil", Price: money("12.00"), Category: "Pizza", Image: "/images/menu/margherita.jpg", Featured: true},
				{ID: 302, Name: "Spaghetti Carbonara", Description: "Guanciale, pecorino, egg yolk", Price: money("13.50"), Category: "Pasta", Image: "/images/menu/carbonara.jpg"},
			},
		},
	}
}

func SeedCuisines() []Cuisine {
	return []Cuisine{
		{ID: 1, Name: "Nigerian", Image: "/images/cuisines/nigerian.jpg"},
		{ID: 2, Name: "Grill", Image: "/images/cuisines/grill.jpg"},
		{ID: 3, Name: "Italian", Image: "/images/cuisines/italian.jpg"},
	}
}
