package server

import (
	"github.com/wichananm65/food-order-backend/internal/address"
	"github.com/wichananm65/food-order-backend/internal/cart"
	"github.com/wichananm65/food-order-backend/internal/order"
	"github.com/wichananm65/food-order-backend/internal/payment"
	"github.com/wichananm65/food-order-backend/internal/restaurant"
	"github.com/wichananm65/food-order-backend/internal/user"
)

// MemoryBackends keeps all state in process, with the seeded catalog.
func MemoryBackends(gateway payment.Gateway) Backends {
	return Backends{
		Users:     user.NewInMemoryRepository(),
		Addresses: address.NewInMemoryRepository(nil),
		Carts:     cart.NewInMemoryRepository(),
		Catalog:   restaurant.NewInMemoryRepository(restaurant.SeedRestaurants(), restaurant.SeedCuisines()),
		Gateway:   gateway,
		Publisher: order.LogPublisher{},
	}
}
