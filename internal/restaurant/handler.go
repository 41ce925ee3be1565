package restaurant

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/food-order-backend/internal/apperr"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app fiber.Router) {
	app.Get("/api/v1/restaurants", h.getRestaurants)
	app.Get("/api/v1/restaurants/:id<int>", h.getRestaurant)
	app.Get("/api/v1/restaurants/:id<int>/menu", h.getMenu)
	app.Get("/api/v1/menu-items/:id<int>", h.getMenuItem)
	app.Get("/api/v1/featured-dishes", h.getFeatured)
	app.Get("/api/v1/cuisines", h.getCuisines)
}

// getRestaurants supports ?q=, ?cuisine=a,b and ?limit=&offset= pagination.
func (h *Handler) getRestaurants(c *fiber.Ctx) error {
	f := Filter{Query: c.Query("q")}
	for _, cu := range strings.Split(c.Query("cuisine"), ",") {
		if cu = strings.TrimSpace(cu); cu != "" {
			f.Cuisines = append(f.Cuisines, cu)
		}
	}
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			f.Limit = v
		}
	}
	if o := c.Query("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			f.Offset = v
		}
	}

	items, err := h.service.List(c.UserContext(), f)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(items)
}

func (h *Handler) getRestaurant(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid id"})
	}
	rs, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(rs)
}

func (h *Handler) getMenu(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid id"})
	}
	rs, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if rs.Menu == nil {
		rs.Menu = []MenuItem{}
	}
	return c.JSON(rs.Menu)
}

func (h *Handler) getMenuItem(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid id"})
	}
	m, err := h.service.MenuItem(c.UserContext(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(m)
}

func (h *Handler) getFeatured(c *fiber.Ctx) error {
	items, err := h.service.Featured(c.UserContext())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(items)
}

func (h *Handler) getCuisines(c *fiber.Ctx) error {
	items, err := h.service.Cuisines(c.UserContext())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(items)
}
