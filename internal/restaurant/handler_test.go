package restaurant

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func makeAppWithRestaurantHandler() *fiber.App {
	app := fiber.New()
	NewHandler(NewService(seeded(), nil)).RegisterPublicRoutes(app)
	return app
}

func TestRestaurantRoutes(t *testing.T) {
	app := makeAppWithRestaurantHandler()

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/restaurants?cuisine=Nigerian", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var list []Restaurant
	b, _ := io.ReadAll(res.Body)
	if err := json.Unmarshal(b, &list); err != nil {
		t.Fatalf("decode: %v (%s)", err, string(b))
	}
	if len(list) != 1 || list[0].Name != "Mama Put Kitchen" {
		t.Fatalf("unexpected restaurants: %s", string(b))
	}

	res, _ = app.Test(httptest.NewRequest("GET", "/api/v1/restaurants/3/menu", nil))
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for menu, got %d", res.StatusCode)
	}
	var menu []MenuItem
	b, _ = io.ReadAll(res.Body)
	if err := json.Unmarshal(b, &menu); err != nil || len(menu) != 2 {
		t.Fatalf("unexpected menu: %s", string(b))
	}

	res, _ = app.Test(httptest.NewRequest("GET", "/api/v1/restaurants/99", nil))
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown restaurant, got %d", res.StatusCode)
	}

	res, _ = app.Test(httptest.NewRequest("GET", "/api/v1/menu-items/102", nil))
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for menu item, got %d", res.StatusCode)
	}

	for _, p := range []string{"/api/v1/featured-dishes", "/api/v1/cuisines", "/api/v1/restaurants?q=jollof&limit=5&offset=0"} {
		res, _ = app.Test(httptest.NewRequest("GET", p, nil))
		if res.StatusCode != fiber.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", p, res.StatusCode)
		}
	}
}
