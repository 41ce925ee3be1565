package cart

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/food-order-backend/internal/auth"
)

func makeAppWithCartHandler(cHandler *Handler) *fiber.App {
	app := fiber.New()
	app.Use(auth.HeaderMiddleware())
	cHandler.RegisterProtectedRoutes(app)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body, userID string) (int, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, string(b)
}

func TestCartRoutes_Basic(t *testing.T) {
	service := NewService(NewInMemoryRepository(), testCatalog, FlatFee(price("3.99")))
	app := makeAppWithCartHandler(NewHandler(service))

	routes := map[string]bool{}
	for _, grp := range app.Stack() {
		for _, r := range grp {
			routes[r.Path] = true
		}
	}
	for _, p := range []string{"/api/v1/cart", "/api/v1/cart/items", "/api/v1/cart/items/:id<int>"} {
		if !routes[p] {
			t.Fatalf("expected route %q to be registered", p)
		}
	}

	if code, _ := doJSON(t, app, "GET", "/api/v1/cart", "", ""); code != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthenticated GET, got %d", code)
	}
	if code, _ := doJSON(t, app, "POST", "/api/v1/cart/items", `{"menuItemId":1}`, ""); code != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthenticated POST, got %d", code)
	}

	code, body := doJSON(t, app, "POST", "/api/v1/cart/items", `{"menuItemId":1,"quantity":2}`, "42")
	if code != fiber.StatusOK {
		t.Fatalf("expected 200 for adding to cart, got %d: %s", code, body)
	}
	if !strings.Contains(body, `"quantity":2`) || !strings.Contains(body, `"total":"23.99"`) {
		t.Fatalf("unexpected cart after add: %s", body)
	}

	// default quantity is one
	code, body = doJSON(t, app, "POST", "/api/v1/cart/items", `{"menuItemId":1}`, "42")
	if code != fiber.StatusOK || !strings.Contains(body, `"quantity":3`) {
		t.Fatalf("expected quantity 3 after second add, got %d: %s", code, body)
	}

	code, body = doJSON(t, app, "PATCH", "/api/v1/cart/items/1", `{"quantity":1}`, "42")
	if code != fiber.StatusOK || !strings.Contains(body, `"quantity":1`) {
		t.Fatalf("expected quantity 1 after update, got %d: %s", code, body)
	}

	code, body = doJSON(t, app, "DELETE", "/api/v1/cart/items/1", "", "42")
	if code != fiber.StatusOK || strings.Contains(body, "Jollof") {
		t.Fatalf("expected item removed, got %d: %s", code, body)
	}

	_, _ = doJSON(t, app, "POST", "/api/v1/cart/items", `{"menuItemId":2}`, "42")
	if code, _ := doJSON(t, app, "DELETE", "/api/v1/cart", "", "42"); code != fiber.StatusNoContent {
		t.Fatalf("expected 204 for clear cart, got %d", code)
	}
	code, body = doJSON(t, app, "GET", "/api/v1/cart", "", "42")
	if code != fiber.StatusOK || strings.Contains(body, "Suya") {
		t.Fatalf("expected empty cart after clear, got %d: %s", code, body)
	}
}

func TestCartRoutes_Errors(t *testing.T) {
	service := NewService(NewInMemoryRepository(), testCatalog, nil)
	app := makeAppWithCartHandler(NewHandler(service))

	if code, _ := doJSON(t, app, "POST", "/api/v1/cart/items", `{"menuItemId":0}`, "1"); code != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for missing menu item, got %d", code)
	}
	if code, _ := doJSON(t, app, "POST", "/api/v1/cart/items", `{"menuItemId":77}`, "1"); code != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown menu item, got %d", code)
	}
	if code, _ := doJSON(t, app, "POST", "/api/v1/cart/items", `{"menuItemId":1,"quantity":-2}`, "1"); code != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for negative quantity, got %d", code)
	}
}
