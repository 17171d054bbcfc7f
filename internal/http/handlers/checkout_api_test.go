package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"devstore/internal/config"
	"devstore/internal/domain"
	"devstore/internal/http/handlers"
	"devstore/internal/repos"
	"devstore/internal/services"
)

type fakeGateway struct{ token string }

func (g *fakeGateway) CreateSession(orderID string, amount int64, customerName, customerEmail, itemName string) (services.GatewaySession, error) {
	return services.GatewaySession{Token: g.token, RedirectURL: "https://gw.test/pay/" + g.token}, nil
}

// newTestApp wires the JSON API routes against a seeded in-memory database.
// user, when non-nil, is attached to every request as the signed-in buyer.
func newTestApp(t *testing.T, user *domain.User) *fiber.App {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)

	cfg := config.Config{
		TikTokURL:    "https://tiktok.test/devstore",
		InstagramURL: "https://instagram.test/devstore",
	}
	deps := handlers.NewDeps(db, cfg, &fakeGateway{token: "tok-live"})

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if user != nil {
			c.Locals("user", user)
		}
		return c.Next()
	})
	api := app.Group("/api")
	api.Post("/checkout/preview", deps.CheckoutHandler.Preview)
	api.Post("/checkout/select", deps.CheckoutHandler.SelectLicense)
	api.Post("/checkout/delivery", deps.CheckoutHandler.ChooseDelivery)
	api.Post("/checkout/close", deps.CheckoutHandler.Close)
	api.Post("/social/:platform/follow", deps.CheckoutHandler.Follow)
	api.Post("/payment", deps.PaymentHandler.Pay)
	api.Post("/payment/update-status", deps.PaymentHandler.UpdateStatus)
	api.Post("/free-transaction", deps.PaymentHandler.FreeClaim)
	return app
}

// post sends a form-encoded request carrying a fixed sid cookie and decodes
// the JSON response.
func post(t *testing.T, app *fiber.App, path string, form url.Values) (int, map[string]any) {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(http.MethodPost, path, body)
	if err != nil {
		t.Fatal(err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.AddCookie(&http.Cookie{Name: "sid", Value: "sid-flow-test"})

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("bad JSON %q: %v", raw, err)
	}
	return resp.StatusCode, out
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) (int, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest(http.MethodPost, path, strings.NewReader(string(raw)))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "sid", Value: "sid-flow-test"})

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("bad JSON %q: %v", body, err)
	}
	return resp.StatusCode, out
}

func dina() *domain.User {
	return &domain.User{ID: "u-dina", Email: "dina@devstore.test", Name: "Dina", PhotoURL: "avatars/dina.jpg", Role: "USER"}
}

func TestPaymentAPI_RequiresSignin(t *testing.T) {
	app := newTestApp(t, nil)

	code, out := post(t, app, "/api/checkout/preview", url.Values{"projectId": {"prj-landing"}})
	if code != 200 {
		t.Fatalf("preview failed: %d %v", code, out)
	}
	post(t, app, "/api/checkout/select", url.Values{"licenseTitle": {"personal"}})
	post(t, app, "/api/checkout/delivery", url.Values{"method": {"download"}})

	code, out = post(t, app, "/api/payment", nil)
	if code != 401 {
		t.Fatalf("want 401 for anonymous checkout, got %d %v", code, out)
	}
	if out["redirect"] != "/auth/signin" {
		t.Fatalf("want signin redirect, got %v", out)
	}
}

func TestPaymentAPI_PaidFlow(t *testing.T) {
	app := newTestApp(t, dina())

	if code, out := post(t, app, "/api/checkout/preview", url.Values{"projectId": {"prj-landing"}}); code != 200 {
		t.Fatalf("preview failed: %d %v", code, out)
	}
	code, out := post(t, app, "/api/checkout/select", url.Values{"licenseTitle": {"personal"}})
	if code != 200 {
		t.Fatalf("select failed: %d %v", code, out)
	}
	if out["deliveryMethod"] != "" {
		t.Fatalf("license selection must reset the delivery method, got %v", out["deliveryMethod"])
	}
	if code, out = post(t, app, "/api/checkout/delivery", url.Values{"method": {"download"}}); code != 200 {
		t.Fatalf("delivery failed: %d %v", code, out)
	}

	code, out = post(t, app, "/api/payment", nil)
	if code != 200 {
		t.Fatalf("payment failed: %d %v", code, out)
	}
	if out["token"] != "tok-live" {
		t.Fatalf("want widget token, got %v", out)
	}
	orderID, _ := out["orderId"].(string)
	txID, _ := out["transactionId"].(string)
	if orderID == "" || txID == "" {
		t.Fatalf("missing ids in %v", out)
	}

	// widget reports success
	code, out = postJSON(t, app, "/api/payment/update-status", map[string]any{
		"orderId":        orderID,
		"status":         "success",
		"transactionId":  "mt-77",
		"paymentDetails": map[string]any{"transaction_status": "settlement"},
	})
	if code != 200 {
		t.Fatalf("update-status failed: %d %v", code, out)
	}
	if out["redirectUrl"] != "/payment/status/"+txID {
		t.Fatalf("want status-page redirect, got %v", out)
	}
	if out["message"] != "Payment successful!" {
		t.Fatalf("bad message %v", out["message"])
	}
}

func TestPaymentAPI_FreeFlow(t *testing.T) {
	app := newTestApp(t, dina())

	post(t, app, "/api/checkout/preview", url.Values{"projectId": {"prj-portfolio"}})
	post(t, app, "/api/checkout/select", url.Values{"licenseTitle": {"free"}})
	post(t, app, "/api/checkout/delivery", url.Values{"method": {"download"}})

	code, out := post(t, app, "/api/payment", nil)
	if code != 200 || out["free"] != true {
		t.Fatalf("want free-claim routing, got %d %v", code, out)
	}

	// gate still closed
	if code, out = post(t, app, "/api/free-transaction", nil); code != 400 {
		t.Fatalf("claim must fail before both follows, got %d %v", code, out)
	}

	for _, platform := range []string{"tiktok", "instagram"} {
		code, out = post(t, app, "/api/social/"+platform+"/follow", nil)
		if code != 200 || out["link"] == "" {
			t.Fatalf("follow %s failed: %d %v", platform, code, out)
		}
	}

	code, out = post(t, app, "/api/free-transaction", nil)
	if code != 200 || out["success"] != true {
		t.Fatalf("claim failed: %d %v", code, out)
	}
	redirect, _ := out["redirectUrl"].(string)
	if !strings.HasPrefix(redirect, "/payment/status/") {
		t.Fatalf("bad redirect %q", redirect)
	}
}
