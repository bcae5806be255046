package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"salonbot/internal/modules/cart"
	"salonbot/internal/modules/catalog"
	"salonbot/internal/modules/order"
	"salonbot/internal/modules/salon"
	"salonbot/internal/modules/user"
)

type memoryTokens struct {
	mu     sync.Mutex
	next   int
	tokens map[string]int64
}

func newMemoryTokens() *memoryTokens {
	return &memoryTokens{tokens: make(map[string]int64)}
}

func (m *memoryTokens) Create(ctx context.Context, membershipID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	token := "tok-" + strconv.Itoa(m.next)
	m.tokens[token] = membershipID
	return token, nil
}

func (m *memoryTokens) Resolve(ctx context.Context, token string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.tokens[token]
	if !ok {
		return 0, ErrTokenNotFound
	}
	return id, nil
}

type webSalons struct{ salon *salon.Salon }

func (f *webSalons) GetByID(ctx context.Context, id int64) (*salon.Salon, error) {
	if f.salon == nil || f.salon.ID != id {
		return nil, salon.ErrNotFound
	}
	return f.salon, nil
}

func (f *webSalons) GetBySlug(ctx context.Context, slug string) (*salon.Salon, error) {
	if f.salon == nil || f.salon.Slug != slug {
		return nil, salon.ErrNotFound
	}
	return f.salon, nil
}

type webUsers struct{ m *user.Membership }

func (f *webUsers) Register(ctx context.Context, tgUserID, salonID int64, firstName, lastName string) (*user.Membership, error) {
	f.m = &user.Membership{ID: 7, TgUserID: tgUserID, SalonID: salonID, FirstName: firstName, LastName: lastName}
	return f.m, nil
}

func (f *webUsers) GetMembership(ctx context.Context, id int64) (*user.Membership, error) {
	if f.m == nil || f.m.ID != id {
		return nil, user.ErrNotFound
	}
	return f.m, nil
}

type webCatalog struct{ products []catalog.Product }

func (f *webCatalog) Categories(ctx context.Context, salonID int64) ([]catalog.Category, error) {
	return []catalog.Category{{ID: 1, SalonID: salonID, Name: "Маникюр"}}, nil
}

func (f *webCatalog) Products(ctx context.Context, salonID, categoryID int64) ([]catalog.Product, error) {
	return f.products, nil
}

func (f *webCatalog) AllProducts(ctx context.Context, salonID int64) ([]catalog.Product, error) {
	return f.products, nil
}

type webCarts struct {
	items   []cart.Item
	cleared bool
}

func (f *webCarts) Add(ctx context.Context, membershipID, productID int64) error { return nil }

func (f *webCarts) Reduce(ctx context.Context, membershipID, productID int64) (bool, error) {
	return false, nil
}

func (f *webCarts) List(ctx context.Context, membershipID int64) ([]cart.Item, error) {
	return f.items, nil
}

func (f *webCarts) Clear(ctx context.Context, membershipID int64) error {
	f.cleared = true
	return nil
}

type webOrders struct {
	created *order.CreateCommand
	count   int
}

func (f *webOrders) Create(ctx context.Context, cmd order.CreateCommand) (*order.Order, error) {
	f.created = &cmd
	total := cart.Total(cmd.Items).Add(decimal.NewFromInt(cmd.DeliveryCost))
	return &order.Order{ID: 42, Status: order.StatusNew, Total: total}, nil
}

func (f *webOrders) CountBySalon(ctx context.Context, salonID int64) (int, error) {
	return f.count, nil
}

type webNotifier struct{ called bool }

func (f *webNotifier) NotifyOrder(ctx context.Context, groupChatID int64, text string, customer *user.Membership) {
	f.called = true
}

type webFixture struct {
	salons   *webSalons
	users    *webUsers
	carts    *webCarts
	orders   *webOrders
	notifier *webNotifier
	tokens   *memoryTokens
	router   *gin.Engine
}

func newWebFixture() *webFixture {
	gin.SetMode(gin.TestMode)
	groupChat := int64(-100123)
	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &webFixture{
		salons: &webSalons{salon: &salon.Salon{
			ID: 1, Name: "Test Salon", Slug: "test", Currency: "RUB", Timezone: "UTC",
			GroupChatID: &groupChat, OrderLimit: 30,
		}},
		users: &webUsers{},
		carts: &webCarts{items: []cart.Item{
			{ProductID: 1, ProductName: "Widget", Quantity: 2, Price: decimal.NewFromInt(10)},
		}},
		orders:   &webOrders{},
		notifier: &webNotifier{},
		tokens:   newMemoryTokens(),
	}
	f.router = NewServer(Deps{
		BotToken: testBotToken,
		Tokens:   f.tokens,
		Salons:   f.salons,
		Users:    f.users,
		Catalog: &webCatalog{products: []catalog.Product{
			{ID: 1, SalonID: 1, CategoryID: 1, Name: "Widget", Price: decimal.NewFromInt(10)},
		}},
		Carts:    f.carts,
		Orders:   f.orders,
		Notifier: f.notifier,
		Log:      logrus.NewEntry(log),
	}).Router()
	return f
}

func doRequest(r *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func authToken(t *testing.T, f *webFixture) string {
	t.Helper()
	initData := signInitData(t, map[string]string{
		"auth_date": "1700000000",
		"user":      `{"id":20,"first_name":"Иван","last_name":"Петров"}`,
	})
	w := doRequest(f.router, http.MethodPost, "/api/auth", map[string]any{
		"init_data": initData,
		"slug":      "test",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("auth: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("auth response: %s", w.Body.String())
	}
	return resp.Token
}

func TestAuthRejectsBadInitData(t *testing.T) {
	f := newWebFixture()
	w := doRequest(f.router, http.MethodPost, "/api/auth", map[string]any{
		"init_data": "user=%7B%22id%22%3A20%7D&hash=deadbeef",
		"slug":      "test",
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestCartRequiresToken(t *testing.T) {
	f := newWebFixture()
	if w := doRequest(f.router, http.MethodGet, "/api/cart", nil, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if w := doRequest(f.router, http.MethodGet, "/api/cart", nil, "bogus"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown token, got %d", w.Code)
	}
}

func TestProductsBySlug(t *testing.T) {
	f := newWebFixture()
	w := doRequest(f.router, http.MethodGet, "/api/salons/test/products", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Products []struct {
			Name  string `json:"name"`
			Price string `json:"price"`
		} `json:"products"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Products) != 1 || resp.Products[0].Name != "Widget" {
		t.Fatalf("unexpected products: %+v", resp.Products)
	}
	if resp.Currency != "₽" {
		t.Fatalf("currency symbol = %q", resp.Currency)
	}

	if w := doRequest(f.router, http.MethodGet, "/api/salons/unknown/products", nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown slug: expected 404, got %d", w.Code)
	}
}

func TestWebCheckout(t *testing.T) {
	f := newWebFixture()
	token := authToken(t, f)

	w := doRequest(f.router, http.MethodPost, "/api/checkout", map[string]any{
		"delivery_type": order.DeliveryPickup,
		"phone":         "+15551234567",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	cmd := f.orders.created
	if cmd == nil {
		t.Fatal("order was not created")
	}
	if cmd.PaymentMethod != order.PaymentPickup {
		t.Errorf("payment method = %q", cmd.PaymentMethod)
	}
	if cmd.Name != "Иван Петров" {
		t.Errorf("name = %q", cmd.Name)
	}
	if !f.carts.cleared {
		t.Error("cart was not cleared")
	}
	if !f.notifier.called {
		t.Error("group was not notified")
	}

	var resp struct {
		Total string `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != "20.00" {
		t.Errorf("total = %q, want 20.00", resp.Total)
	}
}

func TestWebCheckoutEmptyCart(t *testing.T) {
	f := newWebFixture()
	token := authToken(t, f)
	f.carts.items = nil

	w := doRequest(f.router, http.MethodPost, "/api/checkout", map[string]any{
		"delivery_type": order.DeliveryPickup,
		"phone":         "+7",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if f.orders.created != nil {
		t.Fatal("no order may be created from an empty cart")
	}
}

func TestWebCheckoutFreePlanLimit(t *testing.T) {
	f := newWebFixture()
	token := authToken(t, f)
	f.salons.salon.FreePlan = true
	f.salons.salon.OrderLimit = 1
	f.orders.count = 1

	w := doRequest(f.router, http.MethodPost, "/api/checkout", map[string]any{
		"delivery_type": order.DeliveryPickup,
		"phone":         "+7",
	}, token)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if f.orders.created != nil {
		t.Fatal("no order may be created past the free-plan limit")
	}
}

func TestWebCheckoutCourierCost(t *testing.T) {
	f := newWebFixture()
	lat, lon := 55.75, 37.62
	f.salons.salon.Latitude = &lat
	f.salons.salon.Longitude = &lon
	token := authToken(t, f)

	userLat := 55.75 + (3.2/6371.0)*(180.0/3.141592653589793)
	w := doRequest(f.router, http.MethodPost, "/api/checkout", map[string]any{
		"delivery_type": order.DeliveryCourier,
		"phone":         "+7",
		"address":       "ул. Ленина, 1",
		"lat":           userLat,
		"lon":           37.62,
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if f.orders.created.DeliveryCost != 4 {
		t.Fatalf("delivery cost = %d, want 4", f.orders.created.DeliveryCost)
	}
}

func TestWebCheckoutValidation(t *testing.T) {
	f := newWebFixture()
	token := authToken(t, f)

	cases := []map[string]any{
		{"delivery_type": "teleport", "phone": "+7"},
		{"delivery_type": order.DeliveryPickup},
		{"delivery_type": order.DeliveryCourier, "phone": "+7"}, // courier needs address
	}
	for i, body := range cases {
		w := doRequest(f.router, http.MethodPost, "/api/checkout", body, token)
		if w.Code != http.StatusBadRequest {
			t.Errorf("case %d: expected 400, got %d", i, w.Code)
		}
	}
}
