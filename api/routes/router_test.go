package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iskomart/iskomart-backend/internal/cart"
	"github.com/iskomart/iskomart-backend/internal/catalog"
	"github.com/iskomart/iskomart-backend/internal/checkout"
	"github.com/iskomart/iskomart-backend/internal/messages"
	"github.com/iskomart/iskomart-backend/internal/orders"
	"github.com/iskomart/iskomart-backend/internal/users"
	pkgAuth "github.com/iskomart/iskomart-backend/pkg/auth"
	"github.com/iskomart/iskomart-backend/pkg/config"
	"github.com/iskomart/iskomart-backend/pkg/db/dbtest"
	"github.com/iskomart/iskomart-backend/pkg/db/models"
	"github.com/iskomart/iskomart-backend/pkg/enums"
	"github.com/iskomart/iskomart-backend/pkg/logger"
	"github.com/iskomart/iskomart-backend/pkg/metrics"
)

type routerFixture struct {
	handler http.Handler
	cfg     *config.Config
	buyer   models.User
	seller  models.User
	item    models.Item
}

func newRouterFixture(t *testing.T, mutate func(*config.Config)) routerFixture {
	t.Helper()
	client := dbtest.Client(t)
	conn := client.DB()
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	reg := prometheus.NewRegistry()
	orderMetrics := metrics.NewOrderMetrics(reg)

	directory, err := users.NewDirectory(users.NewRepository(conn))
	require.NoError(t, err)
	messageSvc, err := messages.NewService(messages.NewRepository(conn), directory, nil, logg)
	require.NoError(t, err)

	itemRepo := catalog.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	cartSvc, err := cart.NewService(cartRepo, itemRepo)
	require.NoError(t, err)
	ordersRepo := orders.NewRepository(conn)
	orderSvc, err := orders.NewService(ordersRepo, client, messageSvc, enums.DefaultTransitionTable(), orderMetrics, logg)
	require.NoError(t, err)
	checkoutSvc, err := checkout.NewService(client, cartSvc, cartRepo, ordersRepo, itemRepo, messageSvc,
		checkout.Options{ClearCartOnCheckout: true}, orderMetrics, logg)
	require.NoError(t, err)

	cfg := &config.Config{
		App:     config.AppConfig{Env: "dev", CORSOrigins: []string{"http://localhost:3000"}},
		JWT:     config.JWTConfig{Secret: "router-secret", Issuer: "iskomart", ExpirationMinutes: 30},
		Metrics: config.MetricsConfig{Enabled: true},
	}
	if mutate != nil {
		mutate(cfg)
	}

	seller := dbtest.SeedUser(t, conn, "sally", "Sally", "Abad")
	return routerFixture{
		handler: NewRouter(cfg, logg, Dependencies{
			DB:          client,
			Gatherer:    reg,
			HTTPMetrics: metrics.NewHTTPMetrics(reg),
			Cart:        cartSvc,
			Checkout:    checkoutSvc,
			Orders:      orderSvc,
			Messages:    messageSvc,
		}),
		cfg:    cfg,
		buyer:  dbtest.SeedUser(t, conn, "juan", "Juan", "Cruz"),
		seller: seller,
		item:   dbtest.SeedItem(t, conn, seller.ID, "Tote Bag", "50"),
	}
}

func (f routerFixture) do(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	f.handler.ServeHTTP(resp, req)

	var decoded map[string]any
	if strings.HasPrefix(resp.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &decoded))
	}
	return resp, decoded
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	f := newRouterFixture(t, nil)
	buyer := f.buyer.ID.String()
	seller := f.seller.ID.String()

	resp, body := f.do(t, http.MethodPost, "/cart/add", map[string]any{"user_id": buyer, "item_id": f.item.ID, "quantity": 2}, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	lineID := body["cart_line"].(map[string]any)["cart_line_id"].(string)

	resp, body = f.do(t, http.MethodGet, "/cart/"+buyer, nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "100.00", body["total_amount"])
	assert.Equal(t, float64(1), body["total_items"])

	resp, body = f.do(t, http.MethodPost, "/orders/place", map[string]any{"user_id": buyer, "selected_items": []string{lineID}}, "")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	placed := body["orders"].([]any)
	require.Len(t, placed, 1)
	order := placed[0].(map[string]any)
	orderID := order["order_id"].(string)
	assert.Equal(t, "100.00", order["total_amount"])
	assert.Equal(t, "Sally Abad", order["seller_name"])

	resp, body = f.do(t, http.MethodGet, "/cart/"+buyer, nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, float64(0), body["total_items"])

	resp, _ = f.do(t, http.MethodPut, "/orders/"+orderID+"/status", map[string]any{"status": "confirmed", "user_id": uuid.NewString()}, "")
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp, body = f.do(t, http.MethodPut, "/orders/"+orderID+"/status", map[string]any{"status": "confirmed", "user_id": seller}, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "confirmed", body["status"])

	resp, body = f.do(t, http.MethodPut, "/orders/status/"+seller, map[string]any{"order_id": orderID, "status": "shipped"}, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "shipped", body["status"])

	resp, _ = f.do(t, http.MethodPut, "/orders/status/"+buyer, map[string]any{"order_id": orderID, "status": "pending"}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp, body = f.do(t, http.MethodGet, "/orders/"+orderID, nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	detail := body["order"].(map[string]any)
	assert.Equal(t, "shipped", detail["status"])
	assert.Len(t, detail["items"], 1)

	resp, body = f.do(t, http.MethodGet, "/orders/buyer/"+buyer, nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, body["orders"], 1)

	resp, body = f.do(t, http.MethodGet, "/orders/between/"+seller+"/"+buyer, nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, body["orders"], 1)

	resp, body = f.do(t, http.MethodGet, "/text/messages/between/"+buyer+"/"+seller, nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	history := body["messages"].([]any)
	require.Len(t, history, 2)
	short := orderID[:8]
	assert.Equal(t, "Order #"+short+" status updated to confirmed", history[0].(map[string]any)["text"])
	assert.Equal(t, "Order #"+short+" status updated to shipped", history[1].(map[string]any)["text"])

	resp = httptest.NewRecorder()
	f.handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `orders_created_total{path="place"} 1`)
	assert.Contains(t, resp.Body.String(), `order_status_changes_total{status="shipped"} 1`)
}

func TestMessagingAndUserLookupOverHTTP(t *testing.T) {
	f := newRouterFixture(t, nil)

	resp, body := f.do(t, http.MethodPost, "/text/messages", map[string]any{
		"sender_id": f.buyer.ID, "receiver_id": f.seller.ID, "text": "still available?",
	}, "")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, "still available?", body["sent_message"].(map[string]any)["text"])

	resp, body = f.do(t, http.MethodGet, "/text/messages/"+f.seller.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, body["messages"], 1)

	resp, body = f.do(t, http.MethodGet, "/text/messages/user/"+f.seller.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Sally Abad", body["user"].(map[string]any)["display_name"])

	resp, _ = f.do(t, http.MethodGet, "/text/messages/user/"+uuid.NewString(), nil, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestRequiredAuthGatesAPIRoutes(t *testing.T) {
	f := newRouterFixture(t, func(cfg *config.Config) { cfg.JWT.Required = true })

	resp, _ := f.do(t, http.MethodGet, "/cart/"+f.buyer.ID.String(), nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp, _ = f.do(t, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, resp.Code)

	token, err := pkgAuth.MintAccessToken(f.cfg.JWT, time.Now(), f.buyer.ID, f.buyer.Username)
	require.NoError(t, err)

	resp, body := f.do(t, http.MethodPost, "/cart/add", map[string]any{"item_id": f.item.ID}, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, f.buyer.ID.String(), body["cart_line"].(map[string]any)["user_id"])

	resp, _ = f.do(t, http.MethodGet, "/cart/"+f.seller.ID.String(), nil, token)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	f := newRouterFixture(t, nil)

	resp, body := f.do(t, http.MethodGet, "/health/ready", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, map[string]any{"database": "ok", "redis": "disabled"}, body["checks"])
	assert.NotEmpty(t, resp.Header().Get("X-Request-Id"))

	resp, _ = f.do(t, http.MethodGet, "/orders/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp, _ = f.do(t, http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
