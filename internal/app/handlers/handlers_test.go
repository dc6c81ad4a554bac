package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/order-service/internal/app/handlers"
	"github.com/linemk/order-service/internal/domain/models"
	"github.com/linemk/order-service/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/order-service/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// fakeAuthService — фиктивная реализация для тестирования.
type fakeAuthService struct {
	token string
	err   error
}

func (f *fakeAuthService) Login(ctx context.Context, username, password string) (string, error) {
	return f.token, f.err
}

// fakeOrderService возвращает заранее заданный заказ или ошибку.
type fakeOrderService struct {
	order *models.Order
	err   error
}

var _ service.OrderService = (*fakeOrderService)(nil)

func (f *fakeOrderService) CreateOrder(ctx context.Context, userID int64, items []service.OrderItemInput, shipping service.ShippingInfo) (*models.Order, error) {
	return f.order, f.err
}

func (f *fakeOrderService) CancelOrder(ctx context.Context, orderID, userID int64, role string) (*models.Order, error) {
	return f.order, f.err
}

func (f *fakeOrderService) UpdateOrderStatus(ctx context.Context, orderID int64, status models.OrderStatus, role string) (*models.Order, error) {
	return f.order, f.err
}

func (f *fakeOrderService) GetOrder(ctx context.Context, orderID, userID int64, role string) (*models.Order, error) {
	return f.order, f.err
}

type fakeQueryService struct {
	page *service.OrdersPage
	err  error
}

var _ service.OrderQueryService = (*fakeQueryService)(nil)

func (f *fakeQueryService) ListOrders(ctx context.Context, userID int64, page, limit int) (*service.OrdersPage, error) {
	return f.page, f.err
}

func (f *fakeQueryService) ListAllOrders(ctx context.Context, page, limit int) (*service.OrdersPage, error) {
	return f.page, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// authedRequest добавляет в контекст userID и роль, как это делает JWT middleware,
// и URL-параметр id для маршрутов chi.
func authedRequest(method, target, body string, userID int64, role, orderID string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	ctx := req.Context()
	if orderID != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", orderID)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	if userID != 0 {
		ctx = context.WithValue(ctx, jwtmiddleware.UserIDKey, userID)
	}
	if role != "" {
		ctx = context.WithValue(ctx, jwtmiddleware.RoleKey, role)
	}
	return req.WithContext(ctx)
}

func sampleOrder() *models.Order {
	return &models.Order{
		ID:          7,
		OrderNumber: "ORD-1700000000-0001",
		UserID:      1,
		Status:      models.OrderStatusPending,
		TotalAmount: decimal.RequireFromString("25.00"),
		Items: []models.OrderItem{
			{ID: 11, OrderID: 7, ProductID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00"), TotalPrice: decimal.RequireFromString("20.00")},
			{ID: 12, OrderID: 7, ProductID: 2, Quantity: 1, UnitPrice: decimal.RequireFromString("5.00"), TotalPrice: decimal.RequireFromString("5.00")},
		},
	}
}

func TestAuthHandler_Success(t *testing.T) {
	fakeSvc := &fakeAuthService{token: "test-token", err: nil}
	handler := handlers.AuthHandler(testLogger(), fakeSvc)

	reqBody := `{"username": "test@example.com", "password": "password123"}`
	req := httptest.NewRequest("POST", "/api/auth", bytes.NewBufferString(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, "Expected status 200 OK")

	var resp handlers.AuthResponse
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err, "Response decoding should succeed")
	assert.Equal(t, "test-token", resp.Token, "Returned token should match fake token")
}

func TestAuthHandler_ValidationError(t *testing.T) {
	handler := handlers.AuthHandler(testLogger(), &fakeAuthService{})

	reqBody := `{"username": "test@example.com", "password": "short"}`
	req := httptest.NewRequest("POST", "/api/auth", bytes.NewBufferString(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected status 400 for validation error")
}

func TestAuthHandler_LoginError(t *testing.T) {
	handler := handlers.AuthHandler(testLogger(), &fakeAuthService{err: assert.AnError})

	reqBody := `{"username": "test@example.com", "password": "password123"}`
	req := httptest.NewRequest("POST", "/api/auth", bytes.NewBufferString(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "Expected status 401 for login error")
}

func TestCreateOrderHandler_Success(t *testing.T) {
	fakeSvc := &fakeOrderService{order: sampleOrder()}
	handler := handlers.CreateOrderHandler(testLogger(), fakeSvc)

	reqBody := `{"items": [{"productId": 1, "quantity": 2}, {"productId": 2, "quantity": 1}], "shippingCity": "Moscow"}`
	req := authedRequest("POST", "/api/v1/orders", reqBody, 1, models.RoleUser, "")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code, "Expected status 201 Created")

	var resp models.Order
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err, "Response decoding should succeed")
	assert.Equal(t, "ORD-1700000000-0001", resp.OrderNumber)
	assert.Equal(t, models.OrderStatusPending, resp.Status)
	assert.Len(t, resp.Items, 2)
}

func TestCreateOrderHandler_Unauthorized(t *testing.T) {
	handler := handlers.CreateOrderHandler(testLogger(), &fakeOrderService{})

	reqBody := `{"items": [{"productId": 1, "quantity": 2}]}`
	req := httptest.NewRequest("POST", "/api/v1/orders", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "Expected status 401 when userID is missing")
}

func TestCreateOrderHandler_InvalidJSON(t *testing.T) {
	handler := handlers.CreateOrderHandler(testLogger(), &fakeOrderService{})

	req := authedRequest("POST", "/api/v1/orders", `{"items": [`, 1, models.RoleUser, "")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected status 400 for invalid JSON")
}

func TestCreateOrderHandler_EmptyItems(t *testing.T) {
	handler := handlers.CreateOrderHandler(testLogger(), &fakeOrderService{})

	req := authedRequest("POST", "/api/v1/orders", `{"items": []}`, 1, models.RoleUser, "")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected status 400 for empty items")
}

func TestCreateOrderHandler_InsufficientStock(t *testing.T) {
	fakeSvc := &fakeOrderService{err: &service.InsufficientStockError{ProductID: 1, Available: 2}}
	handler := handlers.CreateOrderHandler(testLogger(), fakeSvc)

	reqBody := `{"items": [{"productId": 1, "quantity": 3}]}`
	req := authedRequest("POST", "/api/v1/orders", reqBody, 1, models.RoleUser, "")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected status 400 for insufficient stock")

	var resp handlers.ErrorResponse
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err)
	assert.Equal(t, "Insufficient stock for product 1. Available: 2", resp.Message)
}

func TestGetOrderHandler_Success(t *testing.T) {
	handler := handlers.GetOrderHandler(testLogger(), &fakeOrderService{order: sampleOrder()})

	req := authedRequest("GET", "/api/v1/orders/7", "", 1, models.RoleUser, "7")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp models.Order
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), resp.ID)
}

func TestGetOrderHandler_NotFound(t *testing.T) {
	handler := handlers.GetOrderHandler(testLogger(), &fakeOrderService{err: service.ErrOrderNotFound})

	req := authedRequest("GET", "/api/v1/orders/99", "", 1, models.RoleUser, "99")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code, "Expected status 404 for missing order")
}

func TestGetOrderHandler_AccessDenied(t *testing.T) {
	handler := handlers.GetOrderHandler(testLogger(), &fakeOrderService{err: service.ErrAccessDenied})

	req := authedRequest("GET", "/api/v1/orders/7", "", 2, models.RoleUser, "7")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code, "Expected status 403 for foreign order")
}

func TestGetOrderHandler_InvalidID(t *testing.T) {
	handler := handlers.GetOrderHandler(testLogger(), &fakeOrderService{})

	req := authedRequest("GET", "/api/v1/orders/abc", "", 1, models.RoleUser, "abc")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected status 400 for non-numeric id")
}

func TestCancelOrderHandler_Success(t *testing.T) {
	order := sampleOrder()
	order.Status = models.OrderStatusCancelled
	handler := handlers.CancelOrderHandler(testLogger(), &fakeOrderService{order: order})

	req := authedRequest("POST", "/api/v1/orders/7/cancel", "", 1, models.RoleUser, "7")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp models.Order
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, resp.Status)
}

func TestCancelOrderHandler_InvalidTransition(t *testing.T) {
	fakeSvc := &fakeOrderService{err: &service.InvalidTransitionError{
		From: models.OrderStatusDelivered,
		To:   models.OrderStatusCancelled,
	}}
	handler := handlers.CancelOrderHandler(testLogger(), fakeSvc)

	req := authedRequest("POST", "/api/v1/orders/7/cancel", "", 1, models.RoleUser, "7")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected status 400 for invalid transition")
}

func TestUpdateOrderStatusHandler_Success(t *testing.T) {
	order := sampleOrder()
	order.Status = models.OrderStatusConfirmed
	handler := handlers.UpdateOrderStatusHandler(testLogger(), &fakeOrderService{order: order})

	req := authedRequest("PUT", "/api/v1/orders/7/status", `{"status": "CONFIRMED"}`, 1, models.RoleAdmin, "7")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp models.Order
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, resp.Status)
}

func TestUpdateOrderStatusHandler_MissingStatus(t *testing.T) {
	handler := handlers.UpdateOrderStatusHandler(testLogger(), &fakeOrderService{})

	req := authedRequest("PUT", "/api/v1/orders/7/status", `{}`, 1, models.RoleAdmin, "7")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected status 400 when status is missing")
}

func TestUpdateOrderStatusHandler_ServiceError(t *testing.T) {
	// Неклассифицированная ошибка сервиса превращается в 500.
	handler := handlers.UpdateOrderStatusHandler(testLogger(), &fakeOrderService{err: assert.AnError})

	req := authedRequest("PUT", "/api/v1/orders/7/status", `{"status": "CONFIRMED"}`, 1, models.RoleAdmin, "7")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestListOrdersHandler_Success(t *testing.T) {
	fakeSvc := &fakeQueryService{page: &service.OrdersPage{
		Orders:     []*models.Order{sampleOrder()},
		Total:      25,
		Page:       1,
		Limit:      10,
		TotalPages: 3,
	}}
	handler := handlers.ListOrdersHandler(testLogger(), fakeSvc)

	req := authedRequest("GET", "/api/v1/orders?page=1&limit=10", "", 1, models.RoleUser, "")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp service.OrdersPage
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err)
	assert.Equal(t, 25, resp.Total)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Len(t, resp.Orders, 1)
}

func TestListOrdersHandler_Unauthorized(t *testing.T) {
	handler := handlers.ListOrdersHandler(testLogger(), &fakeQueryService{})

	req := httptest.NewRequest("GET", "/api/v1/orders", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestListOrdersHandler_BadPagination(t *testing.T) {
	handler := handlers.ListOrdersHandler(testLogger(), &fakeQueryService{})

	req := authedRequest("GET", "/api/v1/orders?page=abc", "", 1, models.RoleUser, "")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected status 400 for non-numeric page")

	req = authedRequest("GET", "/api/v1/orders?page=0", "", 1, models.RoleUser, "")
	rr = httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected status 400 for page below one")
}

func TestListAllOrdersHandler_Success(t *testing.T) {
	fakeSvc := &fakeQueryService{page: &service.OrdersPage{
		Orders:     []*models.Order{sampleOrder()},
		Total:      1,
		Page:       1,
		Limit:      10,
		TotalPages: 1,
	}}
	handler := handlers.ListAllOrdersHandler(testLogger(), fakeSvc)

	req := authedRequest("GET", "/api/v1/orders/all", "", 1, models.RoleAdmin, "")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp service.OrdersPage
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
}
