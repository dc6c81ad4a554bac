package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/order-service/internal/domain/models"
	"github.com/linemk/order-service/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/order-service/internal/service"
)

// CreateOrderItemRequest — позиция в запросе на оформление заказа.
type CreateOrderItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderRequest представляет входной JSON для оформления заказа.
type CreateOrderRequest struct {
	Items              []CreateOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress    string                   `json:"shippingAddress"`
	ShippingCity       string                   `json:"shippingCity"`
	ShippingPostalCode string                   `json:"shippingPostalCode"`
	ShippingCountry    string                   `json:"shippingCountry"`
	Notes              string                   `json:"notes"`
}

// UpdateStatusRequest представляет входной JSON для смены статуса заказа.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CreateOrderHandler обрабатывает запрос POST /api/v1/orders.
func CreateOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateOrderHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "validation error")
			return
		}

		items := make([]service.OrderItemInput, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, service.OrderItemInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}
		shipping := service.ShippingInfo{
			Address:    req.ShippingAddress,
			City:       req.ShippingCity,
			PostalCode: req.ShippingPostalCode,
			Country:    req.ShippingCountry,
			Notes:      req.Notes,
		}

		order, err := orderService.CreateOrder(r.Context(), userID, items, shipping)
		if err != nil {
			logger.Warn("failed to create order", slog.Any("error", err))
			writeServiceError(logger, w, err)
			return
		}

		writeJSON(logger, w, http.StatusCreated, order)
	}
}

// GetOrderHandler обрабатывает запрос GET /api/v1/orders/{id}.
func GetOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetOrderHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		role, _ := jwtmiddleware.RoleFromContext(r.Context())

		orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			logger.Error("invalid order id", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "invalid order id")
			return
		}

		order, err := orderService.GetOrder(r.Context(), orderID, userID, role)
		if err != nil {
			logger.Warn("failed to get order", slog.Any("error", err))
			writeServiceError(logger, w, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, order)
	}
}

// CancelOrderHandler обрабатывает запрос POST /api/v1/orders/{id}/cancel.
func CancelOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CancelOrderHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		role, _ := jwtmiddleware.RoleFromContext(r.Context())

		orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			logger.Error("invalid order id", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "invalid order id")
			return
		}

		order, err := orderService.CancelOrder(r.Context(), orderID, userID, role)
		if err != nil {
			logger.Warn("failed to cancel order", slog.Any("error", err))
			writeServiceError(logger, w, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, order)
	}
}

// UpdateOrderStatusHandler обрабатывает запрос PUT /api/v1/orders/{id}/status.
// Маршрут закрыт административным middleware, роль дополнительно проверяется
// в сервисе.
func UpdateOrderStatusHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateOrderStatusHandler"
		logger := log.With(slog.String("op", op))

		role, _ := jwtmiddleware.RoleFromContext(r.Context())

		orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			logger.Error("invalid order id", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "invalid order id")
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "validation error")
			return
		}

		order, err := orderService.UpdateOrderStatus(r.Context(), orderID, models.OrderStatus(req.Status), role)
		if err != nil {
			logger.Warn("failed to update order status", slog.Any("error", err))
			writeServiceError(logger, w, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, order)
	}
}
