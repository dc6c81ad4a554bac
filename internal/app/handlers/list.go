package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/linemk/order-service/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/order-service/internal/service"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// parsePagination читает параметры page и limit из строки запроса.
// Отсутствующие параметры заменяются значениями по умолчанию,
// нечисловые или меньшие единицы — ошибка.
func parsePagination(r *http.Request) (int, int, bool) {
	page, limit := defaultPage, defaultLimit

	if raw := r.URL.Query().Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return 0, 0, false
		}
		page = v
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return 0, 0, false
		}
		limit = v
	}
	return page, limit, true
}

// ListOrdersHandler обрабатывает запрос GET /api/v1/orders — заказы владельца.
func ListOrdersHandler(log *slog.Logger, queryService service.OrderQueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListOrdersHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		page, limit, ok := parsePagination(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "page and limit must be positive integers")
			return
		}

		result, err := queryService.ListOrders(r.Context(), userID, page, limit)
		if err != nil {
			logger.Error("failed to list orders", slog.Any("error", err))
			writeServiceError(logger, w, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, result)
	}
}

// ListAllOrdersHandler обрабатывает запрос GET /api/v1/orders/all — все заказы,
// только для администратора (маршрут закрыт RequireAdmin).
func ListAllOrdersHandler(log *slog.Logger, queryService service.OrderQueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListAllOrdersHandler"
		logger := log.With(slog.String("op", op))

		page, limit, ok := parsePagination(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "page and limit must be positive integers")
			return
		}

		result, err := queryService.ListAllOrders(r.Context(), page, limit)
		if err != nil {
			logger.Error("failed to list orders", slog.Any("error", err))
			writeServiceError(logger, w, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, result)
	}
}
