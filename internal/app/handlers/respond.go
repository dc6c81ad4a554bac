package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/linemk/order-service/internal/service"
)

// ErrorResponse — тело ответа при ошибке.
type ErrorResponse struct {
	Message string `json:"message"`
}

func writeJSON(logger *slog.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Message: message})
}

// writeServiceError сопоставляет ошибки бизнес-логики с HTTP-кодами:
// 400 — валидация, остатки и недопустимые переходы, 403 — доступ,
// 404 — отсутствующий заказ, 500 — всё остальное. Текст внутренних ошибок
// клиенту не отдаётся.
func writeServiceError(logger *slog.Logger, w http.ResponseWriter, err error) {
	var stockErr *service.InsufficientStockError
	var transitionErr *service.InvalidTransitionError

	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, service.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "access denied")
	case errors.As(err, &stockErr):
		writeError(w, http.StatusBadRequest, stockErr.Error())
	case errors.As(err, &transitionErr):
		writeError(w, http.StatusBadRequest, transitionErr.Error())
	case errors.Is(err, service.ErrProductNotFound):
		writeError(w, http.StatusBadRequest, "product not found")
	case errors.Is(err, service.ErrProductUnavailable):
		writeError(w, http.StatusBadRequest, "product is not available")
	case errors.Is(err, service.ErrEmptyOrder):
		writeError(w, http.StatusBadRequest, "order must contain at least one item")
	case errors.Is(err, service.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "item quantity must be positive")
	case errors.Is(err, service.ErrUnknownStatus):
		writeError(w, http.StatusBadRequest, "unknown order status")
	case errors.Is(err, service.ErrInvalidPage):
		writeError(w, http.StatusBadRequest, "page and limit must be positive")
	default:
		logger.Error("internal error", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
