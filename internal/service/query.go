package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/order-service/internal/domain/models"
	"github.com/linemk/order-service/internal/storage"
)

// ErrInvalidPage возвращается, если номер страницы или размер меньше единицы.
var ErrInvalidPage = errors.New("page and limit must be positive")

// maxPageLimit ограничивает размер страницы, чтобы один запрос не вытягивал
// всю историю заказов.
const maxPageLimit = 100

// OrdersPage — страница заказов с метаданными пагинации.
type OrdersPage struct {
	Orders     []*models.Order `json:"orders"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"totalPages"`
}

// OrderQueryService — читающий слой поверх хранилища заказов, без побочных эффектов.
type OrderQueryService interface {
	ListOrders(ctx context.Context, userID int64, page, limit int) (*OrdersPage, error)
	ListAllOrders(ctx context.Context, page, limit int) (*OrdersPage, error)
}

type orderQueryService struct {
	log       *slog.Logger
	orderRepo storage.OrderStorage
}

func NewOrderQueryService(log *slog.Logger, orderRepo storage.OrderStorage) OrderQueryService {
	return &orderQueryService{
		log:       log,
		orderRepo: orderRepo,
	}
}

func normalizePage(page, limit int) (int, int, error) {
	if page < 1 || limit < 1 {
		return 0, 0, ErrInvalidPage
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit, nil
}

func newOrdersPage(orders []*models.Order, total, page, limit int) *OrdersPage {
	if orders == nil {
		orders = []*models.Order{}
	}
	return &OrdersPage{
		Orders:     orders,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}
}

// ListOrders возвращает страницу заказов пользователя, новые первыми.
func (s *orderQueryService) ListOrders(ctx context.Context, userID int64, page, limit int) (*OrdersPage, error) {
	const op = "service.OrderQueryService.ListOrders"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	page, limit, err := normalizePage(page, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	orders, total, err := s.orderRepo.ListOrdersByUserID(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		logger.Error("failed to list orders", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list orders: %w", op, err)
	}
	return newOrdersPage(orders, total, page, limit), nil
}

// ListAllOrders возвращает страницу всех заказов; доступ ограничивается на
// транспортном уровне административной ролью.
func (s *orderQueryService) ListAllOrders(ctx context.Context, page, limit int) (*OrdersPage, error) {
	const op = "service.OrderQueryService.ListAllOrders"
	logger := s.log.With(slog.String("op", op))

	page, limit, err := normalizePage(page, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	orders, total, err := s.orderRepo.ListAllOrders(ctx, limit, (page-1)*limit)
	if err != nil {
		logger.Error("failed to list orders", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list orders: %w", op, err)
	}
	return newOrdersPage(orders, total, page, limit), nil
}
