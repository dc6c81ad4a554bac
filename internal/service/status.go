package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/order-service/internal/domain/models"
	"github.com/linemk/order-service/internal/storage"
)

// UpdateOrderStatus — административный перевод заказа по таблице переходов.
// Перевод в CANCELLED идёт тем же путём, что и пользовательская отмена, и
// возвращает остатки в той же транзакции.
func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID int64, status models.OrderStatus, role string) (*models.Order, error) {
	const op = "service.OrderService.UpdateOrderStatus"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID), slog.String("status", string(status)))

	if role != models.RoleAdmin {
		logger.Warn("access denied", slog.String("role", role))
		return nil, fmt.Errorf("%s: %w", op, ErrAccessDenied)
	}
	if !status.Valid() {
		logger.Warn("unknown status requested")
		return nil, fmt.Errorf("%s: %w", op, ErrUnknownStatus)
	}

	if status == models.OrderStatusCancelled {
		return s.CancelOrder(ctx, orderID, 0, models.RoleAdmin)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	order, err := s.orderRepo.LockOrderTx(ctx, tx, orderID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		if errors.Is(err, storage.ErrOrderNotFound) {
			logger.Warn("order not found")
			return nil, fmt.Errorf("%s: %w", op, ErrOrderNotFound)
		}
		logger.Error("failed to lock order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to lock order: %w", op, err)
	}

	if !order.Status.CanTransitionTo(status) {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("transition rejected", slog.String("from", string(order.Status)))
		return nil, fmt.Errorf("%s: %w", op, &InvalidTransitionError{From: order.Status, To: status})
	}

	if err := s.orderRepo.UpdateOrderStatusTx(ctx, tx, orderID, status); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to update order status", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update order status: %w", op, err)
	}

	items, err := s.orderRepo.GetOrderItemsTx(ctx, tx, orderID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to get order items", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order items: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("order status updated", slog.String("from", string(order.Status)))
	order.Status = status
	order.Items = items
	return order, nil
}

// GetOrder возвращает заказ с позициями; чужой заказ виден только администратору.
func (s *orderService) GetOrder(ctx context.Context, orderID, userID int64, role string) (*models.Order, error) {
	const op = "service.OrderService.GetOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID))

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			logger.Warn("order not found")
			return nil, fmt.Errorf("%s: %w", op, ErrOrderNotFound)
		}
		logger.Error("failed to get order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order: %w", op, err)
	}

	if order.UserID != userID && role != models.RoleAdmin {
		logger.Warn("access denied", slog.Int64("userID", userID))
		return nil, fmt.Errorf("%s: %w", op, ErrAccessDenied)
	}
	return order, nil
}
