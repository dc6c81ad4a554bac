package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/order-service/internal/domain/models"
	"github.com/linemk/order-service/internal/storage"
)

// CancelOrder отменяет заказ и возвращает остатки по всем его позициям.
// Строка заказа блокируется на время транзакции, поэтому две конкурентные
// отмены не восстановят остаток дважды: вторая увидит статус CANCELLED.
func (s *orderService) CancelOrder(ctx context.Context, orderID, userID int64, role string) (*models.Order, error) {
	const op = "service.OrderService.CancelOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID), slog.Int64("userID", userID))
	logger.Info("starting order cancellation")

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

	// Отменить заказ может только его владелец или администратор.
	if order.UserID != userID && role != models.RoleAdmin {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("access denied", slog.Int64("ownerID", order.UserID))
		return nil, fmt.Errorf("%s: %w", op, ErrAccessDenied)
	}

	if !order.Status.CanTransitionTo(models.OrderStatusCancelled) {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("cancellation rejected", slog.String("status", string(order.Status)))
		return nil, fmt.Errorf("%s: %w", op, &InvalidTransitionError{From: order.Status, To: models.OrderStatusCancelled})
	}

	items, err := s.orderRepo.GetOrderItemsTx(ctx, tx, orderID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to get order items", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order items: %w", op, err)
	}

	for _, item := range items {
		if err := s.productRepo.RestoreStockTx(ctx, tx, item.ProductID, item.Quantity); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Error("failed to restore stock", slog.Int64("productID", item.ProductID), slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to restore stock: %w", op, err)
		}
	}

	if err := s.orderRepo.UpdateOrderStatusTx(ctx, tx, orderID, models.OrderStatusCancelled); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to update order status", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update order status: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	order.Status = models.OrderStatusCancelled
	order.Items = items
	logger.Info("order cancelled")
	return order, nil
}
