package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/linemk/order-service/internal/domain/models"
	"github.com/linemk/order-service/internal/storage"
	"github.com/shopspring/decimal"
)

// Ошибки бизнес-логики заказов. Транспортный слой сопоставляет их с HTTP-кодами.
var (
	ErrEmptyOrder         = errors.New("order must contain at least one item")
	ErrInvalidQuantity    = errors.New("item quantity must be positive")
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrOrderNotFound      = errors.New("order not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrUnknownStatus      = errors.New("unknown order status")
)

// InsufficientStockError возвращается, когда остатка товара не хватает на
// запрошенное количество; несёт доступный остаток для сообщения пользователю.
type InsufficientStockError struct {
	ProductID int64
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for product %d. Available: %d", e.ProductID, e.Available)
}

// InvalidTransitionError возвращается при недопустимом переходе статуса.
type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition: %s -> %s", e.From, e.To)
}

// OrderItemInput — запрошенная позиция заказа: товар и количество.
type OrderItemInput struct {
	ProductID int64
	Quantity  int
}

// ShippingInfo — необязательные данные доставки, сохраняемые вместе с заказом.
type ShippingInfo struct {
	Address    string
	City       string
	PostalCode string
	Country    string
	Notes      string
}

// OrderService определяет операции жизненного цикла заказа.
type OrderService interface {
	CreateOrder(ctx context.Context, userID int64, items []OrderItemInput, shipping ShippingInfo) (*models.Order, error)
	CancelOrder(ctx context.Context, orderID, userID int64, role string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status models.OrderStatus, role string) (*models.Order, error)
	GetOrder(ctx context.Context, orderID, userID int64, role string) (*models.Order, error)
}

type orderService struct {
	log         *slog.Logger
	db          *sql.DB
	productRepo storage.ProductStorage
	orderRepo   storage.OrderStorage
}

func NewOrderService(log *slog.Logger, db *sql.DB, productRepo storage.ProductStorage, orderRepo storage.OrderStorage) OrderService {
	return &orderService{
		log:         log,
		db:          db,
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

// maxOrderNumberAttempts ограничивает повторы при коллизии номера заказа.
const maxOrderNumberAttempts = 3

// generateOrderNumber собирает номер заказа из метки времени и случайного
// суффикса. Уникальность гарантирует не генерация, а уникальный индекс в БД:
// при коллизии транзакция повторяется с новым номером.
func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%d-%04d", time.Now().UnixNano(), rand.Intn(10000))
}

// CreateOrder оформляет заказ: проверяет каждую позицию, атомарно списывает
// остатки и сохраняет заказ с позициями в одной транзакции. Любая ошибка по
// любой позиции откатывает всё — частично оформленных заказов не бывает.
func (s *orderService) CreateOrder(ctx context.Context, userID int64, items []OrderItemInput, shipping ShippingInfo) (*models.Order, error) {
	const op = "service.OrderService.CreateOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyOrder)
	}
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidQuantity)
		}
	}

	logger.Info("starting order transaction", slog.Int("items", len(items)))

	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		order, err := s.createOrderTx(ctx, logger, userID, items, shipping)
		if err != nil {
			if errors.Is(err, storage.ErrDuplicateOrderNumber) {
				logger.Warn("order number collision, retrying", slog.Int("attempt", attempt))
				continue
			}
			return nil, err
		}
		logger.Info("order created", slog.Int64("orderID", order.ID), slog.String("orderNumber", order.OrderNumber))
		return order, nil
	}
	return nil, fmt.Errorf("%s: %w", op, storage.ErrDuplicateOrderNumber)
}

func (s *orderService) createOrderTx(ctx context.Context, logger *slog.Logger, userID int64, items []OrderItemInput, shipping ShippingInfo) (*models.Order, error) {
	const op = "service.OrderService.CreateOrder"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	totalAmount := decimal.Zero
	orderItems := make([]models.OrderItem, 0, len(items))

	for _, in := range items {
		product, err := s.productRepo.GetProductTx(ctx, tx, in.ProductID)
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			if errors.Is(err, storage.ErrProductNotFound) {
				logger.Warn("product not found", slog.Int64("productID", in.ProductID))
				return nil, fmt.Errorf("%s: %w", op, ErrProductNotFound)
			}
			logger.Error("failed to get product", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to get product: %w", op, err)
		}

		if !product.IsAvailable {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Warn("product is not available", slog.Int64("productID", in.ProductID))
			return nil, fmt.Errorf("%s: %w", op, ErrProductUnavailable)
		}

		if product.Stock < in.Quantity {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Warn("insufficient stock", slog.Int64("productID", in.ProductID), slog.Int("stock", product.Stock), slog.Int("requested", in.Quantity))
			return nil, fmt.Errorf("%s: %w", op, &InsufficientStockError{ProductID: in.ProductID, Available: product.Stock})
		}

		// Списание с охранным условием по остатку: при конкурентном заказе
		// на тот же товар проигравшая транзакция получает отказ, а не минус.
		if err := s.productRepo.DecrementStockTx(ctx, tx, in.ProductID, in.Quantity); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			if errors.Is(err, storage.ErrInsufficientStock) {
				logger.Warn("stock reservation lost the race", slog.Int64("productID", in.ProductID))
				return nil, fmt.Errorf("%s: %w", op, &InsufficientStockError{ProductID: in.ProductID, Available: product.Stock})
			}
			logger.Error("failed to decrement stock", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to decrement stock: %w", op, err)
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(in.Quantity)))
		orderItems = append(orderItems, models.OrderItem{
			ProductID:  in.ProductID,
			Quantity:   in.Quantity,
			UnitPrice:  product.Price,
			TotalPrice: lineTotal,
		})
		totalAmount = totalAmount.Add(lineTotal)
	}

	order := &models.Order{
		OrderNumber:        generateOrderNumber(),
		UserID:             userID,
		Status:             models.OrderStatusPending,
		TotalAmount:        totalAmount,
		ShippingCost:       decimal.Zero,
		TaxAmount:          decimal.Zero,
		ShippingAddress:    shipping.Address,
		ShippingCity:       shipping.City,
		ShippingPostalCode: shipping.PostalCode,
		ShippingCountry:    shipping.Country,
		Notes:              shipping.Notes,
		Items:              orderItems,
	}

	created, err := s.orderRepo.CreateOrderTx(ctx, tx, order)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		if errors.Is(err, storage.ErrDuplicateOrderNumber) {
			return nil, err
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}
	return created, nil
}
