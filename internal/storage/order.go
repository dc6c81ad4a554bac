package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/linemk/order-service/internal/domain/models"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrDuplicateOrderNumber возвращается при нарушении уникальности номера
	// заказа; сервис генерирует новый номер и повторяет транзакцию.
	ErrDuplicateOrderNumber = errors.New("duplicate order number")
)

const pqUniqueViolation = "23505"

// OrderStorage описывает методы для работы с заказами и их позициями.
type OrderStorage interface {
	// CreateOrderTx вставляет заказ вместе с позициями в рамках транзакции.
	CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) (*models.Order, error)
	// GetOrderByID возвращает заказ с позициями.
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	// LockOrderTx читает заказ с блокировкой строки (FOR UPDATE), чтобы две
	// конкурентные отмены не восстановили остаток дважды.
	LockOrderTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error)
	// GetOrderItemsTx возвращает позиции заказа в рамках транзакции.
	GetOrderItemsTx(ctx context.Context, tx *sql.Tx, orderID int64) ([]models.OrderItem, error)
	// UpdateOrderStatusTx записывает новый статус заказа.
	UpdateOrderStatusTx(ctx context.Context, tx *sql.Tx, orderID int64, status models.OrderStatus) error
	// ListOrdersByUserID возвращает страницу заказов пользователя и общее количество.
	ListOrdersByUserID(ctx context.Context, userID int64, limit, offset int) ([]*models.Order, int, error)
	// ListAllOrders возвращает страницу всех заказов и общее количество.
	ListAllOrders(ctx context.Context, limit, offset int) ([]*models.Order, int, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

const orderColumns = `id, order_number, user_id, status, total_amount, shipping_cost, tax_amount,
		shipping_address, shipping_city, shipping_postal_code, shipping_country, notes, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }, order *models.Order) error {
	return row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&order.Status,
		&order.TotalAmount,
		&order.ShippingCost,
		&order.TaxAmount,
		&order.ShippingAddress,
		&order.ShippingCity,
		&order.ShippingPostalCode,
		&order.ShippingCountry,
		&order.Notes,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
}

func (r *orderRepository) CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) (*models.Order, error) {
	query := `INSERT INTO orders (order_number, user_id, status, total_amount, shipping_cost, tax_amount,
			shipping_address, shipping_city, shipping_postal_code, shipping_country, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id, created_at, updated_at`
	err := tx.QueryRowContext(ctx, query,
		order.OrderNumber,
		order.UserID,
		order.Status,
		order.TotalAmount,
		order.ShippingCost,
		order.TaxAmount,
		order.ShippingAddress,
		order.ShippingCity,
		order.ShippingPostalCode,
		order.ShippingCountry,
		order.Notes,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return nil, ErrDuplicateOrderNumber
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `INSERT INTO order_items (order_id, product_id, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		if err := tx.QueryRowContext(ctx, itemQuery,
			item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice,
		).Scan(&item.ID); err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
	}
	return order, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if err := scanOrder(r.db.QueryRowContext(ctx, query, id), order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	items, err := r.getOrderItems(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *orderRepository) LockOrderTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	if err := scanOrder(tx.QueryRowContext(ctx, query, id), order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *orderRepository) getOrderItems(ctx context.Context, q queryer, orderID int64) ([]models.OrderItem, error) {
	query := `SELECT id, order_id, product_id, quantity, unit_price, total_price
		FROM order_items WHERE order_id = $1 ORDER BY id`
	rows, err := q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *orderRepository) GetOrderItemsTx(ctx context.Context, tx *sql.Tx, orderID int64) ([]models.OrderItem, error) {
	return r.getOrderItems(ctx, tx, orderID)
}

func (r *orderRepository) UpdateOrderStatusTx(ctx context.Context, tx *sql.Tx, orderID int64, status models.OrderStatus) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) ListOrdersByUserID(ctx context.Context, userID int64, limit, offset int) ([]*models.Order, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders WHERE user_id = $1", userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepository) ListAllOrders(ctx context.Context, limit, offset int) ([]*models.Order, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func collectOrders(rows *sql.Rows) ([]*models.Order, error) {
	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		if err := scanOrder(rows, order); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}
