package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/linemk/order-service/internal/domain/models"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductStorage описывает методы для работы с остатками товаров.
// Все изменения остатков выполняются внутри транзакции заказа.
type ProductStorage interface {
	// GetProductTx читает товар (цена, доступность, остаток) в рамках транзакции.
	GetProductTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error)
	// DecrementStockTx атомарно списывает остаток с условием stock >= quantity.
	// Ноль затронутых строк означает нехватку остатка.
	DecrementStockTx(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error
	// RestoreStockTx возвращает остаток при отмене заказа.
	RestoreStockTx(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт новый репозиторий товаров.
func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

func (r *productRepository) GetProductTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error) {
	product := &models.Product{}
	row := tx.QueryRowContext(ctx, "SELECT id, name, price, is_available, stock FROM products WHERE id = $1", id)
	if err := row.Scan(&product.ID, &product.Name, &product.Price, &product.IsAvailable, &product.Stock); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// DecrementStockTx выполняет условное списание: UPDATE с охранным условием
// по остатку, а не чтение-затем-запись. Конкурирующие заказы на один товар
// сериализуются на строке товара, остаток не уходит в минус.
func (r *productRepository) DecrementStockTx(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1",
		quantity, productID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// RestoreStockTx увеличивает остаток на количество из позиции заказа.
// Товар мог быть удалён из каталога после оформления заказа — в этом случае
// возвращать остаток некуда, и это не ошибка отмены.
func (r *productRepository) RestoreStockTx(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE products SET stock = stock + $1 WHERE id = $2",
		quantity, productID)
	return err
}
