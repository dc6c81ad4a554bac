package models

import "github.com/shopspring/decimal"

// Product — товар каталога. Каталогом владеет отдельный сервис, здесь
// используются только цена, признак доступности и остаток на складе.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable bool            `json:"isAvailable"`
	Stock       int             `json:"stock"`
}
