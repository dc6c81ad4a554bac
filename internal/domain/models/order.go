package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus — статус заказа. Закрытый набор значений, допустимые переходы
// задаются таблицей orderTransitions, а не проверками по месту вызова.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// orderTransitions — таблица допустимых переходов между статусами.
// У терминальных статусов (DELIVERED, CANCELLED) исходящих переходов нет.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// Valid сообщает, входит ли статус в известный набор.
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// Terminal сообщает, является ли статус терминальным.
func (s OrderStatus) Terminal() bool {
	next, ok := orderTransitions[s]
	return ok && len(next) == 0
}

// CanTransitionTo проверяет допустимость перехода по таблице.
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderItem — позиция заказа: снимок товара, количества и цены на момент
// оформления. После записи позиция не изменяется; товар каталога может быть
// удалён или изменён, на историческую позицию это не влияет.
type OrderItem struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"orderId"`
	ProductID  int64           `json:"productId"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// Order — заказ пользователя. Инвариант: TotalAmount равен сумме TotalPrice
// всех позиций; позиции после создания заказа не добавляются и не изменяются.
type Order struct {
	ID                 int64           `json:"id"`
	OrderNumber        string          `json:"orderNumber"`
	UserID             int64           `json:"userId"`
	Status             OrderStatus     `json:"status"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	ShippingCost       decimal.Decimal `json:"shippingCost"`
	TaxAmount          decimal.Decimal `json:"taxAmount"`
	ShippingAddress    string          `json:"shippingAddress,omitempty"`
	ShippingCity       string          `json:"shippingCity,omitempty"`
	ShippingPostalCode string          `json:"shippingPostalCode,omitempty"`
	ShippingCountry    string          `json:"shippingCountry,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
	Items              []OrderItem     `json:"items,omitempty"`
}
