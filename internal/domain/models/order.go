package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType направление движения товара
type OrderType string

const (
	OrderIncoming OrderType = "Incoming"
	OrderOutgoing OrderType = "Outgoing"
)

// DeletedProductName подставляется вместо имени товара, который был удалён
const DeletedProductName = "Deleted"

// ParseOrderType проверяет тип заказа, пришедший из формы
func ParseOrderType(s string) (OrderType, bool) {
	switch OrderType(s) {
	case OrderIncoming, OrderOutgoing:
		return OrderType(s), true
	}
	return "", false
}

// Delta возвращает изменение остатка для заказа данного типа
func (t OrderType) Delta(quantity int) int {
	if t == OrderIncoming {
		return quantity
	}
	return -quantity
}

// Order заголовок заказа
type Order struct {
	ID         int64           `json:"id"`
	SellerID   int64           `json:"seller_id"`
	Type       OrderType       `json:"type"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
}

// OrderItem строка заказа; цена является снимком на момент заказа
type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID *int64          `json:"product_id,omitempty"` // nil, если товар удалён
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderLine строка заказа для просмотра деталей; имя товара подтягивается через LEFT JOIN
type OrderLine struct {
	ID          int64
	ProductName string
	Quantity    int
	Price       decimal.Decimal
	Total       decimal.Decimal
}
