package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderCommitted событие о зафиксированном заказе, уходит во внешнюю шину после коммита
type OrderCommitted struct {
	OrderID     int64                `json:"order_id"`
	SellerID    int64                `json:"seller_id"`
	Type        OrderType            `json:"type"`
	TotalPrice  decimal.Decimal      `json:"total_price"`
	Items       []OrderCommittedItem `json:"items"`
	CommittedAt time.Time            `json:"committed_at"`
}

type OrderCommittedItem struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Delta     int             `json:"delta"` // изменение остатка товара
}
