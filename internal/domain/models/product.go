package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpiryLayout формат даты срока годности в формах и шаблонах
const ExpiryLayout = "2006-01-02"

// Product представляет товар в каталоге продавца
type Product struct {
	ID       int64           `json:"id"`
	SellerID int64           `json:"seller_id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`    // NUMERIC(10,2)
	Quantity int             `json:"quantity"` // может уходить в минус
	Category string          `json:"category"`
	Expiry   *time.Time      `json:"expiry,omitempty"`
}

// ExpiryString возвращает срок годности в формате формы или пустую строку
func (p *Product) ExpiryString() string {
	if p.Expiry == nil {
		return ""
	}
	return p.Expiry.Format(ExpiryLayout)
}
