package models

import "github.com/shopspring/decimal"

// DraftItem черновая строка заказа, живёт только в сессии
type DraftItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Total стоимость строки
func (i DraftItem) Total() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Draft черновик заказа одной браузерной сессии.
// Одинаковые товары не схлопываются: каждое добавление даёт отдельную строку.
type Draft struct {
	Items []DraftItem `json:"items"`
}

func (d *Draft) IsEmpty() bool {
	return d == nil || len(d.Items) == 0
}

func (d *Draft) Add(item DraftItem) {
	d.Items = append(d.Items, item)
}

// Remove удаляет строку по индексу, false если индекс вне диапазона
func (d *Draft) Remove(index int) bool {
	if d == nil || index < 0 || index >= len(d.Items) {
		return false
	}
	d.Items = append(d.Items[:index], d.Items[index+1:]...)
	return true
}

func (d *Draft) Clear() {
	d.Items = nil
}

// Total сумма по всем строкам черновика
func (d *Draft) Total() decimal.Decimal {
	total := decimal.Zero
	if d == nil {
		return total
	}
	for _, item := range d.Items {
		total = total.Add(item.Total())
	}
	return total
}
