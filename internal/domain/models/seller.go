package models

// Seller представляет продавца, владельца каталога и заказов
type Seller struct {
	ID       int64
	Name     string
	Username string // уникальный логин
	PassHash []byte // bcrypt-хэш пароля
}
