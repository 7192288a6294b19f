// Package session хранит состояние браузерной сессии: продавца и черновик заказа.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/linemk/inventory-system/internal/domain/models"
)

var ErrNotFound = errors.New("session not found")

// Session состояние одной браузерной сессии
type Session struct {
	ID        string       `json:"id"`
	SellerID  int64        `json:"seller_id"`
	Draft     models.Draft `json:"draft"`
	CreatedAt time.Time    `json:"created_at"`
}

// New создаёт сессию с пустым черновиком
func New(sellerID int64) *Session {
	return &Session{
		ID:        uuid.NewString(),
		SellerID:  sellerID,
		CreatedAt: time.Now().UTC(),
	}
}

// Store хранилище сессий. Get возвращает копию: изменения видны другим запросам только после Save.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}
