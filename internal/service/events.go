package service

import (
	"context"

	"github.com/linemk/inventory-system/internal/domain/models"
)

// OrderEventPublisher получает событие о заказе после успешного коммита
type OrderEventPublisher interface {
	PublishOrderCommitted(ctx context.Context, event models.OrderCommitted) error
}

// NopPublisher используется, когда шина событий не настроена
type NopPublisher struct{}

func (NopPublisher) PublishOrderCommitted(context.Context, models.OrderCommitted) error { return nil }
