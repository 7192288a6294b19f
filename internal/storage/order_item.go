package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linemk/inventory-system/internal/domain/models"
	"github.com/shopspring/decimal"
)

// OrderItemStorage описывает методы для работы со строками заказов.
type OrderItemStorage interface {
	// CreateOrderItemTx вставляет строку заказа со снимком цены.
	CreateOrderItemTx(ctx context.Context, tx *sql.Tx, item *models.OrderItem) error
	// ListOrderLines возвращает строки заказа с именами товаров; удалённый товар получает имя-заглушку.
	ListOrderLines(ctx context.Context, orderID int64) ([]*models.OrderLine, error)
}

type orderItemRepository struct {
	db *sql.DB
}

func NewOrderItemRepository(db *sql.DB) OrderItemStorage {
	return &orderItemRepository{db: db}
}

func (r *orderItemRepository) CreateOrderItemTx(ctx context.Context, tx *sql.Tx, item *models.OrderItem) error {
	var id int64
	err := tx.QueryRowContext(ctx,
		"INSERT INTO order_items (order_id, product_id, quantity, price) VALUES ($1, $2, $3, $4) RETURNING id",
		item.OrderID, item.ProductID, item.Quantity, item.Price,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to create order item: %w", err)
	}
	item.ID = id
	return nil
}

func (r *orderItemRepository) ListOrderLines(ctx context.Context, orderID int64) ([]*models.OrderLine, error) {
	query := `
		SELECT oi.id, p.name, oi.quantity, oi.price
		FROM order_items oi
		LEFT JOIN products p ON oi.product_id = p.id
		WHERE oi.order_id = $1
		ORDER BY oi.id`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	lines := make([]*models.OrderLine, 0)
	for rows.Next() {
		line := &models.OrderLine{}
		var name sql.NullString
		if err := rows.Scan(&line.ID, &name, &line.Quantity, &line.Price); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		line.ProductName = models.DeletedProductName
		if name.Valid {
			line.ProductName = name.String
		}
		line.Total = line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
