package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/inventory-system/internal/domain/models"
	"github.com/shopspring/decimal"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderStorage описывает методы для работы с заголовками заказов.
type OrderStorage interface {
	// CreateOrderTx вставляет заголовок с нулевой суммой и возвращает его id.
	CreateOrderTx(ctx context.Context, tx *sql.Tx, sellerID int64, orderType models.OrderType) (int64, error)
	// UpdateOrderTotalTx записывает итоговую сумму после вставки строк.
	UpdateOrderTotalTx(ctx context.Context, tx *sql.Tx, orderID int64, total decimal.Decimal) error
	// ListOrdersBySeller возвращает заказы продавца, новые первыми.
	ListOrdersBySeller(ctx context.Context, sellerID int64) ([]*models.Order, error)
	// GetOrder ищет заказ по паре (id, seller_id).
	GetOrder(ctx context.Context, id, sellerID int64) (*models.Order, error)
}

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateOrderTx(ctx context.Context, tx *sql.Tx, sellerID int64, orderType models.OrderType) (int64, error) {
	var id int64
	query := "INSERT INTO orders (seller_id, type, total_price, created_at) VALUES ($1, $2, 0, NOW()) RETURNING id"
	if err := tx.QueryRowContext(ctx, query, sellerID, string(orderType)).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create order: %w", err)
	}
	return id, nil
}

func (r *orderRepository) UpdateOrderTotalTx(ctx context.Context, tx *sql.Tx, orderID int64, total decimal.Decimal) error {
	res, err := tx.ExecContext(ctx, "UPDATE orders SET total_price = $1 WHERE id = $2", total, orderID)
	if err != nil {
		return fmt.Errorf("failed to update order total: %w", err)
	}
	return expectOneRow(res, ErrOrderNotFound)
}

func (r *orderRepository) ListOrdersBySeller(ctx context.Context, sellerID int64) ([]*models.Order, error) {
	query := `
		SELECT id, seller_id, type, total_price, created_at
		FROM orders
		WHERE seller_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		order := &models.Order{}
		var orderType string
		if err := rows.Scan(&order.ID, &order.SellerID, &orderType, &order.TotalPrice, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		order.Type = models.OrderType(orderType)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) GetOrder(ctx context.Context, id, sellerID int64) (*models.Order, error) {
	order := &models.Order{}
	var orderType string
	row := r.db.QueryRowContext(ctx,
		"SELECT id, seller_id, type, total_price, created_at FROM orders WHERE id = $1 AND seller_id = $2",
		id, sellerID,
	)
	if err := row.Scan(&order.ID, &order.SellerID, &orderType, &order.TotalPrice, &order.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	order.Type = models.OrderType(orderType)
	return order, nil
}
