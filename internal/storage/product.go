package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/inventory-system/internal/domain/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrProductLocked   = errors.New("product is locked by another transaction")
)

// ProductStorage описывает методы для работы с товарами.
// Все выборки, кроме транзакционной корректировки остатка, фильтруются по продавцу.
type ProductStorage interface {
	// ListProductsBySeller возвращает каталог продавца в порядке id.
	ListProductsBySeller(ctx context.Context, sellerID int64) ([]*models.Product, error)
	// GetProduct ищет товар по паре (id, seller_id).
	GetProduct(ctx context.Context, id, sellerID int64) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id, sellerID int64) error
	// LockProductTx берёт строку товара под FOR UPDATE NOWAIT внутри транзакции.
	LockProductTx(ctx context.Context, tx *sql.Tx, id, sellerID int64) (*models.Product, error)
	// AdjustQuantityTx прибавляет delta к остатку, проверок на минус нет.
	AdjustQuantityTx(ctx context.Context, tx *sql.Tx, id int64, delta int) error
}

type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

const productColumns = "id, seller_id, name, price, quantity, category, expiry"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	p := &models.Product{}
	var expiry sql.NullTime
	if err := row.Scan(&p.ID, &p.SellerID, &p.Name, &p.Price, &p.Quantity, &p.Category, &expiry); err != nil {
		return nil, err
	}
	if expiry.Valid {
		t := expiry.Time
		p.Expiry = &t
	}
	return p, nil
}

func nullExpiry(p *models.Product) sql.NullTime {
	if p.Expiry == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p.Expiry, Valid: true}
}

func (r *productRepository) ListProductsBySeller(ctx context.Context, sellerID int64) ([]*models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE seller_id = $1 ORDER BY id"
	rows, err := r.db.QueryContext(ctx, query, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]*models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) GetProduct(ctx context.Context, id, sellerID int64) (*models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE id = $1 AND seller_id = $2"
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id, sellerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO products (seller_id, name, price, quantity, category, expiry) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id",
		product.SellerID, product.Name, product.Price, product.Quantity, product.Category, nullExpiry(product),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	product.ID = id
	return product, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE products SET name = $1, price = $2, quantity = $3, category = $4, expiry = $5 WHERE id = $6 AND seller_id = $7",
		product.Name, product.Price, product.Quantity, product.Category, nullExpiry(product), product.ID, product.SellerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return expectOneRow(res, ErrProductNotFound)
}

func (r *productRepository) DeleteProduct(ctx context.Context, id, sellerID int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1 AND seller_id = $2", id, sellerID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return expectOneRow(res, ErrProductNotFound)
}

func (r *productRepository) LockProductTx(ctx context.Context, tx *sql.Tx, id, sellerID int64) (*models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE id = $1 AND seller_id = $2 FOR UPDATE NOWAIT"
	p, err := scanProduct(tx.QueryRowContext(ctx, query, id, sellerID))
	if err != nil {
		if pqCode(err) == pqLockNotAvailable {
			return nil, fmt.Errorf("%w: %w", ErrProductLocked, err)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

// остаток считается на стороне БД, чтобы не было гонки read-modify-write
func (r *productRepository) AdjustQuantityTx(ctx context.Context, tx *sql.Tx, id int64, delta int) error {
	res, err := tx.ExecContext(ctx, "UPDATE products SET quantity = quantity + $1 WHERE id = $2", delta, id)
	if err != nil {
		return fmt.Errorf("failed to adjust quantity: %w", err)
	}
	return expectOneRow(res, ErrProductNotFound)
}

func expectOneRow(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
