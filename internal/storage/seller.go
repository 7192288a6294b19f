package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/linemk/inventory-system/internal/domain/models"
)

var (
	ErrSellerNotFound = errors.New("seller not found")
	ErrUsernameTaken  = errors.New("username already exists")
)

type SellerStorage interface {
	GetSellerByUsername(ctx context.Context, username string) (*models.Seller, error)
	CreateSeller(ctx context.Context, seller *models.Seller) (*models.Seller, error)
}

type sellerRepository struct {
	db *sql.DB
}

func NewSellerRepository(db *sql.DB) SellerStorage {
	return &sellerRepository{db: db}
}

func (r *sellerRepository) GetSellerByUsername(ctx context.Context, username string) (*models.Seller, error) {
	seller := &models.Seller{}
	row := r.db.QueryRowContext(ctx, "SELECT id, name, username, pass_hash FROM sellers WHERE username = $1", username)
	if err := row.Scan(&seller.ID, &seller.Name, &seller.Username, &seller.PassHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSellerNotFound
		}
		return nil, err
	}
	return seller, nil
}

// CreateSeller регистрирует продавца; занятый username отдаётся как ErrUsernameTaken
func (r *sellerRepository) CreateSeller(ctx context.Context, seller *models.Seller) (*models.Seller, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO sellers (name, username, pass_hash) VALUES ($1, $2, $3) RETURNING id",
		seller.Name, seller.Username, seller.PassHash,
	).Scan(&id)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	seller.ID = id
	return seller, nil
}
