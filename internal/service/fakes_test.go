package service_test

import (
	"context"
	"database/sql"

	"github.com/linemk/inventory-system/internal/domain/models"
	"github.com/linemk/inventory-system/internal/storage"
)

type fakeSellerRepo struct {
	sellers   map[string]*models.Seller // по username
	createErr error
}

var _ storage.SellerStorage = (*fakeSellerRepo)(nil)

func newFakeSellerRepo() *fakeSellerRepo {
	return &fakeSellerRepo{sellers: make(map[string]*models.Seller)}
}

func (f *fakeSellerRepo) GetSellerByUsername(ctx context.Context, username string) (*models.Seller, error) {
	seller, ok := f.sellers[username]
	if !ok {
		return nil, storage.ErrSellerNotFound
	}
	return seller, nil
}

func (f *fakeSellerRepo) CreateSeller(ctx context.Context, seller *models.Seller) (*models.Seller, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	seller.ID = int64(len(f.sellers) + 1)
	f.sellers[seller.Username] = seller
	return seller, nil
}

// fakeProductRepo хранит товары в памяти; транзакционные методы здесь не нужны
type fakeProductRepo struct {
	products map[int64]*models.Product
	nextID   int64
	err      error
}

var _ storage.ProductStorage = (*fakeProductRepo)(nil)

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[int64]*models.Product), nextID: 1}
}

func (f *fakeProductRepo) ListProductsBySeller(ctx context.Context, sellerID int64) ([]*models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.Product, 0)
	for id := int64(1); id < f.nextID; id++ {
		if p, ok := f.products[id]; ok && p.SellerID == sellerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) GetProduct(ctx context.Context, id, sellerID int64) (*models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok || p.SellerID != sellerID {
		return nil, storage.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	product.ID = f.nextID
	f.nextID++
	cp := *product
	f.products[product.ID] = &cp
	return product, nil
}

func (f *fakeProductRepo) UpdateProduct(ctx context.Context, product *models.Product) error {
	p, ok := f.products[product.ID]
	if !ok || p.SellerID != product.SellerID {
		return storage.ErrProductNotFound
	}
	cp := *product
	f.products[product.ID] = &cp
	return nil
}

func (f *fakeProductRepo) DeleteProduct(ctx context.Context, id, sellerID int64) error {
	p, ok := f.products[id]
	if !ok || p.SellerID != sellerID {
		return storage.ErrProductNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProductRepo) LockProductTx(ctx context.Context, tx *sql.Tx, id, sellerID int64) (*models.Product, error) {
	return f.GetProduct(ctx, id, sellerID)
}

func (f *fakeProductRepo) AdjustQuantityTx(ctx context.Context, tx *sql.Tx, id int64, delta int) error {
	p, ok := f.products[id]
	if !ok {
		return storage.ErrProductNotFound
	}
	p.Quantity += delta
	return nil
}
