package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/linemk/inventory-system/internal/domain/models"
	"github.com/linemk/inventory-system/internal/storage"
	"github.com/shopspring/decimal"
)

// maxPrice верхняя граница NUMERIC(10,2)
var maxPrice = decimal.RequireFromString("99999999.99")

// ProductInput сырые значения полей формы товара
type ProductInput struct {
	Name     string
	Price    string
	Quantity string
	Category string
	Expiry   string
}

type CatalogService interface {
	List(ctx context.Context, sellerID int64) ([]*models.Product, error)
	Get(ctx context.Context, sellerID, id int64) (*models.Product, error)
	Create(ctx context.Context, sellerID int64, in ProductInput) (*models.Product, error)
	Update(ctx context.Context, sellerID, id int64, in ProductInput) (*models.Product, error)
	Delete(ctx context.Context, sellerID, id int64) error
}

type catalogService struct {
	log         *slog.Logger
	productRepo storage.ProductStorage
}

func NewCatalogService(log *slog.Logger, productRepo storage.ProductStorage) CatalogService {
	return &catalogService{
		log:         log,
		productRepo: productRepo,
	}
}

func (s *catalogService) List(ctx context.Context, sellerID int64) ([]*models.Product, error) {
	const op = "service.CatalogService.List"

	products, err := s.productRepo.ListProductsBySeller(ctx, sellerID)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Int64("sellerID", sellerID), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

func (s *catalogService) Get(ctx context.Context, sellerID, id int64) (*models.Product, error) {
	const op = "service.CatalogService.Get"

	product, err := s.productRepo.GetProduct(ctx, id, sellerID)
	if err != nil {
		return nil, s.translate(op, sellerID, id, err)
	}
	return product, nil
}

func (s *catalogService) Create(ctx context.Context, sellerID int64, in ProductInput) (*models.Product, error) {
	const op = "service.CatalogService.Create"
	logger := s.log.With(slog.String("op", op), slog.Int64("sellerID", sellerID))

	product, err := parseProductInput(in)
	if err != nil {
		logger.Info("invalid product input", slog.Any("error", err))
		return nil, err
	}
	product.SellerID = sellerID

	created, err := s.productRepo.CreateProduct(ctx, product)
	if err != nil {
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("product created", slog.Int64("productID", created.ID))
	return created, nil
}

func (s *catalogService) Update(ctx context.Context, sellerID, id int64, in ProductInput) (*models.Product, error) {
	const op = "service.CatalogService.Update"
	logger := s.log.With(slog.String("op", op), slog.Int64("sellerID", sellerID), slog.Int64("productID", id))

	product, err := parseProductInput(in)
	if err != nil {
		logger.Info("invalid product input", slog.Any("error", err))
		return nil, err
	}
	product.ID = id
	product.SellerID = sellerID

	if err := s.productRepo.UpdateProduct(ctx, product); err != nil {
		return nil, s.translate(op, sellerID, id, err)
	}

	logger.Info("product updated")
	return product, nil
}

func (s *catalogService) Delete(ctx context.Context, sellerID, id int64) error {
	const op = "service.CatalogService.Delete"

	if err := s.productRepo.DeleteProduct(ctx, id, sellerID); err != nil {
		return s.translate(op, sellerID, id, err)
	}

	s.log.Info("product deleted", slog.String("op", op), slog.Int64("sellerID", sellerID), slog.Int64("productID", id))
	return nil
}

// translate сводит ошибки хранилища к таксономии сервиса
func (s *catalogService) translate(op string, sellerID, id int64, err error) error {
	if errors.Is(err, storage.ErrProductNotFound) {
		return ErrNotFound
	}
	s.log.Error("product storage failure",
		slog.String("op", op),
		slog.Int64("sellerID", sellerID),
		slog.Int64("productID", id),
		slog.Any("error", err),
	)
	return fmt.Errorf("%s: %w", op, err)
}

// parseProductInput приводит цену к 2 знакам, количество к целому, срок годности к дате.
// Текст ошибки парсера попадает в сообщение без изменений.
func parseProductInput(in ProductInput) (*models.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, newValidationError("name", "name is required")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(in.Price))
	if err != nil {
		return nil, newValidationError("price", "invalid price: %v", err)
	}
	price = price.Round(2)
	if price.IsNegative() {
		return nil, newValidationError("price", "invalid price: must not be negative")
	}
	if price.GreaterThan(maxPrice) {
		return nil, newValidationError("price", "invalid price: must not exceed %s", maxPrice.StringFixed(2))
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(in.Quantity))
	if err != nil {
		return nil, newValidationError("quantity", "invalid quantity: %v", err)
	}

	product := &models.Product{
		Name:     name,
		Price:    price,
		Quantity: quantity,
		Category: strings.TrimSpace(in.Category),
	}

	if expiry := strings.TrimSpace(in.Expiry); expiry != "" {
		t, err := time.Parse(models.ExpiryLayout, expiry)
		if err != nil {
			return nil, newValidationError("expiry", "invalid expiry: %v", err)
		}
		product.Expiry = &t
	}

	return product, nil
}
