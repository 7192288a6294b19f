package service

import (
	"context"
	"database/sql"
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

// AddItemInput сырые поля формы добавления строки в черновик
type AddItemInput struct {
	ProductID string
	Quantity  string
}

// DraftView данные экрана создания заказа
type DraftView struct {
	Products []*models.Product
	Items    []models.DraftItem
	Total    decimal.Decimal
}

// OrderDetail заказ со строками
type OrderDetail struct {
	Order *models.Order
	Lines []*models.OrderLine
}

// OrderService движок заказов. Черновик передаётся явно и живёт в сессии вызывающего.
type OrderService interface {
	List(ctx context.Context, sellerID int64) ([]*models.Order, error)
	DraftView(ctx context.Context, sellerID int64, draft *models.Draft) (*DraftView, error)
	AddItem(ctx context.Context, sellerID int64, draft *models.Draft, in AddItemInput) (*models.DraftItem, error)
	RemoveItem(draft *models.Draft, index int) error
	ClearDraft(draft *models.Draft)
	Submit(ctx context.Context, sellerID int64, draft *models.Draft, orderType string) (*models.Order, error)
	Detail(ctx context.Context, sellerID, orderID int64) (*OrderDetail, error)
}

type orderService struct {
	log         *slog.Logger
	db          *sql.DB
	productRepo storage.ProductStorage
	orderRepo   storage.OrderStorage
	itemRepo    storage.OrderItemStorage
	publisher   OrderEventPublisher
	now         func() time.Time
}

func NewOrderService(
	log *slog.Logger,
	db *sql.DB,
	productRepo storage.ProductStorage,
	orderRepo storage.OrderStorage,
	itemRepo storage.OrderItemStorage,
	publisher OrderEventPublisher,
) OrderService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &orderService{
		log:         log,
		db:          db,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		itemRepo:    itemRepo,
		publisher:   publisher,
		now:         time.Now,
	}
}

func (s *orderService) List(ctx context.Context, sellerID int64) ([]*models.Order, error) {
	const op = "service.OrderService.List"

	orders, err := s.orderRepo.ListOrdersBySeller(ctx, sellerID)
	if err != nil {
		s.log.Error("failed to list orders", slog.String("op", op), slog.Int64("sellerID", sellerID), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

func (s *orderService) DraftView(ctx context.Context, sellerID int64, draft *models.Draft) (*DraftView, error) {
	const op = "service.OrderService.DraftView"

	products, err := s.productRepo.ListProductsBySeller(ctx, sellerID)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Int64("sellerID", sellerID), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	view := &DraftView{
		Products: products,
		Items:    []models.DraftItem{},
		Total:    draft.Total(),
	}
	if draft != nil {
		view.Items = draft.Items
	}
	return view, nil
}

// AddItem добавляет строку в черновик.
// Товар ищется только среди товаров продавца; повторное добавление даёт новую строку.
func (s *orderService) AddItem(ctx context.Context, sellerID int64, draft *models.Draft, in AddItemInput) (*models.DraftItem, error) {
	const op = "service.OrderService.AddItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("sellerID", sellerID))

	productID, ok := parseID(in.ProductID)
	if !ok {
		logger.Debug("product id missing or not numeric", slog.String("productID", in.ProductID))
		return nil, ErrInvalidDraftItem
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(in.Quantity))
	if err != nil {
		return nil, newValidationError("quantity", "invalid quantity: %v", err)
	}
	if quantity <= 0 {
		return nil, newValidationError("quantity", "invalid quantity: must be greater than zero")
	}

	product, err := s.productRepo.GetProduct(ctx, productID, sellerID)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			logger.Info("product not found for draft", slog.Int64("productID", productID))
			return nil, ErrNotFound
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	item := models.DraftItem{
		ProductID: product.ID,
		Name:      product.Name,
		Quantity:  quantity,
		Price:     product.Price,
	}
	draft.Add(item)

	logger.Debug("draft item added", slog.Int64("productID", product.ID), slog.Int("quantity", quantity), slog.Int("lines", len(draft.Items)))
	return &item, nil
}

func (s *orderService) RemoveItem(draft *models.Draft, index int) error {
	if !draft.Remove(index) {
		return ErrNotFound
	}
	return nil
}

func (s *orderService) ClearDraft(draft *models.Draft) {
	draft.Clear()
}

// Submit атомарно фиксирует черновик: заголовок, строки и изменения остатков.
// Любая ошибка откатывает транзакцию целиком; после коммита черновик очищается.
func (s *orderService) Submit(ctx context.Context, sellerID int64, draft *models.Draft, orderType string) (*models.Order, error) {
	const op = "service.OrderService.Submit"
	logger := s.log.With(slog.String("op", op), slog.Int64("sellerID", sellerID), slog.String("type", orderType))

	if draft.IsEmpty() {
		return nil, ErrEmptyDraft
	}
	typ, ok := models.ParseOrderType(orderType)
	if !ok {
		return nil, newValidationError("order_type", "invalid order type %q", orderType)
	}

	logger.Info("starting order commit", slog.Int("lines", len(draft.Items)))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	rollback := func() {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
	}

	// Заголовок с нулевой суммой, сумма дописывается в конце
	orderID, err := s.orderRepo.CreateOrderTx(ctx, tx, sellerID, typ)
	if err != nil {
		rollback()
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	total := decimal.Zero
	events := make([]models.OrderCommittedItem, 0, len(draft.Items))

	for _, line := range draft.Items {
		// блокируем строку товара до конца транзакции
		product, err := s.productRepo.LockProductTx(ctx, tx, line.ProductID, sellerID)
		if err != nil {
			rollback()
			switch {
			case errors.Is(err, storage.ErrProductNotFound):
				logger.Warn("stale draft item", slog.Int64("productID", line.ProductID))
				return nil, &StaleItemError{ProductID: line.ProductID, Name: line.Name}
			case errors.Is(err, storage.ErrProductLocked):
				logger.Warn("product locked", slog.Int64("productID", line.ProductID))
				return nil, fmt.Errorf("%s: %w", op, ErrConflict)
			}
			logger.Error("failed to lock product", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to lock product: %w", op, err)
		}

		productID := product.ID
		if err := s.itemRepo.CreateOrderItemTx(ctx, tx, &models.OrderItem{
			OrderID:   orderID,
			ProductID: &productID,
			Quantity:  line.Quantity,
			Price:     line.Price,
		}); err != nil {
			rollback()
			logger.Error("failed to create order item", slog.Any("error", err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		delta := typ.Delta(line.Quantity)
		if err := s.productRepo.AdjustQuantityTx(ctx, tx, productID, delta); err != nil {
			rollback()
			logger.Error("failed to adjust quantity", slog.Int64("productID", productID), slog.Any("error", err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		total = total.Add(line.Total())
		events = append(events, models.OrderCommittedItem{
			ProductID: productID,
			Quantity:  line.Quantity,
			Price:     line.Price,
			Delta:     delta,
		})
	}

	if err := s.orderRepo.UpdateOrderTotalTx(ctx, tx, orderID, total); err != nil {
		rollback()
		logger.Error("failed to update order total", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	draft.Clear()
	committedAt := s.now()

	// ошибка публикации не отменяет уже зафиксированный заказ
	if err := s.publisher.PublishOrderCommitted(ctx, models.OrderCommitted{
		OrderID:     orderID,
		SellerID:    sellerID,
		Type:        typ,
		TotalPrice:  total,
		Items:       events,
		CommittedAt: committedAt,
	}); err != nil {
		logger.Error("failed to publish order event", slog.Int64("orderID", orderID), slog.Any("error", err))
	}

	logger.Info("order committed", slog.Int64("orderID", orderID), slog.String("total", total.StringFixed(2)))
	return &models.Order{
		ID:         orderID,
		SellerID:   sellerID,
		Type:       typ,
		TotalPrice: total,
		CreatedAt:  committedAt,
	}, nil
}

// Detail собирает заказ со строками; удалённые товары отображаются заглушкой
func (s *orderService) Detail(ctx context.Context, sellerID, orderID int64) (*OrderDetail, error) {
	const op = "service.OrderService.Detail"
	logger := s.log.With(slog.String("op", op), slog.Int64("sellerID", sellerID), slog.Int64("orderID", orderID))

	order, err := s.orderRepo.GetOrder(ctx, orderID, sellerID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, ErrNotFound
		}
		logger.Error("failed to get order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lines, err := s.itemRepo.ListOrderLines(ctx, order.ID)
	if err != nil {
		logger.Error("failed to list order lines", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &OrderDetail{Order: order, Lines: lines}, nil
}

// parseID принимает только непустую строку из цифр
func parseID(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
