package service_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"log/slog"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/linemk/inventory-system/internal/domain/models"
	"github.com/linemk/inventory-system/internal/service"
	"github.com/linemk/inventory-system/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decimalArg struct {
	want string
}

func (a decimalArg) Match(v driver.Value) bool {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case []byte:
		s = string(x)
	default:
		return false
	}
	got, err := decimal.NewFromString(s)
	return err == nil && got.Equal(decimal.RequireFromString(a.want))
}

type fakePublisher struct {
	events []models.OrderCommitted
	err    error
}

func (f *fakePublisher) PublishOrderCommitted(ctx context.Context, event models.OrderCommitted) error {
	f.events = append(f.events, event)
	return f.err
}

var (
	productColumns = []string{"id", "seller_id", "name", "price", "quantity", "category", "expiry"}

	insertOrderSQL = regexp.QuoteMeta("INSERT INTO orders (seller_id, type, total_price, created_at) VALUES ($1, $2, 0, NOW()) RETURNING id")
	lockProductSQL = regexp.QuoteMeta("SELECT id, seller_id, name, price, quantity, category, expiry FROM products WHERE id = $1 AND seller_id = $2 FOR UPDATE NOWAIT")
	insertItemSQL  = regexp.QuoteMeta("INSERT INTO order_items (order_id, product_id, quantity, price) VALUES ($1, $2, $3, $4) RETURNING id")
	adjustQtySQL   = regexp.QuoteMeta("UPDATE products SET quantity = quantity + $1 WHERE id = $2")
	updateTotalSQL = regexp.QuoteMeta("UPDATE orders SET total_price = $1 WHERE id = $2")
)

func newOrderService(t *testing.T) (service.OrderService, sqlmock.Sqlmock, *fakePublisher) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	publisher := &fakePublisher{}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := service.NewOrderService(logger, db,
		storage.NewProductRepository(db),
		storage.NewOrderRepository(db),
		storage.NewOrderItemRepository(db),
		publisher,
	)
	return svc, mock, publisher
}

// twoLineDraft черновик из примера: X x3 по 2.00 и Y x1 по 5.00
func twoLineDraft() *models.Draft {
	return &models.Draft{Items: []models.DraftItem{
		{ProductID: 10, Name: "X", Quantity: 3, Price: decimal.RequireFromString("2.00")},
		{ProductID: 20, Name: "Y", Quantity: 1, Price: decimal.RequireFromString("5.00")},
	}}
}

func expectLine(mock sqlmock.Sqlmock, orderID, productID, sellerID int64, name string, qty int, price string, delta int) {
	mock.ExpectQuery(lockProductSQL).WithArgs(productID, sellerID).
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow(productID, sellerID, name, price, 50, "", nil))
	mock.ExpectQuery(insertItemSQL).WithArgs(orderID, productID, qty, decimalArg{want: price}).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(productID * 10))
	mock.ExpectExec(adjustQtySQL).WithArgs(delta, productID).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestOrderService_Submit_Outgoing(t *testing.T) {
	svc, mock, publisher := newOrderService(t)
	draft := twoLineDraft()

	mock.ExpectBegin()
	mock.ExpectQuery(insertOrderSQL).WithArgs(int64(1), "Outgoing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
	expectLine(mock, 100, 10, 1, "X", 3, "2.00", -3)
	expectLine(mock, 100, 20, 1, "Y", 1, "5.00", -1)
	mock.ExpectExec(updateTotalSQL).WithArgs(decimalArg{want: "11.00"}, int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order, err := svc.Submit(context.Background(), 1, draft, "Outgoing")
	require.NoError(t, err)
	assert.Equal(t, int64(100), order.ID)
	assert.Equal(t, models.OrderOutgoing, order.Type)
	assert.Equal(t, "11.00", order.TotalPrice.StringFixed(2))
	assert.True(t, draft.IsEmpty(), "draft must be cleared after commit")

	require.Len(t, publisher.events, 1)
	assert.Equal(t, int64(100), publisher.events[0].OrderID)
	assert.Equal(t, -3, publisher.events[0].Items[0].Delta)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Submit_Incoming(t *testing.T) {
	svc, mock, _ := newOrderService(t)
	draft := twoLineDraft()

	mock.ExpectBegin()
	mock.ExpectQuery(insertOrderSQL).WithArgs(int64(1), "Incoming").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))
	expectLine(mock, 101, 10, 1, "X", 3, "2.00", 3)
	expectLine(mock, 101, 20, 1, "Y", 1, "5.00", 1)
	mock.ExpectExec(updateTotalSQL).WithArgs(decimalArg{want: "11.00"}, int64(101)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order, err := svc.Submit(context.Background(), 1, draft, "Incoming")
	require.NoError(t, err)
	assert.Equal(t, "11.00", order.TotalPrice.StringFixed(2))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Submit_EmptyDraft(t *testing.T) {
	svc, mock, publisher := newOrderService(t)

	// ни одного запроса к БД не ожидается
	_, err := svc.Submit(context.Background(), 1, &models.Draft{}, "Outgoing")
	assert.ErrorIs(t, err, service.ErrEmptyDraft)

	_, err = svc.Submit(context.Background(), 1, nil, "Outgoing")
	assert.ErrorIs(t, err, service.ErrEmptyDraft)

	assert.Empty(t, publisher.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Submit_InvalidType(t *testing.T) {
	svc, mock, _ := newOrderService(t)

	_, err := svc.Submit(context.Background(), 1, twoLineDraft(), "Sideways")
	var verr *service.ValidationError
	assert.True(t, errors.As(err, &verr))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Submit_StaleItemRollsBack(t *testing.T) {
	svc, mock, publisher := newOrderService(t)
	draft := twoLineDraft()

	mock.ExpectBegin()
	mock.ExpectQuery(insertOrderSQL).WithArgs(int64(1), "Outgoing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
	expectLine(mock, 100, 10, 1, "X", 3, "2.00", -3)
	// товар Y удалён между добавлением в черновик и отправкой
	mock.ExpectQuery(lockProductSQL).WithArgs(int64(20), int64(1)).
		WillReturnRows(sqlmock.NewRows(productColumns))
	mock.ExpectRollback()

	order, err := svc.Submit(context.Background(), 1, draft, "Outgoing")
	assert.Nil(t, order)
	assert.ErrorIs(t, err, service.ErrStaleDraftItem)

	var stale *service.StaleItemError
	require.True(t, errors.As(err, &stale))
	assert.Equal(t, int64(20), stale.ProductID)
	assert.Equal(t, "Y", stale.Name)

	assert.Len(t, draft.Items, 2, "draft must be kept after a failed commit")
	assert.Empty(t, publisher.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Submit_LockedProductIsConflict(t *testing.T) {
	svc, mock, _ := newOrderService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(insertOrderSQL).WithArgs(int64(1), "Outgoing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
	mock.ExpectQuery(lockProductSQL).WithArgs(int64(10), int64(1)).
		WillReturnError(&pq.Error{Code: "55P03"})
	mock.ExpectRollback()

	_, err := svc.Submit(context.Background(), 1, twoLineDraft(), "Outgoing")
	assert.ErrorIs(t, err, service.ErrConflict)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Submit_ItemInsertFailureRollsBack(t *testing.T) {
	svc, mock, _ := newOrderService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(insertOrderSQL).WithArgs(int64(1), "Outgoing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
	mock.ExpectQuery(lockProductSQL).WithArgs(int64(10), int64(1)).
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow(10, 1, "X", "2.00", 5, "", nil))
	mock.ExpectQuery(insertItemSQL).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := svc.Submit(context.Background(), 1, twoLineDraft(), "Outgoing")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrStaleDraftItem)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Submit_PublishFailureKeepsOrder(t *testing.T) {
	svc, mock, publisher := newOrderService(t)
	publisher.err = errors.New("broker down")

	draft := &models.Draft{Items: []models.DraftItem{
		{ProductID: 10, Name: "X", Quantity: 2, Price: decimal.RequireFromString("0.10")},
	}}

	mock.ExpectBegin()
	mock.ExpectQuery(insertOrderSQL).WithArgs(int64(1), "Incoming").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	expectLine(mock, 5, 10, 1, "X", 2, "0.10", 2)
	mock.ExpectExec(updateTotalSQL).WithArgs(decimalArg{want: "0.20"}, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order, err := svc.Submit(context.Background(), 1, draft, "Incoming")
	require.NoError(t, err)
	assert.Equal(t, "0.20", order.TotalPrice.StringFixed(2))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_AddItem(t *testing.T) {
	svc, mock, _ := newOrderService(t)
	draft := &models.Draft{}

	getSQL := regexp.QuoteMeta("SELECT id, seller_id, name, price, quantity, category, expiry FROM products WHERE id = $1 AND seller_id = $2")
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(getSQL).WithArgs(int64(10), int64(1)).
			WillReturnRows(sqlmock.NewRows(productColumns).AddRow(10, 1, "X", "2.00", 5, "", nil))
	}

	item, err := svc.AddItem(context.Background(), 1, draft, service.AddItemInput{ProductID: "10", Quantity: "3"})
	require.NoError(t, err)
	assert.Equal(t, "X", item.Name)
	assert.Equal(t, "2.00", item.Price.StringFixed(2))

	_, err = svc.AddItem(context.Background(), 1, draft, service.AddItemInput{ProductID: "10", Quantity: "1"})
	require.NoError(t, err)

	// дубликаты не схлопываются
	require.Len(t, draft.Items, 2)
	assert.Equal(t, 3, draft.Items[0].Quantity)
	assert.Equal(t, 1, draft.Items[1].Quantity)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_AddItem_InvalidProductID(t *testing.T) {
	svc, mock, _ := newOrderService(t)
	draft := &models.Draft{}

	for _, raw := range []string{"", "abc", "-1", "1.5", "0"} {
		_, err := svc.AddItem(context.Background(), 1, draft, service.AddItemInput{ProductID: raw, Quantity: "1"})
		assert.ErrorIs(t, err, service.ErrInvalidDraftItem, "product id %q", raw)
	}
	assert.True(t, draft.IsEmpty())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_AddItem_InvalidQuantity(t *testing.T) {
	svc, mock, _ := newOrderService(t)

	for _, raw := range []string{"", "x", "0", "-2"} {
		_, err := svc.AddItem(context.Background(), 1, &models.Draft{}, service.AddItemInput{ProductID: "10", Quantity: raw})
		var verr *service.ValidationError
		assert.True(t, errors.As(err, &verr), "quantity %q", raw)
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_AddItem_OtherSellersProduct(t *testing.T) {
	svc, mock, _ := newOrderService(t)
	draft := &models.Draft{}

	mock.ExpectQuery("FROM products WHERE id = \\$1 AND seller_id = \\$2").WithArgs(int64(10), int64(2)).
		WillReturnRows(sqlmock.NewRows(productColumns))

	_, err := svc.AddItem(context.Background(), 2, draft, service.AddItemInput{ProductID: "10", Quantity: "1"})
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.True(t, draft.IsEmpty())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_RemoveItem(t *testing.T) {
	svc, _, _ := newOrderService(t)
	draft := twoLineDraft()

	assert.NoError(t, svc.RemoveItem(draft, 0))
	assert.Equal(t, int64(20), draft.Items[0].ProductID)
	assert.ErrorIs(t, svc.RemoveItem(draft, 3), service.ErrNotFound)

	svc.ClearDraft(draft)
	assert.True(t, draft.IsEmpty())
}

func TestOrderService_DraftView(t *testing.T) {
	svc, mock, _ := newOrderService(t)

	mock.ExpectQuery("FROM products WHERE seller_id = \\$1").WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow(10, 1, "X", "2.00", 5, "", nil))

	view, err := svc.DraftView(context.Background(), 1, twoLineDraft())
	require.NoError(t, err)
	assert.Len(t, view.Products, 1)
	assert.Len(t, view.Items, 2)
	assert.Equal(t, "11.00", view.Total.StringFixed(2))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Detail(t *testing.T) {
	svc, mock, _ := newOrderService(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, seller_id, type, total_price, created_at FROM orders WHERE id = $1 AND seller_id = $2")).
		WithArgs(int64(100), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seller_id", "type", "total_price", "created_at"}).
			AddRow(100, 1, "Outgoing", "11.00", time.Now()))
	mock.ExpectQuery("FROM order_items oi LEFT JOIN products p").WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "quantity", "price"}).
			AddRow(1, "X", 3, "2.00").
			AddRow(2, nil, 1, "5.00"))

	detail, err := svc.Detail(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.Equal(t, models.OrderOutgoing, detail.Order.Type)
	require.Len(t, detail.Lines, 2)
	assert.Equal(t, models.DeletedProductName, detail.Lines[1].ProductName)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Detail_OtherSeller(t *testing.T) {
	svc, mock, _ := newOrderService(t)

	mock.ExpectQuery("FROM orders WHERE id = \\$1 AND seller_id = \\$2").WithArgs(int64(100), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seller_id", "type", "total_price", "created_at"}))

	detail, err := svc.Detail(context.Background(), 2, 100)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Nil(t, detail)

	assert.NoError(t, mock.ExpectationsWereMet())
}
